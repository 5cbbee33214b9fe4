package realtime

import "sync"

// Reconciler keeps an ordered list of records merged from a history fetch and a push channel
// that may redeliver. Records are keyed by id; merge appends unseen records and never reorders.
type Reconciler[T any] struct {
	key   func(T) string
	mu    sync.RWMutex
	items []T
	seen  map[string]struct{}
}

// NewReconciler creates an empty reconciler keyed by key.
func NewReconciler[T any](key func(T) string) *Reconciler[T] {
	return &Reconciler[T]{key: key, seen: make(map[string]struct{})}
}

// Reset replaces the state with records, in the given order, dropping repeated ids.
func (r *Reconciler[T]) Reset(records []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make([]T, 0, len(records))
	r.seen = make(map[string]struct{}, len(records))
	for _, rec := range records {
		r.appendLocked(rec)
	}
}

// Merge appends rec unless a record with the same id is already present.
// It reports whether the state changed.
func (r *Reconciler[T]) Merge(rec T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendLocked(rec)
}

func (r *Reconciler[T]) appendLocked(rec T) bool {
	k := r.key(rec)
	if _, dup := r.seen[k]; dup {
		return false
	}
	r.seen[k] = struct{}{}
	r.items = append(r.items, rec)
	return true
}

// Items returns a copy of the current records.
func (r *Reconciler[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of records.
func (r *Reconciler[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
