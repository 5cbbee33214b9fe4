package timergate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Parts is a remaining duration split for display.
type Parts struct {
	Hours   int
	Minutes int
	Seconds int
}

// Remaining returns end-now floored to whole seconds, never negative.
func Remaining(now, end time.Time) Parts {
	d := end.Sub(now)
	if d <= 0 {
		return Parts{}
	}
	secs := int(d / time.Second)
	return Parts{
		Hours:   secs / 3600,
		Minutes: (secs % 3600) / 60,
		Seconds: secs % 60,
	}
}

// Zero reports whether nothing remains.
func (p Parts) Zero() bool {
	return p.Hours == 0 && p.Minutes == 0 && p.Seconds == 0
}

func (p Parts) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", p.Hours, p.Minutes, p.Seconds)
}

// FormatCountdown renders d as HH:MM:SS. Negative durations render as 00:00:00.
func FormatCountdown(d time.Duration) string {
	var zero time.Time
	return Remaining(zero, zero.Add(d)).String()
}

// Countdown ticks once per second until end, then fires onExpire exactly once.
type Countdown struct {
	clock    clockwork.Clock
	end      time.Time
	onTick   func(string)
	onExpire func()

	mu      sync.Mutex
	expired bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewCountdown creates a countdown to end. Either callback may be nil.
func NewCountdown(clock clockwork.Clock, end time.Time, onTick func(string), onExpire func()) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{clock: clock, end: end, onTick: onTick, onExpire: onExpire}
}

// Start renders the current value immediately and begins ticking. A countdown that is
// already expired fires onExpire right away and does not tick.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	if c.Tick(c.clock.Now()) {
		close(c.done)
		return
	}
	ticker := c.clock.NewTicker(time.Second)
	go c.run(ctx, ticker)
}

func (c *Countdown) run(ctx context.Context, ticker clockwork.Ticker) {
	defer close(c.done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.Chan():
			if c.Tick(now) {
				return
			}
		}
	}
}

// Tick renders the value at now and reports whether the countdown has expired.
// onExpire fires on the first expired tick only.
func (c *Countdown) Tick(now time.Time) bool {
	parts := Remaining(now, c.end)
	if c.onTick != nil {
		c.onTick(parts.String())
	}
	if !parts.Zero() {
		return false
	}
	c.mu.Lock()
	first := !c.expired
	c.expired = true
	c.mu.Unlock()
	if first && c.onExpire != nil {
		c.onExpire()
	}
	return true
}

// Expired reports whether onExpire has fired.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Stop cancels the ticker and waits for the loop to exit. Safe to call more than once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
