package realtime

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/weddingbets/backend/internal/models"
)

func messageKey(m models.Message) string { return m.ID.String() }

func TestReconcilerDedupLeavesStateUnchanged(t *testing.T) {
	r := NewReconciler(messageKey)
	existing := models.Message{ID: uuid.New(), Content: "first"}
	r.Reset([]models.Message{existing})

	changed := r.Merge(models.Message{ID: existing.ID, Content: "redelivered"})

	assert.False(t, changed)
	assert.Equal(t, []models.Message{existing}, r.Items())
}

func TestReconcilerAppendsInArrivalOrder(t *testing.T) {
	r := NewReconciler(messageKey)
	base := time.Date(2026, 6, 20, 18, 0, 0, 0, time.UTC)
	var pushed []models.Message
	for i := 0; i < 5; i++ {
		// timestamps deliberately out of order: merge must not re-sort
		m := models.Message{ID: uuid.New(), Content: fmt.Sprintf("m%d", i), Timestamp: base.Add(time.Duration(5-i) * time.Second)}
		pushed = append(pushed, m)
		assert.True(t, r.Merge(m))
	}
	assert.Equal(t, pushed, r.Items())
	assert.Equal(t, 5, r.Len())
}

func TestReconcilerResetDropsRepeatedIDs(t *testing.T) {
	r := NewReconciler(messageKey)
	a := models.Message{ID: uuid.New(), Content: "a"}
	b := models.Message{ID: uuid.New(), Content: "b"}
	r.Reset([]models.Message{a, b, a})
	assert.Equal(t, []models.Message{a, b}, r.Items())

	r.Reset(nil)
	assert.Equal(t, 0, r.Len())
	assert.True(t, r.Merge(a), "reset forgets previously seen ids")
}

func TestReconcilerItemsIsACopy(t *testing.T) {
	r := NewReconciler(messageKey)
	r.Merge(models.Message{ID: uuid.New(), Content: "a"})
	items := r.Items()
	items[0].Content = "changed"
	assert.Equal(t, "a", r.Items()[0].Content)
}
