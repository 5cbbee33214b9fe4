package realtime

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopic(t *testing.T) {
	id := uuid.New()
	for _, topic := range []string{RoomTopic(id), PollTopic(id), GameTopic(id)} {
		kind, got, err := ParseTopic(topic)
		require.NoError(t, err, topic)
		assert.Equal(t, id, got)
		assert.Contains(t, []string{KindRoom, KindPoll, KindGame}, kind)
	}

	for _, bad := range []string{"", "room", "room:", "room:not-a-uuid", "lobby:" + id.String()} {
		_, _, err := ParseTopic(bad)
		assert.ErrorIs(t, err, ErrInvalidTopic, bad)
	}
}

func TestCanonicalTopic(t *testing.T) {
	id := uuid.New()
	want := RoomTopic(id)
	for _, in := range []string{
		want,
		"room:" + strings.ToUpper(id.String()),
		"room:{" + id.String() + "}",
		"room:urn:uuid:" + id.String(),
	} {
		got, err := CanonicalTopic(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := CanonicalTopic("room:nope")
	assert.ErrorIs(t, err, ErrInvalidTopic)
}
