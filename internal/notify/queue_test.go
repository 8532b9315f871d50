package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_SendAndDrain(t *testing.T) {
	q := NewQueue(2)

	assert.NoError(t, q.Send(Event{Stage: "a"}))
	assert.NoError(t, q.Send(Event{Stage: "b"}))
	assert.ErrorIs(t, q.Send(Event{Stage: "c"}), ErrQueueFull)

	assert.Equal(t, "a", (<-q.Events()).Stage)
	assert.Equal(t, "b", (<-q.Events()).Stage)
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(1)

	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Send(Event{}), ErrQueueClosed)
	_, ok := <-q.Events()
	assert.False(t, ok)
}

func TestQueue_MinimumSize(t *testing.T) {
	q := NewQueue(0)

	assert.NoError(t, q.Send(Event{}))
	assert.ErrorIs(t, q.Send(Event{}), ErrQueueFull)
}

func TestSendError(t *testing.T) {
	err := &SendError{OwnerID: "o", ChannelID: "c", Cause: ErrQueueFull}

	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Contains(t, err.Error(), "channel c")
}
