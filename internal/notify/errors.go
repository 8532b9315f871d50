package notify

import (
	"errors"
	"fmt"
)

// ErrQueueFull is returned by Queue.Send when the subscriber is not keeping up.
var ErrQueueFull = errors.New("queue full")

// ErrQueueClosed is returned by Queue.Send after Close.
var ErrQueueClosed = errors.New("queue closed")

// SendError records a failed delivery to one channel. It is logged, never returned to
// the publisher.
type SendError struct {
	OwnerID   string
	ChannelID string
	Cause     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("notify send error: owner %s channel %s: %v", e.OwnerID, e.ChannelID, e.Cause)
}

func (e *SendError) Unwrap() error {
	return e.Cause
}
