// Package notify fans pipeline progress events out to live subscribers.
//
// Delivery is best effort: a subscriber whose sink fails is dropped and the failure is
// logged, but the publisher never sees an error. The registry is process-local.
package notify

// EventType distinguishes progress, completion and error messages.
type EventType string

// Event types.
const (
	EventProgress   EventType = "progress"
	EventCompletion EventType = "completion"
	EventError      EventType = "error"
)

// Event is one message delivered to subscribers.
type Event struct {
	Type     EventType `json:"type"`
	TaskID   string    `json:"task_id"`
	Stage    string    `json:"stage,omitempty"`
	Progress int       `json:"progress"`
	Message  string    `json:"message"`
	Data     any       `json:"data,omitempty"`

	// OwnerID is stamped by the registry on delivery. Subscribers already know
	// their owner, so it stays off the wire.
	OwnerID string `json:"-"`
}

// Notifier delivers events to an owner's subscribers.
type Notifier interface {
	Notify(ownerID string, evt Event)
}

// Nop is a Notifier that drops every event.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(string, Event) {}
