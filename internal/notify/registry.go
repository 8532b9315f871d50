package notify

import (
	"log/slog"
	"sync"

	"github.com/jonathan/medcontent/internal/ids"
	"github.com/jonathan/medcontent/internal/observability"
)

// Registry maps owners to their live subscriptions. It implements Notifier.
type Registry struct {
	mu      sync.RWMutex
	subs    map[string]map[string]Sink
	total   int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRegistry creates an empty registry. metrics may be nil.
func NewRegistry(logger *slog.Logger, metrics *observability.Metrics) *Registry {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Registry{
		subs:    make(map[string]map[string]Sink),
		logger:  logger,
		metrics: metrics,
	}
}

// Subscribe registers sink for ownerID and returns the new channel id.
func (r *Registry) Subscribe(ownerID string, sink Sink) string {
	channelID := ids.New()

	r.mu.Lock()
	owned, ok := r.subs[ownerID]
	if !ok {
		owned = make(map[string]Sink)
		r.subs[ownerID] = owned
	}
	owned[channelID] = sink
	r.total++
	total := r.total
	r.mu.Unlock()

	r.metrics.SetSubscribers(total)
	r.logger.Debug("subscriber registered", "owner_id", ownerID, "channel_id", channelID)
	return channelID
}

// Unsubscribe removes and closes a subscription. Unknown ids are ignored.
func (r *Registry) Unsubscribe(ownerID, channelID string) {
	if sink := r.remove(ownerID, channelID); sink != nil {
		sink.Close()
		r.logger.Debug("subscriber removed", "owner_id", ownerID, "channel_id", channelID)
	}
}

// Notify delivers evt to every subscription of ownerID. Failing sinks are dropped.
func (r *Registry) Notify(ownerID string, evt Event) {
	r.mu.RLock()
	owned := r.subs[ownerID]
	targets := make(map[string]Sink, len(owned))
	for id, sink := range owned {
		targets[id] = sink
	}
	r.mu.RUnlock()

	evt.OwnerID = ownerID
	for channelID, sink := range targets {
		err := sink.Send(evt)
		if err == nil {
			continue
		}
		sendErr := &SendError{OwnerID: ownerID, ChannelID: channelID, Cause: err}
		r.metrics.NotifyFailed()
		r.logger.Warn("dropping subscriber", "error", sendErr, "task_id", evt.TaskID, "stage", evt.Stage)
		// A concurrent Notify may have dropped it already.
		if removed := r.remove(ownerID, channelID); removed != nil {
			removed.Close()
		}
	}
}

// Count returns the number of subscriptions held for ownerID.
func (r *Registry) Count(ownerID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[ownerID])
}

// remove deletes the subscription and returns its sink, or nil if it was not registered.
// Channel ids are never reused.
func (r *Registry) remove(ownerID, channelID string) Sink {
	r.mu.Lock()
	owned := r.subs[ownerID]
	sink, ok := owned[channelID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(owned, channelID)
	if len(owned) == 0 {
		delete(r.subs, ownerID)
	}
	r.total--
	total := r.total
	r.mu.Unlock()

	r.metrics.SetSubscribers(total)
	return sink
}
