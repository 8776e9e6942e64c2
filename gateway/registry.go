package gateway

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"collabx/domain/chat"
)

// Registry maps a user id to the sinks of their live connections. The
// user id is the sole delivery address: every connection a user opens
// subscribes to the same logical channel.
type Registry struct {
	mu       sync.RWMutex
	channels map[chat.UserID]map[EventSink]struct{}
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[chat.UserID]map[EventSink]struct{})}
}

// Subscribe adds one connection's sink to the user's channel, creating
// the channel on first subscription.
func (r *Registry) Subscribe(userID chat.UserID, sink EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[userID]; !ok {
		r.channels[userID] = make(map[EventSink]struct{})
	}
	r.channels[userID][sink] = struct{}{}
}

// Unsubscribe drops one connection's sink and removes the channel entry
// once its last sink is gone, so the map does not grow unbounded.
func (r *Registry) Unsubscribe(userID chat.UserID, sink EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sinks, ok := r.channels[userID]; ok {
		delete(sinks, sink)
		if len(sinks) == 0 {
			delete(r.channels, userID)
		}
	}
}

// Publish delivers the envelope to every live sink of the user's channel
// and returns how many sinks received it. Zero means the user is offline;
// there is no queueing or retry.
func (r *Registry) Publish(ctx context.Context, userID chat.UserID, env Envelope) int {
	r.mu.RLock()
	sinks := lo.Keys(r.channels[userID])
	r.mu.RUnlock()

	delivered := 0
	for _, sink := range sinks {
		if err := sink.Consume(ctx, env); err == nil {
			delivered++
		}
	}
	return delivered
}

// Connected reports whether the user has at least one live connection.
func (r *Registry) Connected(userID chat.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[userID]) > 0
}
