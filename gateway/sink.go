package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventSink is one live delivery channel to a connected user.
type EventSink interface {
	Consume(ctx context.Context, env Envelope) error
}

// ChannelSink buffers envelopes for a single websocket connection. The
// write pump drains Events; producers time out instead of blocking so a
// stalled connection never backs up the gateway. Events is never closed:
// shutdown is signaled through done, so a producer blocked in the send
// is released instead of panicking when the connection goes away.
type ChannelSink struct {
	Events chan Envelope

	log             *slog.Logger
	deliveryTimeout time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

func NewChannelSink(log *slog.Logger, bufferSize int, deliveryTimeout time.Duration) *ChannelSink {
	return &ChannelSink{
		Events:          make(chan Envelope, bufferSize),
		log:             log,
		deliveryTimeout: deliveryTimeout,
		done:            make(chan struct{}),
	}
}

// Consume enqueues the envelope for delivery. Envelopes are dropped when
// the buffer stays full past the delivery timeout or the sink is closed;
// the realtime channel is best-effort by contract.
func (s *ChannelSink) Consume(ctx context.Context, env Envelope) error {
	timer := time.NewTimer(s.deliveryTimeout)
	defer timer.Stop()

	select {
	case s.Events <- env:
		return nil
	case <-s.done:
		return nil
	case <-timer.C:
		s.log.Warn("delivery timeout, dropping event", "event", env.Event)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the sink closed and releases the write pump and any
// blocked producer. Safe to call more than once.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
