package storage

import (
	"context"
	"sync"
	"time"

	"trafficwatch/stream"
)

// Sink adapts a Store to the stream.Sink interface, persisting at most one
// snapshot per stream per interval so a full-rate video feed doesn't write
// a row per frame.
type Sink struct {
	store    *Store
	interval time.Duration

	mu   sync.Mutex
	last map[int]time.Time
	now  func() time.Time
}

// NewSink creates a throttled persistence sink. An interval of zero
// persists every frame.
func NewSink(store *Store, interval time.Duration) *Sink {
	return &Sink{
		store:    store,
		interval: interval,
		last:     make(map[int]time.Time),
		now:      time.Now,
	}
}

// HandleFrame implements stream.Sink.
func (s *Sink) HandleFrame(ctx context.Context, frame stream.Frame) error {
	now := s.now()
	s.mu.Lock()
	if last, ok := s.last[frame.StreamID]; ok && now.Sub(last) < s.interval {
		s.mu.Unlock()
		return nil
	}
	s.last[frame.StreamID] = now
	s.mu.Unlock()

	return s.store.SaveCounts(ctx, frame.StreamID, frame.Session.String(), frame.Counts, now)
}
