// Package stream runs the per-stream processing loops: acquisition of
// detections from a source, confidence filtering, tracking and per-class
// counting, serialized per stream on a single worker.
package stream

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"trafficwatch/labels"
	"trafficwatch/mot"
	"trafficwatch/stats"
)

// MaxStreams is the maximum number of simultaneous video streams.
const MaxStreams = 4

// Source supplies the full detection set of consecutive frames of one
// stream. Next returns io.EOF when the stream is exhausted.
type Source interface {
	Next(ctx context.Context) ([]mot.Detection, error)
}

// Frame is the result of processing a single frame of a stream.
type Frame struct {
	StreamID int
	// Session identifies one continuous run of a source. It rotates when
	// the source changes, together with the tracker reset.
	Session uuid.UUID
	Objects []mot.TrackedObject
	Counts  stats.ClassCounts
}

// Sink consumes processed frames.
type Sink interface {
	HandleFrame(ctx context.Context, frame Frame) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, frame Frame) error

func (f SinkFunc) HandleFrame(ctx context.Context, frame Frame) error {
	return f(ctx, frame)
}

// Config is the per-manager processing configuration.
type Config struct {
	MaxDisappeared      int
	MinIoU              float64
	MaxTrajectoryPoints int
	MinConfidence       float64
	HistoryPoints       int
}

// DefaultConfig assembles the stock defaults of every pipeline stage.
func DefaultConfig() Config {
	return Config{
		MaxDisappeared:      mot.DefaultMaxDisappeared,
		MinIoU:              mot.DefaultMinIoU,
		MaxTrajectoryPoints: mot.DefaultMaxTrajectoryPoints,
		MinConfidence:       labels.DefaultMinConfidence,
		HistoryPoints:       stats.DefaultHistoryPoints,
	}
}

// processor owns the tracker of one stream. Its run loop is the only
// goroutine calling Update for that tracker, which is all the
// serialization the tracker requires.
type processor struct {
	id      int
	session uuid.UUID
	tracker *mot.Tracker
	source  Source
}

// Manager coordinates up to MaxStreams independent processors. Trackers
// share no state across streams, so the processors run concurrently.
type Manager struct {
	cfg     Config
	log     *slog.Logger
	agg     *stats.Aggregator
	history *stats.History
	sinks   []Sink

	mu         sync.Mutex
	running    bool
	processors [MaxStreams]*processor
}

// NewManager creates a Manager with the given processing configuration.
// Sinks receive every processed frame of every stream.
func NewManager(cfg Config, log *slog.Logger, sinks ...Sink) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		log:     log,
		agg:     stats.NewAggregator(),
		history: stats.NewHistory(cfg.HistoryPoints),
		sinks:   sinks,
	}
}

// Aggregator exposes the latest per-stream counts.
func (m *Manager) Aggregator() *stats.Aggregator {
	return m.agg
}

// History exposes the aggregated count history.
func (m *Manager) History() *stats.History {
	return m.history
}

// SetSource attaches a source to a stream slot. The slot's tracker is
// reset and a fresh session ID issued, so track identities never leak
// across unrelated video sequences. Sources cannot be swapped while the
// manager is running.
func (m *Manager) SetSource(streamID int, source Source) error {
	if streamID < 0 || streamID >= MaxStreams {
		return errors.Errorf("stream ID %d out of range [0, %d)", streamID, MaxStreams)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("can't change sources while the manager is running")
	}
	if source == nil {
		m.processors[streamID] = nil
		m.agg.Drop(streamID)
		return nil
	}
	p := m.processors[streamID]
	if p == nil {
		p = &processor{
			id:      streamID,
			tracker: mot.NewTracker(m.cfg.MaxDisappeared, m.cfg.MinIoU, m.cfg.MaxTrajectoryPoints),
		}
		m.processors[streamID] = p
	}
	p.tracker.Reset()
	p.session = uuid.New()
	p.source = source
	return nil
}

// Run processes all attached streams until every source drains or the
// context is cancelled. It returns the first processing error, if any.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("manager is already running")
	}
	m.running = true
	active := make([]*processor, 0, MaxStreams)
	for _, p := range m.processors {
		if p != nil {
			active = append(active, p)
		}
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	var wg sync.WaitGroup
	errCh := make(chan error, len(active))
	for _, p := range active {
		wg.Add(1)
		go func(p *processor) {
			defer wg.Done()
			if err := m.runStream(ctx, p); err != nil {
				errCh <- err
			}
		}(p)
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}

func (m *Manager) runStream(ctx context.Context, p *processor) error {
	log := m.log.With("stream", p.id, "session", p.session.String())
	log.Info("stream started")
	frames := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("stream cancelled", "frames", frames)
			return nil
		default:
		}

		detections, err := p.source.Next(ctx)
		if err == io.EOF {
			log.Info("stream drained", "frames", frames)
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				log.Info("stream cancelled", "frames", frames)
				return nil
			}
			return errors.Wrapf(err, "stream %d: can't read next frame", p.id)
		}

		objects := p.tracker.Update(labels.Filter(detections, m.cfg.MinConfidence))
		counts := stats.Count(objects)
		m.agg.Observe(p.id, counts)
		m.history.Record(m.agg.Totals())
		frames++

		frame := Frame{
			StreamID: p.id,
			Session:  p.session,
			Objects:  objects,
			Counts:   counts,
		}
		for _, sink := range m.sinks {
			// A failing sink must not stall tracking
			if err := sink.HandleFrame(ctx, frame); err != nil {
				log.Error("sink failed", "error", err)
			}
		}
	}
}
