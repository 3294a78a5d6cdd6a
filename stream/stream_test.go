package stream

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trafficwatch/mot"
	"trafficwatch/stats"
)

// sliceSource replays a fixed set of frames and then reports io.EOF.
type sliceSource struct {
	frames [][]mot.Detection
	next   int
}

func (s *sliceSource) Next(ctx context.Context) ([]mot.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	frame := s.frames[s.next]
	s.next++
	return frame, nil
}

// collectSink records every frame it receives.
type collectSink struct {
	mu     sync.Mutex
	frames []Frame
}

func (s *collectSink) HandleFrame(ctx context.Context, frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

func (s *collectSink) byStream(streamID int) []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Frame
	for _, f := range s.frames {
		if f.StreamID == streamID {
			out = append(out, f)
		}
	}
	return out
}

func carAt(x int) mot.Detection {
	return mot.Detection{BBox: mot.NewRect(x, 0, x+40, 40), Confidence: 0.9, ClassID: 2}
}

func TestManagerProcessesStreams(t *testing.T) {
	sink := &collectSink{}
	m := NewManager(DefaultConfig(), nil, sink)

	require.NoError(t, m.SetSource(0, &sliceSource{frames: [][]mot.Detection{
		{carAt(0)},
		{carAt(5)},
		{carAt(10)},
	}}))
	require.NoError(t, m.SetSource(1, &sliceSource{frames: [][]mot.Detection{
		{carAt(100), {BBox: mot.NewRect(300, 0, 340, 40), Confidence: 0.9, ClassID: 0}},
	}}))

	require.NoError(t, m.Run(context.Background()))

	frames0 := sink.byStream(0)
	require.Len(t, frames0, 3)
	for _, f := range frames0 {
		require.Len(t, f.Objects, 1)
		// Identity stays stable across the whole stream
		assert.Equal(t, 0, f.Objects[0].TrackID)
		assert.Equal(t, "car", f.Objects[0].ClassName)
	}
	assert.Len(t, frames0[2].Objects[0].Trajectory, 3)

	frames1 := sink.byStream(1)
	require.Len(t, frames1, 1)
	assert.Equal(t, stats.ClassCounts{"car": 1, "person": 1}, frames1[0].Counts)
	assert.NotEqual(t, frames0[0].Session, frames1[0].Session)

	totals := m.Aggregator().Totals()
	assert.Equal(t, 1, totals["person"])
}

func TestManagerFiltersLowConfidence(t *testing.T) {
	sink := &collectSink{}
	m := NewManager(DefaultConfig(), nil, sink)

	require.NoError(t, m.SetSource(0, &sliceSource{frames: [][]mot.Detection{
		{
			carAt(0),
			{BBox: mot.NewRect(200, 0, 240, 40), Confidence: 0.1, ClassID: 2},
			{BBox: mot.NewRect(400, 0, 440, 40), Confidence: 0.9, ClassID: 4},
		},
	}}))
	require.NoError(t, m.Run(context.Background()))

	frames := sink.byStream(0)
	require.Len(t, frames, 1)
	// Low-confidence and non-traffic detections never reach the tracker
	require.Len(t, frames[0].Objects, 1)
	assert.Equal(t, stats.ClassCounts{"car": 1}, frames[0].Counts)
}

func TestManagerSourceValidation(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)

	assert.Error(t, m.SetSource(-1, &sliceSource{}))
	assert.Error(t, m.SetSource(MaxStreams, &sliceSource{}))
	require.NoError(t, m.SetSource(0, &sliceSource{}))
	// Clearing a slot drops its counts
	require.NoError(t, m.SetSource(0, nil))
	require.NoError(t, m.Run(context.Background()))
}

func TestManagerSessionRotatesOnSourceChange(t *testing.T) {
	sink := &collectSink{}
	m := NewManager(DefaultConfig(), nil, sink)

	require.NoError(t, m.SetSource(0, &sliceSource{frames: [][]mot.Detection{{carAt(0)}, {carAt(5)}}}))
	require.NoError(t, m.Run(context.Background()))

	require.NoError(t, m.SetSource(0, &sliceSource{frames: [][]mot.Detection{{carAt(500)}}}))
	require.NoError(t, m.Run(context.Background()))

	frames := sink.byStream(0)
	require.Len(t, frames, 3)
	assert.NotEqual(t, frames[0].Session, frames[2].Session)
	// Tracker was reset: the new sequence starts at track 0 again
	assert.Equal(t, 0, frames[2].Objects[0].TrackID)
	assert.Len(t, frames[2].Objects[0].Trajectory, 1)
}

func TestManagerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager(DefaultConfig(), nil)
	require.NoError(t, m.SetSource(0, &sliceSource{frames: [][]mot.Detection{{carAt(0)}}}))
	// A cancelled context stops the loop without surfacing an error
	assert.NoError(t, m.Run(ctx))
}
