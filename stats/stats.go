// Package stats aggregates per-class object counts across streams and keeps
// a bounded history of the aggregated totals.
package stats

import (
	"sync"

	"gonum.org/v1/gonum/stat"

	"trafficwatch/mot"
)

// ClassCounts is a per-class tally of tracked objects, keyed by class name.
type ClassCounts map[string]int

// Count tallies the tracked objects of a single frame by class name.
func Count(objects []mot.TrackedObject) ClassCounts {
	counts := make(ClassCounts)
	for _, obj := range objects {
		counts[obj.ClassName]++
	}
	return counts
}

// Total returns the sum over all classes.
func (c ClassCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Aggregator holds the latest per-class counts of each stream. It is safe
// for concurrent use by per-stream workers.
type Aggregator struct {
	mu      sync.Mutex
	streams map[int]ClassCounts
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		streams: make(map[int]ClassCounts),
	}
}

// Observe replaces the latest counts for a stream.
func (agg *Aggregator) Observe(streamID int, counts ClassCounts) {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	agg.streams[streamID] = counts
}

// Drop forgets a stream's counts, e.g. when its source is stopped.
func (agg *Aggregator) Drop(streamID int) {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	delete(agg.streams, streamID)
}

// Stream returns the latest counts observed for a stream.
func (agg *Aggregator) Stream(streamID int) ClassCounts {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	out := make(ClassCounts, len(agg.streams[streamID]))
	for class, n := range agg.streams[streamID] {
		out[class] = n
	}
	return out
}

// Totals merges the latest counts across all streams.
func (agg *Aggregator) Totals() ClassCounts {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	totals := make(ClassCounts)
	for _, counts := range agg.streams {
		for class, n := range counts {
			totals[class] += n
		}
	}
	return totals
}

// DefaultHistoryPoints is the default sliding window size of History.
const DefaultHistoryPoints = 100

// History is a bounded per-class time series of aggregated counts, oldest
// point evicted first. It is safe for concurrent use.
type History struct {
	mu        sync.Mutex
	maxPoints int
	series    map[string][]float64
}

func NewHistory(maxPoints int) *History {
	if maxPoints <= 0 {
		maxPoints = DefaultHistoryPoints
	}
	return &History{
		maxPoints: maxPoints,
		series:    make(map[string][]float64),
	}
}

// Record appends one data point per class. Classes seen before but absent
// from counts record a zero, so every series advances in lock-step.
func (h *History) Record(counts ClassCounts) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for class := range counts {
		if _, ok := h.series[class]; !ok {
			h.series[class] = make([]float64, 0, h.maxPoints)
		}
	}
	for class, points := range h.series {
		points = append(points, float64(counts[class]))
		if len(points) > h.maxPoints {
			points = points[1:]
		}
		h.series[class] = points
	}
}

// Series returns a copy of the recorded points for a class.
func (h *History) Series(class string) []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	points := h.series[class]
	out := make([]float64, len(points))
	copy(out, points)
	return out
}

// Mean returns the average count for a class over the recorded window.
func (h *History) Mean(class string) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	points := h.series[class]
	if len(points) == 0 {
		return 0.0
	}
	return stat.Mean(points, nil)
}

// Classes returns the class names with at least one recorded point.
func (h *History) Classes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	classes := make([]string, 0, len(h.series))
	for class := range h.series {
		classes = append(classes, class)
	}
	return classes
}
