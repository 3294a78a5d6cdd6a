package mot

import (
	"sort"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// PredictiveTracker is a Multi-object tracker with the same lifecycle as
// Tracker but with a 2D Kalman filter per track: every cycle advances the
// filter, and detections are matched against each track's box re-centered
// on the predicted position. This recovers identities across short
// occlusions that matching on the last observed box loses.
//
// PredictiveTracker is an opt-in alternative. Tracker remains the reference
// behavior, and the two can assign different identities on the same input.
type PredictiveTracker struct {
	maxDisappeared      int
	minIoU              float64
	maxTrajectoryPoints int
	// Time step between frames in seconds (e.g. 1/25 for 25 fps)
	dt     float64
	tracks map[int]*predictiveTrack
	nextID int
}

// predictiveTrack pairs a tracked object with its motion filter.
type predictiveTrack struct {
	object    *TrackedObject
	filter    *kalman_filter.Kalman2D
	predicted Point
}

/* Kalman filter props, same tuning for every track */
const (
	kalmanControlX = 1.0
	kalmanControlY = 1.0
	kalmanStdDevA  = 2.0
	kalmanStdDevMx = 0.1
	kalmanStdDevMy = 0.1
)

// NewPredictiveTracker creates a new instance of PredictiveTracker.
// dt is the expected interval between frames in seconds.
func NewPredictiveTracker(maxDisappeared int, minIoU float64, maxTrajectoryPoints int, dt float64) *PredictiveTracker {
	return &PredictiveTracker{
		maxDisappeared:      maxDisappeared,
		minIoU:              minIoU,
		maxTrajectoryPoints: maxTrajectoryPoints,
		dt:                  dt,
		tracks:              make(map[int]*predictiveTrack),
	}
}

// NewDefaultPredictiveTracker creates a PredictiveTracker with the default
// lifecycle parameters and a time step of 1.0.
func NewDefaultPredictiveTracker() *PredictiveTracker {
	return NewPredictiveTracker(DefaultMaxDisappeared, DefaultMinIoU, DefaultMaxTrajectoryPoints, 1.0)
}

// Reset clears all tracks and restarts the ID counter at zero.
func (tracker *PredictiveTracker) Reset() {
	tracker.tracks = make(map[int]*predictiveTrack)
	tracker.nextID = 0
}

// Update advances every track's motion filter one step, matches the frame's
// detections against the predicted boxes and returns a snapshot of the
// surviving tracks ordered by ascending track ID. Lifecycle semantics
// (one-to-one greedy assignment, aging, removal, registration) are the same
// as Tracker.Update.
func (tracker *PredictiveTracker) Update(detections []Detection) ([]TrackedObject, error) {
	// Unmatched tracks keep coasting along their predicted motion, which is
	// what lets a reappearing object be picked up again after a gap.
	for _, tr := range tracker.tracks {
		tr.predict()
	}

	liveIDs := tracker.sortedIDs()
	matched := make(map[int]bool, len(liveIDs))
	deferred := make([]Detection, 0)

	for _, det := range detections {
		bestIoU := 0.0
		bestID := -1
		for _, id := range liveIDs {
			if matched[id] {
				continue
			}
			iou := IoU(det.BBox, tracker.tracks[id].predictedBBox())
			if iou > bestIoU && iou >= tracker.minIoU {
				bestIoU = iou
				bestID = id
			}
		}
		if bestID >= 0 {
			if err := tracker.tracks[bestID].correct(det, tracker.maxTrajectoryPoints); err != nil {
				return nil, err
			}
			matched[bestID] = true
		} else {
			deferred = append(deferred, det)
		}
	}

	for _, id := range liveIDs {
		if matched[id] {
			continue
		}
		tr := tracker.tracks[id]
		tr.object.Disappeared++
		if tr.object.Disappeared > tracker.maxDisappeared {
			delete(tracker.tracks, id)
		}
	}

	for _, det := range deferred {
		tracker.register(det)
	}

	return tracker.Tracks(), nil
}

func (tracker *PredictiveTracker) register(det Detection) {
	obj := newTrackedObject(tracker.nextID, det, tracker.maxTrajectoryPoints)
	center := det.BBox.Center()
	kf := kalman_filter.NewKalman2D(tracker.dt, kalmanControlX, kalmanControlY,
		kalmanStdDevA, kalmanStdDevMx, kalmanStdDevMy,
		kalman_filter.WithState2D(float64(center.X), float64(center.Y)))
	tracker.tracks[tracker.nextID] = &predictiveTrack{
		object:    obj,
		filter:    kf,
		predicted: center,
	}
	tracker.nextID++
}

// Tracks returns a snapshot of all live tracks ordered by ascending track ID.
func (tracker *PredictiveTracker) Tracks() []TrackedObject {
	out := make([]TrackedObject, 0, len(tracker.tracks))
	for _, id := range tracker.sortedIDs() {
		out = append(out, tracker.tracks[id].object.clone())
	}
	return out
}

func (tracker *PredictiveTracker) sortedIDs() []int {
	ids := make([]int, 0, len(tracker.tracks))
	for id := range tracker.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// predict executes the filter's first step and caches the predicted center.
func (tr *predictiveTrack) predict() {
	tr.filter.Predict()
	stateX, stateY := tr.filter.GetState()
	tr.predicted = Point{X: int(stateX), Y: int(stateY)}
}

// predictedBBox returns the last observed box re-centered on the predicted
// position.
func (tr *predictiveTrack) predictedBBox() Rect {
	center := tr.object.BBox.Center()
	dx := tr.predicted.X - center.X
	dy := tr.predicted.Y - center.Y
	return Rect{
		X1: tr.object.BBox.X1 + dx,
		Y1: tr.object.BBox.Y1 + dy,
		X2: tr.object.BBox.X2 + dx,
		Y2: tr.object.BBox.Y2 + dy,
	}
}

// correct absorbs the matched detection and executes the filter's second
// step (state re-evaluation based on Kalman gain).
func (tr *predictiveTrack) correct(det Detection, maxTrajectoryPoints int) error {
	tr.object.absorb(det, maxTrajectoryPoints)
	center := det.BBox.Center()
	if err := tr.filter.Update(float64(center.X), float64(center.Y)); err != nil {
		return errors.Wrapf(err, "Can't correct motion filter for track %d", tr.object.TrackID)
	}
	return nil
}
