package mot

import "sort"

// Default configuration values for Tracker and PredictiveTracker.
const (
	DefaultMaxDisappeared      = 30
	DefaultMinIoU              = 0.3
	DefaultMaxTrajectoryPoints = 30
)

// Tracker is a Multi-object tracker (MOT) with IoU matching. It associates
// the detections of each frame with persistent track identities, survives
// brief detection gaps and retires stale tracks.
//
// Update must be invoked serially, once per frame with the full detection
// set for that frame. A Tracker carries no internal locking; run one
// instance per video stream and serialize calls per instance.
type Tracker struct {
	// Max number of consecutive unmatched cycles before a track is removed
	maxDisappeared int
	// IoU threshold for accepting a detection-to-track match
	minIoU float64
	// Sliding window size for track trajectories
	maxTrajectoryPoints int
	// Assignment strategy. MatchingGreedy unless configured otherwise.
	algorithm MatchingAlgorithm
	// Main storage
	objects map[int]*TrackedObject
	// Next track ID to assign. Never decremented, so IDs are never reused.
	nextID int
}

// NewDefaultTracker creates a Tracker with default parameters:
// maxDisappeared=30, minIoU=0.3, maxTrajectoryPoints=30, greedy matching.
func NewDefaultTracker() *Tracker {
	return NewTracker(DefaultMaxDisappeared, DefaultMinIoU, DefaultMaxTrajectoryPoints)
}

// NewTracker creates a new instance of Tracker with specified parameters.
func NewTracker(maxDisappeared int, minIoU float64, maxTrajectoryPoints int) *Tracker {
	return NewTrackerWithAlgorithm(maxDisappeared, minIoU, maxTrajectoryPoints, MatchingGreedy)
}

// NewTrackerWithAlgorithm additionally selects the assignment strategy.
func NewTrackerWithAlgorithm(maxDisappeared int, minIoU float64, maxTrajectoryPoints int, algorithm MatchingAlgorithm) *Tracker {
	return &Tracker{
		maxDisappeared:      maxDisappeared,
		minIoU:              minIoU,
		maxTrajectoryPoints: maxTrajectoryPoints,
		algorithm:           algorithm,
		objects:             make(map[int]*TrackedObject),
	}
}

// Reset clears all tracks and restarts the ID counter at zero. Call it
// whenever the upstream source changes, so identities never leak across
// unrelated video sequences.
func (tracker *Tracker) Reset() {
	tracker.objects = make(map[int]*TrackedObject)
	tracker.nextID = 0
}

// Update matches the frame's detections against live tracks and returns a
// snapshot of all tracks that survive the cycle, ordered by ascending track
// ID. Callers must correlate objects across frames by TrackID, never by
// positional index.
//
// Matched tracks get the detection's data and a zeroed disappearance
// counter. Unmatched tracks age by one cycle and are removed once the
// counter exceeds maxDisappeared. Unmatched detections register new tracks.
func (tracker *Tracker) Update(detections []Detection) []TrackedObject {
	if len(detections) == 0 {
		for id, obj := range tracker.objects {
			obj.Disappeared++
			if obj.Disappeared > tracker.maxDisappeared {
				delete(tracker.objects, id)
			}
		}
		return tracker.Tracks()
	}

	if len(tracker.objects) == 0 {
		for _, det := range detections {
			tracker.register(det)
		}
		return tracker.Tracks()
	}

	liveIDs := tracker.sortedIDs()

	var matched map[int]bool
	var deferred []Detection
	if tracker.algorithm == MatchingHungarian {
		matched, deferred = tracker.matchHungarian(liveIDs, detections)
	} else {
		matched, deferred = tracker.matchGreedy(liveIDs, detections)
	}

	// Age out the tracks that were live at the start of the cycle and did
	// not match; fresh registrations below are exempt.
	for _, id := range liveIDs {
		if matched[id] {
			continue
		}
		obj := tracker.objects[id]
		obj.Disappeared++
		if obj.Disappeared > tracker.maxDisappeared {
			delete(tracker.objects, id)
		}
	}

	for _, det := range deferred {
		tracker.register(det)
	}

	return tracker.Tracks()
}

// matchGreedy assigns each detection, in input order, to the not-yet-matched
// track with the maximum IoU, accepting the match only at IoU >= minIoU.
// Tracks are scanned in ascending ID order, so when two tracks tie on the
// maximum the lowest track ID wins. Assignment is strictly one-to-one:
// a matched track is excluded for the rest of the cycle.
func (tracker *Tracker) matchGreedy(liveIDs []int, detections []Detection) (map[int]bool, []Detection) {
	matched := make(map[int]bool, len(liveIDs))
	deferred := make([]Detection, 0)
	for _, det := range detections {
		bestIoU := 0.0
		bestID := -1
		for _, id := range liveIDs {
			if matched[id] {
				continue
			}
			iou := IoU(det.BBox, tracker.objects[id].BBox)
			if iou > bestIoU && iou >= tracker.minIoU {
				bestIoU = iou
				bestID = id
			}
		}
		if bestID >= 0 {
			tracker.objects[bestID].absorb(det, tracker.maxTrajectoryPoints)
			matched[bestID] = true
		} else {
			deferred = append(deferred, det)
		}
	}
	return matched, deferred
}

func (tracker *Tracker) register(det Detection) {
	obj := newTrackedObject(tracker.nextID, det, tracker.maxTrajectoryPoints)
	tracker.objects[tracker.nextID] = obj
	tracker.nextID++
}

// Tracks returns a snapshot of all live tracks ordered by ascending track ID.
func (tracker *Tracker) Tracks() []TrackedObject {
	out := make([]TrackedObject, 0, len(tracker.objects))
	for _, id := range tracker.sortedIDs() {
		out = append(out, tracker.objects[id].clone())
	}
	return out
}

func (tracker *Tracker) sortedIDs() []int {
	ids := make([]int, 0, len(tracker.objects))
	for id := range tracker.objects {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
