package mot

// Detection is a single-frame observation produced by an external detector.
type Detection struct {
	BBox       Rect
	Confidence float64
	ClassID    int
	ClassName  string
}

// TrackedObject is a persistent identity assigned to a sequence of
// detections believed to represent the same physical object across frames.
type TrackedObject struct {
	// TrackID is unique for the lifetime of the tracker instance.
	// IDs are assigned monotonically and never reused, even after removal.
	TrackID int
	// Most recent matched detection's data. Class and confidence are not
	// smoothed or voted: the latest detection wins.
	BBox       Rect
	Confidence float64
	ClassID    int
	ClassName  string
	// Trajectory is a sliding window of bounding box centers, oldest point
	// evicted first. It holds at least one point (seeded at registration).
	Trajectory []Point
	// Disappeared counts consecutive update cycles since the track was last
	// matched to a detection.
	Disappeared int
}

func newTrackedObject(id int, det Detection, maxTrajectoryPoints int) *TrackedObject {
	obj := &TrackedObject{
		TrackID:    id,
		BBox:       det.BBox,
		Confidence: det.Confidence,
		ClassID:    det.ClassID,
		ClassName:  det.ClassName,
		Trajectory: make([]Point, 0, maxTrajectoryPoints),
	}
	obj.Trajectory = append(obj.Trajectory, det.BBox.Center())
	return obj
}

// absorb overwrites the track with the matching detection's data and appends
// the new center to the trajectory. The track ID survives the copy.
func (obj *TrackedObject) absorb(det Detection, maxTrajectoryPoints int) {
	obj.BBox = det.BBox
	obj.Confidence = det.Confidence
	obj.ClassID = det.ClassID
	obj.ClassName = det.ClassName
	obj.Trajectory = append(obj.Trajectory, det.BBox.Center())
	if len(obj.Trajectory) > maxTrajectoryPoints {
		obj.Trajectory = obj.Trajectory[1:]
	}
	obj.Disappeared = 0
}

// clone returns a copy safe to hand to callers. The trajectory is copied as
// well so a renderer may keep it across frames.
func (obj *TrackedObject) clone() TrackedObject {
	out := *obj
	out.Trajectory = make([]Point, len(obj.Trajectory))
	copy(out.Trajectory, obj.Trajectory)
	return out
}
