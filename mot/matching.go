package mot

import (
	"github.com/arthurkushman/go-hungarian"
)

// MatchingAlgorithm selects how detections are assigned to tracks.
type MatchingAlgorithm uint16

const (
	// MatchingGreedy assigns each detection, in input order, to the
	// not-yet-matched track with the highest IoU. This is the reference
	// behavior: track identities on ambiguous frames depend on it.
	MatchingGreedy MatchingAlgorithm = iota
	// MatchingHungarian solves the assignment optimally (Kuhn-Munkres).
	// It can produce different track identities than MatchingGreedy on
	// ambiguous frames, so it is never selected implicitly.
	MatchingHungarian
)

// matchHungarian builds the IoU matrix (rows are tracks in ascending ID
// order, columns are detections in input order), pads it square with zeros
// and solves for the maximum-IoU assignment. Pairs below minIoU are
// discarded and their detections deferred for registration.
func (tracker *Tracker) matchHungarian(liveIDs []int, detections []Detection) (map[int]bool, []Detection) {
	numTracks := len(liveIDs)
	numDetections := len(detections)
	size := max(numTracks, numDetections)
	iouMatrix := make([][]float64, size)
	for i := range iouMatrix {
		iouMatrix[i] = make([]float64, size)
	}
	for i, id := range liveIDs {
		for j := range detections {
			iouMatrix[i][j] = IoU(detections[j].BBox, tracker.objects[id].BBox)
		}
	}

	assignments := hungarian.SolveMax(iouMatrix)

	matched := make(map[int]bool, numTracks)
	matchedDetections := make(map[int]bool, numDetections)
	for row, cols := range assignments {
		// Rows and columns past the real counts are padding
		if row >= numTracks {
			continue
		}
		for col := range cols {
			if col >= numDetections {
				continue
			}
			if iouMatrix[row][col] < tracker.minIoU {
				continue
			}
			id := liveIDs[row]
			tracker.objects[id].absorb(detections[col], tracker.maxTrajectoryPoints)
			matched[id] = true
			matchedDetections[col] = true
			break
		}
	}

	deferred := make([]Detection, 0)
	for j, det := range detections {
		if !matchedDetections[j] {
			deferred = append(deferred, det)
		}
	}
	return matched, deferred
}
