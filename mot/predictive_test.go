package mot

import "testing"

func TestPredictiveTrackerContinuousMotion(t *testing.T) {
	tracker := NewPredictiveTracker(DefaultMaxDisappeared, DefaultMinIoU, DefaultMaxTrajectoryPoints, 1.0/25.0)

	var objects []TrackedObject
	var err error
	for i := 0; i < 10; i++ {
		// 40x40 box moving 10px per frame
		objects, err = tracker.Update([]Detection{carDetection(10*i, 0, 10*i+40, 40)})
		if err != nil {
			t.Fatalf("Frame %d failed: %v", i, err)
		}
		if len(objects) != 1 {
			t.Fatalf("Frame %d: expected 1 object, got %d", i, len(objects))
		}
		if objects[0].TrackID != 0 {
			t.Fatalf("Frame %d: identity lost, got track %d", i, objects[0].TrackID)
		}
	}
	if len(objects[0].Trajectory) != 10 {
		t.Errorf("Expected trajectory length 10, got %d", len(objects[0].Trajectory))
	}
}

func TestPredictiveTrackerLifecycle(t *testing.T) {
	tracker := NewPredictiveTracker(2, 0.3, 30, 1.0)

	if _, err := tracker.Update([]Detection{carDetection(10, 10, 50, 50)}); err != nil {
		t.Fatal(err)
	}

	for miss := 1; miss <= 2; miss++ {
		objects, err := tracker.Update(nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(objects) != 1 || objects[0].Disappeared != miss {
			t.Fatalf("Miss %d: expected surviving track with disappeared %d, got %+v", miss, miss, objects)
		}
	}

	objects, err := tracker.Update(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 0 {
		t.Fatalf("Expected removal after threshold exceeded, got %+v", objects)
	}

	// IDs stay monotonic after removal
	objects, err = tracker.Update([]Detection{carDetection(10, 10, 50, 50)})
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 1 || objects[0].TrackID != 1 {
		t.Errorf("Expected new track 1, got %+v", objects)
	}
}

func TestPredictiveTrackerReset(t *testing.T) {
	tracker := NewDefaultPredictiveTracker()

	for i := 0; i < 3; i++ {
		if _, err := tracker.Update([]Detection{carDetection(10*i, 0, 10*i+40, 40)}); err != nil {
			t.Fatal(err)
		}
	}

	tracker.Reset()
	if objects := tracker.Tracks(); len(objects) != 0 {
		t.Fatalf("Expected no tracks after reset, got %d", len(objects))
	}

	objects, err := tracker.Update([]Detection{carDetection(0, 0, 40, 40)})
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 1 || objects[0].TrackID != 0 {
		t.Errorf("Expected track ID 0 after reset, got %+v", objects)
	}
}
