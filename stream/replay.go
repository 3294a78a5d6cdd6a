package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"trafficwatch/labels"
	"trafficwatch/mot"
)

// ReplaySource reads per-frame detection dumps in JSON-lines format: one
// object per line, `{"detections": [{"bbox": [x1,y1,x2,y2], "confidence":
// 0.9, "class_id": 2}, ...]}`. Blank lines are skipped. A missing
// class_name is derived from class_id.
type ReplaySource struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	frame   int
}

type frameRecord struct {
	Detections []detectionRecord `json:"detections"`
}

type detectionRecord struct {
	BBox       [4]int  `json:"bbox"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name,omitempty"`
}

// OpenReplay opens a detection dump file as a replay source.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open detection dump %s", path)
	}
	return NewReplaySource(f), nil
}

// NewReplaySource wraps a reader of JSON-lines detection dumps.
func NewReplaySource(rc io.ReadCloser) *ReplaySource {
	return &ReplaySource{
		rc:      rc,
		scanner: bufio.NewScanner(rc),
	}
}

// Next returns the detections of the next frame, or io.EOF once the dump
// is exhausted.
func (s *ReplaySource) Next(ctx context.Context) ([]mot.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		s.frame++
		var record frameRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, errors.Wrapf(err, "can't parse frame %d", s.frame)
		}
		detections := make([]mot.Detection, len(record.Detections))
		for i, d := range record.Detections {
			className := d.ClassName
			if className == "" {
				className = labels.Name(d.ClassID)
			}
			detections[i] = mot.Detection{
				BBox:       mot.NewRect(d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]),
				Confidence: d.Confidence,
				ClassID:    d.ClassID,
				ClassName:  className,
			}
		}
		return detections, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "can't read detection dump")
	}
	return nil, io.EOF
}

// Close releases the underlying reader.
func (s *ReplaySource) Close() error {
	return s.rc.Close()
}
