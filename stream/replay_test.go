package stream

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trafficwatch/mot"
)

func TestReplaySource(t *testing.T) {
	dump := `{"detections": [{"bbox": [10, 10, 50, 50], "confidence": 0.9, "class_id": 2}]}

{"detections": [{"bbox": [12, 10, 52, 50], "confidence": 0.8, "class_id": 2, "class_name": "car"}, {"bbox": [200, 0, 240, 40], "confidence": 0.7, "class_id": 0}]}
{"detections": []}
`
	src := NewReplaySource(io.NopCloser(strings.NewReader(dump)))
	defer src.Close()

	ctx := context.Background()

	frame, err := src.Next(ctx)
	require.NoError(t, err)
	require.Len(t, frame, 1)
	assert.Equal(t, mot.NewRect(10, 10, 50, 50), frame[0].BBox)
	// class_name derived from class_id when absent
	assert.Equal(t, "car", frame[0].ClassName)

	frame, err = src.Next(ctx)
	require.NoError(t, err)
	require.Len(t, frame, 2)
	assert.Equal(t, "person", frame[1].ClassName)

	frame, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, frame)

	_, err = src.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestReplaySourceMalformedLine(t *testing.T) {
	src := NewReplaySource(io.NopCloser(strings.NewReader("{not json}\n")))
	defer src.Close()

	_, err := src.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 1")
}
