package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database:\n  path: test.db\n"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Tracker.MaxDisappeared)
	assert.Equal(t, 0.3, cfg.Tracker.MinIoU)
	assert.Equal(t, 30, cfg.Tracker.MaxTrajectoryPoints)
	assert.Equal(t, 0.25, cfg.Detector.MinConfidence)
	assert.Equal(t, 100, cfg.Stats.HistoryPoints)
	assert.Equal(t, 5*time.Second, cfg.Stats.SnapshotInterval)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Empty(t, cfg.Streams)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
tracker:
  max_disappeared: 10
  min_iou: 0.5
detector:
  min_confidence: 0.4
streams:
  - id: 0
    dump: north.jsonl
  - id: 2
    dump: south.jsonl
`))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Tracker.MaxDisappeared)
	assert.Equal(t, 0.5, cfg.Tracker.MinIoU)
	assert.Equal(t, 0.4, cfg.Detector.MinConfidence)
	require.Len(t, cfg.Streams, 2)
	assert.Equal(t, "south.jsonl", cfg.Streams[1].Dump)

	settings := cfg.StreamSettings()
	assert.Equal(t, 10, settings.MaxDisappeared)
	assert.Equal(t, 0.4, settings.MinConfidence)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"min_iou above 1", "tracker:\n  min_iou: 1.5\n"},
		{"negative max_disappeared", "tracker:\n  max_disappeared: -1\n"},
		{"zero trajectory points", "tracker:\n  max_trajectory_points: 0\n"},
		{"stream out of range", "streams:\n  - id: 4\n    dump: x.jsonl\n"},
		{"duplicate stream", "streams:\n  - id: 1\n    dump: a.jsonl\n  - id: 1\n    dump: b.jsonl\n"},
		{"missing dump", "streams:\n  - id: 0\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
