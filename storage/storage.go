// Package storage persists per-class count snapshots in SQLite. The
// tracking core itself never touches persistence; snapshots are a
// surrounding-application concern fed through a stream sink.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"trafficwatch/stats"
)

// Store handles the SQLite database holding count snapshots.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open database %s", path)
	}

	// WAL mode so stream workers and readers don't block each other
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "can't enable WAL mode")
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS count_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			stream_id INTEGER NOT NULL,
			session TEXT NOT NULL,
			class TEXT NOT NULL,
			count INTEGER NOT NULL,
			observed_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_stream_time ON count_snapshots(stream_id, observed_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_class_time ON count_snapshots(class, observed_at DESC)`,
	}
	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return errors.Wrap(err, "can't run migration")
		}
	}
	return nil
}

// Snapshot is one persisted per-class count observation.
type Snapshot struct {
	StreamID   int
	Session    string
	Class      string
	Count      int
	ObservedAt time.Time
}

// SaveCounts persists one row per class, all within a single transaction.
func (s *Store) SaveCounts(ctx context.Context, streamID int, session string, counts stats.ClassCounts, observedAt time.Time) error {
	if len(counts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "can't begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO count_snapshots (stream_id, session, class, count, observed_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "can't prepare snapshot insert")
	}
	defer stmt.Close()

	for class, count := range counts {
		if _, err := stmt.ExecContext(ctx, streamID, session, class, count, observedAt.UTC()); err != nil {
			return errors.Wrapf(err, "can't insert snapshot for class %s", class)
		}
	}
	return errors.Wrap(tx.Commit(), "can't commit snapshots")
}

// RecentSnapshots returns the newest rows for a stream, newest first.
func (s *Store) RecentSnapshots(ctx context.Context, streamID, limit int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stream_id, session, class, count, observed_at
		 FROM count_snapshots
		 WHERE stream_id = ?
		 ORDER BY observed_at DESC, id DESC
		 LIMIT ?`, streamID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "can't query snapshots for stream %d", streamID)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.StreamID, &snap.Session, &snap.Class, &snap.Count, &snap.ObservedAt); err != nil {
			return nil, errors.Wrap(err, "can't scan snapshot row")
		}
		out = append(out, snap)
	}
	return out, errors.Wrap(rows.Err(), "can't iterate snapshot rows")
}

// PeakCounts returns the highest concurrent per-class count observed on any
// stream since the given time.
func (s *Store) PeakCounts(ctx context.Context, since time.Time) (stats.ClassCounts, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT class, MAX(count)
		 FROM count_snapshots
		 WHERE observed_at >= ?
		 GROUP BY class`, since.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "can't query peak counts")
	}
	defer rows.Close()

	peaks := make(stats.ClassCounts)
	for rows.Next() {
		var class string
		var count int
		if err := rows.Scan(&class, &count); err != nil {
			return nil, errors.Wrap(err, "can't scan peak count row")
		}
		peaks[class] = count
	}
	return peaks, errors.Wrap(rows.Err(), "can't iterate peak count rows")
}
