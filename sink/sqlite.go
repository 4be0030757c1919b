package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/snn"
)

// SQLiteStore records spikes and decision snapshots per session. A fresh
// session id is minted on Init so runs can be told apart afterwards.
type SQLiteStore struct {
	path string

	mu      sync.RWMutex
	db      *sql.DB
	session string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the schema. Calling it twice is a
// no-op.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.session = uuid.NewString()
	return nil
}

// Session returns the id minted for the current run, empty before Init.
func (s *SQLiteStore) Session() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *SQLiteStore) WriteSpike(ctx context.Context, r protocol.SpikeRecord, received time.Time) error {
	db, session, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO spikes (session, received, sensor, timestamp_ms, encoding, neuron, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, session, received.UTC().Format(time.RFC3339Nano),
		r.Sensor.String(), r.Timestamp, r.Encoding.String(), r.NeuronID, r.Value)
	if err != nil {
		return fmt.Errorf("sink: insert spike: %w", err)
	}
	return nil
}

func (s *SQLiteStore) WriteDecisions(ctx context.Context, decs []snn.Decision, received time.Time) error {
	db, session, err := s.getDB()
	if err != nil {
		return err
	}
	ts := received.UTC().Format(time.RFC3339Nano)
	for _, d := range decs {
		_, err = db.ExecContext(ctx, `
			INSERT INTO decisions (session, received, label, activation)
			VALUES (?, ?, ?, ?)
		`, session, ts, d.Label, d.Activation)
		if err != nil {
			return fmt.Errorf("sink: insert decision: %w", err)
		}
	}
	return nil
}

// SpikeCount reports how many spikes the current session has stored.
func (s *SQLiteStore) SpikeCount(ctx context.Context) (int, error) {
	db, session, err := s.getDB()
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spikes WHERE session = ?`, session).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, "", errors.New("store is not initialized")
	}
	return s.db, s.session, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS spikes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			received TEXT NOT NULL,
			sensor TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			encoding TEXT NOT NULL,
			neuron INTEGER NOT NULL,
			value REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			received TEXT NOT NULL,
			label TEXT NOT NULL,
			activation REAL NOT NULL
		);
	`)
	return err
}
