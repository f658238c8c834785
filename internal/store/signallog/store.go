package signallog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"polyquant/internal/signal"

	_ "modernc.org/sqlite"
)

// Store is an append-only analysis log of every emitted signal, kept in
// SQLite so cycles can be replayed during post-trade review.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Record is one persisted signal row.
type Record struct {
	ID           int64    `json:"id"`
	Timestamp    int64    `json:"ts"`
	InstrumentID string   `json:"instrument_id"`
	Direction    string   `json:"direction"`
	Probability  float64  `json:"probability"`
	Confidence   float64  `json:"confidence"`
	Strength     float64  `json:"strength"`
	SizeUSD      float64  `json:"size_usd"`
	Reasons      []string `json:"reasons,omitempty"`
}

// Query filters ListRecent.
type Query struct {
	InstrumentID string
	Limit        int
}

func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("signal log path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		instrument_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		probability REAL,
		confidence REAL,
		strength REAL,
		size_usd REAL,
		reasons_json TEXT,
		created_at INTEGER NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("creating signals schema: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_signals_instrument_ts ON signals (instrument_id, ts);`)
	return err
}

// Append stores one signal. Errors are returned, not retried; the caller
// treats the log as best-effort observability.
func (s *Store) Append(ctx context.Context, sig signal.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("signal log closed")
	}
	reasons, err := json.Marshal(sig.Reasons)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO signals (ts, instrument_id, direction, probability, confidence, strength, size_usd, reasons_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		now, sig.InstrumentID, string(sig.Direction), sig.Probability, sig.Confidence, sig.Strength,
		sig.RecommendedSizeUSD, string(reasons), now)
	if err != nil {
		return fmt.Errorf("appending signal: %w", err)
	}
	return nil
}

// ListRecent returns the newest rows first, optionally filtered by
// instrument id.
func (s *Store) ListRecent(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("signal log closed")
	}
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := `SELECT id, ts, instrument_id, direction, probability, confidence, strength, size_usd, reasons_json
		FROM signals`
	args := []any{}
	if q.InstrumentID != "" {
		query += ` WHERE instrument_id = ?`
		args = append(args, q.InstrumentID)
	}
	query += ` ORDER BY ts DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		var reasonsJSON sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.InstrumentID, &rec.Direction,
			&rec.Probability, &rec.Confidence, &rec.Strength, &rec.SizeUSD, &reasonsJSON); err != nil {
			return nil, err
		}
		if reasonsJSON.Valid && reasonsJSON.String != "" {
			_ = json.Unmarshal([]byte(reasonsJSON.String), &rec.Reasons)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
