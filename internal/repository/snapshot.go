// Package repository persists the canonical record sequence as a verbatim
// JSON snapshot in a local SQLite database: one fixed key, the whole
// sequence as a single blob.
package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/common"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/record"
)

// SnapshotKey is the fixed storage key the whole sequence lives under.
// Older snapshots written under the same key load unchanged.
const SnapshotKey = "supplement-csv-data"

// SnapshotStore writes and reads the record snapshot. Safe for use from the
// store's serialized mutation path.
type SnapshotStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSnapshotStore opens (creating if needed) the snapshot database.
func NewSnapshotStore(path string, logger *slog.Logger) (*SnapshotStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}

	s := &SnapshotStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SnapshotStore) initSchema() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key        TEXT PRIMARY KEY,
		body       BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("create snapshots table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save overwrites the snapshot with the full canonical sequence.
func (s *SnapshotStore) Save(records []record.Record) error {
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots (key, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		SnapshotKey, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load rehydrates the record sequence once at startup. A missing or
// unreadable snapshot is never fatal: it degrades to an empty store with a
// warning.
func (s *SnapshotStore) Load() []record.Record {
	records, err := s.load()
	if err != nil {
		s.logger.Warn("snapshot.load.degraded", "error", err)
		return nil
	}
	s.logger.Info("snapshot.load.ok", "records", len(records))
	return records
}

func (s *SnapshotStore) load() ([]record.Record, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM snapshots WHERE key = ?`, SnapshotKey).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", common.ErrSnapshot, err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode %d bytes: %v", common.ErrSnapshot, len(body), err)
	}

	records := make([]record.Record, 0, len(raw))
	for _, m := range raw {
		records = append(records, decodeStored(m))
	}
	return records, nil
}

// decodeStored rebuilds one stored record, migrating two legacy shapes:
// records saved before stable IDs get a fresh one, and the old combined
// "dob" field is split into year/month/day.
func decodeStored(m map[string]any) record.Record {
	var r record.Record
	b, _ := json.Marshal(m)
	_ = json.Unmarshal(b, &r)

	if r.ID == "" {
		r.ID = newRecordID()
	}
	if dob, ok := m["dob"].(string); ok && r.DOBYear == "" && r.DOBMonth == "" && r.DOBDay == "" {
		r.DOBYear, r.DOBMonth, r.DOBDay = record.SplitLegacyDOB(dob)
	}
	if r.Gender == "" {
		r.Gender = "0"
	}
	return r
}

func newRecordID() string {
	return uuid.New().String()
}
