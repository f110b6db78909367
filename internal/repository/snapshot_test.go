package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/record"
)

func openStore(t *testing.T) *SnapshotStore {
	t.Helper()
	s, err := NewSnapshotStore(filepath.Join(t.TempDir(), "snap.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openStore(t)

	records := []record.Record{
		{ID: "r1", Name: "Taro", Gender: "1", Phone: "090-1234-5678", SourceRef: "b/f.pdf", SourceKind: "application/pdf"},
		{ID: "r2", Name: "Hanako", Gender: "2"},
	}
	require.NoError(t, s.Save(records))

	loaded := s.Load()
	assert.Equal(t, records, loaded)
}

func TestSnapshotOverwrites(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.Save([]record.Record{{ID: "r1", Name: "Taro", Gender: "0"}}))
	require.NoError(t, s.Save([]record.Record{{ID: "r2", Name: "Hanako", Gender: "0"}}))

	loaded := s.Load()
	require.Len(t, loaded, 1)
	assert.Equal(t, "Hanako", loaded[0].Name)
}

func TestSnapshotMissingIsEmpty(t *testing.T) {
	s := openStore(t)
	assert.Empty(t, s.Load())
}

func TestSnapshotCorruptIsEmptyNotFatal(t *testing.T) {
	s := openStore(t)
	_, err := s.db.Exec(
		`INSERT INTO snapshots (key, body, updated_at) VALUES (?, ?, ?)`,
		SnapshotKey, []byte("{{{ not json"), time.Now().UTC(),
	)
	require.NoError(t, err)

	assert.Empty(t, s.Load())
}

func TestSnapshotMigratesLegacyCombinedDOB(t *testing.T) {
	s := openStore(t)
	legacy := `[{"name":"Taro","furigana":"タロウ","gender":"","dob":"1990-01-02","postalCode":"","address":"","phone":"","occupation":""}]`
	_, err := s.db.Exec(
		`INSERT INTO snapshots (key, body, updated_at) VALUES (?, ?, ?)`,
		SnapshotKey, []byte(legacy), time.Now().UTC(),
	)
	require.NoError(t, err)

	loaded := s.Load()
	require.Len(t, loaded, 1)

	r := loaded[0]
	assert.Equal(t, "Taro", r.Name)
	assert.Equal(t, "1990", r.DOBYear)
	assert.Equal(t, "01", r.DOBMonth)
	assert.Equal(t, "02", r.DOBDay)
	assert.Equal(t, "0", r.Gender, "legacy empty gender defaults to unknown")
	assert.NotEmpty(t, r.ID, "legacy records get a stable identity")
}
