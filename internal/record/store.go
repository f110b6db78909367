package record

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/common"
)

// SortDir is the three-state sort cycle: repeated sorts on the same key move
// ascending -> descending -> back to canonical insertion order.
type SortDir string

const (
	DirNone SortDir = ""
	DirAsc  SortDir = "asc"
	DirDesc SortDir = "desc"
)

// Persister receives the full canonical sequence after every mutation.
type Persister interface {
	Save(records []Record) error
}

// Store owns the canonical, insertion-ordered record sequence. All mutation
// goes through the store's mutex so batch appends and user edits cannot
// interleave mid-operation. Sort and filter state are presentation views
// that never reorder the canonical sequence.
type Store struct {
	mu      sync.Mutex
	records []Record

	query   string
	sortKey SortKey
	sortDir SortDir

	persist Persister
	logger  *slog.Logger
}

// NewStore builds a store seeded with the rehydrated snapshot. persist may
// be nil (tests).
func NewStore(initial []Record, persist Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	records := make([]Record, len(initial))
	copy(records, initial)
	return &Store{records: records, persist: persist, logger: logger}
}

// Append adds records to the end of the canonical sequence, stamping each
// with the shared provenance pair for the file it came from.
func (s *Store) Append(recs []Record, prov Provenance) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		r.SourceRef = prov.Ref
		r.SourceKind = prov.Kind
		s.records = append(s.records, r)
	}
	s.saveLocked()
	return len(s.records)
}

// Update replaces the record with the given ID in place, after normalizing
// it. Identity and provenance survive the edit.
func (s *Store) Update(id string, r Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			normalized := Normalize(r)
			normalized.ID = id
			normalized.SourceRef = s.records[i].SourceRef
			normalized.SourceKind = s.records[i].SourceKind
			s.records[i] = normalized
			s.saveLocked()
			return normalized, nil
		}
	}
	return Record{}, common.ErrNotFound
}

// Delete removes the record with the given ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			s.saveLocked()
			return nil
		}
	}
	return common.ErrNotFound
}

// Clear empties the canonical sequence and resets view state. Confirmation
// is a UI-boundary concern; the operation itself is unconditional.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.query = ""
	s.sortKey = ""
	s.sortDir = DirNone
	s.saveLocked()
}

// Records returns a copy of the canonical sequence.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports the canonical record count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// ToggleSort advances the sort cycle for key. Sorting on a different key
// starts a fresh ascending sort on that key.
func (s *Store) ToggleSort(key SortKey) (SortKey, SortDir) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sortKey != key {
		s.sortKey = key
		s.sortDir = DirAsc
		return s.sortKey, s.sortDir
	}
	switch s.sortDir {
	case DirNone:
		s.sortDir = DirAsc
	case DirAsc:
		s.sortDir = DirDesc
	case DirDesc:
		s.sortKey = ""
		s.sortDir = DirNone
	}
	return s.sortKey, s.sortDir
}

// SetSort sets the sort state directly, bypassing the toggle cycle. Used by
// stateless callers (exports) that name both key and direction explicitly.
func (s *Store) SetSort(key SortKey, dir SortDir) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir == DirNone {
		key = ""
	}
	s.sortKey = key
	s.sortDir = dir
}

// SetFilter sets the view's substring filter. An empty query matches
// everything.
func (s *Store) SetFilter(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
}

// ViewState reports the current filter and sort settings.
func (s *Store) ViewState() (string, SortKey, SortDir) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query, s.sortKey, s.sortDir
}

// View returns the presentation sequence: the canonical records sorted per
// the current cycle state, then filtered. The canonical order is untouched.
func (s *Store) View() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)

	if s.sortDir != DirNone && s.sortKey != "" {
		key, desc := s.sortKey, s.sortDir == DirDesc
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].sortValue(key), out[j].sortValue(key)
			if desc {
				return a > b
			}
			return a < b
		})
	}

	if q := strings.ToLower(strings.TrimSpace(s.query)); q != "" {
		filtered := out[:0]
		for _, r := range out {
			if matchesQuery(r, q) {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}
	return out
}

// Duplicates returns the set of cardNumber values appearing on two or more
// records, ignoring empty values. Recomputed fresh on every call.
func (s *Store) Duplicates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(s.records))
	for _, r := range s.records {
		if r.CardNumber != "" {
			counts[r.CardNumber]++
		}
	}
	var dups []string
	for card, n := range counts {
		if n >= 2 {
			dups = append(dups, card)
		}
	}
	sort.Strings(dups)
	return dups
}

// matchesQuery checks the case-insensitive substring filter against the
// searchable columns.
func matchesQuery(r Record, lowered string) bool {
	for _, field := range []string{r.Name, r.Furigana, r.CardNumber, r.Phone} {
		if strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

// saveLocked writes the snapshot after a mutation. A failed save is logged
// and does not roll back the in-memory change. Caller must hold s.mu.
func (s *Store) saveLocked() {
	if s.persist == nil {
		return
	}
	snapshot := make([]Record, len(s.records))
	copy(snapshot, s.records)
	if err := s.persist.Save(snapshot); err != nil {
		s.logger.Error("store.snapshot.save_failed", "error", err, "records", len(snapshot))
	}
}
