package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/common"
)

type capturePersister struct {
	saves int
	last  []Record
}

func (p *capturePersister) Save(records []Record) error {
	p.saves++
	p.last = records
	return nil
}

func named(names ...string) []Record {
	out := make([]Record, 0, len(names))
	for i, n := range names {
		out = append(out, Record{ID: string(rune('a' + i)), Name: n})
	}
	return out
}

func TestStoreAppendStampsProvenance(t *testing.T) {
	s := NewStore(nil, nil, nil)
	prov := Provenance{Ref: "batch-1/form.pdf", Kind: "application/pdf"}

	total := s.Append([]Record{{ID: "r1", Name: "Taro"}, {ID: "r2", Name: "Hanako"}}, prov)
	assert.Equal(t, 2, total)

	recs := s.Records()
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, "batch-1/form.pdf", r.SourceRef)
		assert.Equal(t, "application/pdf", r.SourceKind)
	}
}

func TestStoreAppendDeleteClear(t *testing.T) {
	s := NewStore(nil, nil, nil)
	s.Append([]Record{{ID: "r1", Name: "Taro"}}, Provenance{})

	require.NoError(t, s.Delete("r1"))
	assert.Equal(t, 0, s.Len())

	// clear on an empty store is a no-op, not an error
	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestStoreUpdateNormalizesAndPreservesIdentity(t *testing.T) {
	s := NewStore(nil, nil, nil)
	s.Append([]Record{{ID: "r1", Name: "Taro", Phone: "09012345678"}},
		Provenance{Ref: "b/f.png", Kind: "image/png"})
	id := s.Records()[0].ID

	edited := Record{Name: "Taro Yamada", Phone: "0312345678", ID: "spoofed", SourceRef: "spoofed"}
	updated, err := s.Update(id, edited)
	require.NoError(t, err)

	assert.Equal(t, id, updated.ID)
	assert.Equal(t, "Taro Yamada", updated.Name)
	assert.Equal(t, "031-234-5678", updated.Phone)
	assert.Equal(t, "b/f.png", updated.SourceRef)
	assert.Equal(t, "image/png", updated.SourceKind)
}

func TestStoreUpdateUnknownID(t *testing.T) {
	s := NewStore(nil, nil, nil)
	_, err := s.Update("missing", Record{})
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = s.Delete("missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestStoreSortToggleCycle(t *testing.T) {
	s := NewStore(named("Charlie", "Alice", "Bob"), nil, nil)

	// first toggle: ascending
	key, dir := s.ToggleSort(KeyName)
	assert.Equal(t, KeyName, key)
	assert.Equal(t, DirAsc, dir)
	view := s.View()
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, viewNames(view))

	// second: descending
	_, dir = s.ToggleSort(KeyName)
	assert.Equal(t, DirDesc, dir)
	assert.Equal(t, []string{"Charlie", "Bob", "Alice"}, viewNames(s.View()))

	// third: back to canonical insertion order
	key, dir = s.ToggleSort(KeyName)
	assert.Equal(t, DirNone, dir)
	assert.Equal(t, SortKey(""), key)
	assert.Equal(t, []string{"Charlie", "Alice", "Bob"}, viewNames(s.View()))
}

func TestStoreSortSwitchingKeyRestartsAscending(t *testing.T) {
	s := NewStore([]Record{
		{ID: "1", Name: "B", Furigana: "ビー"},
		{ID: "2", Name: "A", Furigana: "エー"},
	}, nil, nil)

	s.ToggleSort(KeyName)
	s.ToggleSort(KeyName) // name desc
	_, dir := s.ToggleSort(KeyFurigana)
	assert.Equal(t, DirAsc, dir)
}

func TestStoreSetSortBypassesToggle(t *testing.T) {
	s := NewStore(named("Charlie", "Alice", "Bob"), nil, nil)

	s.SetSort(KeyName, DirDesc)
	assert.Equal(t, []string{"Charlie", "Bob", "Alice"}, viewNames(s.View()))

	// clearing the direction clears the key too
	s.SetSort(KeyName, DirNone)
	_, key, dir := s.ViewState()
	assert.Equal(t, SortKey(""), key)
	assert.Equal(t, DirNone, dir)
	assert.Equal(t, []string{"Charlie", "Alice", "Bob"}, viewNames(s.View()))
}

func TestStoreFilterComposesWithSort(t *testing.T) {
	s := NewStore([]Record{
		{ID: "1", Name: "Watanabe Taro", Phone: "090"},
		{ID: "2", Name: "Sato Hanako", Phone: "080"},
		{ID: "3", Name: "Watanabe Jiro", Phone: "070"},
	}, nil, nil)

	s.ToggleSort(KeyName)
	s.SetFilter("watanabe")

	view := s.View()
	assert.Equal(t, []string{"Watanabe Jiro", "Watanabe Taro"}, viewNames(view))

	// canonical order untouched
	assert.Equal(t, []string{"Watanabe Taro", "Sato Hanako", "Watanabe Jiro"}, viewNames(s.Records()))
}

func TestStoreFilterFields(t *testing.T) {
	s := NewStore([]Record{
		{ID: "1", Name: "Taro", Furigana: "タロウ", CardNumber: "12345678", Phone: "090-1234-5678"},
		{ID: "2", Name: "Hanako"},
	}, nil, nil)

	for _, q := range []string{"taro", "タロウ", "1234567", "090-12"} {
		s.SetFilter(q)
		assert.Len(t, s.View(), 1, q)
	}

	s.SetFilter("")
	assert.Len(t, s.View(), 2)
}

func TestStoreDuplicates(t *testing.T) {
	cards := []string{"A1", "A2", "A1", "", ""}
	recs := make([]Record, len(cards))
	for i, c := range cards {
		recs[i] = Record{ID: string(rune('a' + i)), CardNumber: c}
	}
	s := NewStore(recs, nil, nil)

	assert.Equal(t, []string{"A1"}, s.Duplicates())
}

func TestStorePersistsOnEveryMutation(t *testing.T) {
	p := &capturePersister{}
	s := NewStore(nil, p, nil)

	s.Append([]Record{{ID: "r1", Name: "Taro"}}, Provenance{})
	_, err := s.Update("r1", Record{Name: "Edited"})
	require.NoError(t, err)
	require.NoError(t, s.Delete("r1"))
	s.Clear()

	assert.Equal(t, 4, p.saves)
	assert.Empty(t, p.last)
}

func viewNames(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}
