package featured

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/infrastructure/storage"
	"ArxivDigest/internal/logging"
)

func articles(ids ...string) []domain.Article {
	out := make([]domain.Article, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Article{ID: id, Title: "title " + id})
	}
	return out
}

func ids(list []domain.Article) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestSelectSkipsAlreadyFeatured(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore("2101.0001")
	tracker := NewTracker(store, logging.Discard())

	sel, err := tracker.Select(ctx, articles("2101.0001", "2101.0002", "2101.0003"))
	require.NoError(t, err)
	require.NotNil(t, sel.Featured)

	assert.Equal(t, "2101.0002", sel.Featured.ID)
	assert.Equal(t, []string{"2101.0001", "2101.0003"}, ids(sel.Remaining))
	assert.False(t, sel.Duplicate)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2101.0001", "2101.0002"}, persisted.Sorted())
}

func TestSelectEmptyCandidates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	tracker := NewTracker(store, logging.Discard())

	sel, err := tracker.Select(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, sel.Featured)
	assert.NotNil(t, sel.Remaining)
	assert.Empty(t, sel.Remaining)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, persisted.Len())
}

func TestSelectFallsBackToFirstWhenAllFeatured(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var logs bytes.Buffer
	store := storage.NewMemoryStore("A", "B")
	tracker := NewTracker(store, logging.NewWithWriter(&logs, "debug"))

	sel, err := tracker.Select(ctx, articles("A", "B"))
	require.NoError(t, err)
	require.NotNil(t, sel.Featured)

	assert.Equal(t, "A", sel.Featured.ID)
	assert.Equal(t, []string{"B"}, ids(sel.Remaining))
	assert.True(t, sel.Duplicate)
	assert.Contains(t, logs.String(), "level=WARN")

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, persisted.Sorted())
}

func TestSelectPreservesOrderForEveryPosition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	input := []string{"a", "b", "c", "d", "e"}

	for pos := range input {
		already := input[:pos]
		store := storage.NewMemoryStore(already...)
		tracker := NewTracker(store, logging.Discard())

		sel, err := tracker.Select(ctx, articles(input...))
		require.NoError(t, err)
		assert.Equal(t, input[pos], sel.Featured.ID)

		want := append(append([]string{}, input[:pos]...), input[pos+1:]...)
		assert.Equal(t, want, ids(sel.Remaining))
		assert.Len(t, sel.Remaining, len(input)-1)
	}
}

func TestSelectDoesNotAliasInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	input := articles("a", "b", "c")
	tracker := NewTracker(storage.NewMemoryStore("a"), logging.Discard())

	sel, err := tracker.Select(ctx, input)
	require.NoError(t, err)

	sel.Remaining[0].Title = "changed"
	assert.Equal(t, []string{"a", "b", "c"}, ids(input))
	assert.Equal(t, "title a", input[0].Title)
}

func TestEpochAcrossCategories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "featured_arxiv_ids.json"), nil)
	tracker := NewTracker(store, logging.Discard())

	// two categories sharing cross-listed papers within one epoch
	first, err := tracker.Select(ctx, articles("x", "y"))
	require.NoError(t, err)
	second, err := tracker.Select(ctx, articles("x", "z"))
	require.NoError(t, err)

	assert.Equal(t, "x", first.Featured.ID)
	assert.Equal(t, "z", second.Featured.ID)

	require.NoError(t, tracker.Reset(ctx))

	again, err := tracker.Select(ctx, articles("x", "z"))
	require.NoError(t, err)
	assert.Equal(t, "x", again.Featured.ID)
	assert.False(t, again.Duplicate)
}

type failingStore struct {
	storage.MemoryStore
	err error
}

func (f *failingStore) Update(ctx context.Context, fn func(domain.IDSet) error) error {
	return f.err
}

func TestSelectPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	tracker := NewTracker(&failingStore{err: boom}, logging.Discard())

	_, err := tracker.Select(context.Background(), articles("a"))
	require.ErrorIs(t, err, boom)
}
