package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func storeFactories() map[string]func(t *testing.T) ports.IDSetStore {
	return map[string]func(t *testing.T) ports.IDSetStore{
		"file": func(t *testing.T) ports.IDSetStore {
			return NewFileStore(filepath.Join(t.TempDir(), "state", "ids.json"), nil)
		},
		"memory": func(t *testing.T) ports.IDSetStore {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) ports.IDSetStore {
			db, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			return db.Set("featured")
		},
		"redis": func(t *testing.T) ports.IDSetStore {
			_, client := newMiniredisClient(t)
			return NewRedisStore(client, "arxivdigest:featured")
		},
	}
}

func TestStoresShareContract(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := factory(t)

			ids, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, ids.Len(), "fresh store must be empty")

			require.NoError(t, store.Update(ctx, func(ids domain.IDSet) error {
				ids.Add("2101.0001")
				ids.Add("2101.0002")
				return nil
			}))

			ids, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"2101.0001", "2101.0002"}, ids.Sorted())

			require.NoError(t, store.Update(ctx, func(ids domain.IDSet) error {
				ids.Remove("2101.0001")
				ids.Add("2101.0003")
				return nil
			}))
			ids, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"2101.0002", "2101.0003"}, ids.Sorted())

			boom := errors.New("boom")
			err = store.Update(ctx, func(ids domain.IDSet) error {
				ids.Add("never")
				return boom
			})
			require.ErrorIs(t, err, boom)
			ids, err = store.Load(ctx)
			require.NoError(t, err)
			assert.False(t, ids.Has("never"), "failed update must not be persisted")

			require.NoError(t, store.Reset(ctx))
			ids, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, ids.Len())

			require.NoError(t, store.Reset(ctx), "reset on an empty store is a no-op")
		})
	}
}

func TestFileStoreFormatAndCorruption(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen_arxiv_ids.json")
	store := NewFileStore(path, nil)

	require.NoError(t, store.Update(ctx, func(ids domain.IDSet) error {
		ids.Add("b")
		ids.Add("a")
		return nil
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(raw))

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	ids, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ids.Len())

	require.NoError(t, store.Reset(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreSkipsWriteAfterCancel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen_arxiv_ids.json")
	store := NewFileStore(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Update(ctx, func(ids domain.IDSet) error {
		ids.Add("a")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithCancel(context.Background())
	err = store.Update(ctx, func(ids domain.IDSet) error {
		ids.Add("a")
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path, "cancellation during fn still skips the write")
}

func TestSQLiteSetsAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer db.Close()

	seen := db.Set("seen")
	featured := db.Set("featured")

	require.NoError(t, seen.Update(ctx, func(ids domain.IDSet) error {
		ids.Add("x")
		return nil
	}))
	require.NoError(t, featured.Reset(ctx))

	ids, err := seen.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ids.Has("x"))

	ids, err = featured.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ids.Len())
}

func TestRedisStoreDetectsConcurrentWriter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mr, client := newMiniredisClient(t)
	store := NewRedisStore(client, "featured")

	err := store.Update(ctx, func(ids domain.IDSet) error {
		_, _ = mr.SAdd("featured", "sneaky")
		ids.Add("mine")
		return nil
	})
	require.ErrorIs(t, err, ErrConcurrentUpdate)

	members, err := mr.Members("featured")
	require.NoError(t, err)
	assert.Equal(t, []string{"sneaky"}, members)
}
