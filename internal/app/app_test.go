package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/logging"
)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.State.Backend = backend
	cfg.State.Dir = dir
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Categories = nil
	return cfg
}

func TestNewWiresBackends(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{"file", "memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			application, err := New(testConfig(t, backend), logging.Discard())
			require.NoError(t, err)
			t.Cleanup(func() { _ = application.Close() })

			summary := application.Run(context.Background())
			assert.True(t, summary.OK())
			assert.NotEmpty(t, summary.BatchID)
		})
	}
}

func TestNewWiresRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := testConfig(t, "redis")
	cfg.State.RedisAddr = mr.Addr()

	application, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Len(t, application.closers, 1)
	require.NoError(t, application.Close())
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := New(testConfig(t, "etcd"), logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd")
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "memory")
	cfg.LLM.Provider = "bard"
	_, err := New(cfg, logging.Discard())
	assert.Error(t, err)
}
