package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCategoriesOrder(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	require.Len(t, cfg.Categories, 6)

	codes := make([]string, 0, len(cfg.Categories))
	for _, c := range cfg.DomainCategories() {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"cs.AI", "cs.LG", "cs.CV", "cs.CR", "cs.RO", "cs.HC"}, codes)
	assert.Equal(t, []string{"index.html", "ml.html", "cv.html", "cr.html", "ro.html", "hc.html"}, cfg.Pages())
	assert.Equal(t, 10*time.Minute, cfg.Batch.CategoryTimeout)
	assert.Equal(t, 2*time.Second, cfg.Batch.Pause)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
logging:
  level: warn
feed:
  maxResults: 5
  requestInterval: 500ms
batch:
  categoryTimeout: 90s
state:
  backend: sqlite
ftp:
  host: from-file.example.org
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(ftpHostEnv, "ftp.example.org")
	t.Setenv(ftpUserEnv, "user")
	t.Setenv(ftpPassEnv, "secret")
	t.Setenv(unsplashKeyEnv, "key")
	t.Setenv(ollamaModelEnv, "mistral")

	cfg := Load()

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Feed.MaxResults)
	assert.Equal(t, 500*time.Millisecond, cfg.Feed.RequestInterval)
	assert.Equal(t, "submittedDate", cfg.Feed.SortBy)
	assert.Equal(t, 90*time.Second, cfg.Batch.CategoryTimeout)
	assert.Equal(t, "sqlite", cfg.State.Backend)
	assert.Equal(t, "ftp.example.org", cfg.FTP.Host)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Len(t, cfg.Categories, 6)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFallsBackOnBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed: [unclosed"), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()
	assert.Equal(t, defaultMaxResults, cfg.Feed.MaxResults)
	assert.Equal(t, "atom", cfg.Feed.Strategy)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FTP_HOST")
	assert.Contains(t, err.Error(), "UNSPLASH_ACCESS_KEY")

	cfg.FTP = FTPConfig{Host: "h", User: "u", Password: "p"}
	cfg.Unsplash.AccessKey = "k"
	require.NoError(t, cfg.Validate())

	cfg.Categories = append(cfg.Categories, CategoryConfig{Key: "dup", Code: "cs.NE", Page: "ml.html"})
	assert.ErrorContains(t, cfg.Validate(), "ml.html")

	cfg.Categories = defaultConfig().Categories
	cfg.State.Backend = "etcd"
	assert.ErrorContains(t, cfg.Validate(), "etcd")
}
