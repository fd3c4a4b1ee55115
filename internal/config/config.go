package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ArxivDigest/internal/domain"
)

const (
	configPathEnv     = "ARXIV_DIGEST_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	ollamaModelEnv    = "OLLAMA_MODEL"
	ollamaAPIURLEnv   = "OLLAMA_API_URL"
	ollamaChatURLEnv  = "OLLAMA_CHAT_API_URL"
	llmProviderEnv    = "LLM_PROVIDER"
	llmAPIKeyEnv      = "LLM_API_KEY"
	ftpHostEnv        = "FTP_HOST"
	ftpUserEnv        = "FTP_USER"
	ftpPassEnv        = "FTP_PASS"
	ftpRemoteDirEnv   = "FTP_REMOTE_DIR"
	unsplashKeyEnv    = "UNSPLASH_ACCESS_KEY"
	stateBackendEnv   = "STATE_BACKEND"
	stateDirEnv       = "STATE_DIR"
	redisAddrEnv      = "REDIS_ADDR"
	defaultUTMSource  = "arxiv_aggregator"
	defaultOutputDir  = "output"
	defaultStateDir   = "."
	defaultMaxResults = 8
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	State      StateConfig      `yaml:"state"`
	Feed       FeedConfig       `yaml:"feed"`
	LLM        LLMConfig        `yaml:"llm"`
	Unsplash   UnsplashConfig   `yaml:"unsplash"`
	FTP        FTPConfig        `yaml:"ftp"`
	Output     OutputConfig     `yaml:"output"`
	Batch      BatchConfig      `yaml:"batch"`
	Categories []CategoryConfig `yaml:"categories"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StateConfig selects where the seen and featured identifier sets live.
type StateConfig struct {
	Backend      string `yaml:"backend"`
	Dir          string `yaml:"dir"`
	SeenFile     string `yaml:"seenFile"`
	FeaturedFile string `yaml:"featuredFile"`
	SQLitePath   string `yaml:"sqlitePath"`
	RedisAddr    string `yaml:"redisAddr"`
	RedisDB      int    `yaml:"redisDb"`
	KeyPrefix    string `yaml:"keyPrefix"`
}

// FeedConfig describes how category feeds are queried.
type FeedConfig struct {
	Strategy        string        `yaml:"strategy"`
	APIURL          string        `yaml:"apiUrl"`
	ListingURL      string        `yaml:"listingUrl"`
	MaxResults      int           `yaml:"maxResults"`
	SortBy          string        `yaml:"sortBy"`
	SortOrder       string        `yaml:"sortOrder"`
	RequestInterval time.Duration `yaml:"requestInterval"`
	Timeout         time.Duration `yaml:"timeout"`
}

// LLMConfig defines how to contact the text-generation service.
type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	Endpoint     string        `yaml:"endpoint"`
	ChatEndpoint string        `yaml:"chatEndpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	Timeout      time.Duration `yaml:"timeout"`
}

// UnsplashConfig wires the photo search API.
type UnsplashConfig struct {
	APIURL          string        `yaml:"apiUrl"`
	AccessKey       string        `yaml:"accessKey"`
	UTMSource       string        `yaml:"utmSource"`
	RequestInterval time.Duration `yaml:"requestInterval"`
	Timeout         time.Duration `yaml:"timeout"`
}

// FTPConfig describes the remote file server receiving rendered pages.
type FTPConfig struct {
	Host      string        `yaml:"host"`
	User      string        `yaml:"user"`
	Password  string        `yaml:"password"`
	RemoteDir string        `yaml:"remoteDir"`
	Timeout   time.Duration `yaml:"timeout"`
}

// OutputConfig points at the local render directory.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// BatchConfig bounds each category run and spaces them out.
type BatchConfig struct {
	CategoryTimeout time.Duration `yaml:"categoryTimeout"`
	Pause           time.Duration `yaml:"pause"`
}

// CategoryConfig describes one arXiv category page.
type CategoryConfig struct {
	Key    string `yaml:"key"`
	Code   string `yaml:"code"`
	Label  string `yaml:"label"`
	Topic  string `yaml:"topic"`
	Page   string `yaml:"page"`
	Accent string `yaml:"accent"`
}

// Domain converts the YAML shape into the domain category.
func (c CategoryConfig) Domain() domain.Category {
	return domain.Category{
		Key:    c.Key,
		Code:   c.Code,
		Label:  c.Label,
		Topic:  c.Topic,
		Page:   c.Page,
		Accent: c.Accent,
	}
}

// DomainCategories returns the configured categories in run order.
func (c Config) DomainCategories() []domain.Category {
	out := make([]domain.Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		out = append(out, cat.Domain())
	}
	return out
}

// Pages lists every page file produced by a full batch.
func (c Config) Pages() []string {
	pages := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		pages = append(pages, cat.Page)
	}
	return pages
}

// Load reads .env, YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot read .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Categories) == 0 {
		cfg.Categories = defaultConfig().Categories
	}

	return cfg
}

// Default returns the built-in configuration without reading files or env.
func Default() Config {
	return defaultConfig()
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

// Validate reports settings that a batch run cannot do without.
func (c Config) Validate() error {
	var missing []string
	if c.FTP.Host == "" {
		missing = append(missing, ftpHostEnv)
	}
	if c.FTP.User == "" {
		missing = append(missing, ftpUserEnv)
	}
	if c.FTP.Password == "" {
		missing = append(missing, ftpPassEnv)
	}
	if c.Unsplash.AccessKey == "" {
		missing = append(missing, unsplashKeyEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	seen := map[string]struct{}{}
	for _, cat := range c.Categories {
		if cat.Code == "" || cat.Page == "" {
			return fmt.Errorf("category %q needs both code and page", cat.Key)
		}
		if _, dup := seen[cat.Page]; dup {
			return fmt.Errorf("page %s is used by more than one category", cat.Page)
		}
		seen[cat.Page] = struct{}{}
	}

	switch c.State.Backend {
	case "file", "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(ollamaModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(ollamaAPIURLEnv); v != "" {
		c.LLM.Endpoint = v
	}
	if v := os.Getenv(ollamaChatURLEnv); v != "" {
		c.LLM.ChatEndpoint = v
	}
	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(ftpHostEnv); v != "" {
		c.FTP.Host = v
	}
	if v := os.Getenv(ftpUserEnv); v != "" {
		c.FTP.User = v
	}
	if v := os.Getenv(ftpPassEnv); v != "" {
		c.FTP.Password = v
	}
	if v := os.Getenv(ftpRemoteDirEnv); v != "" {
		c.FTP.RemoteDir = v
	}

	if v := os.Getenv(unsplashKeyEnv); v != "" {
		c.Unsplash.AccessKey = v
	}

	if v := os.Getenv(stateBackendEnv); v != "" {
		c.State.Backend = v
	}
	if v := os.Getenv(stateDirEnv); v != "" {
		c.State.Dir = v
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.State.RedisAddr = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	base.State = mergeState(base.State, override.State)
	base.Feed = mergeFeed(base.Feed, override.Feed)

	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.ChatEndpoint != "" {
		base.LLM.ChatEndpoint = override.LLM.ChatEndpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	if override.Unsplash.APIURL != "" {
		base.Unsplash.APIURL = override.Unsplash.APIURL
	}
	if override.Unsplash.AccessKey != "" {
		base.Unsplash.AccessKey = override.Unsplash.AccessKey
	}
	if override.Unsplash.UTMSource != "" {
		base.Unsplash.UTMSource = override.Unsplash.UTMSource
	}
	if override.Unsplash.RequestInterval > 0 {
		base.Unsplash.RequestInterval = override.Unsplash.RequestInterval
	}
	if override.Unsplash.Timeout > 0 {
		base.Unsplash.Timeout = override.Unsplash.Timeout
	}

	if override.FTP.Host != "" {
		base.FTP.Host = override.FTP.Host
	}
	if override.FTP.User != "" {
		base.FTP.User = override.FTP.User
	}
	if override.FTP.Password != "" {
		base.FTP.Password = override.FTP.Password
	}
	if override.FTP.RemoteDir != "" {
		base.FTP.RemoteDir = override.FTP.RemoteDir
	}
	if override.FTP.Timeout > 0 {
		base.FTP.Timeout = override.FTP.Timeout
	}

	if override.Output.Dir != "" {
		base.Output.Dir = override.Output.Dir
	}

	if override.Batch.CategoryTimeout > 0 {
		base.Batch.CategoryTimeout = override.Batch.CategoryTimeout
	}
	if override.Batch.Pause > 0 {
		base.Batch.Pause = override.Batch.Pause
	}

	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}

	return base
}

func mergeState(base, override StateConfig) StateConfig {
	if override.Backend != "" {
		base.Backend = override.Backend
	}
	if override.Dir != "" {
		base.Dir = override.Dir
	}
	if override.SeenFile != "" {
		base.SeenFile = override.SeenFile
	}
	if override.FeaturedFile != "" {
		base.FeaturedFile = override.FeaturedFile
	}
	if override.SQLitePath != "" {
		base.SQLitePath = override.SQLitePath
	}
	if override.RedisAddr != "" {
		base.RedisAddr = override.RedisAddr
	}
	if override.RedisDB != 0 {
		base.RedisDB = override.RedisDB
	}
	if override.KeyPrefix != "" {
		base.KeyPrefix = override.KeyPrefix
	}
	return base
}

func mergeFeed(base, override FeedConfig) FeedConfig {
	if override.Strategy != "" {
		base.Strategy = override.Strategy
	}
	if override.APIURL != "" {
		base.APIURL = override.APIURL
	}
	if override.ListingURL != "" {
		base.ListingURL = override.ListingURL
	}
	if override.MaxResults > 0 {
		base.MaxResults = override.MaxResults
	}
	if override.SortBy != "" {
		base.SortBy = override.SortBy
	}
	if override.SortOrder != "" {
		base.SortOrder = override.SortOrder
	}
	if override.RequestInterval > 0 {
		base.RequestInterval = override.RequestInterval
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		State: StateConfig{
			Backend:      "file",
			Dir:          defaultStateDir,
			SeenFile:     "seen_arxiv_ids.json",
			FeaturedFile: "featured_arxiv_ids.json",
			SQLitePath:   "arxivdigest.db",
			RedisAddr:    "localhost:6379",
			KeyPrefix:    "arxivdigest",
		},
		Feed: FeedConfig{
			Strategy:        "atom",
			APIURL:          "https://export.arxiv.org/api/query",
			ListingURL:      "https://arxiv.org/list",
			MaxResults:      defaultMaxResults,
			SortBy:          "submittedDate",
			SortOrder:       "descending",
			RequestInterval: 3 * time.Second,
			Timeout:         30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:     "ollama",
			Endpoint:     "http://localhost:11434/api/generate",
			ChatEndpoint: "http://localhost:11434/v1/chat/completions",
			Model:        "llama3.1:8b",
			Timeout:      2 * time.Minute,
		},
		Unsplash: UnsplashConfig{
			APIURL:          "https://api.unsplash.com",
			UTMSource:       defaultUTMSource,
			RequestInterval: time.Second,
			Timeout:         30 * time.Second,
		},
		FTP: FTPConfig{
			RemoteDir: ".",
			Timeout:   30 * time.Second,
		},
		Output: OutputConfig{Dir: defaultOutputDir},
		Batch: BatchConfig{
			CategoryTimeout: 10 * time.Minute,
			Pause:           2 * time.Second,
		},
		Categories: []CategoryConfig{
			{Key: "ai", Code: "cs.AI", Label: "AI Research", Topic: "artificial intelligence", Page: "index.html", Accent: "#1a73e8"},
			{Key: "ml", Code: "cs.LG", Label: "Machine Learning", Topic: "machine learning", Page: "ml.html", Accent: "#188038"},
			{Key: "cv", Code: "cs.CV", Label: "Computer Vision", Topic: "computer vision", Page: "cv.html", Accent: "#9334e6"},
			{Key: "cr", Code: "cs.CR", Label: "Security/Cryptography", Topic: "computer security", Page: "cr.html", Accent: "#d93025"},
			{Key: "ro", Code: "cs.RO", Label: "Robotics", Topic: "robotics", Page: "ro.html", Accent: "#e37400"},
			{Key: "hc", Code: "cs.HC", Label: "Human-Computer Interaction", Topic: "human-computer interaction", Page: "hc.html", Accent: "#007b83"},
		},
	}
}
