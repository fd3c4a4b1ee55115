package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/featured"
	"ArxivDigest/internal/infrastructure/ftp"
	"ArxivDigest/internal/infrastructure/llm"
	"ArxivDigest/internal/infrastructure/parser"
	"ArxivDigest/internal/infrastructure/storage"
	"ArxivDigest/internal/infrastructure/unsplash"
	"ArxivDigest/internal/logging"
	"ArxivDigest/internal/output"
	"ArxivDigest/internal/ports"
	"ArxivDigest/internal/render"
	"ArxivDigest/internal/rewrite"
	"ArxivDigest/internal/scanner"
	"ArxivDigest/internal/usecase"
)

// Application wires configs to use cases and owns long-lived resources.
type Application struct {
	cfg     config.Config
	batch   *usecase.Batch
	batchID string
	closers []io.Closer
	logger  *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	batchID := uuid.NewString()
	baseLogger = baseLogger.With("batch_id", batchID)

	app := &Application{cfg: cfg, batchID: batchID, logger: baseLogger}

	seen, featuredStore, err := app.openStores(cfg.State)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	workspace, err := output.New(cfg.Output.Dir)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	generator, err := llm.New(cfg.LLM)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	categories := cfg.DomainCategories()
	tracker := featured.NewTracker(featuredStore, logging.Component(baseLogger, "featured"))
	publisher := ftp.NewPublisher(cfg.FTP, logging.Component(baseLogger, "ftp"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    newSource(cfg.Feed, baseLogger),
		Seen:      seen,
		Tracker:   tracker,
		Rewriter:  rewrite.New(generator, logging.Component(baseLogger, "rewrite")),
		Images:    unsplash.NewProvisioner(unsplash.NewClient(cfg.Unsplash), cfg.Unsplash.UTMSource, logging.Component(baseLogger, "unsplash")),
		Renderer:  render.NewRenderer(categories, nil),
		Workspace: workspace,
		Publisher: publisher,
		Logger:    logging.Component(baseLogger, "pipeline"),
	})

	app.batch = usecase.NewBatch(usecase.BatchDeps{
		Categories:      categories,
		Runner:          pipeline,
		Featured:        tracker,
		Remote:          publisher,
		Workspace:       workspace,
		CategoryTimeout: cfg.Batch.CategoryTimeout,
		Pause:           cfg.Batch.Pause,
		Logger:          logging.Component(baseLogger, "batch"),
		BatchID:         batchID,
	})
	return app, nil
}

// Run executes one batch over every configured category.
func (a *Application) Run(ctx context.Context) usecase.Summary {
	if a.batch == nil {
		return usecase.Summary{BatchID: a.batchID}
	}
	return a.batch.Run(ctx)
}

// Close releases store connections.
func (a *Application) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func newSource(cfg config.FeedConfig, logger *slog.Logger) ports.FeedSource {
	client := &http.Client{Timeout: cfg.Timeout}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewAtomScanner(client, parser.AtomOptions{
		APIURL:    cfg.APIURL,
		SortBy:    cfg.SortBy,
		SortOrder: cfg.SortOrder,
	}, limiter, logging.Component(logger, "scanner.atom")))
	registry.Register(parser.NewListingScanner(client, cfg.ListingURL, limiter, logging.Component(logger, "scanner.listing")))

	return parser.NewStrategySource(registry, cfg.Strategy, cfg.MaxResults, logging.Component(logger, "source"))
}

// openStores returns the seen and featured sets for the configured backend.
func (a *Application) openStores(cfg config.StateConfig) (ports.IDSetStore, ports.IDSetStore, error) {
	storeLogger := logging.Component(a.logger, "storage")

	switch cfg.Backend {
	case "", "file":
		return storage.NewFileStore(filepath.Join(cfg.Dir, cfg.SeenFile), storeLogger),
			storage.NewFileStore(filepath.Join(cfg.Dir, cfg.FeaturedFile), storeLogger), nil
	case "sqlite":
		path := cfg.SQLitePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Dir, path)
		}
		db, err := storage.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db)
		return db.Set("seen"), db.Set("featured"), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, client)
		return storage.NewRedisStore(client, cfg.KeyPrefix+":seen"),
			storage.NewRedisStore(client, cfg.KeyPrefix+":featured"), nil
	case "memory":
		return storage.NewMemoryStore(), storage.NewMemoryStore(), nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
