package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

const (
	defaultCategoryTimeout = 10 * time.Minute
	defaultOverrunGrace    = 30 * time.Second
)

// ErrCategoryTimeout marks a category that exceeded its deadline.
var ErrCategoryTimeout = errors.New("category run timed out")

// EpochResetter starts a new featured-article epoch.
type EpochResetter interface {
	Reset(ctx context.Context) error
}

// BatchDeps wires the batch orchestrator.
type BatchDeps struct {
	Categories      []domain.Category
	Runner          ports.CategoryRunner
	Featured        EpochResetter
	Remote          ports.RemoteCleaner
	Workspace       ports.Workspace
	CategoryTimeout time.Duration
	// OverrunGrace bounds how long a timed-out category may keep running
	// before the batch moves on without it.
	OverrunGrace    time.Duration
	Pause           time.Duration
	Logger          *slog.Logger
	BatchID         string
}

// Batch runs every category pipeline in order, isolating failures.
type Batch struct {
	categories []domain.Category
	runner     ports.CategoryRunner
	featured   EpochResetter
	remote     ports.RemoteCleaner
	workspace  ports.Workspace
	timeout    time.Duration
	grace      time.Duration
	pause      time.Duration
	logger     *slog.Logger
	batchID    string
	sleep      func(ctx context.Context, d time.Duration)
}

// NewBatch returns the orchestrator.
func NewBatch(deps BatchDeps) *Batch {
	timeout := deps.CategoryTimeout
	if timeout <= 0 {
		timeout = defaultCategoryTimeout
	}
	grace := deps.OverrunGrace
	if grace <= 0 {
		grace = defaultOverrunGrace
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Batch{
		categories: deps.Categories,
		runner:     deps.Runner,
		featured:   deps.Featured,
		remote:     deps.Remote,
		workspace:  deps.Workspace,
		timeout:    timeout,
		grace:      grace,
		pause:      deps.Pause,
		logger:     logger,
		batchID:    deps.BatchID,
		sleep:      sleepContext,
	}
}

// Run starts a new epoch and processes every category. It never returns an
// error; check Summary.OK for the aggregate outcome.
func (b *Batch) Run(ctx context.Context) Summary {
	summary := Summary{BatchID: b.batchID, Results: make([]CategoryResult, 0, len(b.categories))}
	b.logger.Info("batch started", "categories", len(b.categories))

	b.prepare(ctx)

	for i, category := range b.categories {
		if i > 0 && b.pause > 0 {
			b.sleep(ctx, b.pause)
		}

		start := time.Now()
		err := b.runOne(ctx, category)
		result := CategoryResult{Key: category.Key, Label: category.Label, Err: err, Duration: time.Since(start)}
		summary.Results = append(summary.Results, result)

		if err != nil {
			b.logger.Error("category failed", "category", category.Key, "duration", result.Duration, "error", err)
		} else {
			b.logger.Info("category finished", "category", category.Key, "duration", result.Duration)
		}
	}

	b.logger.Info("batch finished", "failed", summary.Failed(), "total", len(summary.Results))
	return summary
}

// prepare resets the featured epoch and clears remote and local output.
// Failures here are logged; the categories still run.
func (b *Batch) prepare(ctx context.Context) {
	if b.featured != nil {
		if err := b.featured.Reset(ctx); err != nil {
			b.logger.Error("reset featured set", "error", err)
		} else {
			b.logger.Info("featured set reset")
		}
	}

	pages := make([]string, 0, len(b.categories))
	for _, c := range b.categories {
		pages = append(pages, c.Page)
	}

	if b.remote != nil {
		if err := b.remote.Clear(ctx, pages); err != nil {
			b.logger.Error("clear remote output", "error", err)
		}
	}
	if b.workspace != nil {
		if err := b.workspace.Clear(pages); err != nil {
			b.logger.Error("clear local output", "error", err)
		}
	}
}

// runOne bounds a category by the timeout and converts panics into errors.
// After the deadline the runner gets a grace period to observe cancellation,
// so the next category does not overlap with it. A runner still busy after
// the grace period is abandoned.
func (b *Batch) runOne(ctx context.Context, category domain.Category) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- b.runner.Run(ctx, category)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %w", ErrCategoryTimeout, b.timeout, err)
		}
		return err
	case <-ctx.Done():
	}

	grace := time.NewTimer(b.grace)
	defer grace.Stop()
	select {
	case <-done:
	case <-grace.C:
		b.logger.Error("category still running after deadline", "category", category.Key, "grace", b.grace)
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrCategoryTimeout, b.timeout)
	}
	return ctx.Err()
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
