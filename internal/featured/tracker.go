// Package featured picks the lead article of a category page while keeping a
// per-epoch record of what has already been featured across categories.
package featured

import (
	"context"
	"fmt"
	"log/slog"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// Selection is the outcome of one Select call.
type Selection struct {
	// Featured is nil only when there were no candidates.
	Featured *domain.Article
	// Remaining holds the other candidates in their original order.
	Remaining []domain.Article
	// Duplicate is set when every candidate had already been featured this epoch
	// and the first one was reused.
	Duplicate bool
}

// Tracker selects featured articles against a persisted featured set.
type Tracker struct {
	store  ports.IDSetStore
	logger *slog.Logger
}

// NewTracker wires the featured-set store.
func NewTracker(store ports.IDSetStore, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// Select returns the first candidate that is not yet featured and records it
// in the store before returning. When all candidates are already featured the
// first one is returned anyway and a warning is logged.
func (t *Tracker) Select(ctx context.Context, candidates []domain.Article) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{Remaining: []domain.Article{}}, nil
	}

	chosen := -1
	err := t.store.Update(ctx, func(ids domain.IDSet) error {
		for i, candidate := range candidates {
			if !ids.Has(candidate.ID) {
				ids.Add(candidate.ID)
				chosen = i
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return Selection{}, fmt.Errorf("record featured article: %w", err)
	}

	duplicate := chosen < 0
	if duplicate {
		chosen = 0
		if t.logger != nil {
			t.logger.Warn("all candidates already featured this epoch, reusing the first one",
				"candidates", len(candidates),
				"id", candidates[0].ID,
			)
		}
	}

	featured := candidates[chosen]
	remaining := make([]domain.Article, 0, len(candidates)-1)
	remaining = append(remaining, candidates[:chosen]...)
	remaining = append(remaining, candidates[chosen+1:]...)

	return Selection{
		Featured:  &featured,
		Remaining: remaining,
		Duplicate: duplicate,
	}, nil
}

// Reset starts a new epoch: every article becomes eligible again.
func (t *Tracker) Reset(ctx context.Context) error {
	if err := t.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset featured set: %w", err)
	}
	return nil
}
