package parser

import (
	"context"
	"fmt"
	"log/slog"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
	"ArxivDigest/internal/scanner"
)

// StrategySource implements FeedSource via a registered scanner strategy.
type StrategySource struct {
	registry   *scanner.Registry
	strategy   string
	maxResults int
	logger     *slog.Logger
}

var _ ports.FeedSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the configured strategy.
func NewStrategySource(reg *scanner.Registry, strategy string, maxResults int, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:   reg,
		strategy:   strategy,
		maxResults: maxResults,
		logger:     log,
	}
}

// Fetch resolves the strategy and scans one category.
func (s *StrategySource) Fetch(ctx context.Context, category domain.Category) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.strategy)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", category.Code, err)
	}

	s.debug("fetch category", "category", category.Code, "scanner", strategy.Name(), "max_results", s.maxResults)

	results, err := strategy.Scan(ctx, scanner.Request{
		Category:   category,
		MaxResults: s.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", category.Code, err)
	}

	if s.maxResults > 0 && len(results) > s.maxResults {
		results = results[:s.maxResults]
	}

	s.debug("category produced articles", "category", category.Code, "count", len(results))
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
