package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ArxivDigest/internal/domain"
)

// Request carries all parameters required to fetch one category.
type Request struct {
	Category   domain.Category
	MaxResults int
}

// Scanner captures a single feed strategy implementation (Atom API, listing page).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// DefaultStrategy is used when no strategy is configured.
const DefaultStrategy = "atom"

// Registry maps strategy names (case-insensitive) to feed scanners.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[strings.ToLower(scanner.Name())] = scanner
}

// Resolve returns the named strategy; an empty name selects DefaultStrategy.
func (r *Registry) Resolve(name string) (Scanner, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultStrategy
	}
	if scanner, ok := r.scanners[key]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("feed strategy %q is not registered (have %s)", name, strings.Join(r.Names(), ", "))
}

// Names lists registered strategies.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
