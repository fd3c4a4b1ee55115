package ports

import (
	"context"

	"ArxivDigest/internal/domain"
)

// FeedSource pulls the newest entries of one category, newest first.
type FeedSource interface {
	Fetch(ctx context.Context, category domain.Category) ([]domain.Article, error)
}

// IDSetStore persists a set of article identifiers as a whole snapshot.
// Update performs load, mutate and save as one operation so a transactional
// backend can replace the file-based one without touching call sites.
type IDSetStore interface {
	Load(ctx context.Context) (domain.IDSet, error)
	Update(ctx context.Context, fn func(ids domain.IDSet) error) error
	Reset(ctx context.Context) error
}

// GenerateOptions tunes a single text-generation request.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// TextGenerator talks to a language-model service.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// ContentRewriter turns academic text into lay headlines and summaries.
type ContentRewriter interface {
	Rewrite(ctx context.Context, article domain.Article, category domain.Category) domain.Rewrite
	Keyword(ctx context.Context, headline, fallback string) string
}

// ImageProvider searches, downloads and resizes a stock photo.
// A nil photo with a nil error means the search found nothing.
type ImageProvider interface {
	Provide(ctx context.Context, keyword string, featured bool) (*domain.Photo, error)
}

// PageRenderer produces the HTML document for one category.
type PageRenderer interface {
	Render(category domain.Category, articles []domain.ProcessedArticle) ([]byte, error)
}

// Publisher uploads a local output directory to the remote file store.
type Publisher interface {
	Publish(ctx context.Context, dir string) error
}

// RemoteCleaner removes a previous batch's pages and images from the remote store.
type RemoteCleaner interface {
	Clear(ctx context.Context, pages []string) error
}

// Workspace is the local output directory shared by all categories.
type Workspace interface {
	Dir() string
	WritePage(name string, content []byte) error
	WriteImage(name string, data []byte) error
	Clear(pages []string) error
}

// CategoryRunner executes one category pipeline end to end.
type CategoryRunner interface {
	Run(ctx context.Context, category domain.Category) error
}
