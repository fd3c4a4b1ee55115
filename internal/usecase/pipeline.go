package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/featured"
	"ArxivDigest/internal/ports"
	"ArxivDigest/internal/rewrite"
)

// PipelineDeps wires all driven adapters into the category pipeline.
type PipelineDeps struct {
	Source    ports.FeedSource
	Seen      ports.IDSetStore
	Tracker   *featured.Tracker
	Rewriter  ports.ContentRewriter
	Images    ports.ImageProvider
	Renderer  ports.PageRenderer
	Workspace ports.Workspace
	Publisher ports.Publisher
	Logger    *slog.Logger
}

// Pipeline implements one category run: fetch, filter, feature, rewrite,
// render, publish.
type Pipeline struct {
	source    ports.FeedSource
	seen      ports.IDSetStore
	tracker   *featured.Tracker
	rewriter  ports.ContentRewriter
	images    ports.ImageProvider
	renderer  ports.PageRenderer
	workspace ports.Workspace
	publisher ports.Publisher
	logger    *slog.Logger
}

var _ ports.CategoryRunner = (*Pipeline)(nil)

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		source:    deps.Source,
		seen:      deps.Seen,
		tracker:   deps.Tracker,
		rewriter:  deps.Rewriter,
		images:    deps.Images,
		renderer:  deps.Renderer,
		workspace: deps.Workspace,
		publisher: deps.Publisher,
		logger:    logger,
	}
}

// Run processes one category. Returning nil without a page is normal when
// the feed holds nothing new.
func (p *Pipeline) Run(ctx context.Context, category domain.Category) error {
	logger := p.logger.With("category", category.Key)

	articles, err := p.source.Fetch(ctx, category)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", category.Code, err)
	}

	seen, err := p.seen.Load(ctx)
	if err != nil {
		return fmt.Errorf("load seen ids: %w", err)
	}
	fresh := FilterUnseen(articles, seen)
	if len(fresh) == 0 {
		logger.Info("no new articles", "fetched", len(articles))
		return nil
	}

	selection, err := p.tracker.Select(ctx, fresh)
	if err != nil {
		return err
	}
	if selection.Featured == nil {
		logger.Info("no featured candidate")
		return nil
	}

	logger.Info("processing featured article", "id", selection.Featured.ID, "title", selection.Featured.Title)
	processed := make([]domain.ProcessedArticle, 0, len(fresh))
	processed = append(processed, p.process(ctx, logger, category, *selection.Featured, true, true))

	for i, article := range selection.Remaining {
		logger.Info("processing article", "id", article.ID, "position", i+1)
		processed = append(processed, p.process(ctx, logger, category, article, false, WantsThumbnail(i)))
	}

	page, err := p.renderer.Render(category, processed)
	if err != nil {
		return err
	}
	if err := p.workspace.WritePage(category.Page, page); err != nil {
		return err
	}
	logger.Info("page written", "page", category.Page, "articles", len(processed))

	if err := p.publisher.Publish(ctx, p.workspace.Dir()); err != nil {
		return fmt.Errorf("publish %s: %w", category.Page, err)
	}

	if err := p.seen.Update(ctx, func(ids domain.IDSet) error {
		for _, a := range processed {
			ids.Add(a.Source.ID)
		}
		return nil
	}); err != nil {
		// The page is already live; the worst case is a repeat next run.
		logger.Warn("save seen ids", "error", err)
	}

	logger.Info("category published", "page", category.Page, "articles", len(processed))
	return nil
}

// FilterUnseen keeps articles whose IDs are not in seen, preserving order.
func FilterUnseen(articles []domain.Article, seen domain.IDSet) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if seen.Has(a.ID) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// WantsThumbnail reports whether the non-featured article at 0-based position
// i gets a photo: every third one.
func WantsThumbnail(i int) bool {
	return (i+1)%3 == 0
}

// ImageFilename derives a stable file name from the headline.
func ImageFilename(headline string) string {
	sum := md5.Sum([]byte(headline))
	return "article_" + hex.EncodeToString(sum[:])[:8] + ".jpg"
}

func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, category domain.Category, article domain.Article, isFeatured, withImage bool) domain.ProcessedArticle {
	rw := p.rewriter.Rewrite(ctx, article, category)
	if rw.Degraded {
		logger.Warn("rewrite degraded", "id", article.ID)
	}

	out := domain.ProcessedArticle{
		Source:   article,
		Headline: rw.Headline,
		Blurb:    rw.Blurb,
		Featured: isFeatured,
	}
	if withImage && p.images != nil {
		out.Image = p.attachImage(ctx, logger, category, rw.Headline, isFeatured)
	}
	return out
}

// attachImage never fails the article; problems are logged and the page
// renders without a photo.
func (p *Pipeline) attachImage(ctx context.Context, logger *slog.Logger, category domain.Category, headline string, isFeatured bool) *domain.Image {
	keyword := p.rewriter.Keyword(ctx, headline, keywordFallback(category))
	photo, err := p.images.Provide(ctx, keyword, isFeatured)
	if err != nil {
		logger.Warn("image provisioning failed", "keyword", keyword, "error", err)
		return nil
	}
	if photo == nil {
		return nil
	}

	name := ImageFilename(headline)
	if err := p.workspace.WriteImage(name, photo.Data); err != nil {
		logger.Warn("image write failed", "file", name, "error", err)
		return nil
	}
	logger.Debug("image saved", "file", name, "keyword", keyword)

	return &domain.Image{
		Filename:    name,
		Path:        "images/" + name,
		AltText:     photo.AltText,
		Credit:      photo.Credit(),
		CreditURL:   photo.ProfileURL,
		ProviderURL: photo.ProviderURL,
	}
}

// keywordFallback is the photo search term used when no keyword could be
// generated for a headline.
func keywordFallback(category domain.Category) string {
	if topic := category.DisplayTopic(); topic != "" {
		return topic
	}
	return rewrite.DefaultKeyword
}
