package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/scanner"
)

// AtomOptions controls the arXiv API query.
type AtomOptions struct {
	APIURL    string
	SortBy    string
	SortOrder string
}

// AtomScanner queries the arXiv export API and parses its Atom response.
type AtomScanner struct {
	client  *http.Client
	opts    AtomOptions
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ scanner.Scanner = (*AtomScanner)(nil)

// NewAtomScanner fills in arXiv defaults for empty options.
func NewAtomScanner(client *http.Client, opts AtomOptions, limiter *rate.Limiter, logger *slog.Logger) *AtomScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.APIURL == "" {
		opts.APIURL = "https://export.arxiv.org/api/query"
	}
	if opts.SortBy == "" {
		opts.SortBy = "submittedDate"
	}
	if opts.SortOrder == "" {
		opts.SortOrder = "descending"
	}
	return &AtomScanner{client: client, opts: opts, limiter: limiter, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *AtomScanner) Name() string {
	return "atom"
}

// Scan fetches the newest entries of the category in feed order.
func (a *AtomScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if req.Category.Code == "" {
		return nil, fmt.Errorf("no category code provided")
	}

	queryURL, err := a.queryURL(req.Category.Code, req.MaxResults)
	if err != nil {
		return nil, err
	}

	if err := waitLimiter(ctx, a.limiter); err != nil {
		return nil, err
	}

	fp := gofeed.NewParser()
	fp.Client = a.client
	fp.UserAgent = userAgent
	feed, err := fp.ParseURLWithContext(queryURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.Category.Code, err)
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if req.MaxResults > 0 && len(articles) >= req.MaxResults {
			break
		}
		article, ok := toArticle(item)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	if a.logger != nil {
		a.logger.Debug("atom feed fetched", "category", req.Category.Code, "entries", len(articles))
	}
	return articles, nil
}

func (a *AtomScanner) queryURL(code string, maxResults int) (string, error) {
	parsed, err := url.Parse(a.opts.APIURL)
	if err != nil {
		return "", fmt.Errorf("invalid api url %s: %w", a.opts.APIURL, err)
	}
	if maxResults <= 0 {
		maxResults = 8
	}

	query := parsed.Query()
	query.Set("search_query", "cat:"+code)
	query.Set("start", "0")
	query.Set("max_results", strconv.Itoa(maxResults))
	query.Set("sortBy", a.opts.SortBy)
	query.Set("sortOrder", a.opts.SortOrder)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func toArticle(item *gofeed.Item) (domain.Article, bool) {
	if item == nil {
		return domain.Article{}, false
	}

	id := item.GUID
	if id == "" {
		id = item.Link
	}
	if id == "" {
		return domain.Article{}, false
	}

	abstract := item.Description
	if abstract == "" {
		abstract = item.Content
	}

	article := domain.Article{
		ID:       id,
		Title:    collapseSpaces(item.Title),
		Abstract: collapseSpaces(abstract),
		URL:      item.Link,
	}

	switch {
	case item.PublishedParsed != nil:
		article.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		article.PublishedAt = item.UpdatedParsed.UTC()
	}

	return article, true
}
