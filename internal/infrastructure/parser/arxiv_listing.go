package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/scanner"
)

const (
	arxivBaseURL = "https://arxiv.org"
	userAgent    = "ArxivDigest/1.0 (+https://arxiv.org/help/api)"
)

var (
	dateExpr   = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)
	spacesExpr = regexp.MustCompile(`\s+`)
)

// ListingScanner scrapes the category "new submissions" HTML listing.
type ListingScanner struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ scanner.Scanner = (*ListingScanner)(nil)

// NewListingScanner wires an HTTP client; baseURL defaults to https://arxiv.org/list.
func NewListingScanner(client *http.Client, baseURL string, limiter *rate.Limiter, logger *slog.Logger) *ListingScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if baseURL == "" {
		baseURL = arxivBaseURL + "/list"
	}
	return &ListingScanner{client: client, baseURL: baseURL, limiter: limiter, logger: logger}
}

// Name identifies the strategy inside the registry.
func (l *ListingScanner) Name() string {
	return "listing"
}

// Scan returns up to req.MaxResults entries from the listing, in page order.
func (l *ListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if req.Category.Code == "" {
		return nil, fmt.Errorf("no category code provided")
	}

	pageURL, err := buildPageURL(strings.TrimSuffix(l.baseURL, "/")+"/"+req.Category.Code+"/recent", 0, req.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", req.Category.Code, err)
	}

	if err := waitLimiter(ctx, l.limiter); err != nil {
		return nil, err
	}

	doc, err := l.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", req.Category.Code, err)
	}

	articles := extractArticles(doc, req.MaxResults)
	if l.logger != nil {
		l.logger.Debug("listing scanned", "category", req.Category.Code, "articles", len(articles))
	}
	return articles, nil
}

func (l *ListingScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractArticles(doc *goquery.Document, limit int) []domain.Article {
	var collected []domain.Article
	seen := map[string]struct{}{}

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		if limit > 0 && len(collected) >= limit {
			return false
		}

		article, ok := parseEntry(dt, dt.Next())
		if !ok {
			return true
		}
		if _, dup := seen[article.ID]; dup {
			return true
		}
		seen[article.ID] = struct{}{}
		collected = append(collected, article)
		return true
	})

	return collected
}

func parseEntry(dt, dd *goquery.Selection) (domain.Article, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, exists := link.Attr("href")
	if !exists || href == "" {
		return domain.Article{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimPrefix(title, "Title:")
	title = collapseSpaces(title)

	summary := dd.Find("p.mathjax").First().Text()
	summary = strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:")
	summary = collapseSpaces(summary)

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	publishedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed
		}
	}

	return domain.Article{
		ID:          href,
		Title:       title,
		Abstract:    summary,
		URL:         href,
		PublishedAt: publishedAt,
	}, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	if pageSize > 0 {
		query.Set("show", strconv.Itoa(pageSize))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(spacesExpr.ReplaceAllString(s, " "))
}

func waitLimiter(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}
	return nil
}
