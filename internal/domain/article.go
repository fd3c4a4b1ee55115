package domain

import (
	"strings"
	"time"
)

// Article is an unprocessed entry fetched from the arXiv feed.
type Article struct {
	ID          string
	Title       string
	Abstract    string
	URL         string
	PublishedAt time.Time
}

// ShortID returns the trailing path segment of the feed identifier (e.g. 2101.00001v1).
func (a Article) ShortID() string {
	id := strings.TrimRight(a.ID, "/")
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

// Link returns the article URL, falling back to the identifier when the feed omitted one.
func (a Article) Link() string {
	if a.URL != "" {
		return a.URL
	}
	return a.ID
}

// PDFURL points at the full paper instead of the abstract page.
func (a Article) PDFURL() string {
	return strings.Replace(a.Link(), "/abs/", "/pdf/", 1)
}

// Image describes a photo stored next to the rendered page.
type Image struct {
	Filename    string
	Path        string
	AltText     string
	Credit      string
	CreditURL   string
	ProviderURL string
}

// Photo is a provisioned stock photo with its attribution.
type Photo struct {
	ID           string
	Data         []byte
	AltText      string
	Photographer string
	ProfileURL   string
	ProviderURL  string
}

// Credit renders the attribution line required by the photo provider.
func (p Photo) Credit() string {
	return "Photo by " + p.Photographer + " on Unsplash"
}

// Rewrite holds the lay-audience text produced for one article.
type Rewrite struct {
	Headline string
	Blurb    string
	Degraded bool
}

// ProcessedArticle is an article that went through rewriting and image provisioning.
type ProcessedArticle struct {
	Source   Article
	Headline string
	Blurb    string
	Image    *Image
	Featured bool
}
