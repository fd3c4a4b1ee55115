// Package render produces the static HTML page of one category.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

//go:embed templates
var templateFS embed.FS

var pageTmpl = template.Must(template.New("page.html").ParseFS(templateFS, "templates/page.html"))

const (
	// DateLayout is the human-readable date shown under the page title.
	DateLayout    = "January 2, 2006"
	sidebarSize   = 3
	defaultAccent = "#1a1a1a"
)

var hexColour = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

// Renderer implements ports.PageRenderer.
type Renderer struct {
	categories []domain.Category
	now        func() time.Time
}

var _ ports.PageRenderer = (*Renderer)(nil)

// NewRenderer keeps the full category list for the navigation bar.
// A nil clock defaults to time.Now.
func NewRenderer(categories []domain.Category, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{categories: categories, now: now}
}

type navLink struct {
	Label  string
	Page   string
	Active bool
}

type entry struct {
	Headline string
	Blurb    string
	Link     string
	Image    *domain.Image
}

type pageData struct {
	Category domain.Category
	Accent   template.CSS
	Tag      string
	Date     string
	Nav      []navLink
	Featured *entry
	Main     []entry
	Sidebar  []entry
}

// Render lays out articles: the featured one first, then a main grid and a
// sidebar holding the last three of the rest.
func (r *Renderer) Render(category domain.Category, articles []domain.ProcessedArticle) ([]byte, error) {
	featured, main, sidebar := Layout(articles)

	data := pageData{
		Category: category,
		Accent:   accent(category.Accent),
		Tag:      strings.ToUpper(category.Label),
		Date:     r.now().Format(DateLayout),
		Nav:      r.nav(category),
		Main:     toEntries(main),
		Sidebar:  toEntries(sidebar),
	}
	if featured != nil {
		e := toEntry(*featured)
		data.Featured = &e
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s page: %w", category.Key, err)
	}
	return buf.Bytes(), nil
}

// Layout splits articles into the featured slot, the main grid and the sidebar.
// The first article flagged featured wins; with none flagged the first article is used.
func Layout(articles []domain.ProcessedArticle) (*domain.ProcessedArticle, []domain.ProcessedArticle, []domain.ProcessedArticle) {
	if len(articles) == 0 {
		return nil, nil, nil
	}

	pick := 0
	for i, a := range articles {
		if a.Featured {
			pick = i
			break
		}
	}

	featured := articles[pick]
	others := make([]domain.ProcessedArticle, 0, len(articles)-1)
	others = append(others, articles[:pick]...)
	others = append(others, articles[pick+1:]...)

	if len(others) > sidebarSize {
		cut := len(others) - sidebarSize
		return &featured, others[:cut], others[cut:]
	}
	return &featured, nil, others
}

func (r *Renderer) nav(current domain.Category) []navLink {
	links := make([]navLink, 0, len(r.categories))
	for _, c := range r.categories {
		links = append(links, navLink{Label: c.Label, Page: c.Page, Active: c.Page == current.Page})
	}
	return links
}

func toEntries(articles []domain.ProcessedArticle) []entry {
	out := make([]entry, 0, len(articles))
	for _, a := range articles {
		out = append(out, toEntry(a))
	}
	return out
}

func toEntry(a domain.ProcessedArticle) entry {
	return entry{
		Headline: strings.TrimRight(a.Headline, "."),
		Blurb:    a.Blurb,
		Link:     a.Source.PDFURL(),
		Image:    a.Image,
	}
}

func accent(value string) template.CSS {
	if hexColour.MatchString(value) {
		return template.CSS(value)
	}
	return template.CSS(defaultAccent)
}
