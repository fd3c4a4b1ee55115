// Package rewrite turns academic titles and abstracts into text for a general
// audience. Generator failures never propagate: the original title and a fixed
// marker summary are substituted instead.
package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

const (
	// SummaryFailed replaces a summary the generator could not produce.
	SummaryFailed = "[Summary generation failed]"
	// HeadlineLimit is the maximum headline length in characters.
	HeadlineLimit = 60
	// DefaultKeyword is used for photo search when no keyword could be generated.
	DefaultKeyword = "technology"

	temperature       = 0.2
	summaryMaxTokens  = 4096
	headlineMaxTokens = 1024
	keywordMaxTokens  = 5
)

// Rewriter implements ports.ContentRewriter on top of a text generator.
type Rewriter struct {
	gen    ports.TextGenerator
	logger *slog.Logger
}

var _ ports.ContentRewriter = (*Rewriter)(nil)

// New wires the generator.
func New(gen ports.TextGenerator, logger *slog.Logger) *Rewriter {
	return &Rewriter{gen: gen, logger: logger}
}

// Rewrite produces the summary first so the headline prompt can use it as context.
func (r *Rewriter) Rewrite(ctx context.Context, article domain.Article, category domain.Category) domain.Rewrite {
	out := domain.Rewrite{}

	blurb := Clean(r.generate(ctx, "summary", article.ID, summaryPrompt(article), summaryMaxTokens))
	if blurb == "" {
		blurb = SummaryFailed
		out.Degraded = true
	}
	out.Blurb = blurb

	contextSummary := blurb
	if out.Degraded {
		contextSummary = ""
	}
	headline := cleanHeadline(r.generate(ctx, "headline", article.ID, headlinePrompt(article, category, contextSummary), headlineMaxTokens))
	if headline == "" {
		headline = truncateWords(article.Title, HeadlineLimit)
		out.Degraded = true
	}
	out.Headline = headline

	return out
}

// Keyword asks for a single visual search term for the photo provider.
func (r *Rewriter) Keyword(ctx context.Context, headline, fallback string) string {
	if fallback == "" {
		fallback = DefaultKeyword
	}

	raw := r.generate(ctx, "keyword", "", headline+"\n\nOne visual keyword for photos:", keywordMaxTokens)
	cleaned := Clean(raw)
	if cleaned == "" {
		return fallback
	}

	keyword := strings.Split(cleaned, ",")[0]
	keyword = strings.SplitN(keyword, "\n", 2)[0]
	keyword = strings.SplitN(keyword, ".", 2)[0]
	keyword = strings.TrimSpace(strings.Trim(keyword, `"' `))
	if keyword == "" {
		return fallback
	}
	return keyword
}

func (r *Rewriter) generate(ctx context.Context, kind, id, prompt string, maxTokens int) string {
	if r.gen == nil {
		return ""
	}
	text, err := r.gen.Generate(ctx, prompt, ports.GenerateOptions{
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("text generation failed", "kind", kind, "id", id, "error", err)
		}
		return ""
	}
	return text
}

func cleanHeadline(raw string) string {
	headline := Clean(raw)
	headline = strings.TrimSpace(strings.Trim(headline, `"'`))
	headline = strings.TrimRight(headline, ".")
	return truncateWords(headline, HeadlineLimit)
}

func summaryPrompt(article domain.Article) string {
	return fmt.Sprintf(`Rewrite the following abstract into two plain-language sentences for a general readership.
The first sentence says what was done, in simple terms instead of technical phrases.
The second sentence says why it matters: the impact, potential or benefit, again without jargon.
Do not explain advanced terminology; replace it with a short everyday description.
Do not begin with "Researchers" or any variant, and do not open with "Imagine" or "In this paper".
Output only the two sentences as a single block, with no commentary.

Title: %q
Abstract: %q
`, article.Title, article.Abstract)
}

func headlinePrompt(article domain.Article, category domain.Category, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Rewrite the following academic title as a concise, engaging headline for a general audience interested in %s.
Use plain language and avoid technical jargon.
Keep it under %d characters and use title case.
Do not use clickbait or sensational phrasing.
Output only the headline text: no explanations, quotes, line breaks or periods.

Original title: %q
Original abstract: %q
`, category.DisplayTopic(), HeadlineLimit, article.Title, article.Abstract)
	if summary != "" {
		fmt.Fprintf(&b, "Rewritten summary: %q\n", summary)
	}
	return b.String()
}
