package rewrite

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// narrative preambles and meta-commentary models like to wrap answers in
var narrativePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?ims)^Here.*?:`),
	regexp.MustCompile(`(?ims)^Two sentences.*?:`),
	regexp.MustCompile(`(?ims)^Explanation.*?:`),
	regexp.MustCompile(`(?ims)^Story.*?:`),
	regexp.MustCompile(`(?ims)^Headline.*?:`),
	regexp.MustCompile(`(?ims)^Summary.*?:`),
	regexp.MustCompile(`(?ims)^\*\*.*?\*\*`),
	regexp.MustCompile(`(?ims)^Style \d+.*?:`),
	regexp.MustCompile(`(?ims)^Option \d+.*?:`),
	regexp.MustCompile(`(?ims)^Possible.*?:`),
	regexp.MustCompile(`(?im)^This headline.*$`),
	regexp.MustCompile(`(?im)^I removed.*$`),
	regexp.MustCompile(`(?im)^I also.*$`),
	regexp.MustCompile(`(?im)^The word.*$`),
	regexp.MustCompile(`(?im)^\d+\.\s*\*\*.*?\*\*`),
	regexp.MustCompile(`(?im)^\d+\.\s*".*?"`),
	regexp.MustCompile(`(?im)^\d+\.\s+`),
	regexp.MustCompile(`(?is)\(I .*?\)`),
}

var (
	blankLines     = regexp.MustCompile(`\n\s*\n`)
	whitespace     = regexp.MustCompile(`\s+`)
	sentenceBreaks = regexp.MustCompile(`[.!?]+`)
	explanations   = []string{" This headline", " The word", " I removed", " The focus", " (I"}
	strictPolicy   = bluemonday.StrictPolicy()
)

// stripMarkup removes any HTML the model emitted and decodes entities so the
// page template escapes the text exactly once.
func stripMarkup(text string) string {
	return html.UnescapeString(strictPolicy.Sanitize(text))
}

// Clean normalises raw model output into at most two plain sentences.
// An empty result means the output was unusable.
func Clean(text string) string {
	cleaned := strings.TrimSpace(stripMarkup(text))
	if cleaned == "" {
		return ""
	}

	for _, pattern := range narrativePatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}

	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.Trim(cleaned, `"'`)
	cleaned = blankLines.ReplaceAllString(cleaned, " ")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	for _, marker := range explanations {
		if idx := strings.Index(cleaned, marker); idx > 0 {
			cleaned = strings.TrimSpace(cleaned[:idx])
			break
		}
	}

	return firstSentences(cleaned, 2)
}

func firstSentences(text string, n int) string {
	var kept []string
	for _, part := range sentenceBreaks.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kept = append(kept, part)
		if len(kept) == n {
			break
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, ". ") + "."
}

// truncateWords shortens s to at most limit runes, cutting on a word boundary
// when one exists in the second half of the allowance.
func truncateWords(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:-–")
}
