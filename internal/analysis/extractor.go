package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/nao1215/deepcrawl/internal/model"
)

// DefaultSnippetWidth is the number of bytes kept on each side of a term's
// first occurrence.
const DefaultSnippetWidth = 100

// Extractor computes per-category evidence for a page.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	categories []extractorCategory
	width      int
}

type extractorCategory struct {
	name  string
	terms []string
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithSnippetWidth sets the snippet half-width. Values below 0 are treated as 0.
func WithSnippetWidth(width int) ExtractorOption {
	return func(e *Extractor) {
		e.width = max(width, 0)
	}
}

// NewExtractor creates an extractor for the given categories.
// Category order is kept and determines the order of scores in records.
func NewExtractor(categories []model.Category, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		categories: make([]extractorCategory, 0, len(categories)),
		width:      DefaultSnippetWidth,
	}
	for _, c := range categories {
		e.categories = append(e.categories, extractorCategory{
			name:  c.Name,
			terms: dedupe(normalizeTerms(c.Terms)),
		})
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract computes the evidence record for a page.
//
// Each category scores one point per indicator term present anywhere in the
// content, regardless of how often it occurs. Every present term yields one
// snippet anchored at its first occurrence.
//
// The second return value is false when no category scored and no snippet
// was produced. Callers must not fold such pages into findings.
func (e *Extractor) Extract(page *model.Page) (model.EvidenceRecord, bool) {
	if page == nil {
		return model.EvidenceRecord{}, false
	}

	lower := strings.ToLower(page.Content)
	// Lower-casing can change byte lengths for some scripts. Snippets are
	// cut from the lower-cased text in that case so offsets stay valid.
	source := page.Content
	if len(lower) != len(source) {
		source = lower
	}

	rec := model.EvidenceRecord{
		URL:            page.URL,
		Title:          page.Title,
		Depth:          page.Depth,
		RelevanceScore: page.Score,
		Scores:         make([]model.CategoryScore, 0, len(e.categories)),
	}

	total := 0
	snippets := 0
	for _, c := range e.categories {
		score := 0
		for _, term := range c.terms {
			idx := strings.Index(lower, term)
			if idx < 0 {
				continue
			}
			score++
			if rec.Snippets == nil {
				rec.Snippets = make(map[string][]model.Snippet)
			}
			rec.Snippets[c.name] = append(rec.Snippets[c.name], model.Snippet{
				Term:    term,
				Context: snippetAt(source, idx, e.width),
			})
			snippets++
		}
		rec.Scores = append(rec.Scores, model.CategoryScore{Category: c.name, Score: score})
		total += score
	}

	if total == 0 && snippets == 0 {
		return model.EvidenceRecord{}, false
	}
	return rec, true
}

// snippetAt returns content[idx-width : idx+width], clipped to the content
// bounds, widened to whole runes, and trimmed of surrounding whitespace.
func snippetAt(content string, idx, width int) string {
	start := max(idx-width, 0)
	end := min(idx+width, len(content))

	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}
	return strings.TrimSpace(content[start:end])
}

func dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
