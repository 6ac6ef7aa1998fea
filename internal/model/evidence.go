package model

// Snippet is a bounded window of content around the first occurrence of a term.
type Snippet struct {
	Term    string `json:"term"`
	Context string `json:"context"`
}

// CategoryScore is the evidence score of one category on one page.
type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}

// EvidenceRecord holds the evidence extracted from one admitted page.
// Scores are kept in category declaration order.
type EvidenceRecord struct {
	URL            string               `json:"url"`
	Title          string               `json:"title"`
	Depth          int                  `json:"depth"`
	RelevanceScore int                  `json:"relevance_score"`
	Scores         []CategoryScore      `json:"scores"`
	Snippets       map[string][]Snippet `json:"snippets,omitempty"`
}

// Score returns the score for the named category, or 0 if it is absent.
func (r EvidenceRecord) Score(category string) int {
	for _, s := range r.Scores {
		if s.Category == category {
			return s.Score
		}
	}
	return 0
}

// TotalScore returns the sum of all category scores.
func (r EvidenceRecord) TotalScore() int {
	total := 0
	for _, s := range r.Scores {
		total += s.Score
	}
	return total
}

// SnippetCount returns the number of snippets across all categories.
func (r EvidenceRecord) SnippetCount() int {
	n := 0
	for _, s := range r.Snippets {
		n += len(s)
	}
	return n
}
