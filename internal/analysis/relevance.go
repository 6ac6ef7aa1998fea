package analysis

import "strings"

// Scorer computes keyword relevance scores.
// A Scorer is immutable and safe for concurrent use.
type Scorer struct {
	keywords []string
}

// NewScorer creates a scorer for the given keywords.
// Keywords are lower-cased once here; blank keywords are dropped.
func NewScorer(keywords []string) *Scorer {
	return &Scorer{keywords: normalizeTerms(keywords)}
}

// Score returns the total number of keyword occurrences in content.
// A nil Scorer scores 0.
func (s *Scorer) Score(content string) int {
	if s == nil || len(s.keywords) == 0 || content == "" {
		return 0
	}
	return countAll(strings.ToLower(content), s.keywords)
}

// Keywords returns the normalized keyword list.
func (s *Scorer) Keywords() []string {
	if s == nil {
		return nil
	}
	return s.keywords
}

// Score returns the number of case-insensitive occurrences of all keywords
// in content. Every occurrence counts, including repeats of the same keyword.
// Occurrences of one keyword do not overlap each other.
func Score(content string, keywords []string) int {
	return NewScorer(keywords).Score(content)
}

func countAll(lowerContent string, terms []string) int {
	total := 0
	for _, t := range terms {
		total += strings.Count(lowerContent, t)
	}
	return total
}

// normalizeTerms lower-cases and trims terms, dropping blanks.
// Duplicates are kept: each listed keyword is scored independently.
func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
