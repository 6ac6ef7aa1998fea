package model

import (
	"fmt"
	"strings"
)

// Tier is the discrete feasibility classification of aggregate findings.
//
// Tiers are ordered: a higher tier means stronger corpus support. The zero
// value is TierUnresolved so an empty assessment is never mistaken for support.
type Tier int

const (
	// TierUnresolved means no category gathered any evidence.
	TierUnresolved Tier = iota

	// TierMinimal means some evidence exists but no threshold is met.
	TierMinimal

	// TierPartial means enough sources were found and a majority of
	// categories meet their partial threshold.
	TierPartial

	// TierStrong means enough sources were found and every category meets
	// its strong threshold.
	TierStrong
)

// String returns a human-readable representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierUnresolved:
		return "UNRESOLVED"
	case TierMinimal:
		return "MINIMAL"
	case TierPartial:
		return "PARTIAL"
	case TierStrong:
		return "STRONG"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "UNRESOLVED":
		*t = TierUnresolved
	case "MINIMAL":
		*t = TierMinimal
	case "PARTIAL":
		*t = TierPartial
	case "STRONG":
		*t = TierStrong
	default:
		return fmt.Errorf("unknown tier %q", string(text))
	}
	return nil
}

// Confidence is the confidence attached to a tier.
type Confidence int

const (
	// ConfidenceLow accompanies the Minimal and Unresolved tiers.
	ConfidenceLow Confidence = iota

	// ConfidenceMedium accompanies the Partial tier.
	ConfidenceMedium

	// ConfidenceHigh accompanies the Strong tier.
	ConfidenceHigh
)

// String returns a human-readable representation of the confidence level.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "LOW"
	case ConfidenceMedium:
		return "MEDIUM"
	case ConfidenceHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Confidence) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "LOW":
		*c = ConfidenceLow
	case "MEDIUM":
		*c = ConfidenceMedium
	case "HIGH":
		*c = ConfidenceHigh
	default:
		return fmt.Errorf("unknown confidence %q", string(text))
	}
	return nil
}

// CategoryCount is the number of evidence records with a nonzero score
// for one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// SourceScore identifies a high-relevance source.
type SourceScore struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	TotalScore int    `json:"total_score"`
}

// FeasibilityAssessment is derived deterministically from category counts
// and the total number of sources.
type FeasibilityAssessment struct {
	Tier            Tier       `json:"tier"`
	Confidence      Confidence `json:"confidence"`
	Recommendations []string   `json:"recommendations"`

	// MostResolved is the first-declared category with the highest count.
	// Empty when no category has evidence.
	MostResolved string `json:"most_resolved,omitempty"`

	// LeastResolved is the first-declared category with the lowest count.
	// Empty when no category has evidence.
	LeastResolved string `json:"least_resolved,omitempty"`
}

// AggregateFindings summarizes the evidence gathered over a whole corpus.
type AggregateFindings struct {
	TotalSources         int                   `json:"total_sources"`
	CategoryCounts       []CategoryCount       `json:"category_counts"`
	HighRelevanceSources []SourceScore         `json:"high_relevance_sources"`
	Assessment           FeasibilityAssessment `json:"assessment"`
}

// Count returns the count for the named category, or 0 if it is absent.
func (f AggregateFindings) Count(category string) int {
	for _, c := range f.CategoryCounts {
		if c.Category == category {
			return c.Count
		}
	}
	return 0
}

// Gaps returns the categories whose count is zero, in declaration order.
func (f AggregateFindings) Gaps() []string {
	var gaps []string
	for _, c := range f.CategoryCounts {
		if c.Count == 0 {
			gaps = append(gaps, c.Category)
		}
	}
	return gaps
}
