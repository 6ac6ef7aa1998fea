package model

import (
	"errors"
	"fmt"
	"strings"
)

// Default category thresholds, used when a category leaves a threshold at zero.
const (
	// DefaultStrongThreshold is the per-category source count required for a Strong tier.
	DefaultStrongThreshold = 3

	// DefaultPartialThreshold is the per-category source count counted towards a Partial tier.
	DefaultPartialThreshold = 2
)

// Category is a named group of indicator terms.
// A research topic declares an ordered list of categories; the order is
// significant because it breaks ties when reporting the most and least
// resolved categories.
type Category struct {
	// Name identifies the category (e.g. "vertical_slice").
	Name string `json:"name" yaml:"name"`

	// Terms are the indicator terms. Matching is case-insensitive substring.
	Terms []string `json:"terms" yaml:"terms"`

	// StrongThreshold is the minimum number of supporting sources for this
	// category to count towards a Strong tier.
	StrongThreshold int `json:"strong_threshold,omitempty" yaml:"strong,omitempty"`

	// PartialThreshold is the minimum number of supporting sources for this
	// category to count towards a Partial tier.
	PartialThreshold int `json:"partial_threshold,omitempty" yaml:"partial,omitempty"`

	// PresenceThreshold is the source count that must be exceeded for the
	// category to get an affirmative recommendation instead of a gap one.
	PresenceThreshold int `json:"presence_threshold,omitempty" yaml:"presence,omitempty"`

	// Affirmative is the recommendation emitted when the category is resolved.
	Affirmative string `json:"affirmative,omitempty" yaml:"affirmative,omitempty"`

	// GapMessage is the recommendation emitted when the category remains a gap.
	GapMessage string `json:"gap_message,omitempty" yaml:"gap,omitempty"`
}

// Strong returns the effective strong threshold.
func (c Category) Strong() int {
	if c.StrongThreshold > 0 {
		return c.StrongThreshold
	}
	return DefaultStrongThreshold
}

// Partial returns the effective partial threshold.
func (c Category) Partial() int {
	if c.PartialThreshold > 0 {
		return c.PartialThreshold
	}
	return DefaultPartialThreshold
}

// Category validation errors.
var (
	// ErrNoCategories is returned when a topic declares no categories.
	ErrNoCategories = errors.New("no categories declared")

	// ErrEmptyCategoryName is returned when a category has no name.
	ErrEmptyCategoryName = errors.New("category name is empty")

	// ErrDuplicateCategory is returned when two categories share a name.
	ErrDuplicateCategory = errors.New("duplicate category name")

	// ErrNoTerms is returned when a category has no indicator terms.
	ErrNoTerms = errors.New("category has no indicator terms")
)

// ValidateCategories checks that the categories form a closed, well-formed set:
// at least one category, unique non-empty names, and at least one non-blank
// term per category.
func ValidateCategories(categories []Category) error {
	if len(categories) == 0 {
		return ErrNoCategories
	}

	seen := make(map[string]bool, len(categories))
	for i, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("category #%d: %w", i+1, ErrEmptyCategoryName)
		}
		if seen[name] {
			return fmt.Errorf("%q: %w", name, ErrDuplicateCategory)
		}
		seen[name] = true

		hasTerm := false
		for _, t := range c.Terms {
			if strings.TrimSpace(t) != "" {
				hasTerm = true
				break
			}
		}
		if !hasTerm {
			return fmt.Errorf("%q: %w", name, ErrNoTerms)
		}
	}
	return nil
}

// CategoryNames returns the names in declaration order.
func CategoryNames(categories []Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}
