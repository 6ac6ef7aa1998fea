package analysis

import (
	"slices"

	"github.com/nao1215/deepcrawl/internal/model"
)

// Default policy values.
const (
	// DefaultMinSources is the number of sources required before the
	// Partial or Strong tiers can be assigned.
	DefaultMinSources = 10

	// DefaultRelevanceThreshold is the total evidence score a record must
	// exceed to be listed as a high-relevance source.
	DefaultRelevanceThreshold = 1
)

// Policy holds the corpus-level thresholds used during aggregation.
type Policy struct {
	// MinSources is the minimum total number of sources for the Partial
	// and Strong tiers.
	MinSources int

	// RelevanceThreshold is exceeded (strictly) by high-relevance sources.
	RelevanceThreshold int
}

// DefaultPolicy returns the default aggregation policy.
func DefaultPolicy() Policy {
	return Policy{
		MinSources:         DefaultMinSources,
		RelevanceThreshold: DefaultRelevanceThreshold,
	}
}

// Aggregator folds evidence records into aggregate findings.
//
// An Aggregator belongs to one research run. It is not safe for concurrent
// use; records must be folded in traversal order so that ties among
// high-relevance sources keep that order.
type Aggregator struct {
	categories []model.Category
	policy     Policy
	total      int
	counts     []int
	sources    []model.SourceScore
}

// NewAggregator creates an aggregator for the given categories.
func NewAggregator(categories []model.Category, policy Policy) *Aggregator {
	return &Aggregator{
		categories: categories,
		policy:     policy,
		counts:     make([]int, len(categories)),
	}
}

// Fold adds one record to the running totals.
func (a *Aggregator) Fold(rec model.EvidenceRecord) {
	a.total++
	for i, c := range a.categories {
		if rec.Score(c.Name) > 0 {
			a.counts[i]++
		}
	}
	if total := rec.TotalScore(); total > a.policy.RelevanceThreshold {
		a.sources = append(a.sources, model.SourceScore{
			URL:        rec.URL,
			Title:      rec.Title,
			TotalScore: total,
		})
	}
}

// Total returns the number of records folded so far.
func (a *Aggregator) Total() int {
	return a.total
}

// Findings returns the finalized findings for the records folded so far.
// The aggregator keeps its state, so Findings may be called repeatedly.
func (a *Aggregator) Findings() model.AggregateFindings {
	counts := make([]model.CategoryCount, len(a.categories))
	for i, c := range a.categories {
		counts[i] = model.CategoryCount{Category: c.Name, Count: a.counts[i]}
	}

	sources := slices.Clone(a.sources)
	slices.SortStableFunc(sources, func(x, y model.SourceScore) int {
		return y.TotalScore - x.TotalScore
	})
	if sources == nil {
		sources = []model.SourceScore{}
	}

	return model.AggregateFindings{
		TotalSources:         a.total,
		CategoryCounts:       counts,
		HighRelevanceSources: sources,
		Assessment:           Assess(counts, a.total, a.categories, a.policy),
	}
}

// Fold aggregates all records in one call.
func Fold(records []model.EvidenceRecord, categories []model.Category, policy Policy) model.AggregateFindings {
	agg := NewAggregator(categories, policy)
	for _, rec := range records {
		agg.Fold(rec)
	}
	return agg.Findings()
}
