// Package analysis scores crawled pages and turns per-page evidence into a
// corpus-level feasibility assessment.
//
// # Components
//
//   - Scorer: keyword relevance, counting every occurrence of every keyword
//   - Extractor: per-category term presence with context snippets
//   - Aggregator: folds evidence records into AggregateFindings
//   - Assess: pure tier/confidence/recommendation classification
//
// Relevance and evidence are intentionally different measures. Relevance
// counts frequency, so a page repeating a keyword ten times scores ten.
// Evidence counts presence, so each indicator term contributes at most one
// point to its category no matter how often it appears.
//
// # Usage
//
//	ex := analysis.NewExtractor(categories, analysis.WithSnippetWidth(150))
//	agg := analysis.NewAggregator(categories, analysis.DefaultPolicy())
//	for _, page := range pages {
//		if rec, ok := ex.Extract(page); ok {
//			agg.Fold(rec)
//		}
//	}
//	findings := agg.Findings()
//
// All matching is lexical and case-insensitive. No stemming or semantic
// similarity is attempted.
package analysis
