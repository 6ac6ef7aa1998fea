// Package model defines the core data structures used throughout deepcrawl.
//
// This package contains the following main types:
//   - Page: A crawled page that passed admission, with its text content
//   - Category: A named set of indicator terms with assessment thresholds
//   - EvidenceRecord: Per-page, per-category evidence with context snippets
//   - AggregateFindings: Corpus-level counts and the feasibility assessment
//   - ResearchReport: The complete result of one research topic run
//
// The models are kept in their own package so that crawler, analysis, report
// and database can share them without import cycles. All of them serialize to
// JSON for snapshot output and database storage.
package model
