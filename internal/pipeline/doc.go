// Package pipeline runs a research topic as an ordered list of steps.
//
// A research run is a Pipeline over a model.ResearchReport:
//
//	crawl    -> one breadth-first traversal per seed, merged in seed order
//	evidence -> one evidence record per page that matched any category term
//	assess   -> corpus-level counts, high-relevance sources and the tier
//
// BatchProcessor runs several topics concurrently, each with a fresh
// pipeline built by a factory.
package pipeline
