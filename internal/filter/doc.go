// Package filter provides the admission predicates applied to crawl candidates.
//
// A Chain holds an ordered list of Filter values. A candidate is admitted only
// when every filter approves it; evaluation stops at the first rejection.
// Filters are immutable after construction and hold no per-call state, so a
// single Chain can be shared by concurrent traversals.
//
// Candidates are evaluated twice during a crawl: once before a discovered link
// is enqueued, when only the URL is known, and once after the page has been
// fetched, when the media type is known as well. Filters that need the media
// type approve candidates whose MediaType is empty.
package filter
