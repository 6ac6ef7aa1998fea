// Package crawler provides breadth-first web traversal for research crawls.
//
// # Architecture
//
// The package is built around the Spider type. A Spider holds everything that
// can be shared between crawls (the page fetcher, the politeness delay, the
// robots.txt agent and the logger). Each call to Spider.Traverse creates a
// Traversal with its own frontier and visited set; nothing is shared between
// traversals, so several can run at the same time.
//
// A Traversal is consumed as a lazy sequence:
//
//	spider := crawler.NewSpider(fetcher, crawler.WithDelay(time.Second))
//	tr, err := spider.Traverse(crawler.Config{
//		Seeds:    []string{"https://martinfowler.com"},
//		MaxDepth: 2,
//		MaxPages: 30,
//		Filters:  chain,
//		Keywords: []string{"vertical slice"},
//	})
//	for page := range tr.Pages(ctx) {
//		...
//	}
//
// Pages are fetched only as the consumer ranges over the sequence. The
// sequence can be ranged once; a second range yields nothing.
//
// # Traversal rules
//
//   - Entries are processed strictly first-in first-out, so every page at
//     depth d is processed before any page at depth d+1.
//   - A URL is fetched at most once per traversal.
//   - Fetch failures are recorded and skipped, never retried.
//   - Seeds are always processed. Discovered pages must pass the filter chain
//     both before they are enqueued (URL only) and after they are fetched.
//   - Links leaving the seed's host are dropped unless IncludeExternal is set.
//
// # Components
//
//   - Spider / Traversal: scheduling, budgets and rate limiting
//   - HTTPFetcher: the default PageFetcher, with SOCKS5 proxy support
//   - Parser: HTML title, visible text and link extraction
//   - RobotsAgent: cached robots.txt evaluation
package crawler
