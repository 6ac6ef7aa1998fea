package crawler

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/deepcrawl/internal/analysis"
	"github.com/nao1215/deepcrawl/internal/filter"
	"github.com/nao1215/deepcrawl/internal/model"
)

// DefaultDelay is the minimum time between two consecutive fetches.
const DefaultDelay = 1 * time.Second

// PageFetcher retrieves a page and the links it contains.
//
// Implementations return a *FetchError, or any other error, when the page
// cannot be retrieved. The spider never retries a failed fetch.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// FetchResult is a successfully fetched page.
type FetchResult struct {
	// URL is the final URL after redirects. Empty means the requested URL.
	URL string

	// Title is the document title.
	Title string

	// Content is the visible text.
	Content string

	// Links are absolute outbound link URLs in document order.
	Links []string

	// MediaType is the declared media type without parameters.
	MediaType string

	// StatusCode is the HTTP status of the response.
	StatusCode int
}

// RobotsChecker decides whether a URL may be fetched.
type RobotsChecker interface {
	Allowed(ctx context.Context, target *url.URL) bool
}

// Spider schedules breadth-first traversals.
// It holds no per-traversal state and may start any number of traversals.
type Spider struct {
	fetcher PageFetcher
	delay   time.Duration
	robots  RobotsChecker
	logger  *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithDelay sets the minimum interval between fetches. Zero disables it.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = max(d, 0)
	}
}

// WithRobots enables robots.txt checks before each fetch.
func WithRobots(r RobotsChecker) SpiderOption {
	return func(s *Spider) {
		s.robots = r
	}
}

// WithSpiderLogger sets the logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches pages with fetcher.
func NewSpider(fetcher PageFetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher: fetcher,
		delay:   DefaultDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Traverse validates cfg and prepares a traversal.
// No page is fetched until the returned traversal's Pages sequence is ranged.
func (s *Spider) Traverse(cfg Config) (*Traversal, error) {
	seeds, err := cfg.parseSeeds()
	if err != nil {
		return nil, err
	}

	t := &Traversal{
		spider:   s,
		cfg:      cfg,
		scorer:   analysis.NewScorer(cfg.Keywords),
		frontier: newFrontier(),
		visited:  newVisitedSet(),
	}
	for _, seed := range seeds {
		t.frontier.push(frontierEntry{
			url:   seed,
			key:   normalizeURL(seed),
			depth: 0,
			seed:  seed,
		})
	}
	return t, nil
}

// Stats summarizes a traversal.
type Stats struct {
	// Yielded is the number of admitted pages.
	Yielded int `json:"yielded"`

	// Visited is the number of distinct URLs dequeued.
	Visited int `json:"visited"`

	// Failed is the number of fetch failures.
	Failed int `json:"failed"`

	// Filtered is the number of candidates rejected by the filter chain,
	// before or after fetching, or by a redirect to another host.
	Filtered int `json:"filtered"`

	// RobotsBlocked is the number of URLs disallowed by robots.txt.
	RobotsBlocked int `json:"robots_blocked"`
}

// Traversal is a single breadth-first crawl.
// Its frontier and visited set are owned exclusively by the traversal.
type Traversal struct {
	spider   *Spider
	cfg      Config
	scorer   *analysis.Scorer
	frontier *frontier
	visited  *visitedSet
	started  atomic.Bool

	mu       sync.Mutex
	failures []model.FetchFailure
	stats    Stats
}

// Pages returns the lazy sequence of admitted pages.
//
// The sequence ends when the frontier is exhausted, MaxPages pages were
// yielded, the consumer stops ranging, or ctx is done. It can be ranged
// once; later ranges yield nothing.
func (t *Traversal) Pages(ctx context.Context) iter.Seq[*model.Page] {
	return func(yield func(*model.Page) bool) {
		if !t.started.CompareAndSwap(false, true) {
			return
		}
		t.run(ctx, yield)
	}
}

// Collect ranges over the traversal and returns all pages.
func (t *Traversal) Collect(ctx context.Context) []*model.Page {
	var pages []*model.Page
	for p := range t.Pages(ctx) {
		pages = append(pages, p)
	}
	return pages
}

// Failures returns the fetch failures recorded so far.
func (t *Traversal) Failures() []model.FetchFailure {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.FetchFailure, len(t.failures))
	copy(out, t.failures)
	return out
}

// Stats returns the traversal counters.
func (t *Traversal) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.stats
	st.Visited = t.visited.len()
	return st
}

func (t *Traversal) run(ctx context.Context, yield func(*model.Page) bool) {
	s := t.spider
	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.delay), 1)
	}

	yielded := 0
	for yielded < t.cfg.MaxPages {
		if ctx.Err() != nil {
			s.logger.Debug("traversal cancelled", "reason", ctx.Err())
			return
		}

		entry, ok := t.frontier.pop()
		if !ok {
			return
		}
		if entry.depth > t.cfg.MaxDepth {
			continue
		}
		if !t.visited.markIfUnvisited(entry.key) {
			continue
		}

		// The robots check may fetch robots.txt, so it shares the delay slot.
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		if s.robots != nil && !s.robots.Allowed(ctx, entry.url) {
			s.logger.Debug("blocked by robots.txt", "url", entry.url.String())
			t.count(func(st *Stats) { st.RobotsBlocked++ })
			continue
		}

		page, links, ok := t.process(ctx, entry)
		if !ok {
			continue
		}

		yielded++
		t.count(func(st *Stats) { st.Yielded++ })
		if !yield(page) {
			return
		}

		if entry.depth < t.cfg.MaxDepth {
			t.expand(entry, links)
		}
	}
}

// process fetches one entry and applies the filter chain.
func (t *Traversal) process(ctx context.Context, entry frontierEntry) (*model.Page, []string, bool) {
	s := t.spider
	rawURL := entry.url.String()

	res, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, nil, false
		}
		s.logger.Warn("fetch failed", "url", rawURL, "depth", entry.depth, "error", err)
		t.mu.Lock()
		t.failures = append(t.failures, model.FetchFailure{URL: rawURL, Depth: entry.depth, Reason: err.Error()})
		t.stats.Failed++
		t.mu.Unlock()
		return nil, nil, false
	}

	final := entry.url
	if res.URL != "" && res.URL != rawURL {
		if u, err := url.Parse(res.URL); err == nil {
			final = u
			// A redirect target that was already processed is a duplicate.
			if key := normalizeURL(u); key != entry.key && !t.visited.markIfUnvisited(key) {
				s.logger.Debug("redirect to visited url", "url", rawURL, "target", res.URL)
				return nil, nil, false
			}
		}
	}

	if entry.depth > 0 && !t.cfg.IncludeExternal && !sameHost(entry.seed, final) {
		s.logger.Debug("redirect left the seed host", "url", rawURL, "target", final.String())
		t.count(func(st *Stats) { st.Filtered++ })
		return nil, nil, false
	}

	if entry.depth > 0 {
		cand := filter.Candidate{URL: final, MediaType: res.MediaType}
		if name := t.cfg.Filters.Rejecting(cand); name != "" {
			s.logger.Debug("page rejected", "url", final.String(), "filter", name)
			t.count(func(st *Stats) { st.Filtered++ })
			return nil, nil, false
		}
	}

	page := &model.Page{
		URL:       final.String(),
		Title:     res.Title,
		Depth:     entry.depth,
		Seed:      entry.seed.String(),
		MediaType: res.MediaType,
		Content:   res.Content,
		Score:     t.scorer.Score(res.Content),
		FetchedAt: time.Now(),
	}
	page.ComputeHash()

	s.logger.Debug("page admitted", "url", page.URL, "depth", page.Depth, "score", page.Score)
	return page, res.Links, true
}

// expand enqueues the outbound links of an admitted page at depth+1.
func (t *Traversal) expand(parent frontierEntry, links []string) {
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		u.Fragment = ""
		u.RawFragment = ""

		if !t.cfg.IncludeExternal && !sameHost(parent.seed, u) {
			continue
		}

		key := normalizeURL(u)
		if t.frontier.known(key) || t.visited.contains(key) {
			continue
		}
		if !t.cfg.Filters.Admit(filter.Candidate{URL: u}) {
			t.frontier.ignore(key)
			t.count(func(st *Stats) { st.Filtered++ })
			continue
		}
		t.frontier.push(frontierEntry{
			url:   u,
			key:   key,
			depth: parent.depth + 1,
			seed:  parent.seed,
		})
	}
}

func (t *Traversal) count(fn func(*Stats)) {
	t.mu.Lock()
	fn(&t.stats)
	t.mu.Unlock()
}
