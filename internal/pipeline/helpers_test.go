package pipeline

import (
	"context"
	"sync"

	"github.com/nao1215/deepcrawl/internal/crawler"
	"github.com/nao1215/deepcrawl/internal/model"
)

// mockStep is a Step whose behavior is set per test.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.ResearchReport) error
	callCount int
}

func (m *mockStep) Do(ctx context.Context, report *model.ResearchReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

func (m *mockStep) Name() string {
	return m.name
}

// memFetcher serves pages from memory.
// A URL listed in block waits until the request context is done.
type memFetcher struct {
	mu    sync.Mutex
	pages map[string]*crawler.FetchResult
	block map[string]bool
	calls []string
}

func newMemFetcher() *memFetcher {
	return &memFetcher{
		pages: make(map[string]*crawler.FetchResult),
		block: make(map[string]bool),
	}
}

func (f *memFetcher) add(rawURL, content string, links ...string) {
	f.pages[rawURL] = &crawler.FetchResult{
		Title:      rawURL,
		Content:    content,
		Links:      links,
		MediaType:  "text/html",
		StatusCode: 200,
	}
}

func (f *memFetcher) Fetch(ctx context.Context, rawURL string) (*crawler.FetchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	blocked := f.block[rawURL]
	page, ok := f.pages[rawURL]
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if !ok {
		return nil, &crawler.FetchError{URL: rawURL, StatusCode: 404}
	}
	res := *page
	return &res, nil
}

func (f *memFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestSpider(f crawler.PageFetcher) *crawler.Spider {
	return crawler.NewSpider(f, crawler.WithDelay(0))
}
