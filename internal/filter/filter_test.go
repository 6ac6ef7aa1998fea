package filter

import (
	"net/url"
	"sync"
	"testing"
)

func mustCandidate(t *testing.T, raw, mediaType string) Candidate {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", raw, err)
	}
	return Candidate{URL: u, MediaType: mediaType}
}

func TestURLPatternFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		patterns []string
		url      string
		want     bool
	}{
		{"star both sides", []string{"*guide*"}, "https://a.test/guide/x", true},
		{"no match", []string{"*guide*"}, "https://a.test/other", false},
		{"plain word is substring", []string{"docs"}, "https://a.test/en/docs/intro", true},
		{"case insensitive", []string{"*Architecture*"}, "https://a.test/ARCHITECTURE.html", true},
		{"star spans slashes", []string{"https://a.test/*/x"}, "https://a.test/guide/deep/x", true},
		{"question mark single char", []string{"/v?/"}, "https://a.test/v1/api", true},
		{"question mark needs a char", []string{"/v?/"}, "https://a.test/v/api", false},
		{"regexp meta is literal", []string{"a.test/c++"}, "https://a.test/c++/intro", true},
		{"regexp meta does not widen", []string{"a.test/c++"}, "https://a.test/cc/intro", false},
		{"any of several", []string{"*pattern*", "*design*"}, "https://a.test/design", true},
		{"no patterns rejects", nil, "https://a.test/anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := NewURLPatternFilter(tt.patterns...)
			if got := f.Admit(mustCandidate(t, tt.url, "")); got != tt.want {
				t.Errorf("Admit(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestURLExcludeFilter(t *testing.T) {
	t.Parallel()

	f := NewURLExcludeFilter("*.pdf", "*/login*")

	if f.Admit(mustCandidate(t, "https://a.test/paper.pdf", "")) {
		t.Error("expected pdf to be excluded")
	}
	if f.Admit(mustCandidate(t, "https://a.test/account/login?next=/", "")) {
		t.Error("expected login to be excluded")
	}
	if !f.Admit(mustCandidate(t, "https://a.test/guide", "")) {
		t.Error("expected guide to be admitted")
	}
}

func TestContentTypeFilter(t *testing.T) {
	t.Parallel()

	f := NewContentTypeFilter("text/html", "Application/XHTML+XML")

	tests := []struct {
		mediaType string
		want      bool
	}{
		{"", true},
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"TEXT/HTML", true},
		{"application/xhtml+xml", true},
		{"application/pdf", false},
		{"image/png", false},
	}

	for _, tt := range tests {
		if got := f.Admit(mustCandidate(t, "https://a.test/", tt.mediaType)); got != tt.want {
			t.Errorf("Admit(media=%q) = %v, want %v", tt.mediaType, got, tt.want)
		}
	}
}

func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("empty chain admits", func(t *testing.T) {
		t.Parallel()
		var nilChain *Chain
		if !nilChain.Admit(mustCandidate(t, "https://a.test/", "image/png")) {
			t.Error("nil chain should admit")
		}
		if !NewChain().Admit(mustCandidate(t, "https://a.test/", "image/png")) {
			t.Error("empty chain should admit")
		}
	})

	t.Run("short circuits on first rejection", func(t *testing.T) {
		t.Parallel()
		second := &countingFilter{}
		c := NewChain(NewURLPatternFilter("*guide*"), second)

		if c.Admit(mustCandidate(t, "https://a.test/other", "text/html")) {
			t.Error("expected rejection")
		}
		if second.calls != 0 {
			t.Errorf("second filter called %d times, want 0", second.calls)
		}
		if got := c.Rejecting(mustCandidate(t, "https://a.test/other", "")); got != "url-pattern" {
			t.Errorf("Rejecting() = %q, want url-pattern", got)
		}
	})

	t.Run("pattern mismatch never admitted regardless of content type", func(t *testing.T) {
		t.Parallel()
		c := NewChain(NewURLPatternFilter("*guide*"), NewContentTypeFilter("text/html"))
		for _, mt := range []string{"", "text/html", "application/pdf"} {
			if c.Admit(mustCandidate(t, "https://a.test/other", mt)) {
				t.Errorf("Admit(media=%q) = true, want false", mt)
			}
		}
	})

	t.Run("names in order", func(t *testing.T) {
		t.Parallel()
		c := NewChain(NewURLPatternFilter("x"), nil, NewContentTypeFilter("text/html"))
		names := c.Names()
		if c.Len() != 2 || names[0] != "url-pattern" || names[1] != "content-type" {
			t.Errorf("Names() = %v", names)
		}
	})
}

func TestChainConcurrentUse(t *testing.T) {
	t.Parallel()

	c := NewChain(NewURLPatternFilter("*guide*"), NewContentTypeFilter("text/html"))
	admit := mustCandidate(t, "https://a.test/guide/1", "text/html")
	reject := mustCandidate(t, "https://a.test/other", "text/html")

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			for range 100 {
				if !c.Admit(admit) || c.Admit(reject) {
					t.Error("inconsistent admission under concurrency")
					return
				}
			}
		})
	}
	wg.Wait()
}

func TestNormalizeMediaType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                         "",
		"text/html":                "text/html",
		"Text/HTML; charset=UTF-8": "text/html",
		"  application/json ":      "application/json",
		"text/html; charset=\"bad": "text/html",
	}
	for in, want := range tests {
		if got := NormalizeMediaType(in); got != want {
			t.Errorf("NormalizeMediaType(%q) = %q, want %q", in, got, want)
		}
	}
}

type countingFilter struct {
	calls int
}

func (f *countingFilter) Admit(Candidate) bool {
	f.calls++
	return true
}

func (f *countingFilter) Name() string { return "counting" }
