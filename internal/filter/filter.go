package filter

import (
	"mime"
	"net/url"
	"strings"
)

// Candidate is a URL, and optionally a fetched page's media type, under
// admission review.
type Candidate struct {
	// URL is the candidate URL. It must not be nil.
	URL *url.URL

	// MediaType is the declared media type of the fetched page.
	// Empty means the page has not been fetched yet.
	MediaType string
}

// Filter is a single admission predicate.
type Filter interface {
	// Admit reports whether the candidate passes this filter.
	Admit(c Candidate) bool

	// Name returns a short identifier used in logs.
	Name() string
}

// Chain evaluates filters in order.
// The zero value and a nil *Chain admit everything.
type Chain struct {
	filters []Filter
}

// NewChain creates a chain from the given filters. Nil filters are skipped.
func NewChain(filters ...Filter) *Chain {
	c := &Chain{filters: make([]Filter, 0, len(filters))}
	for _, f := range filters {
		if f != nil {
			c.filters = append(c.filters, f)
		}
	}
	return c
}

// Admit reports whether every filter approves the candidate.
func (c *Chain) Admit(cand Candidate) bool {
	return c.Rejecting(cand) == ""
}

// Rejecting returns the name of the first filter that rejects the candidate,
// or an empty string when the candidate is admitted.
func (c *Chain) Rejecting(cand Candidate) string {
	if c == nil {
		return ""
	}
	for _, f := range c.filters {
		if !f.Admit(cand) {
			return f.Name()
		}
	}
	return ""
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.filters)
}

// Names returns the filter names in evaluation order.
func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = f.Name()
	}
	return names
}

// ContentTypeFilter approves pages whose media type is in an allow-set.
type ContentTypeFilter struct {
	allowed map[string]struct{}
}

// NewContentTypeFilter creates a filter admitting the given media types.
// Types are compared without parameters and case-insensitively, so
// "text/html; charset=utf-8" matches "text/html".
func NewContentTypeFilter(types ...string) *ContentTypeFilter {
	f := &ContentTypeFilter{allowed: make(map[string]struct{}, len(types))}
	for _, t := range types {
		if mt := NormalizeMediaType(t); mt != "" {
			f.allowed[mt] = struct{}{}
		}
	}
	return f
}

// Admit approves unfetched candidates and pages with an allowed media type.
func (f *ContentTypeFilter) Admit(c Candidate) bool {
	if c.MediaType == "" {
		return true
	}
	_, ok := f.allowed[NormalizeMediaType(c.MediaType)]
	return ok
}

// Name implements Filter.
func (f *ContentTypeFilter) Name() string {
	return "content-type"
}

// NormalizeMediaType strips parameters from a Content-Type value and
// lower-cases it. It returns an empty string for an empty value.
func NormalizeMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
