package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/deepcrawl/internal/filter"
)

// Config describes one traversal.
type Config struct {
	// Seeds are the start URLs, processed in order at depth 0.
	// A seed without a scheme is treated as https.
	Seeds []string

	// MaxDepth is the maximum number of link hops from a seed.
	// 0 means only the seeds themselves.
	MaxDepth int

	// MaxPages is the maximum number of pages yielded.
	// The traversal stops as soon as this many pages were admitted.
	MaxPages int

	// Filters is the admission chain. Nil admits everything.
	Filters *filter.Chain

	// Keywords are used to compute each page's relevance score.
	Keywords []string

	// IncludeExternal allows following links to other hosts.
	IncludeExternal bool
}

// Validate checks the configuration without touching the network.
func (c Config) Validate() error {
	_, err := c.parseSeeds()
	return err
}

func (c Config) parseSeeds() ([]*url.URL, error) {
	if c.MaxDepth < 0 {
		return nil, ErrNegativeDepth
	}
	if c.MaxPages < 0 {
		return nil, ErrNegativeMaxPages
	}

	seeds := make([]*url.URL, 0, len(c.Seeds))
	for _, raw := range c.Seeds {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := ParseSeed(raw)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, u)
	}
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	return seeds, nil
}

// ParseSeed parses a seed URL. A missing scheme defaults to https.
func ParseSeed(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSeed, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w %q: unsupported scheme %q", ErrInvalidSeed, raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidSeed, raw)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}
