package config

import (
	"fmt"
	"maps"
	"strings"

	"github.com/nao1215/deepcrawl/internal/analysis"
	"github.com/nao1215/deepcrawl/internal/filter"
	"github.com/nao1215/deepcrawl/internal/model"
)

// DefaultMaxPages is the page budget per seed of a topic that sets none.
const DefaultMaxPages = 30

// Topic describes one research question: where to crawl, what to keep,
// and which categories of evidence to look for.
type Topic struct {
	// Name identifies the topic on the command line.
	Name string `yaml:"name"`

	// Description is the research question in plain words.
	Description string `yaml:"description,omitempty"`

	// Seeds are the start URLs.
	Seeds []string `yaml:"seeds"`

	// Keywords drive the relevance score of each page.
	Keywords []string `yaml:"keywords,omitempty"`

	// URLPatterns restrict discovered pages to matching URLs.
	// Empty allows every URL.
	URLPatterns []string `yaml:"urlPatterns,omitempty"`

	// ExcludePatterns reject matching URLs.
	ExcludePatterns []string `yaml:"excludePatterns,omitempty"`

	// ContentTypes restrict fetched pages to these media types.
	// Empty allows every media type.
	ContentTypes []string `yaml:"contentTypes,omitempty"`

	// Depth is the maximum link depth from a seed.
	Depth int `yaml:"depth,omitempty"`

	// MaxPages is the page budget per seed. 0 uses DefaultMaxPages.
	MaxPages int `yaml:"maxPages,omitempty"`

	// IncludeExternal follows links to other hosts.
	IncludeExternal bool `yaml:"includeExternal,omitempty"`

	// SnippetWidth is the context kept on each side of a matched term.
	SnippetWidth int `yaml:"snippetWidth,omitempty"`

	// MinSources is the number of evidence sources needed for the
	// Partial and Strong tiers.
	MinSources int `yaml:"minSources,omitempty"`

	// RelevanceThreshold is exceeded by high-relevance sources.
	// Nil uses the default; 0 lists every source with at least one match.
	RelevanceThreshold *int `yaml:"relevanceThreshold,omitempty"`

	// Cookie is sent with every request of this topic.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are sent with every request of this topic.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Categories are the evidence categories, in declaration order.
	Categories []model.Category `yaml:"categories"`
}

// Validate checks that the topic can be researched.
func (t Topic) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTopic)
	}
	if len(t.Seeds) == 0 {
		return fmt.Errorf("%w %q: no seeds", ErrInvalidTopic, t.Name)
	}
	if t.Depth < 0 || t.MaxPages < 0 || t.SnippetWidth < 0 {
		return fmt.Errorf("%w %q: depth, maxPages and snippetWidth must not be negative", ErrInvalidTopic, t.Name)
	}
	if t.RelevanceThreshold != nil && *t.RelevanceThreshold < 0 {
		return fmt.Errorf("%w %q: relevanceThreshold must not be negative", ErrInvalidTopic, t.Name)
	}
	if err := model.ValidateCategories(t.Categories); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidTopic, t.Name, err)
	}
	return nil
}

// FilterChain builds the admission chain for the topic.
// Filters are evaluated as: exclude patterns, URL patterns, content types.
func (t Topic) FilterChain() *filter.Chain {
	var filters []filter.Filter
	if len(t.ExcludePatterns) > 0 {
		filters = append(filters, filter.NewURLExcludeFilter(t.ExcludePatterns...))
	}
	if len(t.URLPatterns) > 0 {
		filters = append(filters, filter.NewURLPatternFilter(t.URLPatterns...))
	}
	if len(t.ContentTypes) > 0 {
		filters = append(filters, filter.NewContentTypeFilter(t.ContentTypes...))
	}
	return filter.NewChain(filters...)
}

// Policy returns the aggregation policy, falling back to the defaults.
func (t Topic) Policy() analysis.Policy {
	p := analysis.DefaultPolicy()
	if t.MinSources > 0 {
		p.MinSources = t.MinSources
	}
	if t.RelevanceThreshold != nil {
		p.RelevanceThreshold = *t.RelevanceThreshold
	}
	return p
}

// EffectiveMaxPages returns the page budget per seed, falling back to
// DefaultMaxPages.
func (t Topic) EffectiveMaxPages() int {
	if t.MaxPages > 0 {
		return t.MaxPages
	}
	return DefaultMaxPages
}

// EffectiveSnippetWidth returns the snippet width, falling back to the default.
func (t Topic) EffectiveSnippetWidth() int {
	if t.SnippetWidth > 0 {
		return t.SnippetWidth
	}
	return analysis.DefaultSnippetWidth
}

// File is the structure of the research file.
type File struct {
	// Defaults are applied to every topic field left empty.
	Defaults Topic `yaml:"defaults,omitempty"`

	// Topics are the research topics, in declaration order.
	Topics []Topic `yaml:"topics"`
}

// Topic returns the named topic merged with the file defaults.
func (f *File) Topic(name string) (Topic, error) {
	for _, t := range f.Topics {
		if strings.EqualFold(t.Name, name) {
			return f.merge(t), nil
		}
	}
	return Topic{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownTopic, name, strings.Join(f.TopicNames(), ", "))
}

// TopicNames returns the topic names in declaration order.
func (f *File) TopicNames() []string {
	names := make([]string, len(f.Topics))
	for i, t := range f.Topics {
		names[i] = t.Name
	}
	return names
}

// Validate checks every topic and rejects duplicate names.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Topics))
	for _, t := range f.Topics {
		key := strings.ToLower(t.Name)
		if seen[key] {
			return fmt.Errorf("%w %q: defined twice", ErrInvalidTopic, t.Name)
		}
		seen[key] = true
		if err := f.merge(t).Validate(); err != nil {
			return err
		}
	}
	return nil
}

// WithPresets returns a file containing f's topics followed by the built-in
// presets that f does not redefine.
func (f *File) WithPresets() *File {
	out := &File{Defaults: f.Defaults, Topics: append([]Topic(nil), f.Topics...)}
	for _, p := range Presets() {
		if _, err := f.Topic(p.Name); err != nil {
			out.Topics = append(out.Topics, p)
		}
	}
	return out
}

// merge fills empty topic fields from the file defaults.
func (f *File) merge(t Topic) Topic {
	d := f.Defaults
	if len(t.Seeds) == 0 {
		t.Seeds = d.Seeds
	}
	if len(t.Keywords) == 0 {
		t.Keywords = d.Keywords
	}
	if len(t.URLPatterns) == 0 {
		t.URLPatterns = d.URLPatterns
	}
	if len(t.ExcludePatterns) == 0 {
		t.ExcludePatterns = d.ExcludePatterns
	}
	if len(t.ContentTypes) == 0 {
		t.ContentTypes = d.ContentTypes
	}
	if t.Depth == 0 {
		t.Depth = d.Depth
	}
	if t.MaxPages == 0 {
		t.MaxPages = d.MaxPages
	}
	if !t.IncludeExternal {
		t.IncludeExternal = d.IncludeExternal
	}
	if t.SnippetWidth == 0 {
		t.SnippetWidth = d.SnippetWidth
	}
	if t.MinSources == 0 {
		t.MinSources = d.MinSources
	}
	if t.RelevanceThreshold == nil {
		t.RelevanceThreshold = d.RelevanceThreshold
	}
	if t.Cookie == "" {
		t.Cookie = d.Cookie
	}
	if len(d.Headers) > 0 {
		headers := maps.Clone(d.Headers)
		maps.Copy(headers, t.Headers)
		t.Headers = headers
	}
	if len(t.Categories) == 0 {
		t.Categories = d.Categories
	}
	return t
}
