package filter

import (
	"regexp"
	"strings"
)

// URLPatternFilter approves URLs that match at least one glob pattern.
//
// Patterns are matched against the full URL string, case-insensitively:
//   - * matches any run of characters, including '/'
//   - ? matches exactly one character
//   - a pattern without wildcards matches as a substring
//
// A URLPatternFilter with no patterns rejects everything.
type URLPatternFilter struct {
	patterns []*regexp.Regexp
	raw      []string
}

// NewURLPatternFilter compiles the given glob patterns.
// Blank patterns are ignored.
func NewURLPatternFilter(patterns ...string) *URLPatternFilter {
	return &URLPatternFilter{
		patterns: compilePatterns(patterns),
		raw:      patterns,
	}
}

// Admit implements Filter.
func (f *URLPatternFilter) Admit(c Candidate) bool {
	if c.URL == nil {
		return false
	}
	return matchAny(f.patterns, c.URL.String())
}

// Name implements Filter.
func (f *URLPatternFilter) Name() string {
	return "url-pattern"
}

// Patterns returns the patterns the filter was built from.
func (f *URLPatternFilter) Patterns() []string {
	return f.raw
}

// URLExcludeFilter rejects URLs that match any glob pattern.
// Pattern syntax is the same as URLPatternFilter.
type URLExcludeFilter struct {
	patterns []*regexp.Regexp
}

// NewURLExcludeFilter compiles the given glob patterns.
func NewURLExcludeFilter(patterns ...string) *URLExcludeFilter {
	return &URLExcludeFilter{patterns: compilePatterns(patterns)}
}

// Admit implements Filter.
func (f *URLExcludeFilter) Admit(c Candidate) bool {
	if c.URL == nil {
		return false
	}
	return !matchAny(f.patterns, c.URL.String())
}

// Name implements Filter.
func (f *URLExcludeFilter) Name() string {
	return "url-exclude"
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		compiled = append(compiled, globToRegexp(p))
	}
	return compiled
}

// globToRegexp converts a glob pattern into an unanchored, case-insensitive
// regular expression. Leading and trailing stars are redundant once the
// expression is unanchored, which is what gives plain words their substring
// semantics.
func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?is)")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return regexp.MustCompile(b.String())
}
