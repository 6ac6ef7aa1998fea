package crawler

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parser extracts the title, visible text and links of an HTML document.
//
// The document is parsed with golang.org/x/net/html, which tolerates the
// malformed markup common on the web, and queried through goquery.
type Parser struct {
	// baseURL resolves relative links.
	baseURL *url.URL
}

// ParseResult is the information extracted from one HTML page.
type ParseResult struct {
	// Title is the text of the first <title> element.
	Title string

	// Text is the visible text with whitespace collapsed.
	// Script, style, noscript and template contents are excluded.
	Text string

	// Links are absolute, fragment-free http(s) URLs from a[href],
	// deduplicated in document order.
	Links []string
}

// NewParser creates a parser that resolves links against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses an HTML document.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(root)

	base := p.baseURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = p.baseURL.ResolveReference(u)
		}
	}

	result := &ParseResult{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Links: make([]string, 0),
	}

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		link := resolveURL(base, s.AttrOr("href", ""))
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		result.Links = append(result.Links, link)
	})

	doc.Find("script, style, noscript, template, head").Remove()
	result.Text = collapseWhitespace(doc.Text())

	return result, nil
}

// resolveURL resolves href against base. It returns an empty string for
// non-navigational links (javascript:, mailto:, tel:, data:, bare
// fragments) and for non-http(s) results.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
