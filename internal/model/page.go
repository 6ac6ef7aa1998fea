package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Page is a fetched page that passed the filter chain.
// Pages are only created by the crawler after a successful fetch.
type Page struct {
	// URL is the final URL of the page after redirects.
	URL string `json:"url"`

	// Title is the document title. Empty for non-HTML content.
	Title string `json:"title"`

	// Depth is the number of link hops from the seed URL.
	Depth int `json:"depth"`

	// Seed is the seed URL whose traversal discovered this page.
	Seed string `json:"seed"`

	// MediaType is the declared media type without parameters (e.g. "text/html").
	MediaType string `json:"media_type"`

	// Content is the visible text of the page.
	// It is dropped from snapshots once evidence has been extracted.
	Content string `json:"-"`

	// Score is the keyword relevance score of Content.
	Score int `json:"score"`

	// Hash is the SHA-256 of Content, hex encoded.
	Hash string `json:"hash"`

	// FetchedAt is when the page was fetched.
	FetchedAt time.Time `json:"fetched_at"`
}

// ComputeHash sets Hash from the current Content.
func (p *Page) ComputeHash() {
	sum := sha256.Sum256([]byte(p.Content))
	p.Hash = hex.EncodeToString(sum[:])
}

// FetchFailure records a page that could not be fetched during a traversal.
// Failures are kept for reporting; they never abort the traversal.
type FetchFailure struct {
	URL    string `json:"url"`
	Depth  int    `json:"depth"`
	Reason string `json:"reason"`
}
