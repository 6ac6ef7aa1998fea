package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// frontierEntry is a URL waiting to be processed.
type frontierEntry struct {
	url   *url.URL
	key   string
	depth int

	// seed is the seed the entry was discovered from.
	seed *url.URL
}

// frontier is a FIFO queue that remembers every key it has ever accepted.
// Popped keys stay remembered, so a URL is enqueued at most once.
type frontier struct {
	queue []frontierEntry
	head  int
	seen  map[string]struct{}
}

func newFrontier() *frontier {
	return &frontier{seen: make(map[string]struct{})}
}

// push enqueues the entry unless its key was enqueued before.
func (f *frontier) push(e frontierEntry) bool {
	if _, ok := f.seen[e.key]; ok {
		return false
	}
	f.seen[e.key] = struct{}{}
	f.queue = append(f.queue, e)
	return true
}

// pop removes the earliest-inserted entry.
func (f *frontier) pop() (frontierEntry, bool) {
	if f.head >= len(f.queue) {
		return frontierEntry{}, false
	}
	e := f.queue[f.head]
	f.queue[f.head] = frontierEntry{}
	f.head++
	// Reclaim the consumed prefix once it dominates the backing array.
	if f.head > 64 && f.head*2 > len(f.queue) {
		f.queue = append(f.queue[:0:0], f.queue[f.head:]...)
		f.head = 0
	}
	return e, true
}

// ignore remembers key without enqueueing it, so a rejected URL is not
// evaluated again when other pages link to it.
func (f *frontier) ignore(key string) {
	f.seen[key] = struct{}{}
}

func (f *frontier) known(key string) bool {
	_, ok := f.seen[key]
	return ok
}

func (f *frontier) len() int {
	return len(f.queue) - f.head
}

// visitedSet is the set of normalized URLs already dequeued.
type visitedSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

func newVisitedSet() *visitedSet {
	return &visitedSet{urls: make(map[string]struct{})}
}

// markIfUnvisited marks key as visited and reports whether it was new.
func (v *visitedSet) markIfUnvisited(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.urls[key]; ok {
		return false
	}
	v.urls[key] = struct{}{}
	return true
}

func (v *visitedSet) contains(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.urls[key]
	return ok
}

func (v *visitedSet) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.urls)
}

// normalizeURL returns the deduplication key of a URL: the fragment is
// dropped, scheme and host are lower-cased, and an empty path becomes "/".
func normalizeURL(u *url.URL) string {
	n := *u
	n.Fragment = ""
	n.RawFragment = ""
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	if n.Path == "" {
		n.Path = "/"
	}
	return n.String()
}

// sameHost reports whether two URLs share a host, ignoring case and a
// leading "www.".
func sameHost(a, b *url.URL) bool {
	return strings.EqualFold(
		strings.TrimPrefix(strings.ToLower(a.Host), "www."),
		strings.TrimPrefix(strings.ToLower(b.Host), "www."),
	)
}
