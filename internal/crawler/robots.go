package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// DefaultRobotsTTL is how long parsed robots.txt rules are cached per host.
const DefaultRobotsTTL = 30 * time.Minute

// RobotsAgent evaluates robots.txt rules with a per-host cache.
// It fails open: a host whose robots.txt cannot be fetched or parsed is
// treated as allowing everything.
type RobotsAgent struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]robotsEntry
}

type robotsEntry struct {
	fetched time.Time
	rules   *robotstxt.RobotsData
}

// RobotsOption configures a RobotsAgent.
type RobotsOption func(*RobotsAgent)

// WithRobotsTTL sets the cache lifetime.
func WithRobotsTTL(ttl time.Duration) RobotsOption {
	return func(a *RobotsAgent) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithRobotsLogger sets the logger.
func WithRobotsLogger(logger *slog.Logger) RobotsOption {
	return func(a *RobotsAgent) {
		a.logger = logger
	}
}

// NewRobotsAgent creates an agent that fetches robots.txt with client and
// matches rules for userAgent.
func NewRobotsAgent(client *http.Client, userAgent string, opts ...RobotsOption) *RobotsAgent {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	a := &RobotsAgent{
		client:    client,
		userAgent: userAgent,
		ttl:       DefaultRobotsTTL,
		cache:     make(map[string]robotsEntry),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Allowed implements RobotsChecker.
func (a *RobotsAgent) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}

	rules, err := a.rules(ctx, target)
	if err != nil {
		a.logger.Debug("robots.txt unavailable", "host", target.Host, "error", err)
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return rules.TestAgent(path, a.userAgent)
}

func (a *RobotsAgent) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := strings.ToLower(target.Host)

	a.mu.RLock()
	entry, ok := a.cache[host]
	a.mu.RUnlock()
	if ok && time.Since(entry.fetched) < a.ttl {
		return entry.rules, nil
	}

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	// robotstxt maps 5xx to disallow-all; a server error fails open here.
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("robots.txt returned status %d", resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	a.mu.Lock()
	a.cache[host] = robotsEntry{fetched: time.Now(), rules: data}
	a.mu.Unlock()

	return data, nil
}

// Purge evicts the cached rules for host.
func (a *RobotsAgent) Purge(host string) {
	a.mu.Lock()
	delete(a.cache, strings.ToLower(strings.TrimSpace(host)))
	a.mu.Unlock()
}
