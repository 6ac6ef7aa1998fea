package crawler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
)

func TestRobotsAgent(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n\nUser-agent: deepcrawl\nDisallow: /drafts\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	agent := NewRobotsAgent(srv.Client(), "deepcrawl")
	mustURL := func(path string) *url.URL {
		u, _ := url.Parse(srv.URL + path)
		return u
	}

	if !agent.Allowed(t.Context(), mustURL("/public")) {
		t.Error("/public should be allowed")
	}
	if agent.Allowed(t.Context(), mustURL("/drafts/one")) {
		t.Error("/drafts should be disallowed for deepcrawl")
	}
	if hits.Load() != 1 {
		t.Errorf("robots.txt fetched %d times, want 1 (cached)", hits.Load())
	}

	generic := NewRobotsAgent(srv.Client(), "otherbot")
	if generic.Allowed(t.Context(), mustURL("/private/x")) {
		t.Error("/private should be disallowed for other agents")
	}

	agent.Purge(mustURL("/").Host)
	agent.Allowed(t.Context(), mustURL("/public"))
	if hits.Load() != 3 {
		t.Errorf("robots.txt fetched %d times after purge, want 3", hits.Load())
	}
}

func TestRobotsAgentFailsOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			u, _ := url.Parse(srv.URL + "/anything")
			if !NewRobotsAgent(srv.Client(), "deepcrawl").Allowed(t.Context(), u) {
				t.Errorf("status %d should fail open", tt.status)
			}
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		u, _ := url.Parse(srv.URL + "/x")
		srv.Close()
		if !NewRobotsAgent(nil, "deepcrawl").Allowed(t.Context(), u) {
			t.Error("unreachable host should fail open")
		}
	})

	t.Run("relative url", func(t *testing.T) {
		t.Parallel()
		if NewRobotsAgent(nil, "deepcrawl").Allowed(t.Context(), &url.URL{Path: "/x"}) {
			t.Error("relative URL should not be allowed")
		}
	})
}
