package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// newResearchServer serves a tiny site: the home page links to /a and /b.
// /a talks about vertical slices and /b about a code generator.
func newResearchServer(t *testing.T, robots string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if robots == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, robots)
	})
	page := func(title, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, "<html><head><title>%s</title></head><body>%s</body></html>", title, body)
		}
	}
	mux.HandleFunc("/a", page("Slices", "<p>Each vertical slice owns its handler and its data access.</p>"))
	mux.HandleFunc("/b", page("Tools", "<p>A code generator scaffolds new features.</p>"))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		page("Home", `<p>Notes on vertical slice architecture.</p><a href="/a">a</a> <a href="/b">b</a>`)(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeResearchFile writes a research file with two topics seeded at baseURL.
func writeResearchFile(t *testing.T, baseURL string) string {
	t.Helper()

	content := fmt.Sprintf(`
topics:
  - name: local
    description: Is the local site about vertical slices?
    seeds: [%[1]s/]
    keywords: [slice]
    depth: 1
    maxPages: 10
    categories:
      - name: slice
        terms: [vertical slice]
      - name: tooling
        terms: [generator]
  - name: other
    seeds: [%[1]s/b]
    depth: 0
    categories:
      - name: tooling
        terms: [generator]
`, baseURL)

	path := filepath.Join(t.TempDir(), "research.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
