package crawler

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/proxy"

	"github.com/nao1215/deepcrawl/internal/filter"
)

// Default HTTP fetcher settings.
const (
	DefaultUserAgent   = "Mozilla/5.0 (compatible; deepcrawl/1.0; +https://github.com/nao1215/deepcrawl)"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
	maxRedirects       = 10
)

// HTTPFetcher fetches pages over HTTP(S) and parses HTML documents.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	cookie      string
	maxBodySize int64
	timeout     time.Duration
	proxyAddr   string
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithHeaders adds extra request headers.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *HTTPFetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithCookie sets a Cookie header sent with every request.
func WithCookie(cookie string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithMaxBodySize limits how many bytes of a body are read.
// Larger bodies are truncated.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithProxy routes requests through a proxy. The address is either
// "host:port" (SOCKS5), "socks5://[user:pass@]host:port" or an
// http(s):// proxy URL.
func WithProxy(addr string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.proxyAddr = strings.TrimSpace(addr)
	}
}

// WithHTTPClient replaces the HTTP client. Timeout and proxy options are
// ignored when a client is given.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// NewHTTPFetcher creates a fetcher. It fails only when the proxy address
// cannot be parsed.
func NewHTTPFetcher(opts ...FetcherOption) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		userAgent:   DefaultUserAgent,
		headers:     make(map[string]string),
		maxBodySize: DefaultMaxBodySize,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		transport, err := newTransport(f.proxyAddr)
		if err != nil {
			return nil, err
		}
		f.client = &http.Client{
			Transport: transport,
			Timeout:   f.timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return f, nil
}

// newTransport builds the HTTP transport, optionally through a proxy.
func newTransport(proxyAddr string) (*http.Transport, error) {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// Decoding is done in readBody so brotli is handled too.
		DisableCompression: true,
	}
	if proxyAddr == "" {
		return transport, nil
	}

	if !strings.Contains(proxyAddr, "://") {
		proxyAddr = "socks5://" + proxyAddr
	}
	u, err := url.Parse(proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("parse proxy address: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("create SOCKS5 dialer: %w", err)
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return transport, nil
}

// Client returns the underlying HTTP client, e.g. for robots.txt requests.
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

// UserAgent returns the User-Agent sent with requests.
func (f *HTTPFetcher) UserAgent() string {
	return f.userAgent
}

// Fetch implements PageFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	result := &FetchResult{
		URL:        finalURL,
		MediaType:  filter.NormalizeMediaType(resp.Header.Get("Content-Type")),
		StatusCode: resp.StatusCode,
	}
	if result.MediaType == "" {
		result.MediaType = filter.NormalizeMediaType(http.DetectContentType(body))
	}

	switch {
	case isHTML(result.MediaType):
		parser, err := NewParser(finalURL)
		if err != nil {
			return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
		}
		parsed, err := parser.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("parse html: %w", err)}
		}
		result.Title = parsed.Title
		result.Content = parsed.Text
		result.Links = parsed.Links
	case strings.HasPrefix(result.MediaType, "text/"):
		result.Content = string(body)
	}

	return result, nil
}

func isHTML(mediaType string) bool {
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// readBody decodes the response body according to Content-Encoding and
// truncates it at the configured size.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
