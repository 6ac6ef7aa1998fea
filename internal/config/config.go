package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "deepcrawl"

	// DefaultTimeout bounds one research topic run, crawl included.
	DefaultTimeout = 15 * time.Minute

	// DefaultRequestTimeout bounds a single HTTP request.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultCrawlDelay is the minimum interval between two fetches of one
	// traversal. It keeps the request rate polite towards research sites.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultConcurrency is the number of seeds crawled at the same time
	// within one topic. 1 crawls seeds one after another.
	DefaultConcurrency = 1

	// DefaultBatchSize is the number of topics researched at the same time.
	DefaultBatchSize = 2

	// DefaultUserAgent identifies deepcrawl in HTTP requests.
	DefaultUserAgent = "deepcrawl/1.0 (+https://github.com/nao1215/deepcrawl)"

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// UseTopicDepth tells the run to use the depth configured on the topic.
	UseTopicDepth = -1
)

// Config holds the options of one deepcrawl invocation.
// It is populated from CLI flags and passed down explicitly; there is no
// global configuration state.
type Config struct {
	// Topics are the research topic names to run, in order.
	Topics []string

	// Seeds, when set, replace the seed URLs of every selected topic.
	Seeds []string

	// Timeout bounds each topic run.
	Timeout time.Duration

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration

	// CrawlDepth overrides the topic depth. UseTopicDepth keeps it.
	CrawlDepth int

	// MaxPages overrides the topic page budget. 0 keeps it.
	MaxPages int

	// CrawlDelay is the minimum interval between fetches.
	CrawlDelay time.Duration

	// Concurrency is the number of seeds crawled in parallel per topic.
	Concurrency int

	// BatchSize is the number of topics researched in parallel.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the research file path given on the command line.
	ConfigFilePath string

	// Research is the loaded research file. Set by the CLI before running.
	Research *File

	// JSONReport selects the JSON snapshot output.
	JSONReport bool

	// MarkdownReport selects the Markdown roadmap output.
	MarkdownReport bool

	// ReportFile is the output path. Empty writes to stdout.
	ReportFile string

	// ProxyAddress routes requests through a SOCKS5 or HTTP proxy.
	ProxyAddress string

	// RespectRobots enables robots.txt checks.
	RespectRobots bool

	// IncludeExternal follows links to other hosts for every topic.
	IncludeExternal bool

	// DBDir is the directory holding the findings database.
	DBDir string

	// SaveToDB stores every finished report in the findings database.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		RequestTimeout: DefaultRequestTimeout,
		CrawlDepth:     UseTopicDepth,
		CrawlDelay:     DefaultCrawlDelay,
		Concurrency:    DefaultConcurrency,
		BatchSize:      DefaultBatchSize,
		RespectRobots:  true,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for deepcrawl.
// On Linux: ~/.local/share/deepcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for deepcrawl.
// On Linux: ~/.config/deepcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the run options. It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Topics) == 0 {
		return ErrNoTopic
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.CrawlDepth < UseTopicDepth {
		return ErrInvalidDepth
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// ApplyOverrides returns a copy of t with the run-wide overrides applied.
func (c *Config) ApplyOverrides(t Topic) Topic {
	if len(c.Seeds) > 0 {
		t.Seeds = append([]string(nil), c.Seeds...)
	}
	if c.CrawlDepth != UseTopicDepth {
		t.Depth = c.CrawlDepth
	}
	if c.MaxPages > 0 {
		t.MaxPages = c.MaxPages
	}
	if c.IncludeExternal {
		t.IncludeExternal = true
	}
	return t
}
