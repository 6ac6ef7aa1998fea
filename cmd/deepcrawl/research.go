package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/deepcrawl/internal/config"
	"github.com/nao1215/deepcrawl/internal/crawler"
	"github.com/nao1215/deepcrawl/internal/database"
	dclog "github.com/nao1215/deepcrawl/internal/log"
	"github.com/nao1215/deepcrawl/internal/model"
	"github.com/nao1215/deepcrawl/internal/pipeline"
	"github.com/nao1215/deepcrawl/internal/report"
)

// NewResearchCmd creates the research command.
func NewResearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research [topic...]",
		Short: "Crawl and assess one or more research topics",
		Long: `Research crawls the seed URLs of each topic, scores every admitted page
against the topic's evidence categories, and prints a feasibility assessment.

Every finished run is saved in the findings database (see 'deepcrawl history').

Examples:
  # Run a built-in topic
  deepcrawl research architecture-gaps

  # Run every topic of the research file, three at a time
  deepcrawl research --all -b 3

  # Override the seeds and budgets of a topic
  deepcrawl research architecture-theory --seed https://example.com/ -d 1 -p 10

  # Write a Markdown roadmap
  deepcrawl research architecture-gaps --markdown -o roadmap.md

  # Route requests through a SOCKS5 proxy
  deepcrawl research architecture-gaps --proxy 127.0.0.1:1080

Research file (.deepcrawl.yaml) example:
  topics:
    - name: event-sourcing
      description: Is event sourcing used with vertical slices?
      seeds: [https://example.com/blog/]
      keywords: [event sourcing, vertical slice]
      depth: 2
      categories:
        - name: event_sourcing
          terms: [event store, event sourcing]`,
		Args: cobra.ArbitraryArgs,
		RunE: runResearchCmd,
	}

	cmd.Flags().IntP("depth", "d", config.UseTopicDepth,
		"Maximum link depth from each seed (-1 uses the topic depth)")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Maximum pages per seed (0 uses the topic budget)")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Minimum interval between two requests of one crawl")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Crawl time limit per topic; evidence gathered so far is still assessed")
	cmd.Flags().Duration("request-timeout", config.DefaultRequestTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("concurrency", "C", config.DefaultConcurrency,
		"Number of seeds crawled at the same time per topic")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of topics researched at the same time")

	cmd.Flags().StringP("config", "c", "",
		"Research file path (default: .deepcrawl.yaml in current, XDG config or home directory)")
	cmd.Flags().Bool("all", false,
		"Research every topic of the research file and the built-in presets")
	cmd.Flags().StringSlice("seed", nil,
		"Seed URL replacing the topic seeds (repeatable)")

	cmd.Flags().String("proxy", "",
		"Proxy for all requests (host:port for SOCKS5, or socks5:// / http:// URL)")
	cmd.Flags().Bool("no-robots", false,
		"Do not check robots.txt before fetching")
	cmd.Flags().Bool("external", false,
		"Follow links to hosts other than the seed host")

	cmd.Flags().BoolP("json", "j", false,
		"Output a JSON snapshot (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown roadmap (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to this file; with several topics the topic name is added to the file name")

	cmd.Flags().Bool("no-db", false,
		"Do not save results in the findings database")
	cmd.Flags().String("db-dir", "",
		"Findings database directory (default: XDG data directory)")

	return cmd
}

func runResearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := dclog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runResearch(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from command flags and loads the research file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	var err error

	if cfg.CrawlDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = flags.GetDuration("request-timeout"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Seeds, err = flags.GetStringSlice("seed"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	noRobots, err := flags.GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	cfg.RespectRobots = !noRobots
	if cfg.IncludeExternal, err = flags.GetBool("external"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	cfg.Verbose = getVerboseFlag(cmd)

	research, path, err := config.LoadResearch(cfg.ConfigFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load research file: %w", err)
	}
	cfg.Research = research
	if path != "" {
		cfg.ConfigFilePath = path
	}

	all, err := flags.GetBool("all")
	if err != nil {
		return nil, err
	}
	if all {
		cfg.Topics = research.TopicNames()
	} else {
		cfg.Topics = args
	}

	return cfg, nil
}

// resolveTopics looks up the selected topics and applies the run overrides.
func resolveTopics(cfg *config.Config) ([]config.Topic, error) {
	topics := make([]config.Topic, 0, len(cfg.Topics))
	seen := make(map[string]bool, len(cfg.Topics))
	for _, name := range cfg.Topics {
		t, err := cfg.Research.Topic(name)
		if err != nil {
			return nil, err
		}
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true

		t = cfg.ApplyOverrides(t)
		if err := t.Validate(); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, nil
}

// runResearch researches every selected topic and reports each one as it completes.
func runResearch(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	topics, err := resolveTopics(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting research",
		"topics", cfg.Topics,
		"researchFile", cfg.ConfigFilePath,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.FindingsDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	bp := pipeline.NewBatchProcessor(
		func(t config.Topic) (*pipeline.Pipeline, error) {
			return newTopicPipeline(cfg, t, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	if len(topics) == 1 {
		fmt.Fprintf(out, "Researching %s...\n", topics[0].Name)
	} else {
		fmt.Fprintf(out, "Researching %d topics (concurrency: %d)...\n", len(topics), min(cfg.BatchSize, len(topics)))
	}
	start := time.Now()

	var (
		mu     sync.Mutex
		failed []string
		errs   []error
	)
	err = bp.ProcessBatchWithCallback(ctx, topics, func(r *model.ResearchReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		if len(topics) > 1 {
			fmt.Fprintf(out, "[%d/%d] %s: %s\n", index+1, len(topics), r.Topic, r.Findings.Assessment.Tier)
		}
		if r.Error != "" {
			failed = append(failed, r.Topic)
		}

		if err := outputReport(cfg, r, out, len(topics) > 1); err != nil {
			logger.Error("report failed", "topic", r.Topic, "error", err)
			errs = append(errs, fmt.Errorf("%s: failed to write report: %w", r.Topic, err))
		}
		if err := saveReport(ctx, db, r, logger); err != nil {
			logger.Error("failed to save report", "topic", r.Topic, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Topic, err))
		}
	})

	fmt.Fprintf(out, "Research completed in %s\n", time.Since(start).Round(time.Millisecond))

	if err != nil {
		return errors.Join(append([]error{err}, errs...)...)
	}
	if len(failed) > 0 {
		errs = append(errs, fmt.Errorf("research failed for %d of %d topic(s): %s",
			len(failed), len(topics), strings.Join(failed, ", ")))
	}
	return errors.Join(errs...)
}

// newTopicPipeline builds the fetcher, spider and pipeline for one topic.
// Each topic gets its own HTTP client so cookies and headers never leak
// between research sites.
func newTopicPipeline(cfg *config.Config, topic config.Topic, logger *slog.Logger) (*pipeline.Pipeline, error) {
	fetcherOpts := []crawler.FetcherOption{
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithTimeout(cfg.RequestTimeout),
	}
	if topic.Cookie != "" {
		fetcherOpts = append(fetcherOpts, crawler.WithCookie(topic.Cookie))
	}
	if len(topic.Headers) > 0 {
		fetcherOpts = append(fetcherOpts, crawler.WithHeaders(topic.Headers))
	}
	if cfg.ProxyAddress != "" {
		fetcherOpts = append(fetcherOpts, crawler.WithProxy(cfg.ProxyAddress))
	}
	fetcher, err := crawler.NewHTTPFetcher(fetcherOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	spiderOpts := []crawler.SpiderOption{
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithSpiderLogger(logger),
	}
	if cfg.RespectRobots {
		robots := crawler.NewRobotsAgent(fetcher.Client(), fetcher.UserAgent(),
			crawler.WithRobotsLogger(logger))
		spiderOpts = append(spiderOpts, crawler.WithRobots(robots))
	}
	spider := crawler.NewSpider(fetcher, spiderOpts...)

	return pipeline.ResearchPipeline(spider, topic,
		[]pipeline.Option{
			pipeline.WithLogger(logger),
			pipeline.WithContinueOnError(true),
		},
		pipeline.WithCrawlConcurrency(cfg.Concurrency),
		pipeline.WithCrawlTimeout(cfg.Timeout),
	), nil
}

// outputReport writes r in the requested format to stdout or the report file.
func outputReport(cfg *config.Config, r *model.ResearchReport, stdout io.Writer, perTopicFile bool) error {
	output := stdout
	if cfg.ReportFile != "" {
		path := cfg.ReportFile
		if perTopicFile {
			path = topicFilePath(path, r.Topic)
		}
		f, err := createReportFile(path)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(cfg, output).Write(r)
	return err
}

func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewSnapshotWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// createReportFile creates path and its parent directories.
// Reports may quote authenticated pages, so the file is readable by the owner only.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// topicFilePath inserts the topic name before the extension of path:
// roadmap.md becomes roadmap-architecture-gaps.md.
func topicFilePath(path, topic string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + topic + ext
}

// saveReport stores r in the findings database. A nil db is a no-op.
func saveReport(ctx context.Context, db *database.FindingsDB, r *model.ResearchReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}
	// The run may have been cancelled; the report is still worth keeping.
	id, err := db.SaveReport(context.WithoutCancel(ctx), r)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	logger.Info("report saved to database", "topic", r.Topic, "id", id)
	return nil
}
