package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/deepcrawl/internal/analysis"
	"github.com/nao1215/deepcrawl/internal/config"
	"github.com/nao1215/deepcrawl/internal/crawler"
	"github.com/nao1215/deepcrawl/internal/model"
)

// Step names recorded in model.ResearchReport.PerformedSteps.
const (
	StepCrawl    = "crawl"
	StepEvidence = "evidence"
	StepAssess   = "assess"
)

// CrawlStep crawls every seed of a topic and stores the admitted pages.
//
// Each seed gets its own traversal with its own frontier, visited set and
// page budget. Traversals run with bounded concurrency and their pages are
// merged in seed order, so the page order does not depend on scheduling.
// A URL reached from several seeds is kept once, from the first seed.
//
// Design decision: seeds are not crawled through one shared frontier. A
// shared frontier would let a large site at the first seed use up the page
// budget before the other seeds are fetched at all. Keeping one traversal
// per seed gives each seed the same budget, and merging in seed order keeps
// the report identical across runs with different concurrency. Seed pages
// themselves are never filtered: the topic's URL patterns describe which
// links to follow, not which start pages are worth reading.
type CrawlStep struct {
	spider      *crawler.Spider
	cfg         crawler.Config
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlConcurrency sets how many seeds are crawled at the same time.
func WithCrawlConcurrency(n int) CrawlStepOption {
	return func(s *CrawlStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCrawlTimeout bounds the whole crawl. Pages fetched before the
// deadline are kept and the report is marked as timed out.
func WithCrawlTimeout(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.timeout = d
	}
}

// WithCrawlLogger sets the logger.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step. cfg.Seeds lists every seed; the other
// fields apply to each per-seed traversal.
func NewCrawlStep(spider *crawler.Spider, cfg crawler.Config, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		spider:      spider,
		cfg:         cfg,
		concurrency: config.DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return StepCrawl
}

type seedResult struct {
	pages    []*model.Page
	failures []model.FetchFailure
}

// Do runs the traversals. A malformed configuration is returned before
// any request is sent.
func (s *CrawlStep) Do(ctx context.Context, report *model.ResearchReport) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	seeds := make([]string, 0, len(s.cfg.Seeds))
	for _, seed := range s.cfg.Seeds {
		if strings.TrimSpace(seed) != "" {
			seeds = append(seeds, seed)
		}
	}
	if len(report.Seeds) == 0 {
		report.Seeds = seeds
	}

	crawlCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		crawlCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results := make([]seedResult, len(seeds))
	g, gctx := errgroup.WithContext(crawlCtx)
	g.SetLimit(s.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			cfg := s.cfg
			cfg.Seeds = []string{seed}
			traversal, err := s.spider.Traverse(cfg)
			if err != nil {
				return err
			}

			pages := traversal.Collect(gctx)
			results[i] = seedResult{pages: pages, failures: traversal.Failures()}

			st := traversal.Stats()
			s.logger.Info("seed crawled",
				"topic", report.Topic,
				"seed", seed,
				"pages", st.Yielded,
				"visited", st.Visited,
				"failed", st.Failed,
				"filtered", st.Filtered,
				"robots_blocked", st.RobotsBlocked,
			)
			return nil
		})
	}
	err := g.Wait()

	seen := make(map[string]bool)
	for _, r := range results {
		for _, p := range r.pages {
			if seen[p.URL] {
				s.logger.Debug("page reached from several seeds", "url", p.URL, "seed", p.Seed)
				continue
			}
			seen[p.URL] = true
			report.Pages = append(report.Pages, p)
		}
		report.FetchFailures = append(report.FetchFailures, r.failures...)
	}

	if errors.Is(crawlCtx.Err(), context.DeadlineExceeded) {
		report.TimedOut = true
		s.logger.Warn("crawl deadline reached, continuing with the pages fetched so far",
			"topic", report.Topic,
			"pages", len(report.Pages),
		)
	}
	return err
}

// EvidenceStep extracts one evidence record per page.
type EvidenceStep struct {
	extractor *analysis.Extractor
	logger    *slog.Logger
}

// NewEvidenceStep creates an evidence step using extractor.
func NewEvidenceStep(extractor *analysis.Extractor, logger *slog.Logger) *EvidenceStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvidenceStep{extractor: extractor, logger: logger}
}

// Name returns the step name.
func (s *EvidenceStep) Name() string {
	return StepEvidence
}

// Do appends a record for every page that matched any category term.
// Pages without evidence produce no record.
func (s *EvidenceStep) Do(_ context.Context, report *model.ResearchReport) error {
	for _, page := range report.Pages {
		rec, ok := s.extractor.Extract(page)
		if !ok {
			continue
		}
		report.Evidence = append(report.Evidence, rec)
	}
	s.logger.Info("evidence extracted",
		"topic", report.Topic,
		"pages", len(report.Pages),
		"records", len(report.Evidence),
	)
	return nil
}

// AssessStep folds the evidence records into the corpus-level findings.
type AssessStep struct {
	categories []model.Category
	policy     analysis.Policy
	logger     *slog.Logger
}

// NewAssessStep creates an assess step.
func NewAssessStep(categories []model.Category, policy analysis.Policy, logger *slog.Logger) *AssessStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssessStep{categories: categories, policy: policy, logger: logger}
}

// Name returns the step name.
func (s *AssessStep) Name() string {
	return StepAssess
}

// Do sets report.Findings.
func (s *AssessStep) Do(_ context.Context, report *model.ResearchReport) error {
	agg := analysis.NewAggregator(s.categories, s.policy)
	for _, rec := range report.Evidence {
		agg.Fold(rec)
	}
	report.Findings = agg.Findings()
	s.logger.Info("feasibility assessed",
		"topic", report.Topic,
		"tier", report.Findings.Assessment.Tier,
		"confidence", report.Findings.Assessment.Confidence,
		"sources", report.Findings.TotalSources,
	)
	return nil
}

// NewReport creates the report for a research run of topic.
func NewReport(topic config.Topic) *model.ResearchReport {
	r := model.NewResearchReport(topic.Name)
	r.Description = topic.Description
	r.Categories = model.CategoryNames(topic.Categories)
	return r
}

// ResearchPipeline builds the standard crawl, evidence and assess pipeline
// for topic. The spider decides how pages are fetched.
func ResearchPipeline(spider *crawler.Spider, topic config.Topic, pipelineOpts []Option, crawlOpts ...CrawlStepOption) *Pipeline {
	p := New(pipelineOpts...)

	crawlCfg := crawler.Config{
		Seeds:           topic.Seeds,
		MaxDepth:        topic.Depth,
		MaxPages:        topic.EffectiveMaxPages(),
		Filters:         topic.FilterChain(),
		Keywords:        topic.Keywords,
		IncludeExternal: topic.IncludeExternal,
	}
	extractor := analysis.NewExtractor(topic.Categories,
		analysis.WithSnippetWidth(topic.EffectiveSnippetWidth()))

	p.AddSteps(
		NewCrawlStep(spider, crawlCfg, append([]CrawlStepOption{WithCrawlLogger(p.logger)}, crawlOpts...)...),
		NewEvidenceStep(extractor, p.logger),
		NewAssessStep(topic.Categories, topic.Policy(), p.logger),
	)
	return p
}
