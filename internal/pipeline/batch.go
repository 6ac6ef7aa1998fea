package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/deepcrawl/internal/config"
	"github.com/nao1215/deepcrawl/internal/model"
)

// Factory builds a fresh pipeline for one topic.
type Factory func(topic config.Topic) (*Pipeline, error)

// BatchProcessor researches several topics concurrently.
// Every topic gets its own pipeline from the factory, so no crawl state is
// shared between topics.
//
// Design decision: batching lives outside Pipeline. A pipeline describes
// one topic from seeds to assessment; the batch processor only decides how
// many of them run at once. The factory returns an error so that a topic
// whose fetcher cannot be built (a bad proxy address, for example) fails on
// its own report without stopping the other topics.
type BatchProcessor struct {
	factory     Factory
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the number of topics researched at the same time.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: config.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch researches topics and returns one report per topic, in the
// order of topics. A failed topic still has a report carrying the error.
// The returned error is non-nil only when ctx was cancelled; topics that
// had not started by then have a nil report.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, topics []config.Topic) ([]*model.ResearchReport, error) {
	reports := make([]*model.ResearchReport, len(topics))
	err := bp.ProcessBatchWithCallback(ctx, topics, func(report *model.ResearchReport, index int) {
		reports[index] = report
	})
	return reports, err
}

// ProcessBatchWithCallback researches topics and calls callback as each
// topic completes. The callback runs on the worker goroutine; callers that
// share state across calls must synchronize.
//
// Design decision: concurrency is bounded with errgroup.SetLimit instead of
// a worker pool. Workers never return an error to the group, so one failed
// topic does not cancel its siblings; only ctx does.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	topics []config.Topic,
	callback func(report *model.ResearchReport, index int),
) error {
	bp.logger.Info("starting batch research",
		"topics", len(topics),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, topic := range topics {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := NewReport(topic)
			bp.run(ctx, topic, report)
			callback(report, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch research complete",
		"topics", len(topics),
		"elapsed", time.Since(start),
	)
	return err
}

func (bp *BatchProcessor) run(ctx context.Context, topic config.Topic, report *model.ResearchReport) {
	p, err := bp.factory(topic)
	if err != nil {
		bp.logger.Warn("cannot build pipeline", "topic", topic.Name, "error", err)
		report.Error = err.Error()
		report.CompletedAt = time.Now()
		return
	}
	if err := p.Execute(ctx, report); err != nil {
		bp.logger.Warn("research failed", "topic", topic.Name, "error", err)
		return
	}
	bp.logger.Info("research completed", "topic", topic.Name, "pages", len(report.Pages))
}
