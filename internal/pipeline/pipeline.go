package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/deepcrawl/internal/model"
)

// Step is one stage of a research run.
// Steps are executed in sequence and share the report.
//
// Design decision: a step is an interface rather than a function so that
// it can carry its own configuration. The crawl step holds the spider and
// the traversal budgets, the evidence step holds the extractor, and the
// assess step holds the categories and policy. Name() labels log lines and
// the PerformedSteps list of the report.
type Step interface {
	// Do executes the step. Non-critical problems are recorded in the
	// report; a returned error marks the step as failed.
	Do(ctx context.Context, report *model.ResearchReport) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing later steps after a step fails.
// The first error is still recorded in the report.
//
// Design decision: the research command turns this on. A crawl that fails
// half way still leaves pages worth scoring, and an assessment of a partial
// corpus is more useful than none. The default stops on the first error,
// which is what a caller composing its own steps usually expects.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order and stamps report.CompletedAt.
//
// Design decision: cancellation is checked between steps, not inside them.
// Steps that block on the network (the crawl) watch the context themselves
// and return what they have; the cheap in-memory steps always run to
// completion once started. A crawl step with its own timeout therefore ends
// early without cancelling ctx, and evidence and assessment still run on
// the pages fetched so far.
//
// It returns the context error on cancellation, or the first step error
// unless continueOnError is set.
func (p *Pipeline) Execute(ctx context.Context, report *model.ResearchReport) error {
	defer func() {
		report.CompletedAt = time.Now()
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"topic", report.Topic,
				"reason", ctx.Err(),
			)
			report.TimedOut = true
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step", "step", step.Name(), "topic", report.Topic)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"topic", report.Topic,
				"error", err,
			)
			if report.Error == "" {
				report.Error = err.Error()
			}
			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed", "step", step.Name(), "topic", report.Topic)
		}

		report.AddPerformedStep(step.Name())
	}
	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
