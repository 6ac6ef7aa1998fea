package model

import "time"

// ResearchReport is the complete result of researching one topic.
//
// The pipeline fills it step by step: the crawl step adds Pages and
// FetchFailures, the evidence step adds Evidence, and the assess step adds
// Findings. A report is persisted as a JSON snapshot and in the findings
// database.
type ResearchReport struct {
	// ID is the database identifier. Zero until the report is saved.
	ID int64 `json:"id,omitempty"`

	// Topic is the research topic name.
	Topic string `json:"topic"`

	// Description is the human-readable research question.
	Description string `json:"description,omitempty"`

	// Seeds are the seed URLs the crawl started from.
	Seeds []string `json:"seeds"`

	// Categories are the category names in declaration order.
	Categories []string `json:"categories"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	// Pages are the admitted pages in traversal order.
	Pages []*Page `json:"pages"`

	// FetchFailures are the pages that could not be fetched.
	FetchFailures []FetchFailure `json:"fetch_failures,omitempty"`

	// Evidence holds one record per page that produced any evidence.
	Evidence []EvidenceRecord `json:"evidence"`

	// Findings is the corpus-level aggregate. Set by the assess step.
	Findings AggregateFindings `json:"findings"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error holds the first step error, if any.
	Error string `json:"error,omitempty"`

	// TimedOut is true when the run hit its deadline.
	TimedOut bool `json:"timed_out,omitempty"`
}

// NewResearchReport creates a report for the given topic.
func NewResearchReport(topic string) *ResearchReport {
	return &ResearchReport{
		Topic:     topic,
		StartedAt: time.Now(),
	}
}

// AddPerformedStep records that a pipeline step ran.
func (r *ResearchReport) AddPerformedStep(name string) {
	r.PerformedSteps = append(r.PerformedSteps, name)
}

// Duration returns the elapsed time of the run.
// It is zero while the run has not completed.
func (r *ResearchReport) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// HasEvidence reports whether at least one record was produced.
func (r *ResearchReport) HasEvidence() bool {
	return len(r.Evidence) > 0
}
