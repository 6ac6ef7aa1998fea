package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/deepcrawl/internal/analysis"
	"github.com/nao1215/deepcrawl/internal/model"
)

// DefaultMaxSources is the number of high-relevance sources listed.
const DefaultMaxSources = 5

const ruleWidth = 70

// SimpleWriter outputs a plain-text summary for the terminal.
type SimpleWriter struct {
	baseWriter
	maxSources int
	verbose    bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithMaxSources sets how many high-relevance sources are listed.
// Zero or less lists all of them.
func WithMaxSources(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.maxSources = n
	}
}

// WithVerbose adds fetch failures and evidence snippets.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter writing to output.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		maxSources: DefaultMaxSources,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(report *model.ResearchReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCategories(&sb, report)
	w.writeAssessment(&sb, report)
	w.writeSources(&sb, report)
	if w.verbose {
		w.writeSnippets(&sb, report)
		w.writeFailures(&sb, report)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ResearchReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                     DEEPCRAWL RESEARCH REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Topic:          %s\n", report.Topic)
	if report.Description != "" {
		fmt.Fprintf(sb, "Question:       %s\n", report.Description)
	}
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format(dateLayout))
	if d := report.Duration(); d > 0 {
		fmt.Fprintf(sb, "Duration:       %s\n", d.Round(time.Millisecond))
	}
	fmt.Fprintf(sb, "Seeds:          %d\n", len(report.Seeds))
	fmt.Fprintf(sb, "Pages Crawled:  %d\n", len(report.Pages))
	fmt.Fprintf(sb, "Fetch Failures: %d\n", len(report.FetchFailures))
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCategories(sb *strings.Builder, report *model.ResearchReport) {
	section(sb, "EVIDENCE BY CATEGORY")

	counts := report.Findings.CategoryCounts
	if len(counts) == 0 {
		sb.WriteString("  No categories assessed\n\n")
		return
	}

	width := 0
	for _, c := range counts {
		width = max(width, len(analysis.DisplayName(c.Category)))
	}
	for _, c := range counts {
		marker := " "
		if c.Count == 0 {
			marker = "!"
		}
		fmt.Fprintf(sb, "  [%s] %-*s %d\n", marker, width, analysis.DisplayName(c.Category), c.Count)
	}
	fmt.Fprintf(sb, "\n  Evidence sources: %d\n\n", report.Findings.TotalSources)
}

func (w *SimpleWriter) writeAssessment(sb *strings.Builder, report *model.ResearchReport) {
	section(sb, "FEASIBILITY ASSESSMENT")

	a := report.Findings.Assessment
	fmt.Fprintf(sb, "  Tier:           %s\n", a.Tier)
	fmt.Fprintf(sb, "  Confidence:     %s\n", a.Confidence)
	if a.MostResolved != "" {
		fmt.Fprintf(sb, "  Most resolved:  %s\n", analysis.DisplayName(a.MostResolved))
		fmt.Fprintf(sb, "  Least resolved: %s\n", analysis.DisplayName(a.LeastResolved))
	}
	sb.WriteString("\n")

	if len(a.Recommendations) > 0 {
		sb.WriteString("  Recommendations:\n")
		for _, rec := range a.Recommendations {
			fmt.Fprintf(sb, "    * %s\n", rec)
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeSources(sb *strings.Builder, report *model.ResearchReport) {
	sources := report.Findings.HighRelevanceSources
	if len(sources) == 0 {
		return
	}
	section(sb, "HIGH-RELEVANCE SOURCES")

	shown := sources
	if w.maxSources > 0 && len(shown) > w.maxSources {
		shown = shown[:w.maxSources]
	}
	for _, s := range shown {
		title := s.Title
		if title == "" {
			title = s.URL
		}
		fmt.Fprintf(sb, "  [%3d] %s\n        %s\n", s.TotalScore, truncateString(title, 60), s.URL)
	}
	if rest := len(sources) - len(shown); rest > 0 {
		fmt.Fprintf(sb, "  ... and %d more\n", rest)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSnippets(sb *strings.Builder, report *model.ResearchReport) {
	if len(report.Evidence) == 0 {
		return
	}
	section(sb, "EVIDENCE SNIPPETS")

	for _, rec := range report.Evidence {
		if rec.SnippetCount() == 0 {
			continue
		}
		fmt.Fprintf(sb, "  %s\n", rec.URL)
		for _, category := range report.Categories {
			for _, sn := range rec.Snippets[category] {
				fmt.Fprintf(sb, "    (%s) %q: %s\n", category, sn.Term, sn.Context)
			}
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.ResearchReport) {
	if len(report.FetchFailures) == 0 {
		return
	}
	section(sb, "FETCH FAILURES")

	for _, f := range report.FetchFailures {
		fmt.Fprintf(sb, "  [depth %d] %s\n        %s\n", f.Depth, f.URL, f.Reason)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by deepcrawl\n")
	sb.WriteString("https://github.com/nao1215/deepcrawl\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
