package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/deepcrawl/internal/analysis"
	"github.com/nao1215/deepcrawl/internal/model"
)

// DefaultSnippetsPerCategory is the number of snippets quoted per category.
const DefaultSnippetsPerCategory = 3

// MarkdownWriter outputs a research roadmap in Markdown.
// It is a pure formatter over the report's findings and evidence.
type MarkdownWriter struct {
	baseWriter
	maxSources  int
	maxSnippets int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownMaxSources sets how many sources are listed. Zero lists all.
func WithMarkdownMaxSources(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.maxSources = n
	}
}

// WithMarkdownSnippets sets how many snippets are quoted per category.
func WithMarkdownSnippets(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.maxSnippets = n
	}
}

// NewMarkdownWriter creates a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter:  newBaseWriter(output),
		maxSources:  10,
		maxSnippets: DefaultSnippetsPerCategory,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the roadmap.
func (w *MarkdownWriter) Write(report *model.ResearchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAssessment(md, report)
	w.writeCategories(md, report)
	w.writeRoadmap(md, report)
	w.writeSources(md, report)
	w.writeSnippets(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ResearchReport) {
	md.H1("Research Roadmap: " + analysis.DisplayName(report.Topic))
	md.PlainText("")

	if report.Description != "" {
		md.PlainText(report.Description)
		md.PlainText("")
	}

	rows := [][]string{
		{"Topic", "`" + report.Topic + "`"},
		{"Started", report.StartedAt.Format(dateLayout)},
	}
	if d := report.Duration(); d > 0 {
		rows = append(rows, []string{"Duration", d.Round(time.Second).String()})
	}
	rows = append(rows,
		[]string{"Seeds", strconv.Itoa(len(report.Seeds))},
		[]string{"Pages Crawled", strconv.Itoa(len(report.Pages))},
		[]string{"Evidence Sources", strconv.Itoa(report.Findings.TotalSources)},
		[]string{"Status", statusText(report)},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAssessment(md *markdown.Markdown, report *model.ResearchReport) {
	a := report.Findings.Assessment
	md.H2("Feasibility")
	md.PlainText("")

	rows := [][]string{
		{"Tier", "**" + a.Tier.String() + "**"},
		{"Confidence", a.Confidence.String()},
	}
	if a.MostResolved != "" {
		rows = append(rows,
			[]string{"Most resolved", analysis.DisplayName(a.MostResolved)},
			[]string{"Least resolved", analysis.DisplayName(a.LeastResolved)},
		)
	}
	md.Table(markdown.TableSet{Header: []string{"Assessment", "Value"}, Rows: rows})
	md.PlainText("")

	switch a.Tier {
	case model.TierStrong:
		md.Tip("Every category is backed by enough independent sources. The idea has established precedents.")
	case model.TierPartial:
		md.Importantf("A majority of categories is supported across %d sources. Close the remaining gaps before committing.",
			report.Findings.TotalSources)
	case model.TierMinimal:
		md.Warningf("Only %d evidence source(s) found. The idea is largely undocumented; treat it as original research.",
			report.Findings.TotalSources)
	default:
		md.Cautionf("No evidence found. Broaden the seeds or the URL patterns and run the research again.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, report *model.ResearchReport) {
	md.H2("Evidence by Category")
	md.PlainText("")

	counts := report.Findings.CategoryCounts
	if len(counts) == 0 {
		md.PlainText("No categories assessed.")
		md.PlainText("")
		return
	}

	total := report.Findings.TotalSources
	rows := make([][]string, len(counts))
	for i, c := range counts {
		share := "-"
		if total > 0 {
			share = strconv.Itoa(c.Count*100/total) + "%"
		}
		status := "supported"
		if c.Count == 0 {
			status = "gap"
		}
		rows[i] = []string{analysis.DisplayName(c.Category), strconv.Itoa(c.Count), share, status}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Sources", "Share", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Findings.TotalSources > 0 {
		w.writePieChart(md, counts)
	}

	if gaps := report.Findings.Gaps(); len(gaps) > 0 {
		names := make([]string, len(gaps))
		for i, g := range gaps {
			names[i] = analysis.DisplayName(g)
		}
		md.PlainText("Categories without any evidence:")
		md.PlainText("")
		md.BulletList(names...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts []model.CategoryCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Sources per Category"),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		if c.Count > 0 {
			chart.LabelAndIntValue(analysis.DisplayName(c.Category), uint64(c.Count))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeRoadmap(md *markdown.Markdown, report *model.ResearchReport) {
	md.H2("Next Steps")
	md.PlainText("")

	recs := report.Findings.Assessment.Recommendations
	if len(recs) == 0 {
		md.PlainText("No recommendations.")
		md.PlainText("")
		return
	}
	md.OrderedList(recs...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeSources(md *markdown.Markdown, report *model.ResearchReport) {
	sources := report.Findings.HighRelevanceSources
	if len(sources) == 0 {
		return
	}
	md.H2("High-Relevance Sources")
	md.PlainText("")

	shown := sources
	if w.maxSources > 0 && len(shown) > w.maxSources {
		shown = shown[:w.maxSources]
	}
	rows := make([][]string, len(shown))
	for i, s := range shown {
		title := s.Title
		if title == "" {
			title = s.URL
		}
		rows[i] = []string{strconv.Itoa(i + 1), strconv.Itoa(s.TotalScore), markdown.Link(escapeCell(truncateString(title, 60)), s.URL)}
	}
	md.Table(markdown.TableSet{Header: []string{"#", "Score", "Source"}, Rows: rows})
	md.PlainText("")
	if rest := len(sources) - len(shown); rest > 0 {
		md.PlainTextf("%d more source(s) are listed in the JSON snapshot.", rest)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSnippets(md *markdown.Markdown, report *model.ResearchReport) {
	if w.maxSnippets <= 0 || len(report.Evidence) == 0 {
		return
	}

	var sections []string
	var bodies []string
	for _, category := range report.Categories {
		var lines []string
		for _, rec := range report.Evidence {
			for _, sn := range rec.Snippets[category] {
				if len(lines) == w.maxSnippets {
					break
				}
				lines = append(lines, fmt.Sprintf("- **%s** (%s): %s", sn.Term, rec.URL, sn.Context))
			}
		}
		if len(lines) > 0 {
			sections = append(sections, analysis.DisplayName(category))
			bodies = append(bodies, strings.Join(lines, "\n"))
		}
	}
	if len(sections) == 0 {
		return
	}

	md.H2("Evidence Snippets")
	md.PlainText("")
	for i := range sections {
		md.Details(sections[i], bodies[i])
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [deepcrawl](https://github.com/nao1215/deepcrawl)*")
}

// escapeCell keeps table cells on one line.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
