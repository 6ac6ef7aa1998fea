package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/deepcrawl/internal/analysis"
	"github.com/nao1215/deepcrawl/internal/config"
	"github.com/nao1215/deepcrawl/internal/database"
	"github.com/nao1215/deepcrawl/internal/model"
	"github.com/nao1215/deepcrawl/internal/report"
)

const historyDateLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// It reads the runs saved by 'deepcrawl research' from the findings database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [topic]",
		Short: "Show saved research runs",
		Long: `History lists the research runs stored in the findings database.

Without arguments it lists the researched topics. With a topic it lists the
runs of that topic, newest first, with their tier and per-category counts.

Examples:
  # List researched topics
  deepcrawl history -L

  # List the runs of a topic
  deepcrawl history architecture-gaps

  # Compare the latest two runs of a topic
  deepcrawl history architecture-gaps --compare

  # Print a saved run as a Markdown roadmap
  deepcrawl history --id 4 --markdown

  # List the pages crawled by a saved run
  deepcrawl history --id 4 --pages`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-topics", "L", false,
		"List all researched topics")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the saved run with this ID")
	cmd.Flags().Bool("pages", false,
		"With --id, list the crawled pages instead of the report")
	cmd.Flags().Bool("compare", false,
		"Compare the latest two runs of the topic")
	cmd.Flags().Int64("delete", 0,
		"Delete the saved run with this ID")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")
	cmd.Flags().String("db-dir", "",
		"Findings database directory (default: XDG data directory)")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	topic      string
	listTopics bool
	id         int64
	pages      bool
	compare    bool
	deleteID   int64
	jsonOut    bool
	markdown   bool
	dbDir      string
}

func parseHistoryOptions(cmd *cobra.Command, args []string) (historyOptions, error) {
	var (
		opts  historyOptions
		err   error
		flags = cmd.Flags()
	)
	if len(args) > 0 {
		opts.topic = args[0]
	}
	if opts.listTopics, err = flags.GetBool("list-topics"); err != nil {
		return opts, err
	}
	if opts.id, err = flags.GetInt64("id"); err != nil {
		return opts, err
	}
	if opts.pages, err = flags.GetBool("pages"); err != nil {
		return opts, err
	}
	if opts.compare, err = flags.GetBool("compare"); err != nil {
		return opts, err
	}
	if opts.deleteID, err = flags.GetInt64("delete"); err != nil {
		return opts, err
	}
	if opts.jsonOut, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return opts, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}

	// Validate before opening the database so a bad invocation never creates it.
	switch {
	case opts.jsonOut && opts.markdown:
		return opts, config.ErrConflictingReportFormats
	case opts.pages && opts.id == 0:
		return opts, errors.New("--pages requires --id")
	case opts.compare && opts.topic == "":
		return opts, errors.New("--compare requires a topic")
	}
	return opts, nil
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.deleteID != 0:
		return deleteRun(ctx, db, out, opts.deleteID)
	case opts.id != 0 && opts.pages:
		return showPages(ctx, db, out, opts)
	case opts.id != 0:
		return showRun(ctx, db, out, opts)
	case opts.compare:
		return compareRuns(ctx, db, out, opts)
	case opts.listTopics || opts.topic == "":
		return listTopics(ctx, db, out, opts)
	default:
		return listRuns(ctx, db, out, opts)
	}
}

func listTopics(ctx context.Context, db *database.FindingsDB, out io.Writer, opts historyOptions) error {
	topics, err := db.ListTopics(ctx)
	if err != nil {
		return err
	}
	if opts.jsonOut {
		return writeJSON(out, topics)
	}
	if len(topics) == 0 {
		fmt.Fprintln(out, "No research runs found. Use 'deepcrawl research <topic>' to start one.")
		return nil
	}
	fmt.Fprintf(out, "Researched topics (%d):\n\n", len(topics))
	for _, t := range topics {
		fmt.Fprintf(out, "  • %s\n", t)
	}
	return nil
}

// runSummary is the JSON form of a saved run.
type runSummary struct {
	ID             int64                 `json:"id"`
	Topic          string                `json:"topic"`
	StartedAt      time.Time             `json:"started_at"`
	CompletedAt    time.Time             `json:"completed_at"`
	Tier           model.Tier            `json:"tier"`
	Confidence     model.Confidence      `json:"confidence"`
	TotalSources   int                   `json:"total_sources"`
	PageCount      int                   `json:"page_count"`
	TimedOut       bool                  `json:"timed_out,omitempty"`
	CategoryCounts []model.CategoryCount `json:"category_counts"`
}

func newRunSummary(m database.RunMetadata) runSummary {
	return runSummary{
		ID:             m.ID,
		Topic:          m.Topic,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
		Tier:           m.Tier,
		Confidence:     m.Confidence,
		TotalSources:   m.TotalSources,
		PageCount:      m.PageCount,
		TimedOut:       m.TimedOut,
		CategoryCounts: m.CategoryCounts,
	}
}

func listRuns(ctx context.Context, db *database.FindingsDB, out io.Writer, opts historyOptions) error {
	runs, err := db.History(ctx, opts.topic)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		summaries := make([]runSummary, len(runs))
		for i, r := range runs {
			summaries[i] = newRunSummary(r)
		}
		return writeJSON(out, summaries)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No research history found for %s\n", opts.topic)
		return nil
	}

	if opts.markdown {
		md := markdown.NewMarkdown(out)
		md.H1("Research History: " + analysis.DisplayName(opts.topic))
		md.PlainText("")
		rows := make([][]string, len(runs))
		for i, r := range runs {
			rows[i] = []string{
				strconv.FormatInt(r.ID, 10),
				r.StartedAt.Local().Format(historyDateLayout),
				r.Tier.String(),
				r.Confidence.String(),
				strconv.Itoa(r.TotalSources),
				strconv.Itoa(r.PageCount),
				formatCounts(r.CategoryCounts),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"ID", "Started", "Tier", "Confidence", "Sources", "Pages", "Categories"},
			Rows:   rows,
		})
		return md.Build()
	}

	fmt.Fprintf(out, "Research history for %s (%d runs):\n\n", opts.topic, len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-10s  %-7s  %-5s  %s\n", "ID", "Started", "Tier", "Sources", "Pages", "Categories")
	for _, r := range runs {
		tier := r.Tier.String()
		if r.TimedOut {
			tier += "*"
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %-10s  %-7d  %-5d  %s\n",
			r.ID, r.StartedAt.Local().Format(historyDateLayout), tier, r.TotalSources, r.PageCount,
			formatCounts(r.CategoryCounts))
	}
	fmt.Fprintln(out, "\n  * timed out, partial results")
	return nil
}

// formatCounts renders category counts as "name=n, ...".
func formatCounts(counts []model.CategoryCount) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = c.Category + "=" + strconv.Itoa(c.Count)
	}
	return strings.Join(parts, ", ")
}

func showRun(ctx context.Context, db *database.FindingsDB, out io.Writer, opts historyOptions) error {
	r, err := db.ReportByID(ctx, opts.id)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("run %d not found", opts.id)
	}

	var w report.Writer
	switch {
	case opts.jsonOut:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}
	_, err = w.Write(r)
	return err
}

func showPages(ctx context.Context, db *database.FindingsDB, out io.Writer, opts historyOptions) error {
	pages, err := db.Pages(ctx, opts.id)
	if err != nil {
		return err
	}
	if opts.jsonOut {
		return writeJSON(out, pages)
	}
	if len(pages) == 0 {
		fmt.Fprintf(out, "No pages recorded for run %d\n", opts.id)
		return nil
	}
	fmt.Fprintf(out, "Pages of run %d (%d):\n\n", opts.id, len(pages))
	fmt.Fprintf(out, "  %-5s  %-5s  %s\n", "Depth", "Score", "URL")
	for _, p := range pages {
		fmt.Fprintf(out, "  %-5d  %-5d  %s\n", p.Depth, p.Score, p.URL)
	}
	return nil
}

// countChange is the difference of one category between two runs.
type countChange struct {
	Category string `json:"category"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	Change   int    `json:"change"`
}

// runComparison compares the latest run of a topic with the one before it.
type runComparison struct {
	Topic    string        `json:"topic"`
	Previous runSummary    `json:"previous"`
	Current  runSummary    `json:"current"`
	Changes  []countChange `json:"changes"`
}

// compareCounts pairs the counts of current with those of previous.
// Categories only present in previous are appended at the end.
func compareCounts(previous, current []model.CategoryCount) []countChange {
	prev := make(map[string]int, len(previous))
	for _, c := range previous {
		prev[c.Category] = c.Count
	}
	changes := make([]countChange, 0, len(current))
	seen := make(map[string]bool, len(current))
	for _, c := range current {
		seen[c.Category] = true
		p := prev[c.Category]
		changes = append(changes, countChange{Category: c.Category, Previous: p, Current: c.Count, Change: c.Count - p})
	}
	for _, c := range previous {
		if !seen[c.Category] {
			changes = append(changes, countChange{Category: c.Category, Previous: c.Count, Change: -c.Count})
		}
	}
	return changes
}

func compareRuns(ctx context.Context, db *database.FindingsDB, out io.Writer, opts historyOptions) error {
	runs, err := db.History(ctx, opts.topic)
	if err != nil {
		return err
	}
	if len(runs) < 2 {
		return fmt.Errorf("need at least two runs of %s to compare, found %d", opts.topic, len(runs))
	}

	cmp := runComparison{
		Topic:    opts.topic,
		Previous: newRunSummary(runs[1]),
		Current:  newRunSummary(runs[0]),
		Changes:  compareCounts(runs[1].CategoryCounts, runs[0].CategoryCounts),
	}
	if opts.jsonOut {
		return writeJSON(out, cmp)
	}

	fmt.Fprintf(out, "Research Comparison: %s\n\n", cmp.Topic)
	fmt.Fprintf(out, "Previous run: #%d  %s  %s\n", cmp.Previous.ID,
		cmp.Previous.StartedAt.Local().Format(historyDateLayout), cmp.Previous.Tier)
	fmt.Fprintf(out, "Current run:  #%d  %s  %s\n\n", cmp.Current.ID,
		cmp.Current.StartedAt.Local().Format(historyDateLayout), cmp.Current.Tier)

	fmt.Fprintf(out, "  %-20s  %-8s  %-8s  %s\n", "Category", "Previous", "Current", "Change")
	fmt.Fprintf(out, "  %-20s  %-8d  %-8d  %s\n", "Sources",
		cmp.Previous.TotalSources, cmp.Current.TotalSources, signed(cmp.Current.TotalSources-cmp.Previous.TotalSources))
	for _, c := range cmp.Changes {
		fmt.Fprintf(out, "  %-20s  %-8d  %-8d  %s\n", c.Category, c.Previous, c.Current, signed(c.Change))
	}
	return nil
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func deleteRun(ctx context.Context, db *database.FindingsDB, out io.Writer, id int64) error {
	deleted, err := db.DeleteRun(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("run %d not found", id)
	}
	fmt.Fprintf(out, "Deleted run %d\n", id)
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
