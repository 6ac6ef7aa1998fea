package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/deepcrawl/internal/model"
)

// createTestReport creates a completed report with evidence in two of three categories.
func createTestReport() *model.ResearchReport {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := model.NewResearchReport("architecture-gaps")
	report.Description = "Is vertical slice architecture documented?"
	report.StartedAt = started
	report.CompletedAt = started.Add(90 * time.Second)
	report.Seeds = []string{"https://example.com/"}
	report.Categories = []string{"vertical_slice", "tooling", "case_study"}
	report.Pages = []*model.Page{
		{URL: "https://example.com/", Title: "Home", Content: "secret page body"},
		{URL: "https://example.com/slices", Title: "Slices", Depth: 1},
	}
	report.FetchFailures = []model.FetchFailure{
		{URL: "https://example.com/gone", Depth: 1, Reason: "HTTP 404"},
	}
	report.Evidence = []model.EvidenceRecord{
		{
			URL:   "https://example.com/slices",
			Title: "Slices",
			Depth: 1,
			Scores: []model.CategoryScore{
				{Category: "vertical_slice", Score: 3},
				{Category: "tooling", Score: 1},
				{Category: "case_study", Score: 0},
			},
			Snippets: map[string][]model.Snippet{
				"vertical_slice": {{Term: "vertical slice", Context: "each vertical slice owns its handler"}},
				"tooling":        {{Term: "generator", Context: "a code generator creates slices"}},
			},
		},
	}
	report.Findings = model.AggregateFindings{
		TotalSources: 1,
		CategoryCounts: []model.CategoryCount{
			{Category: "vertical_slice", Count: 1},
			{Category: "tooling", Count: 1},
			{Category: "case_study", Count: 0},
		},
		HighRelevanceSources: []model.SourceScore{
			{URL: "https://example.com/slices", Title: "Slices", TotalScore: 4},
		},
		Assessment: model.FeasibilityAssessment{
			Tier:          model.TierMinimal,
			Confidence:    model.ConfidenceLow,
			MostResolved:  "vertical_slice",
			LeastResolved: "case_study",
			Recommendations: []string{
				"Vertical slices are documented",
				"Build a slice generator",
				"Write a case study",
			},
		},
	}
	report.PerformedSteps = []string{"crawl", "evidence", "assess"}
	return report
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"DEEPCRAWL RESEARCH REPORT",
			"Topic:          architecture-gaps",
			"Question:       Is vertical slice architecture documented?",
			"Duration:       1m30s",
			"Pages Crawled:  2",
			"Fetch Failures: 1",
			"Status:         Complete",
			"EVIDENCE BY CATEGORY",
			"FEASIBILITY ASSESSMENT",
			"Tier:           MINIMAL",
			"Confidence:     LOW",
			"Most resolved:  Vertical Slice",
			"Least resolved: Case Study",
			"* Build a slice generator",
			"HIGH-RELEVANCE SOURCES",
			"https://example.com/slices",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("marks gap categories", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!] Case Study") {
			t.Errorf("expected gap marker for case study, got:\n%s", output)
		}
		if strings.Contains(output, "[!] Tooling") {
			t.Error("tooling has evidence and must not be marked")
		}
	})

	t.Run("verbose adds snippets and failures", func(t *testing.T) {
		t.Parallel()

		var quiet, verbose bytes.Buffer
		report := createTestReport()
		if _, err := NewSimpleWriter(&quiet).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := NewSimpleWriter(&verbose, WithVerbose(true)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(quiet.String(), "EVIDENCE SNIPPETS") {
			t.Error("snippets should only be shown in verbose mode")
		}
		for _, want := range []string{"EVIDENCE SNIPPETS", "each vertical slice owns its handler", "FETCH FAILURES", "HTTP 404"} {
			if !strings.Contains(verbose.String(), want) {
				t.Errorf("expected verbose output to contain %q", want)
			}
		}
	})

	t.Run("limits sources", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Findings.HighRelevanceSources = append(report.Findings.HighRelevanceSources,
			model.SourceScore{URL: "https://example.com/a", TotalScore: 3},
			model.SourceScore{URL: "https://example.com/b", TotalScore: 2},
		)

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithMaxSources(1)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, "https://example.com/a") {
			t.Error("expected second source to be omitted")
		}
		if !strings.Contains(output, "... and 2 more") {
			t.Error("expected remainder line")
		}
	})

	t.Run("shows timeout and error status", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.TimedOut = true
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "TIMED OUT") {
			t.Error("expected timeout status")
		}

		report = createTestReport()
		report.Error = "crawl: connection refused"
		buf.Reset()
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "ERROR - crawl: connection refused") {
			t.Error("expected error status")
		}
	})

	t.Run("empty report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(model.NewResearchReport("empty")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No categories assessed") {
			t.Error("expected empty category notice")
		}
		if !strings.Contains(output, "UNRESOLVED") {
			t.Error("expected unresolved tier")
		}
		if strings.Contains(output, "HIGH-RELEVANCE SOURCES") {
			t.Error("no sources section expected")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("round trips findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got model.ResearchReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Topic != "architecture-gaps" {
			t.Errorf("Topic = %q", got.Topic)
		}
		if got.Findings.Assessment.Tier != model.TierMinimal {
			t.Errorf("Tier = %v, want MINIMAL", got.Findings.Assessment.Tier)
		}
		if got.Findings.Count("tooling") != 1 {
			t.Errorf("tooling count = %d, want 1", got.Findings.Count("tooling"))
		}
	})

	t.Run("omits page content", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "secret page body") {
			t.Error("page content must not be serialized")
		}
		if !strings.Contains(buf.String(), `"tier":"MINIMAL"`) {
			t.Errorf("expected textual tier, got %s", buf.String())
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"topic\"") {
			t.Error("expected indented output")
		}
	})
}

func TestSnapshotWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report := createTestReport()
	if _, err := NewSnapshotWriter(&buf, "v1.2.3").Write(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got Snapshot
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Version != "v1.2.3" {
		t.Errorf("Version = %q", got.Version)
	}
	if got.DurationSeconds != 90 {
		t.Errorf("DurationSeconds = %v, want 90", got.DurationSeconds)
	}
	if got.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
	if got.Report == nil || got.Report.Topic != report.Topic {
		t.Fatalf("Report not embedded: %+v", got.Report)
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes roadmap", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Research Roadmap: Architecture Gaps",
			"## Feasibility",
			"**MINIMAL**",
			"[!WARNING]",
			"## Evidence by Category",
			"```mermaid",
			"Sources per Category",
			"## Next Steps",
			"2. Build a slice generator",
			"## High-Relevance Sources",
			"[Slices](https://example.com/slices)",
			"## Evidence Snippets",
			"<details>",
			"a code generator creates slices",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("lists gaps", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "- Case Study") {
			t.Errorf("expected gap bullet, got:\n%s", buf.String())
		}
	})

	t.Run("alert follows tier", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			tier model.Tier
			want string
		}{
			{model.TierStrong, "[!TIP]"},
			{model.TierPartial, "[!IMPORTANT]"},
			{model.TierMinimal, "[!WARNING]"},
			{model.TierUnresolved, "[!CAUTION]"},
		}
		for _, tt := range tests {
			report := createTestReport()
			report.Findings.Assessment.Tier = tt.tier
			var buf bytes.Buffer
			if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("tier %v: expected %s alert", tt.tier, tt.want)
			}
		}
	})

	t.Run("no chart without evidence", func(t *testing.T) {
		t.Parallel()

		report := model.NewResearchReport("empty")
		report.Findings.CategoryCounts = []model.CategoryCount{{Category: "a"}}
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, "```mermaid") {
			t.Error("chart should be omitted when no sources exist")
		}
		if strings.Contains(output, "## Evidence Snippets") {
			t.Error("snippets section should be omitted")
		}
		if !strings.Contains(output, "No recommendations.") {
			t.Error("expected empty recommendations notice")
		}
	})

	t.Run("snippet limit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, WithMarkdownSnippets(0)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "## Evidence Snippets") {
			t.Error("snippets disabled but section written")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.ResearchReport) (int, error) {
	return 0, errors.New("disk full")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		n, err := NewMultiWriter(NewJSONWriter(&a), NewSimpleWriter(&b)).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to receive the report")
		}
		if n != a.Len()+b.Len() {
			t.Errorf("n = %d, want %d", n, a.Len()+b.Len())
		}
	})

	t.Run("stops on error and leaves report intact", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		report := createTestReport()
		_, err := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after)).Write(report)
		if err == nil {
			t.Fatal("expected error")
		}
		if after.Len() != 0 {
			t.Error("writers after a failure must not run")
		}
		if report.Findings.TotalSources != 1 || len(report.Evidence) != 1 {
			t.Error("report mutated by failed write")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"日本語のタイトルです", 6, "日本語..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
