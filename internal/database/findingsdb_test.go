package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/deepcrawl/internal/model"
)

func setupTestDB(t *testing.T) *FindingsDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleReport(topic string, started time.Time, tier model.Tier) *model.ResearchReport {
	return &model.ResearchReport{
		Topic:       topic,
		Description: "question",
		Seeds:       []string{"https://a.example/"},
		Categories:  []string{"atomic", "slice"},
		StartedAt:   started,
		CompletedAt: started.Add(time.Minute),
		Pages: []*model.Page{
			{URL: "https://a.example/", Title: "Home", Depth: 0, Seed: "https://a.example/", MediaType: "text/html", Content: "atomic", Score: 1, Hash: "h1", FetchedAt: started},
			{URL: "https://a.example/docs", Title: "Docs", Depth: 1, Seed: "https://a.example/", MediaType: "text/html", Content: "slice", Score: 0, Hash: "h2", FetchedAt: started},
		},
		Evidence: []model.EvidenceRecord{
			{URL: "https://a.example/", Title: "Home", Scores: []model.CategoryScore{{Category: "atomic", Score: 1}, {Category: "slice", Score: 0}}},
		},
		Findings: model.AggregateFindings{
			TotalSources:         1,
			CategoryCounts:       []model.CategoryCount{{Category: "atomic", Count: 1}, {Category: "slice", Count: 0}},
			HighRelevanceSources: []model.SourceScore{},
			Assessment: model.FeasibilityAssessment{
				Tier:            tier,
				Confidence:      model.ConfidenceLow,
				Recommendations: []string{"Atomic has supporting evidence - investigate further"},
				MostResolved:    "atomic",
				LeastResolved:   "slice",
			},
		},
		PerformedSteps: []string{"crawl", "evidence", "assess"},
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false requires an existing file", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.SaveReport(t.Context(), sampleReport("t", time.Now(), model.TierMinimal)); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer db.Close()
		topics, err := db.ListTopics(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"t"}, topics); diff != "" {
			t.Errorf("topics mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists || !opts.EnableWAL {
		t.Errorf("DefaultOptions() = %+v", opts)
	}
}

func TestSaveAndLoadReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := t.Context()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	report := sampleReport("architecture-theory", started, model.TierPartial)

	id, err := db.SaveReport(ctx, report)
	if err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if id == 0 || report.ID != id {
		t.Fatalf("id = %d, report.ID = %d", id, report.ID)
	}

	got, err := db.ReportByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected report")
	}
	if got.ID != id || got.Topic != report.Topic {
		t.Errorf("got id/topic %d/%q", got.ID, got.Topic)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if diff := cmp.Diff(report.Findings, got.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(report.Evidence, got.Evidence); diff != "" {
		t.Errorf("evidence mismatch (-want +got):\n%s", diff)
	}
	if got.Pages[0].Content != "" {
		t.Error("page content should not be stored")
	}

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()
		r, err := db.ReportByID(ctx, id+100)
		if err != nil || r != nil {
			t.Errorf("ReportByID() = %v, %v; want nil, nil", r, err)
		}
	})
}

func TestLatestReportAndHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := t.Context()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	older := sampleReport("gaps", base, model.TierMinimal)
	newer := sampleReport("gaps", base.Add(500*time.Millisecond), model.TierStrong)
	newer.Findings.Assessment.Confidence = model.ConfidenceHigh
	newer.TimedOut = true
	other := sampleReport("theory", base, model.TierUnresolved)

	for _, r := range []*model.ResearchReport{newer, older, other} {
		if _, err := db.SaveReport(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := db.LatestReport(ctx, "gaps")
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID != newer.ID {
		t.Fatalf("LatestReport() = %+v, want run %d", latest, newer.ID)
	}

	none, err := db.LatestReport(ctx, "unknown")
	if err != nil || none != nil {
		t.Errorf("LatestReport(unknown) = %v, %v", none, err)
	}

	history, err := db.History(ctx, "gaps")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(history))
	}
	if history[0].ID != newer.ID || history[1].ID != older.ID {
		t.Errorf("history order = %d, %d; want newest first", history[0].ID, history[1].ID)
	}
	h := history[0]
	if h.Tier != model.TierStrong || h.Confidence != model.ConfidenceHigh {
		t.Errorf("tier/confidence = %v/%v", h.Tier, h.Confidence)
	}
	if !h.TimedOut || h.PageCount != 2 || h.TotalSources != 1 {
		t.Errorf("metadata = %+v", h)
	}
	if !h.StartedAt.Equal(newer.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", h.StartedAt, newer.StartedAt)
	}
	if diff := cmp.Diff(newer.Findings.CategoryCounts, h.CategoryCounts); diff != "" {
		t.Errorf("category counts mismatch (-want +got):\n%s", diff)
	}

	topics, err := db.ListTopics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"gaps", "theory"}, topics); diff != "" {
		t.Errorf("topics mismatch (-want +got):\n%s", diff)
	}
}

func TestPages(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := t.Context()
	report := sampleReport("t", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), model.TierMinimal)
	id, err := db.SaveReport(ctx, report)
	if err != nil {
		t.Fatal(err)
	}

	pages, err := db.Pages(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	for i, p := range pages {
		want := report.Pages[i]
		if p.URL != want.URL || p.Title != want.Title || p.Depth != want.Depth || p.Hash != want.Hash || p.Score != want.Score {
			t.Errorf("page %d = %+v, want %+v", i, p, want)
		}
		if !p.FetchedAt.Equal(want.FetchedAt) {
			t.Errorf("page %d FetchedAt = %v", i, p.FetchedAt)
		}
	}
}

func TestDeleteRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := t.Context()
	id, err := db.SaveReport(ctx, sampleReport("t", time.Now(), model.TierMinimal))
	if err != nil {
		t.Fatal(err)
	}

	deleted, err := db.DeleteRun(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("DeleteRun() = %v, %v", deleted, err)
	}
	pages, err := db.Pages(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 0 {
		t.Errorf("pages of a deleted run remain: %d", len(pages))
	}
	deleted, err = db.DeleteRun(ctx, id)
	if err != nil || deleted {
		t.Errorf("second DeleteRun() = %v, %v", deleted, err)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-01T10:00:00.500000000Z", time.Date(2026, 3, 1, 10, 0, 0, 500000000, time.UTC)},
		{"2026-03-01T10:00:00Z", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-03-01 10:00:00", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"garbage", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if got := formatTimestamp(time.Time{}); got != "" {
		t.Errorf("formatTimestamp(zero) = %q", got)
	}
}
