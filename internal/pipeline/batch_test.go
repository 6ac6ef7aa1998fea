package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/deepcrawl/internal/config"
	"github.com/nao1215/deepcrawl/internal/model"
)

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("default concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(nil)
		if bp.concurrency != config.DefaultBatchSize {
			t.Errorf("concurrency = %d, want %d", bp.concurrency, config.DefaultBatchSize)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(nil, WithConcurrency(0))
		if bp.concurrency != config.DefaultBatchSize {
			t.Errorf("concurrency = %d", bp.concurrency)
		}
	})
}

func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	topics := []config.Topic{{Name: "one"}, {Name: "two"}, {Name: "three"}}

	t.Run("reports follow topic order", func(t *testing.T) {
		t.Parallel()

		factory := func(topic config.Topic) (*Pipeline, error) {
			p := New()
			p.AddStep(&mockStep{name: "mark", doFunc: func(_ context.Context, r *model.ResearchReport) error {
				r.Description = "done " + topic.Name
				return nil
			}})
			return p, nil
		}
		bp := NewBatchProcessor(factory, WithConcurrency(3))
		reports, err := bp.ProcessBatch(t.Context(), topics)
		if err != nil {
			t.Fatal(err)
		}

		var got []string
		for _, r := range reports {
			got = append(got, r.Topic+":"+r.Description)
		}
		want := []string{"one:done one", "two:done two", "three:done three"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("reports mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("factory error is recorded", func(t *testing.T) {
		t.Parallel()

		factory := func(topic config.Topic) (*Pipeline, error) {
			if topic.Name == "two" {
				return nil, errors.New("bad proxy")
			}
			return New(), nil
		}
		reports, err := NewBatchProcessor(factory).ProcessBatch(t.Context(), topics)
		if err != nil {
			t.Fatal(err)
		}
		if reports[1].Error != "bad proxy" {
			t.Errorf("report error = %q", reports[1].Error)
		}
		if reports[0].Error != "" || reports[2].Error != "" {
			t.Error("other topics should succeed")
		}
	})

	t.Run("step failure does not stop other topics", func(t *testing.T) {
		t.Parallel()

		factory := func(topic config.Topic) (*Pipeline, error) {
			p := New()
			p.AddStep(&mockStep{name: "s", doFunc: func(context.Context, *model.ResearchReport) error {
				if topic.Name == "one" {
					return errors.New("failed")
				}
				return nil
			}})
			return p, nil
		}
		reports, err := NewBatchProcessor(factory, WithConcurrency(1)).ProcessBatch(t.Context(), topics)
		if err != nil {
			t.Fatal(err)
		}
		if reports[0].Error != "failed" {
			t.Errorf("report error = %q", reports[0].Error)
		}
		if len(reports[2].PerformedSteps) != 1 {
			t.Error("last topic should run")
		}
	})

	t.Run("callback is called once per topic", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		seen := make(map[int]string)
		bp := NewBatchProcessor(func(config.Topic) (*Pipeline, error) { return New(), nil })
		err := bp.ProcessBatchWithCallback(t.Context(), topics, func(r *model.ResearchReport, i int) {
			mu.Lock()
			defer mu.Unlock()
			seen[i] = r.Topic
		})
		if err != nil {
			t.Fatal(err)
		}
		want := map[int]string{0: "one", 1: "two", 2: "three"}
		if diff := cmp.Diff(want, seen); diff != "" {
			t.Errorf("callbacks mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		bp := NewBatchProcessor(func(config.Topic) (*Pipeline, error) { return New(), nil })
		_, err := bp.ProcessBatch(ctx, topics)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}
