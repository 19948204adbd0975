package backfill

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
	"github.com/yourflix/catalogd/internal/database"
	"github.com/yourflix/catalogd/internal/metadata"
	"github.com/yourflix/catalogd/internal/resolve"
)

type fakeQueue struct {
	pending []database.QueueItem
	done    []string
	failed  map[string]string
}

func (f *fakeQueue) NextPending(ctx context.Context, limit int) ([]database.QueueItem, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeQueue) MarkDone(ctx context.Context, id string) error {
	f.done = append(f.done, id)
	return nil
}

func (f *fakeQueue) MarkFailed(ctx context.Context, id string, lastError string) error {
	if f.failed == nil {
		f.failed = make(map[string]string)
	}
	f.failed[id] = lastError
	return nil
}

type fakeResolver struct {
	calls   int
	failFor map[string]error
}

func (f *fakeResolver) Resolve(ctx context.Context, raw string, opts resolve.Options) (*metadata.Resolved, error) {
	f.calls++
	if err, ok := f.failFor[raw]; ok {
		return nil, err
	}
	return metadata.Single(metadata.Candidate{Title: raw, Source: metadata.SourceTMDB}), nil
}

func testConfig() config.BackfillConfig {
	return config.BackfillConfig{
		Enabled:         true,
		IntervalMinutes: 15,
		BatchSize:       10,
		ItemDelayMs:     1,
	}
}

func newTestRunner(t *testing.T, cfg config.BackfillConfig, q Queue, r Resolver) *Runner {
	t.Helper()
	runner, err := NewRunner(cfg, q, r, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	t.Cleanup(func() { runner.Stop() })
	return runner
}

func TestRunBatch(t *testing.T) {
	queue := &fakeQueue{pending: []database.QueueItem{
		{ID: "1", Identifier: "PILF-1618", Hint: "Bloodsport"},
		{ID: "2", Identifier: "CC-1234"},
		{ID: "3", Identifier: "PILF-9999"},
	}}
	resolver := &fakeResolver{failFor: map[string]error{"PILF-9999": resolve.ErrNotFound}}
	runner := newTestRunner(t, testConfig(), queue, resolver)

	processed, failed, err := runner.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}

	if processed != 2 || failed != 1 {
		t.Errorf("RunBatch() = %d processed, %d failed; want 2, 1", processed, failed)
	}
	if len(queue.done) != 2 {
		t.Errorf("done = %v", queue.done)
	}
	if queue.failed["3"] != "no match found" {
		t.Errorf("failed[3] = %q, want no match found", queue.failed["3"])
	}
	if resolver.calls != 3 {
		t.Errorf("resolver calls = %d, want 3", resolver.calls)
	}
}

func TestRunBatch_HonorsBatchSize(t *testing.T) {
	queue := &fakeQueue{pending: []database.QueueItem{
		{ID: "1", Identifier: "a"},
		{ID: "2", Identifier: "b"},
		{ID: "3", Identifier: "c"},
	}}
	cfg := testConfig()
	cfg.BatchSize = 2
	resolver := &fakeResolver{}
	runner := newTestRunner(t, cfg, queue, resolver)

	processed, _, err := runner.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
}

func TestRunBatch_CancelledBetweenItems(t *testing.T) {
	queue := &fakeQueue{pending: []database.QueueItem{
		{ID: "1", Identifier: "a"},
		{ID: "2", Identifier: "b"},
	}}
	resolver := &fakeResolver{}
	cfg := testConfig()
	cfg.ItemDelayMs = 50
	runner := newTestRunner(t, cfg, queue, resolver)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// Cancel during the inter-item delay.
		cancel()
	}()

	processed, _, err := runner.RunBatch(ctx)
	if err == nil && processed == 2 {
		// Cancellation raced past the batch; that is fine, the point
		// is that a cancelled context never panics mid-batch.
		return
	}
	if err != nil && err != context.Canceled {
		t.Errorf("RunBatch() error = %v, want context.Canceled", err)
	}
}

func TestRunBatch_EmptyQueue(t *testing.T) {
	runner := newTestRunner(t, testConfig(), &fakeQueue{}, &fakeResolver{})

	processed, failed, err := runner.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if processed != 0 || failed != 0 {
		t.Errorf("RunBatch() = %d, %d; want 0, 0", processed, failed)
	}
}
