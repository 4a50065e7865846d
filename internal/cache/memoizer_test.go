package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestMemoizer(t *testing.T) *Memoizer {
	t.Helper()
	c, err := New("memory", ProviderConfig{Size: 64, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New memory cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return NewMemoizer(c)
}

func TestMemoize_ComputeOnlyOnMiss(t *testing.T) {
	m := newTestMemoizer(t)
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	first, err := Memoize(ctx, m, "k", compute)
	if err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	second, err := Memoize(ctx, m, "k", compute)
	if err != nil {
		t.Fatalf("Memoize: %v", err)
	}

	if first != "value" || second != "value" {
		t.Errorf("Expected identical values, got %q and %q", first, second)
	}
	if calls != 1 {
		t.Errorf("Expected exactly 1 compute invocation, got %d", calls)
	}
}

func TestMemoize_DistinctKeys(t *testing.T) {
	m := newTestMemoizer(t)
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	a, _ := Memoize(ctx, m, "a", compute)
	b, _ := Memoize(ctx, m, "b", compute)

	if a == b {
		t.Error("Distinct keys should compute independently")
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 computes, got %d", calls)
	}
}

func TestMemoize_SingleInFlightComputePerKey(t *testing.T) {
	m := newTestMemoizer(t)
	ctx := context.Background()

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return "shared", nil
	}

	const workers = 8
	results := make([]string, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer wg.Done()
			v, err := Memoize(ctx, m, "k", compute)
			if err != nil {
				t.Errorf("Memoize: %v", err)
				return
			}
			results[i] = v
		}()
	}

	<-started
	// Give the remaining workers time to pile onto the same key.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected a single in-flight compute, got %d", got)
	}
	for i, v := range results {
		if v != "shared" {
			t.Errorf("Worker %d got %q", i, v)
		}
	}
}

func TestMemoize_ErrorPersistsNothing(t *testing.T) {
	m := newTestMemoizer(t)
	ctx := context.Background()

	boom := errors.New("boom")
	calls := 0
	failing := func(context.Context) (string, error) {
		calls++
		return "", boom
	}

	if _, err := Memoize(ctx, m, "k", failing); !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	// The failure must not be cached: the next call computes again.
	if _, err := Memoize(ctx, m, "k", failing); !errors.Is(err, boom) {
		t.Fatalf("Expected boom on retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 compute attempts, got %d", calls)
	}
}

func TestMemoize_CancelledComputePersistsNothing(t *testing.T) {
	m := newTestMemoizer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	compute := func(ctx context.Context) (string, error) {
		return "", ctx.Err()
	}

	if _, err := Memoize(ctx, m, "k", compute); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	recomputed := false
	_, err := Memoize(context.Background(), m, "k", func(context.Context) (string, error) {
		recomputed = true
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	if !recomputed {
		t.Error("Cancelled compute left a cache entry behind")
	}
}

func TestMemoize_StructValues(t *testing.T) {
	m := newTestMemoizer(t)
	ctx := context.Background()

	type payload struct {
		ID    string `json:"id"`
		Sizes []int  `json:"sizes"`
	}

	want := payload{ID: "101:56", Sizes: []int{1, 2, 3}}
	got, err := Memoize(ctx, m, "k", func(context.Context) (payload, error) {
		return want, nil
	})
	if err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	if got.ID != want.ID || len(got.Sizes) != 3 {
		t.Errorf("Round-tripped value mismatch: %+v", got)
	}

	// Second read comes from the byte cache and decodes to an equal value.
	again, err := Memoize(ctx, m, "k", func(context.Context) (payload, error) {
		t.Error("Compute should not run on hit")
		return payload{}, nil
	})
	if err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	if again.ID != want.ID {
		t.Errorf("Cached value mismatch: %+v", again)
	}
}
