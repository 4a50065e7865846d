package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/hjhkhvffsd/movie-web-app/internal/apperrors"
)

func TestDo_FailuresThenSuccess(t *testing.T) {
	for _, failures := range []int{0, 1, 2, 3} {
		attempts := 0
		op := func(context.Context) (string, error) {
			attempts++
			if attempts <= failures {
				return "", errors.New("transient")
			}
			return "ok", nil
		}

		got, err := Do(context.Background(), Defaults(), op)
		if err != nil {
			t.Fatalf("failures=%d: unexpected error %v", failures, err)
		}
		if got != "ok" {
			t.Errorf("failures=%d: got %q", failures, got)
		}
		if attempts != failures+1 {
			t.Errorf("failures=%d: expected %d attempts, got %d", failures, failures+1, attempts)
		}
	}
}

func TestDo_ExhaustsAtFourAttempts(t *testing.T) {
	last := errors.New("still down")
	attempts := 0
	op := func(context.Context) (int, error) {
		attempts++
		return 0, last
	}

	_, err := Do(context.Background(), Defaults(), op)
	if attempts != 4 {
		t.Errorf("Expected exactly 4 attempts, got %d", attempts)
	}
	if !errors.Is(err, last) {
		t.Errorf("Expected the last error to surface unchanged, got %v", err)
	}
}

func TestDo_UpstreamErrorsRetriedByDefault(t *testing.T) {
	attempts := 0
	op := func(context.Context) (int, error) {
		attempts++
		return 0, apperrors.NewUpstreamError("episode removed")
	}

	_, err := Do(context.Background(), Defaults(), op)
	if attempts != 4 {
		t.Errorf("Reference behavior retries upstream errors; got %d attempts", attempts)
	}
	if !errors.Is(err, &apperrors.ErrUpstream{}) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
}

func TestDo_UpstreamClassificationAborts(t *testing.T) {
	opts := Options{MaxAttempts: 4, RetryUpstreamErrors: false}

	attempts := 0
	op := func(context.Context) (int, error) {
		attempts++
		return 0, apperrors.NewUpstreamError("episode removed")
	}

	_, err := Do(context.Background(), opts, op)
	if attempts != 1 {
		t.Errorf("Expected an immediate abort, got %d attempts", attempts)
	}
	if !errors.Is(err, &apperrors.ErrUpstream{}) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}

	// Transport errors still burn the full budget.
	attempts = 0
	opTransport := func(context.Context) (int, error) {
		attempts++
		return 0, apperrors.NewTransportError("POST", "http://x", 502, nil)
	}
	_, _ = Do(context.Background(), opts, opTransport)
	if attempts != 4 {
		t.Errorf("Expected 4 attempts for transport error, got %d", attempts)
	}
}

func TestDo_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	op := func(context.Context) (int, error) {
		attempts++
		cancel()
		return 0, errors.New("transient")
	}

	_, err := Do(ctx, Defaults(), op)
	if err == nil {
		t.Fatal("Expected an error after cancellation")
	}
	if attempts != 1 {
		t.Errorf("Expected no retries after cancellation, got %d attempts", attempts)
	}
}

func TestDo_ZeroAttemptsUsesDefault(t *testing.T) {
	attempts := 0
	op := func(context.Context) (int, error) {
		attempts++
		return 0, errors.New("transient")
	}

	_, _ = Do(context.Background(), Options{RetryUpstreamErrors: true}, op)
	if attempts != DefaultMaxAttempts {
		t.Errorf("Expected %d attempts, got %d", DefaultMaxAttempts, attempts)
	}
}
