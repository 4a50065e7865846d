package retry

import (
	"context"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/hjhkhvffsd/movie-web-app/internal/apperrors"
)

// DefaultMaxAttempts is the total number of attempts per operation:
// the first try plus three retries.
const DefaultMaxAttempts = 4

// Options configures the retry behavior of Do.
type Options struct {
	// MaxAttempts is the total attempt count (first try included).
	// Zero means DefaultMaxAttempts.
	MaxAttempts int
	// RetryUpstreamErrors controls whether provider-declared failures
	// are retried. When false, an ErrUpstream aborts immediately;
	// transport errors are always retried.
	RetryUpstreamErrors bool
}

// Defaults returns the reference behavior: four attempts, every error
// retried regardless of kind.
func Defaults() Options {
	return Options{MaxAttempts: DefaultMaxAttempts, RetryUpstreamErrors: true}
}

// Do runs op, re-invoking it with the same arguments on error until it
// succeeds or the attempt budget is exhausted, then surfaces the last
// error unchanged. There is no backoff or jitter between attempts.
// Cancelling ctx aborts between attempts and cancels the in-flight one.
func Do[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	builder := retrypolicy.NewBuilder[T]().
		WithMaxAttempts(attempts).
		ReturnLastFailure()
	if !opts.RetryUpstreamErrors {
		builder = builder.AbortOnErrors(&apperrors.ErrUpstream{})
	}

	return failsafe.With[T](builder.Build()).
		WithContext(ctx).
		Get(func() (T, error) {
			return op(ctx)
		})
}
