package llm

import (
	"context"
	"errors"

	"github.com/sells-group/profile-cli/internal/cost"
	"github.com/sells-group/profile-cli/internal/resilience"
)

const defaultMaxTokens = 4096

// Option configures a provider.
type Option func(*options)

type options struct {
	maxTokens int64
	retry     resilience.RetryConfig
	breaker   *resilience.CircuitBreaker
	calc      *cost.Calculator
}

func defaultOptions() options {
	return options{
		maxTokens: defaultMaxTokens,
		retry:     resilience.DefaultRetryConfig(),
	}
}

// WithMaxTokens sets the default output budget for requests that leave
// MaxTokens unset.
func WithMaxTokens(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithRetry overrides the retry policy for transient provider errors.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(o *options) { o.retry = cfg }
}

// WithBreaker guards calls with a circuit breaker.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(o *options) { o.breaker = cb }
}

// WithCalculator prices each call's token usage.
func WithCalculator(calc *cost.Calculator) Option {
	return func(o *options) { o.calc = calc }
}

// guarded runs fn under the provider's retry policy and optional breaker.
func guarded[T any](ctx context.Context, o options, service string, shouldRetry func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	retry := o.retry
	retry.ShouldRetry = shouldRetry
	retry.OnRetry = resilience.RetryLogger(service, "complete")
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (T, error) {
		if o.breaker == nil {
			return fn(ctx)
		}
		return resilience.ExecuteVal(ctx, o.breaker, fn)
	})
}

// retryableStatus reports whether a provider HTTP status is worth retrying.
// 529 is Anthropic's overloaded status.
func retryableStatus(status int, err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	if status != 0 {
		return resilience.IsTransientHTTPStatus(status) || status == 529
	}
	return resilience.IsTransient(err)
}
