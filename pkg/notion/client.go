// Package notion uses a Notion database as a queue of seed websites.
package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/profile-cli/internal/resilience"
)

// Client is the subset of the Notion API the seed queue needs.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides the default of 3 requests per second. rps <= 0
// disables client-side throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		c.limiter = nil
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithRetry overrides how failed calls are retried.
func WithRetry(cfg resilience.RetryConfig) ClientOption {
	return func(c *notionClient) {
		c.retry = cfg
	}
}

type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a client for the integration token. Calls are throttled
// and network failures or rate-limit responses are retried.
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.ShouldRetry = retryable
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryable accepts transient network errors and Notion's rate_limited
// responses.
func retryable(err error) bool {
	return resilience.IsTransient(err) || strings.Contains(strings.ToLower(err.Error()), "rate_limited")
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// call runs fn under the limiter with retries and wraps the final error.
func call[T any](ctx context.Context, c *notionClient, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	out, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (T, error) {
		if err := c.wait(ctx); err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx)
	})
	if err != nil {
		return out, eris.Wrap(err, "notion: "+op)
	}
	return out, nil
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return call(ctx, c, "query database "+dbID, func(ctx context.Context) (*notionapi.DatabaseQueryResponse, error) {
		return c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	})
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return call(ctx, c, "create page", func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.Page.Create(ctx, req)
	})
}

func (c *notionClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return call(ctx, c, "update page "+pageID, func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.Page.Update(ctx, notionapi.PageID(pageID), req)
	})
}
