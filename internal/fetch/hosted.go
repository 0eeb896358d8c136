package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/resilience"
	"github.com/sells-group/profile-cli/pkg/firecrawl"
	"github.com/sells-group/profile-cli/pkg/jina"
)

// minHostedChars is the content size below which a hosted reader response
// is treated as unusable.
const minHostedChars = 100

func hostedBreaker(name string) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     60 * time.Second,
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("fetch: hosted backend circuit changed",
				zap.String("backend", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
}

// JinaFetcher fetches pages through the Jina Reader.
type JinaFetcher struct {
	client   jina.Client
	breaker  *resilience.CircuitBreaker
	maxChars int
}

// NewJinaFetcher wraps a Jina client. Three consecutive failures skip Jina
// for a minute.
func NewJinaFetcher(client jina.Client, maxChars int) *JinaFetcher {
	return &JinaFetcher{client: client, breaker: hostedBreaker(SourceJina), maxChars: maxChars}
}

func (j *JinaFetcher) Name() string { return SourceJina }

// Supports returns false while the circuit is open.
func (j *JinaFetcher) Supports(_ string) bool {
	return j.breaker.State() != resilience.CircuitOpen
}

// Fetch reads targetURL through Jina.
func (j *JinaFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	return resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (*Page, error) {
		resp, err := j.client.Read(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		if resp.Code != 0 && resp.Code != 200 {
			return nil, &StatusError{URL: targetURL, StatusCode: resp.Code}
		}
		content := strings.TrimSpace(resp.Data.Content)
		if len(content) < minHostedChars {
			return nil, ErrEmptyPage
		}
		if looksLikeChallenge(content) {
			return nil, eris.Wrapf(ErrBlocked, "fetch: jina %s", targetURL)
		}

		links := make([]model.LinkCandidate, 0, len(resp.Data.Links))
		for text, u := range resp.Data.Links {
			links = append(links, model.LinkCandidate{URL: u, Text: text})
		}
		final := resp.Data.URL
		if final == "" {
			final = targetURL
		}
		return &Page{
			URL:        targetURL,
			FinalURL:   final,
			Title:      resp.Data.Title,
			Markdown:   truncate(content, j.maxChars),
			Links:      sortLinks(links),
			StatusCode: 200,
			Source:     SourceJina,
		}, nil
	})
}

// FirecrawlFetcher is the last-resort backend.
type FirecrawlFetcher struct {
	client   firecrawl.Client
	breaker  *resilience.CircuitBreaker
	maxChars int
}

// NewFirecrawlFetcher wraps a Firecrawl client.
func NewFirecrawlFetcher(client firecrawl.Client, maxChars int) *FirecrawlFetcher {
	return &FirecrawlFetcher{client: client, breaker: hostedBreaker(SourceFirecrawl), maxChars: maxChars}
}

func (f *FirecrawlFetcher) Name() string { return SourceFirecrawl }

// Supports returns false while the circuit is open.
func (f *FirecrawlFetcher) Supports(_ string) bool {
	return f.breaker.State() != resilience.CircuitOpen
}

// Fetch scrapes targetURL through Firecrawl.
func (f *FirecrawlFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	return resilience.ExecuteVal(ctx, f.breaker, func(ctx context.Context) (*Page, error) {
		timeoutMs := 0
		if dl, ok := ctx.Deadline(); ok {
			timeoutMs = int(time.Until(dl).Milliseconds())
		}
		resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
			URL:             targetURL,
			Formats:         []string{"markdown", "links"},
			OnlyMainContent: true,
			Timeout:         timeoutMs,
		})
		if err != nil {
			return nil, err
		}
		if !resp.Success {
			return nil, eris.Errorf("fetch: firecrawl scrape of %s not successful: %s", targetURL, resp.Data.Metadata.Error)
		}
		meta := resp.Data.Metadata
		if meta.StatusCode >= 400 {
			return nil, &StatusError{URL: targetURL, StatusCode: meta.StatusCode}
		}
		content := strings.TrimSpace(resp.Data.Markdown)
		if content == "" {
			return nil, ErrEmptyPage
		}

		links := make([]model.LinkCandidate, 0, len(resp.Data.Links))
		for _, u := range resp.Data.Links {
			links = append(links, model.LinkCandidate{URL: u})
		}
		final := meta.URL
		if final == "" {
			final = targetURL
		}
		return &Page{
			URL:        targetURL,
			FinalURL:   final,
			Title:      meta.Title,
			Markdown:   truncate(content, f.maxChars),
			Links:      links,
			StatusCode: meta.StatusCode,
			Source:     SourceFirecrawl,
		}, nil
	})
}
