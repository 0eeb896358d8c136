package fetch

import (
	"time"

	"github.com/sells-group/profile-cli/internal/config"
	"github.com/sells-group/profile-cli/pkg/firecrawl"
	"github.com/sells-group/profile-cli/pkg/jina"
)

// New builds the configured fetch chain: the primary backend (browser or
// plain HTTP), then Jina, then Firecrawl when a key is set. When cache is
// non-nil and a TTL is configured the chain is wrapped in a Cache. The
// returned func releases the browser and must be called.
func New(cfg *config.Config, cache PageCache) (Fetcher, func()) {
	fc := cfg.Fetch
	closeFn := func() {}

	var backends []Backend
	switch fc.Backend {
	case "http":
		backends = append(backends, NewHTTPFetcher(HTTPOptions{
			UserAgent:   fc.UserAgent,
			MaxBodySize: fc.MaxBodyKB * 1024,
			MaxChars:    fc.MaxChars,
		}))
	default:
		browser := NewBrowserFetcher(BrowserOptions{
			UserAgent: fc.UserAgent,
			ExecPath:  fc.ChromePath,
			Settle:    time.Duration(fc.SettleMs) * time.Millisecond,
			MaxChars:  fc.MaxChars,
		})
		closeFn = browser.Close
		backends = append(backends, browser)
	}

	jinaOpts := []jina.Option{}
	if cfg.Jina.BaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithBaseURL(cfg.Jina.BaseURL))
	}
	backends = append(backends, NewJinaFetcher(jina.NewClient(cfg.Jina.Key, jinaOpts...), fc.MaxChars))

	if cfg.Firecrawl.Key != "" {
		fcOpts := []firecrawl.Option{}
		if cfg.Firecrawl.BaseURL != "" {
			fcOpts = append(fcOpts, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		}
		backends = append(backends, NewFirecrawlFetcher(firecrawl.NewClient(cfg.Firecrawl.Key, fcOpts...), fc.MaxChars))
	}

	chain := NewChain(
		LinkFilter{Matcher: NewPathMatcher(fc.ExcludePaths), Max: cfg.Pipeline.MaxCandidates},
		NewDocumentReader(nil, 0, fc.MaxChars),
		NewHostLimiter(fc.RatePerHost),
		backends...,
	)

	if cache != nil && fc.CacheTTLHours > 0 {
		return NewCache(chain, cache, time.Duration(fc.CacheTTLHours)*time.Hour), closeFn
	}
	return chain, closeFn
}
