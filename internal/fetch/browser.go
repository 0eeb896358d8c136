package fetch

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BrowserOptions configures the headless browser backend.
type BrowserOptions struct {
	UserAgent string
	ExecPath  string
	// Settle is an extra wait after the body is ready, for client-rendered
	// content.
	Settle   time.Duration
	MaxChars int
}

// BrowserFetcher renders pages in a shared headless Chrome, one tab per
// fetch. It is safe for concurrent use.
type BrowserFetcher struct {
	opts          BrowserOptions
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// NewBrowserFetcher allocates a headless browser. Chrome itself starts on
// the first fetch and every later fetch opens a tab in it. Call Close to
// shut it down.
func NewBrowserFetcher(opts BrowserOptions) *BrowserFetcher {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &BrowserFetcher{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
}

func (b *BrowserFetcher) Name() string           { return SourceBrowser }
func (b *BrowserFetcher) Supports(_ string) bool { return true }

// Fetch navigates a new tab to targetURL and returns the cleaned page.
func (b *BrowserFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	pageURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: browser parse url")
	}

	if err := b.start(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(targetURL))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, eris.Wrap(err, "fetch: browser navigate")
	}

	status := 0
	if resp != nil {
		status = int(resp.Status)
		if isDocumentType(resp.MimeType) {
			return nil, errIsDocument
		}
		if status >= 400 {
			return nil, &StatusError{URL: targetURL, StatusCode: status}
		}
	}

	var (
		finalURL string
		rawHTML  string
	)
	actions := []chromedp.Action{chromedp.WaitReady("body")}
	if b.opts.Settle > 0 {
		actions = append(actions, chromedp.Sleep(b.opts.Settle))
	}
	actions = append(actions,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &rawHTML),
	)
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, eris.Wrap(err, "fetch: browser read dom")
	}

	if blocked, kind := DetectBlock(status, headersOf(resp), []byte(rawHTML)); blocked {
		return nil, eris.Wrapf(ErrBlocked, "fetch: browser %s (%s)", targetURL, kind)
	}

	if u, perr := url.Parse(finalURL); perr == nil && u.Host != "" {
		pageURL = u
	}
	cleaned, err := Clean(rawHTML, pageURL, b.opts.MaxChars)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("fetch: browser page rendered",
		zap.String("url", targetURL),
		zap.Int("status", status),
		zap.Int("markdown_chars", len(cleaned.Markdown)),
	)

	return &Page{
		URL:        targetURL,
		FinalURL:   pageURL.String(),
		Title:      cleaned.Title,
		Markdown:   cleaned.Markdown,
		Links:      cleaned.links,
		StatusCode: status,
		Source:     SourceBrowser,
	}, nil
}

// start launches Chrome on the browser context. Tabs created from a context
// that has not run yet would each launch their own browser. A failed start
// is retried on the next fetch.
func (b *BrowserFetcher) start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	if err := chromedp.Run(b.browserCtx); err != nil {
		return eris.Wrap(err, "fetch: browser start")
	}
	b.started = true
	zap.L().Debug("fetch: browser started")
	return nil
}

// Close shuts down the browser.
func (b *BrowserFetcher) Close() {
	b.browserCancel()
	b.allocCancel()
}

func headersOf(resp *network.Response) http.Header {
	if resp == nil || len(resp.Headers) == 0 {
		return nil
	}
	h := make(http.Header, len(resp.Headers))
	for k, v := range resp.Headers {
		if s, ok := v.(string); ok {
			h.Set(k, s)
		}
	}
	return h
}
