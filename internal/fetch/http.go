package fetch

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rotisserie/eris"
)

// HTTPOptions configures the plain HTTP backend.
type HTTPOptions struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
	MaxChars    int
}

// HTTPFetcher fetches server-rendered pages without a browser.
type HTTPFetcher struct {
	opts HTTPOptions
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; profile-cli/1.0)"
	}
	return &HTTPFetcher{opts: opts}
}

func (h *HTTPFetcher) Name() string           { return SourceHTTP }
func (h *HTTPFetcher) Supports(_ string) bool { return true }

type collyResult struct {
	status      int
	header      http.Header
	body        []byte
	finalURL    string
	contentType string
}

// Fetch retrieves targetURL and returns the cleaned page.
func (h *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	timeout := h.opts.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	collectorOpts := []colly.CollectorOption{
		colly.UserAgent(h.opts.UserAgent),
		colly.AllowURLRevisit(),
	}
	if h.opts.MaxBodySize > 0 {
		collectorOpts = append(collectorOpts, colly.MaxBodySize(h.opts.MaxBodySize))
	}
	c := colly.NewCollector(collectorOpts...)
	c.SetRequestTimeout(timeout)

	var res collyResult
	capture := func(r *colly.Response) {
		res.status = r.StatusCode
		res.body = r.Body
		res.finalURL = r.Request.URL.String()
		if r.Headers != nil {
			res.header = *r.Headers
			res.contentType = r.Headers.Get("Content-Type")
		}
	}
	c.OnResponse(capture)
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil && r.StatusCode > 0 {
			capture(r)
		}
	})

	done := make(chan error, 1)
	go func() { done <- c.Visit(targetURL) }()

	var visitErr error
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case visitErr = <-done:
	}

	if res.status >= 400 {
		if blocked, kind := DetectBlock(res.status, res.header, res.body); blocked {
			return nil, eris.Wrapf(ErrBlocked, "fetch: http %s (%s)", targetURL, kind)
		}
		return nil, &StatusError{URL: targetURL, StatusCode: res.status}
	}
	if visitErr != nil {
		return nil, eris.Wrap(visitErr, "fetch: http visit")
	}
	if isDocumentType(res.contentType) {
		return nil, errIsDocument
	}
	if blocked, kind := DetectBlock(res.status, res.header, res.body); blocked {
		return nil, eris.Wrapf(ErrBlocked, "fetch: http %s (%s)", targetURL, kind)
	}
	if len(res.body) == 0 {
		return nil, ErrEmptyPage
	}

	pageURL, err := url.Parse(res.finalURL)
	if err != nil || pageURL.Host == "" {
		if pageURL, err = url.Parse(targetURL); err != nil {
			return nil, eris.Wrap(err, "fetch: http parse url")
		}
	}
	cleaned, err := Clean(string(res.body), pageURL, h.opts.MaxChars)
	if err != nil {
		return nil, err
	}

	return &Page{
		URL:        targetURL,
		FinalURL:   pageURL.String(),
		Title:      cleaned.Title,
		Markdown:   cleaned.Markdown,
		Links:      cleaned.links,
		StatusCode: res.status,
		Source:     SourceHTTP,
	}, nil
}
