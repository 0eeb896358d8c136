package fetch

import (
	"context"
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chain tries backends in priority order and returns the first success.
// PDFs go straight to the document reader.
type Chain struct {
	filter   LinkFilter
	docs     *DocumentReader
	limiter  *HostLimiter
	backends []Backend
}

// NewChain creates a Chain. docs and limiter may be nil.
func NewChain(filter LinkFilter, docs *DocumentReader, limiter *HostLimiter, backends ...Backend) *Chain {
	return &Chain{
		filter:   filter,
		docs:     docs,
		limiter:  limiter,
		backends: backends,
	}
}

// Backends returns the backend names in the order they are tried.
func (c *Chain) Backends() []string {
	names := make([]string, 0, len(c.backends))
	for _, b := range c.backends {
		names = append(names, b.Name())
	}
	return names
}

// Fetch retrieves targetURL. Links on the returned page are already
// filtered to same-site candidates.
func (c *Chain) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	if err := c.limiter.Wait(ctx, targetURL); err != nil {
		return nil, err
	}
	if c.docs != nil && c.docs.Supports(targetURL) {
		return c.docs.Fetch(ctx, targetURL)
	}

	var lastErr error
	for _, b := range c.backends {
		if !b.Supports(targetURL) {
			continue
		}
		page, err := b.Fetch(ctx, targetURL)
		if err == nil && page != nil {
			page.Links = c.filter.Filter(page.Links, selfURLs(page)...)
			return page, nil
		}
		if errors.Is(err, errIsDocument) {
			if c.docs == nil {
				return nil, eris.Errorf("fetch: %s is a document and no document reader is configured", targetURL)
			}
			return c.docs.Fetch(ctx, targetURL)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == nil {
			err = ErrEmptyPage
		}
		if isPermanent(err) {
			return nil, err
		}
		zap.L().Debug("fetch: backend failed, trying next",
			zap.String("backend", b.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		lastErr = err
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "fetch: all backends failed")
	}
	return nil, eris.Errorf("fetch: no suitable backend for url: %s", targetURL)
}

func selfURLs(p *Page) []string {
	if p.FinalURL != "" && p.FinalURL != p.URL {
		return []string{p.FinalURL, p.URL}
	}
	return []string{p.URL}
}

// isPermanent reports whether other backends would see the same failure.
func isPermanent(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone
	}
	return false
}
