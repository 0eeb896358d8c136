// Package fetch retrieves a page's readable content and its same-site links.
// Backends are tried in order by a Chain; a Cache may sit in front of it.
package fetch

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/model"
)

// Backend names recorded in Page.Source.
const (
	SourceBrowser   = "browser"
	SourceHTTP      = "http"
	SourceJina      = "jina"
	SourceFirecrawl = "firecrawl"
	SourceDocument  = "document"
	SourceCache     = "cache"
)

// Page is a fetched page reduced to markdown.
type Page struct {
	URL        string
	FinalURL   string
	Title      string
	Markdown   string
	Links      []model.LinkCandidate
	StatusCode int
	Source     string
}

// Fetcher retrieves one URL. An error means nothing usable was retrieved.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Backend is a Fetcher that a Chain can try in sequence.
type Backend interface {
	Fetcher
	Name() string
	Supports(url string) bool
}

var (
	// ErrBlocked is returned when a response looks like an anti-bot challenge.
	ErrBlocked = eris.New("fetch: blocked by anti-bot protection")

	// ErrEmptyPage is returned when a page has no readable content.
	ErrEmptyPage = eris.New("fetch: empty page")

	// errIsDocument tells the chain to hand the URL to the document reader.
	errIsDocument = eris.New("fetch: response is a document")
)

// StatusError reports a non-success HTTP status for a page.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s returned status %d", e.URL, e.StatusCode)
}
