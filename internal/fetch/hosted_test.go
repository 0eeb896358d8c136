package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/pkg/firecrawl"
	"github.com/sells-group/profile-cli/pkg/jina"
)

type stubJina struct {
	resp  *jina.ReadResponse
	err   error
	calls int
}

func (s *stubJina) Read(_ context.Context, _ string) (*jina.ReadResponse, error) {
	s.calls++
	return s.resp, s.err
}

type stubFirecrawl struct {
	resp *firecrawl.ScrapeResponse
	err  error
	req  firecrawl.ScrapeRequest
}

func (s *stubFirecrawl) Scrape(_ context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	s.req = req
	return s.resp, s.err
}

var longContent = strings.Repeat("Acme builds industrial pumps for water utilities. ", 5)

func TestJinaFetcher_Success(t *testing.T) {
	t.Parallel()

	stub := &stubJina{resp: &jina.ReadResponse{Code: 200, Data: jina.ReadData{
		Title:   "Acme",
		URL:     "https://acme.com/",
		Content: longContent,
		Links:   map[string]string{"Team": "https://acme.com/team", "About": "https://acme.com/about"},
	}}}

	page, err := NewJinaFetcher(stub, 0).Fetch(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, SourceJina, page.Source)
	assert.Equal(t, "https://acme.com/", page.FinalURL)
	assert.Equal(t, []string{"https://acme.com/about", "https://acme.com/team"}, candidateURLs(page.Links))
}

func TestJinaFetcher_RejectsThinAndChallengeContent(t *testing.T) {
	t.Parallel()

	thin := &stubJina{resp: &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "hi"}}}
	_, err := NewJinaFetcher(thin, 0).Fetch(context.Background(), "https://acme.com")
	assert.ErrorIs(t, err, ErrEmptyPage)

	challenge := &stubJina{resp: &jina.ReadResponse{Code: 200, Data: jina.ReadData{
		Content: "Just a moment... we are checking your browser before you access acme.com. This takes a few seconds. Please wait while we verify you are human.",
	}}}
	_, err = NewJinaFetcher(challenge, 0).Fetch(context.Background(), "https://acme.com")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestJinaFetcher_CircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	stub := &stubJina{err: errors.New("upstream down")}
	j := NewJinaFetcher(stub, 0)
	for i := 0; i < 3; i++ {
		_, err := j.Fetch(context.Background(), "https://acme.com")
		require.Error(t, err)
	}
	assert.False(t, j.Supports("https://acme.com"))

	_, err := j.Fetch(context.Background(), "https://acme.com")
	require.Error(t, err)
	assert.Equal(t, 3, stub.calls)
}

func TestFirecrawlFetcher_Success(t *testing.T) {
	t.Parallel()

	stub := &stubFirecrawl{resp: &firecrawl.ScrapeResponse{Success: true, Data: firecrawl.PageData{
		Markdown: "# Acme\n\n" + longContent,
		Links:    []string{"https://acme.com/contact"},
		Metadata: firecrawl.Metadata{Title: "Acme", StatusCode: 200, URL: "https://acme.com/"},
	}}}

	page, err := NewFirecrawlFetcher(stub, 0).Fetch(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, SourceFirecrawl, page.Source)
	assert.Equal(t, "Acme", page.Title)
	assert.Equal(t, []string{"https://acme.com/contact"}, candidateURLs(page.Links))
	assert.Equal(t, []string{"markdown", "links"}, stub.req.Formats)
	assert.True(t, stub.req.OnlyMainContent)
}

func TestFirecrawlFetcher_Failures(t *testing.T) {
	t.Parallel()

	notOK := &stubFirecrawl{resp: &firecrawl.ScrapeResponse{Success: false}}
	_, err := NewFirecrawlFetcher(notOK, 0).Fetch(context.Background(), "https://acme.com")
	assert.Error(t, err)

	gone := &stubFirecrawl{resp: &firecrawl.ScrapeResponse{Success: true, Data: firecrawl.PageData{
		Markdown: "Not found", Metadata: firecrawl.Metadata{StatusCode: 404},
	}}}
	_, err = NewFirecrawlFetcher(gone, 0).Fetch(context.Background(), "https://acme.com/x")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.StatusCode)
}
