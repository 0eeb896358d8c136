package firecrawl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrape_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))

		var req ScrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://acme.com", req.URL)
		assert.Equal(t, []string{"markdown", "links"}, req.Formats)
		assert.True(t, req.OnlyMainContent)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"# Acme","links":["https://acme.com/about"],
			"metadata":{"title":"Acme","sourceURL":"https://acme.com","statusCode":200}}}`))
	}))
	defer srv.Close()

	client := NewClient("fc-key", WithBaseURL(srv.URL))
	resp, err := client.Scrape(context.Background(), ScrapeRequest{
		URL:             "https://acme.com",
		Formats:         []string{"markdown", "links"},
		OnlyMainContent: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "# Acme", resp.Data.Markdown)
	assert.Equal(t, []string{"https://acme.com/about"}, resp.Data.Links)
	assert.Equal(t, "Acme", resp.Data.Metadata.Title)
	assert.Equal(t, 200, resp.Data.Metadata.StatusCode)
}

func TestScrape_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient credits"}`))
	}))
	defer srv.Close()

	_, err := NewClient("fc-key", WithBaseURL(srv.URL)).Scrape(context.Background(), ScrapeRequest{URL: "https://acme.com"})
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "insufficient credits")
}

func TestScrape_BadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient("fc-key", WithBaseURL(srv.URL)).Scrape(context.Background(), ScrapeRequest{URL: "https://acme.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firecrawl: decode response")
}
