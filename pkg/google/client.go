// Package google wraps the Places API (New) text search used to look up a
// company's public rating.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"

	// fieldMask limits the response to what rating lookups read. Places
	// bills by the fields requested.
	fieldMask = "places.displayName,places.rating,places.userRatingCount,places.websiteUri,places.formattedAddress"

	maxErrorBody = 512
)

// Client searches Google Places.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
}

// TextSearchRequest is a free-text place query.
type TextSearchRequest struct {
	Query string `json:"textQuery"`
	// MaxResults caps the number of places returned (1-20); zero keeps the
	// API default.
	MaxResults int    `json:"pageSize,omitempty"`
	RegionCode string `json:"regionCode,omitempty"`
}

// TextSearchResponse lists matching places, best match first.
type TextSearchResponse struct {
	Places []Place `json:"places"`
}

// Place is one search hit.
type Place struct {
	DisplayName      DisplayName `json:"displayName"`
	Rating           float64     `json:"rating"`
	UserRatingCount  int         `json:"userRatingCount"`
	WebsiteURI       string      `json:"websiteUri"`
	FormattedAddress string      `json:"formattedAddress"`
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text string `json:"text"`
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("google: places status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Places client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) TextSearch(ctx context.Context, in TextSearchRequest) (*TextSearchResponse, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, eris.New("google: empty query")
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, eris.Wrap(err, "google: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: search places")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out TextSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "google: decode response")
	}
	return &out, nil
}
