package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.websiteUri")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme Robotics Austin", body["textQuery"])
		assert.EqualValues(t, 5, body["pageSize"])
		_, hasRegion := body["regionCode"]
		assert.False(t, hasRegion)

		_, _ = w.Write([]byte(`{"places":[{"displayName":{"text":"Acme Robotics"},"rating":4.4,"userRatingCount":31,"websiteUri":"https://www.acme.com/"}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL+"/"))
	resp, err := c.TextSearch(context.Background(), TextSearchRequest{Query: "Acme Robotics Austin", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "Acme Robotics", resp.Places[0].DisplayName.Text)
	assert.InDelta(t, 4.4, resp.Places[0].Rating, 0.001)
	assert.Equal(t, "https://www.acme.com/", resp.Places[0].WebsiteURI)
}

func TestTextSearch_EmptyQuery(t *testing.T) {
	_, err := NewClient("k").TextSearch(context.Background(), TextSearchRequest{Query: "  "})
	assert.ErrorContains(t, err, "empty query")
}

func TestTextSearch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).TextSearch(context.Background(), TextSearchRequest{Query: "acme"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Len(t, se.Body, maxErrorBody)
}

func TestTextSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := NewClient("k", WithBaseURL(srv.URL)).TextSearch(ctx, TextSearchRequest{Query: "acme"})
	assert.Error(t, err)
	assert.Nil(t, resp)
}
