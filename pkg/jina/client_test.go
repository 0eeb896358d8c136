package jina

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Success(t *testing.T) {
	t.Parallel()

	want := ReadResponse{
		Code: 200,
		Data: ReadData{
			Title:   "Acme Corp",
			URL:     "https://acme.com",
			Content: "# Acme Corp\n\nWe build things.",
			Links:   map[string]string{"About": "https://acme.com/about"},
			Usage:   ReadUsage{Tokens: 2150},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))
		assert.Equal(t, "true", r.Header.Get("X-With-Links-Summary"))
		assert.Equal(t, "/https://acme.com", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := NewClient("test-key", WithBaseURL(srv.URL)).Read(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, want.Data.Title, got.Data.Title)
	assert.Equal(t, want.Data.Content, got.Data.Content)
	assert.Equal(t, "https://acme.com/about", got.Data.Links["About"])
}

func TestRead_AnonymousOmitsAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"code":200,"data":{"content":"ok"}}`))
	}))
	defer srv.Close()

	got, err := NewClient("", WithBaseURL(srv.URL)).Read(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Data.Content)
}

func TestRead_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"code":200,"data":{"content":"third time"}}`))
	}))
	defer srv.Close()

	got, err := NewClient("k", WithBaseURL(srv.URL), WithBackoff(time.Millisecond)).Read(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "third time", got.Data.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRead_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"cannot read"}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL), WithBackoff(time.Millisecond)).Read(context.Background(), "https://acme.com")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
}

func TestRead_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient("k", WithBaseURL(srv.URL), WithBackoff(time.Second)).Read(ctx, "https://acme.com")
	assert.Error(t, err)
}
