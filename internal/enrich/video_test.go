package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/sells-group/profile-cli/internal/model"
)

func newVideoLookup(t *testing.T, handler http.HandlerFunc) *VideoLookup {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	l, err := NewVideoLookup(context.Background(), 3,
		option.WithAPIKey("test-key"),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return l
}

func TestVideos_EmbedURLs(t *testing.T) {
	l := newVideoLookup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/search", r.URL.Path)
		assert.Equal(t, "Acme pumps", r.URL.Query().Get("q"))
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		assert.Equal(t, "2", r.URL.Query().Get("maxResults"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":{"kind":"youtube#video","videoId":"abc123"}},
			{"id":{"kind":"youtube#channel","channelId":"chan"}},
			{"id":{"kind":"youtube#video","videoId":"def456"}}
		]}`))
	})

	got := l.Videos(context.Background(), "Acme pumps", 2)
	assert.Equal(t, []string{
		"https://www.youtube.com/embed/abc123",
		"https://www.youtube.com/embed/def456",
	}, got)
}

func TestVideos_FallsBackAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	l := newVideoLookup(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded"}}`))
	})

	got := l.Videos(context.Background(), "Acme", 2)
	assert.Equal(t, []string{model.NotAvailable}, got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestVideos_EmptyResultsRetried(t *testing.T) {
	var calls atomic.Int32
	l := newVideoLookup(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	got := l.Videos(context.Background(), "Nobody Inc", 2)
	assert.Equal(t, []string{model.NotAvailable}, got)
	assert.Equal(t, int32(3), calls.Load())
}
