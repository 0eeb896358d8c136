package fetch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserFetcher_StartFailure(t *testing.T) {
	b := NewBrowserFetcher(BrowserOptions{ExecPath: filepath.Join(t.TempDir(), "no-chrome")})
	t.Cleanup(b.Close)

	for range 2 {
		page, err := b.Fetch(context.Background(), "https://example.com")
		require.Error(t, err)
		assert.Nil(t, page)
		assert.ErrorContains(t, err, "fetch: browser start")
	}
	assert.False(t, b.started)
}

func TestBrowserFetcher_InvalidURL(t *testing.T) {
	b := NewBrowserFetcher(BrowserOptions{ExecPath: filepath.Join(t.TempDir(), "no-chrome")})
	t.Cleanup(b.Close)

	_, err := b.Fetch(context.Background(), "http://[::1")
	assert.ErrorContains(t, err, "fetch: browser parse url")
	assert.False(t, b.started)
}
