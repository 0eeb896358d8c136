package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/internal/config"
)

func TestNew_HTTPChain(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Fetch: config.FetchConfig{Backend: "http"}}
	f, closeFn := New(cfg, nil)
	defer closeFn()

	chain, ok := f.(*Chain)
	require.True(t, ok)
	assert.Equal(t, []string{SourceHTTP, SourceJina}, chain.Backends())
}

func TestNew_BrowserChainWithFirecrawlAndCache(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Fetch:     config.FetchConfig{Backend: "browser", CacheTTLHours: 24},
		Firecrawl: config.FirecrawlConfig{Key: "fc-key"},
	}
	f, closeFn := New(cfg, newMemCache())
	defer closeFn()

	cache, ok := f.(*Cache)
	require.True(t, ok)
	chain, ok := cache.next.(*Chain)
	require.True(t, ok)
	assert.Equal(t, []string{SourceBrowser, SourceJina, SourceFirecrawl}, chain.Backends())
}

func TestNew_CacheDisabledWithoutTTL(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Fetch: config.FetchConfig{Backend: "http"}}
	f, closeFn := New(cfg, newMemCache())
	defer closeFn()

	_, ok := f.(*Chain)
	assert.True(t, ok)
}
