package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
)

// PageCache stores fetched pages by canonical URL. Get returns nil, nil on
// a miss.
type PageCache interface {
	GetCachedPage(ctx context.Context, url string) (*model.CachedPage, error)
	SetCachedPage(ctx context.Context, page *model.CachedPage) error
}

// Cache serves pages from a PageCache and fills it from the next Fetcher.
type Cache struct {
	next  Fetcher
	store PageCache
	ttl   time.Duration
	now   func() time.Time
}

// NewCache wraps next with a page cache whose entries live for ttl.
func NewCache(next Fetcher, store PageCache, ttl time.Duration) *Cache {
	return &Cache{next: next, store: store, ttl: ttl, now: time.Now}
}

// Fetch returns a fresh cached copy of targetURL or fetches and stores it.
// Cache errors are logged and never fail the fetch.
func (c *Cache) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	key := CanonicalURL(targetURL)

	cached, err := c.store.GetCachedPage(ctx, key)
	if err != nil {
		zap.L().Debug("fetch: cache read failed", zap.String("url", targetURL), zap.Error(err))
	}
	if cached != nil && !cached.Expired(c.now()) {
		return &Page{
			URL:        targetURL,
			FinalURL:   targetURL,
			Title:      cached.Title,
			Markdown:   cached.Markdown,
			Links:      cached.Links,
			StatusCode: cached.StatusCode,
			Source:     SourceCache,
		}, nil
	}

	page, err := c.next.Fetch(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	now := c.now()
	entry := &model.CachedPage{
		URL:        key,
		Title:      page.Title,
		Markdown:   page.Markdown,
		Links:      page.Links,
		StatusCode: page.StatusCode,
		FetchedAt:  now,
		ExpiresAt:  now.Add(c.ttl),
	}
	if err := c.store.SetCachedPage(ctx, entry); err != nil {
		zap.L().Warn("fetch: cache write failed", zap.String("url", targetURL), zap.Error(err))
	}
	return page, nil
}
