package fetch

import (
	"context"
	"net/url"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// HostLimiter spaces requests to the same site. A nil *HostLimiter does not
// limit.
type HostLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewHostLimiter allows perSecond requests per host with a burst of one.
// It returns nil when perSecond is not positive.
func NewHostLimiter(perSecond float64) *HostLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &HostLimiter{
		limit:    rate.Limit(perSecond),
		burst:    1,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to rawURL's host is allowed.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if h == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrap(err, "fetch: limiter parse url")
	}
	if err := h.get(bareHost(u.Host)).Wait(ctx); err != nil {
		return eris.Wrap(err, "fetch: wait for host rate limit")
	}
	return nil
}

func (h *HostLimiter) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.limit, h.burst)
		h.limiters[host] = l
	}
	return l
}
