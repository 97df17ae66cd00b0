package fetch

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces outbound requests. Wait blocks until a request to rawURL
// may be sent or ctx is done.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// IntervalLimiter lets one request through per interval across all hosts.
// A zero interval disables throttling.
type IntervalLimiter struct {
	limiter *rate.Limiter
}

func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		limiter: rate.NewLimiter(every(interval), 1),
	}
}

func (l *IntervalLimiter) Wait(ctx context.Context, _ string) error {
	return l.limiter.Wait(ctx)
}

// HostLimiter keeps a separate interval per host, so different hosts are
// fetched concurrently while each host is still throttled.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	interval time.Duration
}

func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	host := parsedURL.Host
	if host == "" {
		return &url.Error{Op: "parse", URL: rawURL, Err: errors.New("missing host in URL")}
	}

	return h.limiterForHost(host).Wait(ctx)
}

func (h *HostLimiter) limiterForHost(host string) *rate.Limiter {
	h.mu.RLock()
	limiter, exists := h.limiters[host]
	h.mu.RUnlock()

	if exists {
		return limiter
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if limiter, exists := h.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(every(h.interval), 1)
	h.limiters[host] = limiter
	return limiter
}

func every(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

var (
	_ Limiter = (*IntervalLimiter)(nil)
	_ Limiter = (*HostLimiter)(nil)
)
