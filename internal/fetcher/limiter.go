package fetcher

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter wraps a rate.Limiter with adaptive rate adjustment.
// On success it increases the rate by 20% (up to 2x initial).
// On 429 it halves the rate (down to initial/4 minimum).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	initialRate rate.Limit
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter that auto-tunes.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		initialRate: initialRate,
		maxRate:     initialRate * 2,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess increases the rate by 20%, up to 2x initial.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentRate = min(a.currentRate*1.2, a.maxRate)
	a.limiter.SetLimit(a.currentRate)
}

// OnRateLimit halves the rate on 429 responses.
func (a *AdaptiveLimiter) OnRateLimit(host string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentRate = max(a.currentRate*0.5, a.minRate)
	a.limiter.SetLimit(a.currentRate)
	zap.L().Warn("adaptive rate limit: reducing rate after 429",
		zap.String("host", host),
		zap.Float64("new_rate", float64(a.currentRate)),
	)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

// DefaultHostLimiters returns limiters for the government hosts the house
// adapter talks to.
func DefaultHostLimiters() map[string]*AdaptiveLimiter {
	return map[string]*AdaptiveLimiter{
		"ziplook.house.gov": NewAdaptiveLimiter(2, 2),
		"www.senate.gov":    NewAdaptiveLimiter(2, 2),
	}
}

// hostLimiters hands out one limiter per host, creating unknown hosts lazily.
type hostLimiters struct {
	mu       sync.Mutex
	limiters map[string]*AdaptiveLimiter
	rps      rate.Limit
}

func newHostLimiters(seed map[string]*AdaptiveLimiter, rps rate.Limit) *hostLimiters {
	m := make(map[string]*AdaptiveLimiter, len(seed))
	for k, v := range seed {
		m[k] = v
	}
	return &hostLimiters{limiters: m, rps: rps}
}

func (h *hostLimiters) forHost(host string) *AdaptiveLimiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	lim, ok := h.limiters[host]
	if !ok {
		burst := max(int(h.rps), 1)
		lim = NewAdaptiveLimiter(h.rps, burst)
		h.limiters[host] = lim
	}
	return lim
}
