// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-identity token-bucket limiter that protects
// the API and, above all, the language-model budget behind the chat routes.
// Every client IP gets a bucket, and every owner token gets one on top of
// it. A request spends Cost(c) tokens from each, so chat calls can be priced
// above cheap reads.
// Idempotent replays are served without spending anything.
//
// Buckets live in process memory and idle ones are swept periodically; run a
// shared limiter in front of the service when it is scaled out.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Identity lists the buckets a request is charged to. A request passes only
// when every bucket can pay.
type Identity func(*gin.Context) []string

// KeyByIPAndOwner always charges the client IP, and additionally the owner
// token (as stashed by Owner) when one is sent. The token is chosen by the
// client, so it can only tighten the budget, never replace the IP bucket.
func KeyByIPAndOwner() Identity {
	return func(c *gin.Context) []string {
		keys := []string{"ip:" + c.ClientIP()}
		if s := OwnerToken(c); s != "" {
			keys = append(keys, "owner:"+s)
		}
		return keys
	}
}

// ChatCost prices routes ending in "/chat" at n tokens and everything else
// at one.
func ChatCost(n int) func(*gin.Context) int {
	return func(c *gin.Context) int {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if c.Request.Method == http.MethodPost && strings.HasSuffix(route, "/chat") {
			return n
		}
		return 1
	}
}

var rateLimited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "echome_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by route.",
	},
	[]string{"route"},
)

func init() {
	prometheus.MustRegister(rateLimited)
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	id    Identity
	cost  func(*gin.Context) int

	mu        sync.Mutex
	buckets   map[string]*bucket
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// RateOption configures a RateLimiter.
type RateOption func(*RateLimiter)

// WithCost sets the per-request token price. Prices are clamped to [1, burst].
func WithCost(fn func(*gin.Context) int) RateOption {
	return func(rl *RateLimiter) { rl.cost = fn }
}

// WithIdleTTL sets how long an unused bucket is kept (default 10m).
func WithIdleTTL(d time.Duration) RateOption {
	return func(rl *RateLimiter) { rl.idleTTL = d }
}

// NewRateLimiter refills rps tokens per second into buckets of size burst
// (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, id Identity, opts ...RateOption) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		id:      id,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
	for _, o := range opts {
		o(rl)
	}
	rl.lastSweep = rl.now()
	return rl
}

// limiter returns the bucket for key, sweeping idle buckets at most once per
// idle TTL. The sweep runs before the lookup so a stale bucket is replaced
// rather than revived.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

func (rl *RateLimiter) price(c *gin.Context) int {
	if rl.cost == nil {
		return 1
	}
	return min(max(rl.cost(c), 1), rl.burst)
}

// IsRateBypass reports whether Idempotency marked this request as a
// replay of a completed request.
func IsRateBypass(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyRateBypass)
	b, _ := v.(bool)
	return b
}

// Handler charges each request to all of its identity's buckets. Over-budget
// requests get 429 with a Retry-After (whole seconds until enough tokens are
// back) and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		n := rl.price(c)
		delay, ok := rl.reserve(rl.id(c), n, now)
		if ok {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		rateLimited.WithLabelValues(route).Inc()
		c.Header("Retry-After", retryAfter(delay))
		abortJSON(c, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
	}
}

// reserve takes n tokens from every bucket in order. On the first bucket that
// cannot pay now, the earlier reservations are refunded and the remaining
// buckets are left untouched (and uncreated).
func (rl *RateLimiter) reserve(keys []string, n int, now time.Time) (time.Duration, bool) {
	taken := make([]*rate.Reservation, 0, len(keys))
	for _, k := range keys {
		res := rl.limiter(k).ReserveN(now, n)
		delay := res.DelayFrom(now)
		if !res.OK() || delay > 0 {
			res.CancelAt(now)
			for _, r := range taken {
				r.CancelAt(now)
			}
			return delay, false
		}
		taken = append(taken, res)
	}
	return 0, true
}

func retryAfter(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 || d == rate.InfDuration {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
