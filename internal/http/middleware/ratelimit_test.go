package middleware

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestKeyByIPAndOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	got := KeyByIPAndOwner()(c)
	if len(got) != 1 || got[0] != "ip:203.0.113.9" {
		t.Fatalf("anonymous keys = %q", got)
	}
	c.Set(ctxKeyOwner, "u123")
	got = KeyByIPAndOwner()(c)
	if len(got) != 2 || got[0] != "ip:203.0.113.9" || got[1] != "owner:u123" {
		t.Fatalf("owner keys = %q; the IP must always be charged", got)
	}
}

func TestChatCost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cost := ChatCost(3)
	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/api/chat", 3},
		{http.MethodPost, "/api/twins/x/chat", 3},
		{http.MethodGet, "/api/twins/x/history", 1},
		{http.MethodPost, "/api/twins", 1},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(tc.method, tc.path, nil)
		if got := cost(c); got != tc.want {
			t.Errorf("%s %s cost = %d; want %d", tc.method, tc.path, got, tc.want)
		}
	}
}

func TestRateLimiter_PriceClamped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/chat", nil)

	rl := NewRateLimiter(1, 0, KeyByIPAndOwner(), WithCost(ChatCost(5)))
	if rl.burst != 1 {
		t.Fatalf("burst coerced to %d; want 1", rl.burst)
	}
	if p := rl.price(c); p != 1 {
		t.Fatalf("price above burst should clamp to burst, got %d", p)
	}
	rl = NewRateLimiter(1, 10, KeyByIPAndOwner(), WithCost(func(*gin.Context) int { return -4 }))
	if p := rl.price(c); p != 1 {
		t.Fatalf("non-positive price should clamp to 1, got %d", p)
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(1, 1, KeyByIPAndOwner(), WithIdleTTL(time.Minute))
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	old := rl.limiter("old")
	if rl.limiter("old") != old {
		t.Fatalf("bucket should be reused")
	}

	now = now.Add(2 * time.Minute)
	_ = rl.limiter("new")

	rl.mu.Lock()
	_, hasOld := rl.buckets["old"]
	_, hasNew := rl.buckets["new"]
	rl.mu.Unlock()
	if hasOld || !hasNew {
		t.Fatalf("after sweep: old=%v new=%v; want false true", hasOld, hasNew)
	}
	if rl.limiter("old") == old {
		t.Fatalf("swept bucket must not be revived")
	}
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if IsRateBypass(c) {
		t.Fatalf("bypass should default to false")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatalf("bypass flag not read")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatalf("non-bool flag must read as false")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 2 tokens, refilled at 0.5/s; chat costs 2.
	rl := NewRateLimiter(0.5, 2, KeyByIPAndOwner(), WithCost(ChatCost(2)))
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header("X-Request-ID", "rid-1"); c.Next() })
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	})
	r.Use(rl.Handler())
	r.POST("/chat", func(c *gin.Context) { c.String(http.StatusOK, "reply") })
	r.GET("/twins", func(c *gin.Context) { c.String(http.StatusOK, "list") })

	send := func(method, path string, replay bool) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, nil)
		if replay {
			req.Header.Set("X-Replay", "1")
		}
		r.ServeHTTP(w, req)
		return w
	}

	limited := rateLimited.WithLabelValues("/chat")
	base := testutil.ToFloat64(limited)

	if w := send(http.MethodPost, "/chat", false); w.Code != http.StatusOK {
		t.Fatalf("first chat: %d", w.Code)
	}
	w := send(http.MethodPost, "/chat", false)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second chat should be limited, got %d", w.Code)
	}
	// Two tokens at 0.5/s: about four seconds out.
	if ra := w.Header().Get("Retry-After"); ra != "4" && ra != "3" {
		t.Fatalf("Retry-After = %q; want 3 or 4", ra)
	}
	var body struct {
		RequestID string `json:"request_id"`
		Error     struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body.RequestID != "rid-1" || body.Error.Code != "too_many_requests" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if got := testutil.ToFloat64(limited) - base; got != 1 {
		t.Fatalf("rate_limited counter delta = %v; want 1", got)
	}

	// Rejection refunds the reservation, but the bucket is still empty, so
	// a cheap read has to wait for refill too.
	if w := send(http.MethodGet, "/twins", false); w.Code != http.StatusTooManyRequests {
		t.Fatalf("read after exhausted bucket: %d", w.Code)
	}
	if w := send(http.MethodPost, "/chat", true); w.Code != http.StatusOK {
		t.Fatalf("replay should bypass the limiter, got %d", w.Code)
	}
}

func TestRateLimiter_RotatingOwnerTokensShareIPBucket(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Next to no refill: only the initial burst is ever available.
	rl := NewRateLimiter(0.0001, 2, KeyByIPAndOwner(), WithCost(ChatCost(2)))
	r := gin.New()
	r.Use(Owner())
	r.Use(rl.Handler())
	r.POST("/chat", func(c *gin.Context) { c.String(http.StatusOK, "reply") })

	allowed := 0
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.RemoteAddr = net.JoinHostPort("198.51.100.7", "40000")
		req.Header.Set(HeaderOwnerToken, fmt.Sprintf("tok-%d", i))
		r.ServeHTTP(w, req)
		switch w.Code {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
		default:
			t.Fatalf("request %d: unexpected status %d", i, w.Code)
		}
	}
	if allowed != 1 {
		t.Fatalf("allowed %d of 20 with rotating tokens; want 1", allowed)
	}

	rl.mu.Lock()
	n := len(rl.buckets)
	rl.mu.Unlock()
	// One IP bucket plus the owner bucket of the single admitted request.
	if n != 2 {
		t.Fatalf("buckets = %d; want 2", n)
	}
}

func TestRateLimiter_OwnerBucketAcrossIPs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(0.0001, 2, KeyByIPAndOwner(), WithCost(ChatCost(2)))
	r := gin.New()
	r.Use(Owner())
	r.Use(rl.Handler())
	r.POST("/chat", func(c *gin.Context) { c.String(http.StatusOK, "reply") })

	send := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.RemoteAddr = net.JoinHostPort(ip, "40000")
		req.Header.Set(HeaderOwnerToken, "shared-owner")
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("192.0.2.1"); code != http.StatusOK {
		t.Fatalf("first owner request: %d", code)
	}
	if code := send("192.0.2.2"); code != http.StatusTooManyRequests {
		t.Fatalf("same owner from a fresh IP should hit the owner bucket, got %d", code)
	}

	// The denied request refunds its IP reservation, so that IP can still
	// spend its own budget anonymously.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.RemoteAddr = net.JoinHostPort("192.0.2.2", "40000")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("refunded IP bucket should still pay, got %d", w.Code)
	}
}

func TestRetryAfter(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "1",
		300 * time.Millisecond:  "1",
		1500 * time.Millisecond: "2",
		90 * time.Second:        "90",
	}
	for d, want := range cases {
		if got := retryAfter(d); got != want {
			t.Errorf("retryAfter(%v) = %q; want %q", d, got, want)
		}
	}
}
