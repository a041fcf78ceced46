package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteTemplatesAndUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/twins/:id", func(c *gin.Context) { c.String(http.StatusOK, "twin") })
	r.DELETE("/twins/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	twin := httpRequests.WithLabelValues("GET", "/twins/:id", "200")
	gone := httpRequests.WithLabelValues("DELETE", "/twins/:id", "204")
	miss := httpRequests.WithLabelValues("GET", unmatchedRoute, "404")
	baseTwin, baseGone, baseMiss := testutil.ToFloat64(twin), testutil.ToFloat64(gone), testutil.ToFloat64(miss)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/twins/a", nil),
		httptest.NewRequest(http.MethodGet, "/twins/b", nil),
		httptest.NewRequest(http.MethodDelete, "/twins/a", nil),
		httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(twin) - baseTwin; got != 2 {
		t.Fatalf("GET /twins/:id counted %v times; want 2 (one series for both ids)", got)
	}
	if got := testutil.ToFloat64(gone) - baseGone; got != 1 {
		t.Fatalf("DELETE counted %v; want 1", got)
	}
	if got := testutil.ToFloat64(miss) - baseMiss; got != 1 {
		t.Fatalf("unmatched counted %v; want 1", got)
	}
	if v := testutil.ToFloat64(httpInflight); v != 0 {
		t.Fatalf("in-flight = %v after requests; want 0", v)
	}
}
