// Package httpapi builds the Gin engine: middleware chain, CORS and security
// posture, health, metrics and docs endpoints, and the twin, chat and
// analytics routes under the configured base path.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/echome-x/docs"
	"github.com/tbourn/echome-x/internal/config"
	"github.com/tbourn/echome-x/internal/domain"
	"github.com/tbourn/echome-x/internal/http/handlers"
	"github.com/tbourn/echome-x/internal/http/middleware"
	"github.com/tbourn/echome-x/internal/repo"
	"github.com/tbourn/echome-x/internal/services"
	"github.com/tbourn/echome-x/internal/topics"
)

// twinRepoShim adapts the repository free functions to the services.TwinRepo
// interface expected by the TwinService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type twinRepoShim struct{}

// InsertTwin proxies repo.InsertTwin.
func (twinRepoShim) InsertTwin(ctx context.Context, db *gorm.DB, in repo.NewTwin) (*domain.Twin, error) {
	return repo.InsertTwin(ctx, db, in)
}

// FindTwinByID proxies repo.FindTwinByID.
func (twinRepoShim) FindTwinByID(ctx context.Context, db *gorm.DB, id string) (*domain.Twin, error) {
	return repo.FindTwinByID(ctx, db, id)
}

// FindMostRecentTwin proxies repo.FindMostRecentTwin.
func (twinRepoShim) FindMostRecentTwin(ctx context.Context, db *gorm.DB) (*domain.Twin, error) {
	return repo.FindMostRecentTwin(ctx, db)
}

// ListTwinsByOwner proxies repo.ListTwinsByOwner.
func (twinRepoShim) ListTwinsByOwner(ctx context.Context, db *gorm.DB, ownerToken string) ([]domain.Twin, error) {
	return repo.ListTwinsByOwner(ctx, db, ownerToken)
}

// DeleteTwin proxies repo.DeleteTwin.
func (twinRepoShim) DeleteTwin(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.DeleteTwin(ctx, db, id)
}

// CountTwins proxies repo.CountTwins.
func (twinRepoShim) CountTwins(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountTwins(ctx, db)
}

// ListTwinSummaries proxies repo.ListTwinSummaries.
func (twinRepoShim) ListTwinSummaries(ctx context.Context, db *gorm.DB, limit int) ([]domain.TwinSummary, error) {
	return repo.ListTwinSummaries(ctx, db, limit)
}

// Deps are the runtime collaborators the routes are built from.
type Deps struct {
	DB *gorm.DB
	// Replier generates twin replies (normally *responder.Responder).
	Replier services.Replier
	// Recent is the optional recent-turns cache; nil disables it.
	Recent services.RecentWindow
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), owner scoping,
// idempotency and rate limiting, CORS and security headers, compression,
// health and metrics endpoints, and then mounts the public API under
// cfg.APIBasePath (default /api).
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. AccessLog: request-scoped logger and (scrubbed) access line
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Owner token extraction
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per IP and owner, chat priced higher, bypass on replay)
//  10. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) *handlers.Handlers {
	db := deps.DB
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Access log and request-scoped logger. Outside pretty (dev) mode the
	// query string and headers are scrubbed of personal data.
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{
		Redact:      !cfg.LogPretty,
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
		Slow:        10 * time.Second,
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Owner token (X-Owner-Token)
	r.Use(middleware.Owner())

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.Idempotency(middleware.IdempotencyOptions{
		Seen: func(ctx context.Context, s middleware.IdemScope, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, s.Owner, s.TwinID, s.Key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
	}))

	// 9) Token-bucket rate limiter per client IP, plus per owner token
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIPAndOwner(),
		middleware.WithCost(middleware.ChatCost(cfg.RateChatCost)))
	r.Use(rl.Handler())

	// 10) CORS, then security headers (HSTS only when enabled and over HTTPS)
	r.Use(corsPolicy(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		Private:      true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Compressed responses for clients that ask for them
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/responder/cache
	twinSvc := services.NewTwinService(db, twinRepoShim{})
	twinSvc.Recent = deps.Recent
	chatSvc := &services.ChatService{
		DB:              db,
		Responder:       deps.Replier,
		HistoryWindow:   cfg.HistoryWindow,
		Recent:          deps.Recent,
		MaxMessageRunes: cfg.MaxMessageRunes,
		IdempotencyTTL:  cfg.IdempotencyTTL,
	}
	analyticsSvc := &services.AnalyticsService{
		DB:     db,
		Topics: topics.New(topics.DefaultCatalog, topics.WithStopwords(topics.EnglishStopwords)),
	}
	h := handlers.New(twinSvc, chatSvc, analyticsSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Twins
		api.POST("/twins", h.CreateTwin)
		api.POST("/twins/personality", h.CreatePersonalityTwin)
		api.GET("/twins", h.ListTwins)
		api.GET("/twins/latest", h.GetLatestTwin)
		api.GET("/twins/:id", h.GetTwin)
		api.GET("/twins/:id/history", h.TwinHistory)
		api.DELETE("/twins/:id", h.DeleteTwin)

		// Chat
		api.POST("/chat", h.PostChat)
		api.POST("/twins/:id/chat", h.PostTwinChat)

		// Analytics
		api.GET("/analytics", h.GetAnalytics)

		if cfg.DebugRoutes {
			api.GET("/debug/twins", h.DebugTwins)
		}
	}
	return h
}

// corsPolicy allows every origin when none are configured, otherwise only
// the allowlist. ACAO is set explicitly as well so simple requests without a
// preflight (and health checks without an Origin) still see it.
func corsPolicy(origins []string) []gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderOwnerToken, middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "ETag", handlers.HeaderReplayed},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
		return []gin.HandlerFunc{func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		}, cors.New(conf)}
	}

	conf.AllowOrigins = origins
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	}, cors.New(conf)}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
