// Package middleware contains shared Gin middleware used by the HTTP layer.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	maxQueryLogLength = 2048
)

// Client-supplied request ids end up in logs and error bodies, so only short
// token-like values are trusted.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID propagates a well-formed X-Request-ID or mints a UUID, and
// echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// AccessLogOptions configures AccessLog.
type AccessLogOptions struct {
	// Redact scrubs the query string and request headers before they are
	// logged. Off, only the truncated raw query is logged.
	Redact bool
	// MaskHeaders are replaced wholesale when Redact is on, on top of
	// Authorization, Cookie, Set-Cookie and X-Owner-Token.
	MaskHeaders []string
	// Slow lifts successful requests slower than this to warn. Zero disables.
	Slow time.Duration
}

// AccessLog attaches a request-scoped zerolog.Logger (request id, twin id,
// method and route) to the Gin context and the request context, then writes
// one "request" line per request.
func AccessLog(opt AccessLogOptions) gin.HandlerFunc {
	var scrub *scrubber
	if opt.Redact {
		scrub = newScrubber(opt.MaskHeaders)
	}

	return func(c *gin.Context) {
		start := time.Now()
		lg := attachLogger(c)

		var headers map[string]string
		query := truncate(c.Request.URL.RawQuery, maxQueryLogLength)
		if scrub != nil {
			query = scrub.text(query)
			headers = scrub.headers(c.Request.Header)
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = lg.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		case opt.Slow > 0 && latency > opt.Slow:
			ev = lg.Warn().Bool("slow", true)
		default:
			ev = lg.Info()
		}
		if query != "" {
			ev = ev.Str("query", query)
		}
		if headers != nil {
			ev = ev.Interface("headers", headers)
		} else {
			ev = ev.Str("user_agent", c.Request.UserAgent())
		}
		ev.Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", latency).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Msg("request")
	}
}

func attachLogger(c *gin.Context) *zerolog.Logger {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	ctx := log.With().
		Str("request_id", c.GetString(requestIDKey)).
		Str("method", c.Request.Method).
		Str("path", route)
	if id := c.Param("id"); id != "" {
		ctx = ctx.Str("twin_id", id)
	}
	l := ctx.Logger()

	c.Set(loggerKey, &l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
	return &l
}

// Recovery turns a panic into the internal_error envelope, or a bare 500 when
// the handler already started writing.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := c.GetString(requestIDKey)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			if rid != "" {
				c.Header(requestIDHeader, rid)
			}
			abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global one when
// AccessLog is not installed.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// truncate cuts s to max bytes plus an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
