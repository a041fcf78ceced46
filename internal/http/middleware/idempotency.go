package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey lets clients retry a chat message without it being
// answered (and billed) twice.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdemScope identifies a stored result: the same key sent by another owner or
// to another twin is a different request.
type IdemScope struct {
	Owner  string
	TwinID string
	Key    string
}

// IdempotencyOptions configures Idempotency.
type IdempotencyOptions struct {
	MaxLen  int            // default 200
	Pattern *regexp.Regexp // default ^[A-Za-z0-9._~\-:]+$
	// Seen reports whether a completed, unexpired result exists for the
	// scope. Errors are logged and treated as a miss.
	Seen func(ctx context.Context, s IdemScope, now time.Time) (bool, error)
	Now  func() time.Time
}

// GetIdempotencyKey returns the validated key stashed by Idempotency.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether Idempotency found a stored result for this
// request.
func IsReplay(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyIdemReplay)
	b, _ := v.(bool)
	return b
}

// Idempotency validates Idempotency-Key on unsafe methods and stashes it for
// the handler. A malformed key is rejected with 400 bad_idempotency_key. When
// the twin is addressed in the path and Seen finds a stored result, the
// request is marked as a replay and exempted from rate limiting; serving the
// stored reply is left to the handler.
func Idempotency(opt IdempotencyOptions) gin.HandlerFunc {
	if opt.MaxLen <= 0 {
		opt.MaxLen = 200
	}
	if opt.Pattern == nil {
		opt.Pattern = defaultKeyPattern
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !unsafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > opt.MaxLen || !opt.Pattern.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		// POST /chat resolves its twin later, so only /twins/:id/chat can be
		// recognized here.
		if twinID := c.Param("id"); opt.Seen != nil && twinID != "" {
			scope := IdemScope{Owner: OwnerToken(c), TwinID: twinID, Key: key}
			seen, err := opt.Seen(c.Request.Context(), scope, opt.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case seen:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

func unsafeMethod(m string) bool {
	switch m {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
