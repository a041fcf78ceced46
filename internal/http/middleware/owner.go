// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file extracts the caller's owner token. Twins are grouped by the
// opaque token a client received when it created its first twin and sends
// back in the X-Owner-Token header. The token is not a credential; it only
// scopes listings and idempotency records.
package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderOwnerToken carries the caller's owner token.
const HeaderOwnerToken = "X-Owner-Token"

const (
	ctxKeyOwner   = "owner.token"
	maxOwnerToken = 64
)

var ownerTokenRE = regexp.MustCompile(`^[A-Za-z0-9._~\-]+$`)

// Owner validates X-Owner-Token when present and stashes it for handlers.
// A malformed token is rejected with 400; a missing one is not an error.
func Owner() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := strings.TrimSpace(c.GetHeader(HeaderOwnerToken))
		if tok == "" {
			c.Next()
			return
		}
		if len(tok) > maxOwnerToken || !ownerTokenRE.MatchString(tok) {
			abortJSON(c, http.StatusBadRequest, "bad_request", "invalid X-Owner-Token")
			return
		}
		c.Set(ctxKeyOwner, tok)
		c.Next()
	}
}

// OwnerToken returns the token stashed by Owner. Without the middleware it
// falls back to the raw header so handlers work in isolation.
func OwnerToken(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyOwner); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if c.Request == nil {
		return ""
	}
	tok := strings.TrimSpace(c.GetHeader(HeaderOwnerToken))
	if len(tok) > maxOwnerToken || !ownerTokenRE.MatchString(tok) {
		return ""
	}
	return tok
}

// abortJSON writes the standard failure envelope. It mirrors the handlers
// package shape so middleware rejections look like any other API error.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"error": gin.H{
			"code":    code,
			"message": msg,
		},
	})
}
