// Chat HTTP handlers.
//
// This file exposes the conversation endpoints:
//   - POST /chat             (basic path; twinId optional, defaults to the most recent twin)
//   - POST /twins/{id}/chat  (personality path; twin addressed by URL)
//
// Both paths validate the message at the edge, delegate to ChatService, and
// answer with the twin's reply. A reply is always produced once the twin
// exists: provider failures are absorbed by the responder, and unexpected
// storage errors are logged and answered with a neutral in-character message.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous reply exists
// for (owner, twin, key), the recorded reply is returned and the response
// carries `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/echome-x/internal/http/middleware"
	"github.com/tbourn/echome-x/internal/services"
)

// chatUnavailableMessage is returned in place of a reply when the exchange
// could not be recorded.
const chatUnavailableMessage = "Something's not quite right with my responses. Let me try to reconnect..."

// HeaderReplayed marks a reply served from an earlier request with the same
// Idempotency-Key.
const HeaderReplayed = "Idempotency-Replayed"

//
// DTOs
//

// ChatRequest is the JSON payload for the basic chat path.
type ChatRequest struct {
	// Message is the user text. It must be non-empty after trimming.
	Message string `json:"message" binding:"required" example:"How do you usually spend your weekends?"`
	// TwinID optionally selects a twin; the most recently created twin is used when empty.
	TwinID string `json:"twinId,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// TwinChatRequest is the JSON payload for POST /twins/{id}/chat.
type TwinChatRequest struct {
	Message string `json:"message" binding:"required" example:"What drives you?"`
}

// TwinRef identifies the twin that replied.
type TwinRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChatResponse is the reply returned by both chat paths.
type ChatResponse struct {
	Message   string    `json:"message" example:"Honestly? Long walks and a good book."`
	Timestamp time.Time `json:"timestamp"`
	Twin      *TwinRef  `json:"twin,omitempty"`
}

//
// Helpers
//

// discoverMaxMessageRunes inspects the concrete ChatService for a configured
// message-length limit. If unavailable, it returns a conservative fallback.
func discoverMaxMessageRunes(chatSvc ChatService) int {
	const fallback = 4000
	if cs, ok := chatSvc.(*services.ChatService); ok && cs.MaxMessageRunes > 0 {
		return cs.MaxMessageRunes
	}
	return fallback
}

// idempotencyKey prefers the key validated by middleware and falls back to
// the raw header when no middleware is mounted.
func idempotencyKey(c *gin.Context) string {
	if k, ok := middleware.GetIdempotencyKey(c); ok {
		return k
	}
	return strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
}

// respondChat runs one exchange and writes the response for either path.
func (h *Handlers) respondChat(c *gin.Context, twinID, rawMessage string) {
	msg := sanitizeContent(rawMessage)
	if msg == "" {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "message is required")
		return
	}
	maxRunes := discoverMaxMessageRunes(h.chatSvc)
	if maxRunes > 0 && utf8.RuneCountInString(msg) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeValidation, fmt.Sprintf("message too long: max %d characters", maxRunes))
		return
	}

	res, err := h.chatSvc.Chat(c.Request.Context(), services.ChatRequest{
		TwinID:         twinID,
		Message:        msg,
		OwnerToken:     ownerToken(c),
		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTwinNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "twin not found")
		case errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, ErrCodeValidation, "message is required")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeValidation, fmt.Sprintf("message too long: max %d characters", maxRunes))
		default:
			middleware.LoggerFrom(c).Error().Err(err).Str("twin_id", twinID).Msg("chat failed")
			ok(c, http.StatusOK, ChatResponse{Message: chatUnavailableMessage, Timestamp: time.Now().UTC()})
		}
		return
	}

	if res.Replayed {
		c.Header(HeaderReplayed, "true")
	}
	ok(c, http.StatusOK, ChatResponse{
		Message:   res.Turn.TwinResponse,
		Timestamp: res.Turn.Timestamp,
		Twin:      &TwinRef{ID: res.Twin.ID, Name: res.Twin.Name},
	})
}

//
// Handlers
//

// PostChat godoc
// @ID          chat
// @Summary     Chat with a twin
// @Description Sends a message to a twin and returns its in-character reply. Without twinId the most recently created twin answers.
// @Description Supports idempotency via the Idempotency-Key header (same key → same reply).
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-Owner-Token    header  string  false "Owner token"  example(2b1c9a5e-8f0d-4c1e-9a77-1f2e3d4c5b6a)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Twin not found"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is required")
		return
	}
	twinID := strings.TrimSpace(req.TwinID)
	if twinID != "" && !validTwinID(twinID) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "twinId must be a UUID")
		return
	}
	h.respondChat(c, twinID, req.Message)
}

// PostTwinChat godoc
// @ID          twinChat
// @Summary     Chat with a specific twin
// @Description Sends a message to the twin identified in the path.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-Owner-Token    header  string  false "Owner token"
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       id               path    string  true  "Twin ID (UUID)"  format(uuid)
// @Param       body             body    handlers.TwinChatRequest  true  "Chat payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Twin not found"
// @Router      /twins/{id}/chat [post]
func (h *Handlers) PostTwinChat(c *gin.Context) {
	twinID := c.Param("id")
	if !validTwinID(twinID) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "twin id must be a UUID")
		return
	}
	var req TwinChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is required")
		return
	}
	h.respondChat(c, twinID, req.Message)
}
