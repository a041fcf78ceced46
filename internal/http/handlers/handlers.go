// Package handlers wires the HTTP endpoints to the application services.
//
// Handlers are transport-thin: they validate request structure before
// touching the store, call a service, and map results and errors onto the
// response envelope. They depend on the service interfaces below so tests can
// substitute stubs.
package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/echome-x/internal/domain"
	"github.com/tbourn/echome-x/internal/http/middleware"
	"github.com/tbourn/echome-x/internal/persona"
	"github.com/tbourn/echome-x/internal/services"
	"github.com/tbourn/echome-x/internal/utils"
)

//
// Service contracts (context-aware)
//

// TwinService defines twin lifecycle operations consumed by HTTP handlers.
type TwinService interface {
	Create(ctx context.Context, ownerToken, name string, in persona.Input) (*domain.Twin, error)
	Get(ctx context.Context, id string) (*domain.Twin, error)
	Latest(ctx context.Context) (*domain.Twin, error)
	ListByOwner(ctx context.Context, ownerToken string) ([]domain.Twin, error)
	Delete(ctx context.Context, id string) error
	Summaries(ctx context.Context, limit int) (int64, []domain.TwinSummary, error)
}

// ChatService defines reply generation and history reads.
type ChatService interface {
	Chat(ctx context.Context, req services.ChatRequest) (*services.ChatResult, error)
	History(ctx context.Context, twinID string, page, pageSize int) ([]domain.ConversationTurn, int64, error)
}

// AnalyticsService returns dashboard figures.
type AnalyticsService interface {
	Snapshot(ctx context.Context) (*services.Analytics, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for twins, chat and analytics.
type Handlers struct {
	twinSvc      TwinService
	chatSvc      ChatService
	analyticsSvc AnalyticsService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(twinSvc TwinService, chatSvc ChatService, analyticsSvc AnalyticsService) *Handlers {
	return &Handlers{twinSvc: twinSvc, chatSvc: chatSvc, analyticsSvc: analyticsSvc}
}

// ownerToken returns the caller's owner token, or "" when none was sent.
func ownerToken(c *gin.Context) string {
	return middleware.OwnerToken(c)
}

// validTwinID reports whether id has the shape of a twin id.
func validTwinID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses page/page_size from query parameters, applies sane
// defaults and caps, and returns the validated (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), 20),
		100,
	)
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
// CRLF/CR become LF, runs of blank lines collapse, and the result is trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
