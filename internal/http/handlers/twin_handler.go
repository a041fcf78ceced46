// Twin HTTP handlers.
//
// This file exposes REST endpoints for twin resources:
//   - POST   /twins                (create from persona text or a personality profile)
//   - POST   /twins/personality    (create from a personality profile only)
//   - GET    /twins                (list the caller's twins, ETag support)
//   - GET    /twins/latest         (most recently created twin)
//   - GET    /twins/{id}           (single twin)
//   - GET    /twins/{id}/history   (paginated conversation history, ETag support)
//   - DELETE /twins/{id}           (hard delete, including history)
//   - GET    /debug/twins          (summaries; mounted only when debug routes are on)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/domain"
	"github.com/tbourn/echome-x/internal/persona"
	"github.com/tbourn/echome-x/internal/repo"
	"github.com/tbourn/echome-x/internal/services"
	"github.com/tbourn/echome-x/internal/utils"
)

//
// DTOs
//

// BigFiveInput carries the five trait scores. Pointers distinguish a missing
// trait from a score of zero.
type BigFiveInput struct {
	Extraversion      *float64 `json:"extraversion" example:"0.8"`
	Openness          *float64 `json:"openness" example:"0.9"`
	Conscientiousness *float64 `json:"conscientiousness" example:"0.3"`
	Agreeableness     *float64 `json:"agreeableness" example:"0.7"`
	Neuroticism       *float64 `json:"neuroticism" example:"0.2"`
}

// toBigFive returns the scores, or a validation error naming the first
// missing trait.
func (b BigFiveInput) toBigFive() (persona.BigFive, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"extraversion", b.Extraversion},
		{"openness", b.Openness},
		{"conscientiousness", b.Conscientiousness},
		{"agreeableness", b.Agreeableness},
		{"neuroticism", b.Neuroticism},
	}
	for _, f := range fields {
		if f.v == nil {
			return persona.BigFive{}, domain.NewValidationError("bigFiveTraits."+f.name, "%s is required", f.name)
		}
	}
	return persona.BigFive{
		Extraversion:      *b.Extraversion,
		Openness:          *b.Openness,
		Conscientiousness: *b.Conscientiousness,
		Agreeableness:     *b.Agreeableness,
		Neuroticism:       *b.Neuroticism,
	}, nil
}

// CreateTwinRequest is the JSON payload for creating a twin. Either Persona
// or BigFiveTraits must be set; when both are present the profile wins.
type CreateTwinRequest struct {
	Name               string                      `json:"name" example:"Ada"`
	Persona            string                      `json:"persona,omitempty" example:"A thoughtful engineer who loves long walks, old maps and explaining things slowly."`
	BigFiveTraits      *BigFiveInput               `json:"bigFiveTraits,omitempty"`
	CommunicationStyle *persona.CommunicationStyle `json:"communicationStyle,omitempty"`
	CognitiveStyle     *persona.CognitiveStyle     `json:"cognitiveStyle,omitempty"`
}

// input resolves the request into a persona.Input.
func (r CreateTwinRequest) input() (persona.Input, error) {
	if r.BigFiveTraits == nil {
		if strings.TrimSpace(r.Persona) == "" {
			return nil, domain.NewValidationError("persona", "persona is required")
		}
		return persona.Raw{Text: r.Persona}, nil
	}
	b5, err := r.BigFiveTraits.toBigFive()
	if err != nil {
		return nil, err
	}
	p := persona.Profile{BigFive: b5}
	if r.CommunicationStyle != nil {
		p.Communication = *r.CommunicationStyle
	}
	if r.CognitiveStyle != nil {
		p.Cognitive = *r.CognitiveStyle
	}
	return persona.FromProfile{Profile: p}, nil
}

// CreateTwinResponse is returned on 201.
type CreateTwinResponse struct {
	ID         string `json:"id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Name       string `json:"name" example:"Ada"`
	OwnerToken string `json:"ownerToken" example:"2b1c9a5e-8f0d-4c1e-9a77-1f2e3d4c5b6a"`
}

// TwinView is the public representation of a twin.
type TwinView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Persona   string    `json:"persona"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(t *domain.Twin) TwinView {
	return TwinView{ID: t.ID, Name: t.Name, Persona: t.Persona, CreatedAt: t.CreatedAt}
}

// ListTwinsResponse wraps the caller's twins.
type ListTwinsResponse struct {
	Twins []TwinView `json:"twins"`
}

// HistoryResponse contains a page of turns and pagination metadata.
type HistoryResponse struct {
	Turns      []domain.ConversationTurn `json:"turns"`
	Pagination Pagination                `json:"pagination"`
}

// DeleteTwinResponse confirms a deletion.
type DeleteTwinResponse struct {
	Deleted bool `json:"deleted" example:"true"`
}

// DebugTwinsResponse lists stored twins for diagnostics.
type DebugTwinsResponse struct {
	Total int64                `json:"total"`
	Twins []domain.TwinSummary `json:"twins"`
}

//
// Helpers
//

// twinDB and chatDB return the store behind the concrete services, for ETag
// pre-checks. Stubs yield nil and the pre-check is skipped.
func (h *Handlers) twinDB() *gorm.DB {
	if svc, ok := h.twinSvc.(*services.TwinService); ok {
		return svc.DB
	}
	return nil
}

func (h *Handlers) chatDB() *gorm.DB {
	if svc, ok := h.chatSvc.(*services.ChatService); ok {
		return svc.DB
	}
	return nil
}

// twinsETag fingerprints an owner's twin list. The newest timestamp is taken
// at nanosecond resolution so a delete followed by a create within the same
// second still changes the tag.
func twinsETag(owner string, count int64, maxTS *time.Time) string {
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf(`W/"twins:%s:%d:%d"`, owner, count, ts)
}

// notModified sets etag and reports whether the client already has it.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// createTwin is shared by both create endpoints.
func (h *Handlers) createTwin(c *gin.Context, req CreateTwinRequest) {
	in, err := req.input()
	if err == nil {
		var t *domain.Twin
		t, err = h.twinSvc.Create(c.Request.Context(), ownerToken(c), req.Name, in)
		if err == nil {
			ok(c, http.StatusCreated, CreateTwinResponse{ID: t.ID, Name: t.Name, OwnerToken: t.OwnerToken})
			return
		}
	}

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeValidation, ve.Error())
	case errors.Is(err, services.ErrPersonaRequired):
		fail(c, http.StatusBadRequest, ErrCodeValidation, "persona: persona is required")
	default:
		failInternal(c, err, ErrCodeCreateFailed, "could not create twin")
	}
}

//
// Handlers
//

// CreateTwin godoc
// @ID          createTwin
// @Summary     Create a twin
// @Description Creates a twin from raw persona text ({name, persona}) or from personality quiz answers
// @Description ({name, bigFiveTraits, communicationStyle, cognitiveStyle}). Persona text must be at least 50 characters.
// @Tags        Twins
// @Accept      json
// @Produce     json
//
// @Param       X-Owner-Token  header  string  false "Owner token; generated when absent"
// @Param       body           body    handlers.CreateTwinRequest  true  "Twin payload"
//
// @Success     201  {object}  handlers.CreateTwinResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /twins [post]
func (h *Handlers) CreateTwin(c *gin.Context) {
	var req CreateTwinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	h.createTwin(c, req)
}

// CreatePersonalityTwin godoc
// @ID          createPersonalityTwin
// @Summary     Create a twin from a personality profile
// @Description Builds the persona from quiz answers. bigFiveTraits with all five scores is required.
// @Tags        Twins
// @Accept      json
// @Produce     json
//
// @Param       X-Owner-Token  header  string  false "Owner token; generated when absent"
// @Param       body           body    handlers.CreateTwinRequest  true  "Profile payload"
//
// @Success     201  {object}  handlers.CreateTwinResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /twins/personality [post]
func (h *Handlers) CreatePersonalityTwin(c *gin.Context) {
	var req CreateTwinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.BigFiveTraits == nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "bigFiveTraits: personality profile is required")
		return
	}
	h.createTwin(c, req)
}

// GetLatestTwin godoc
// @ID          getLatestTwin
// @Summary     Most recent twin
// @Tags        Twins
// @Produce     json
// @Success     200  {object}  handlers.TwinView
// @Failure     404  {object}  handlers.ErrorResponse  "No twins yet"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /twins/latest [get]
func (h *Handlers) GetLatestTwin(c *gin.Context) {
	t, err := h.twinSvc.Latest(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrTwinNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no twin found")
			return
		}
		failInternal(c, err, ErrCodeFetchFailed, "could not load twin")
		return
	}
	ok(c, http.StatusOK, viewOf(t))
}

// GetTwin godoc
// @ID          getTwin
// @Summary     Get a twin
// @Tags        Twins
// @Produce     json
// @Param       id   path  string  true  "Twin ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.TwinView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Twin not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /twins/{id} [get]
func (h *Handlers) GetTwin(c *gin.Context) {
	id := c.Param("id")
	if !validTwinID(id) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "twin id must be a UUID")
		return
	}
	t, err := h.twinSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTwinNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "twin not found")
			return
		}
		failInternal(c, err, ErrCodeFetchFailed, "could not load twin")
		return
	}
	ok(c, http.StatusOK, viewOf(t))
}

// ListTwins godoc
// @ID          listTwins
// @Summary     List the caller's twins
// @Description Returns twins created with the caller's owner token, most recent first. Supports weak ETag via If-None-Match.
// @Tags        Twins
// @Produce     json
// @Param       X-Owner-Token  header  string  false "Owner token"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListTwinsResponse
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /twins [get]
func (h *Handlers) ListTwins(c *gin.Context) {
	ctx := c.Request.Context()
	owner := ownerToken(c)

	if db := h.twinDB(); db != nil && owner != "" {
		if count, maxTS, err := repo.TwinsStats(ctx, db, owner); err == nil {
			if notModified(c, twinsETag(owner, count, maxTS)) {
				return
			}
		}
	}

	items, err := h.twinSvc.ListByOwner(ctx, owner)
	if err != nil {
		failInternal(c, err, ErrCodeListFailed, "could not list twins")
		return
	}
	views := make([]TwinView, 0, len(items))
	for i := range items {
		views = append(views, viewOf(&items[i]))
	}
	ok(c, http.StatusOK, ListTwinsResponse{Twins: views})
}

// TwinHistory godoc
// @ID          twinHistory
// @Summary     Conversation history
// @Description Returns a page of the twin's turns in chronological order. Supports weak ETag via If-None-Match.
// @Tags        Twins
// @Produce     json
// @Param       id             path    string  true  "Twin ID (UUID)"  format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.HistoryResponse
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Twin not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /twins/{id}/history [get]
func (h *Handlers) TwinHistory(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if !validTwinID(id) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "twin id must be a UUID")
		return
	}
	page, pageSize := clampPagination(c)

	if db := h.chatDB(); db != nil {
		if count, lastID, err := repo.TurnsStats(ctx, db, id); err == nil && count > 0 {
			etag := fmt.Sprintf(`W/"turns:%s:%d:%d:%d:%d"`, id, count, lastID, page, pageSize)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.chatSvc.History(ctx, id, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrTwinNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "twin not found")
			return
		}
		failInternal(c, err, ErrCodeListFailed, "could not load history")
		return
	}
	if items == nil {
		items = []domain.ConversationTurn{}
	}
	ok(c, http.StatusOK, HistoryResponse{Turns: items, Pagination: newPagination(page, pageSize, total)})
}

// DeleteTwin godoc
// @ID          deleteTwin
// @Summary     Delete a twin
// @Description Permanently removes the twin and its conversation history. Deleting a missing twin returns 404.
// @Tags        Twins
// @Produce     json
// @Param       id   path  string  true  "Twin ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.DeleteTwinResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Twin not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /twins/{id} [delete]
func (h *Handlers) DeleteTwin(c *gin.Context) {
	id := c.Param("id")
	if !validTwinID(id) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "twin id must be a UUID")
		return
	}
	if err := h.twinSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrTwinNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "twin not found")
			return
		}
		failInternal(c, err, ErrCodeDeleteFailed, "could not delete twin")
		return
	}
	ok(c, http.StatusOK, DeleteTwinResponse{Deleted: true})
}

// DebugTwins godoc
// @ID          debugTwins
// @Summary     Twin summaries (debug)
// @Tags        Debug
// @Produce     json
// @Param       limit  query  int  false  "Max summaries"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  handlers.DebugTwinsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /debug/twins [get]
func (h *Handlers) DebugTwins(c *gin.Context) {
	_, limit := utils.ClampPage(1, utils.AtoiDefault(c.Query("limit"), 10), 100)
	total, items, err := h.twinSvc.Summaries(c.Request.Context(), limit)
	if err != nil {
		failInternal(c, err, ErrCodeListFailed, "could not list twins")
		return
	}
	if items == nil {
		items = []domain.TwinSummary{}
	}
	ok(c, http.StatusOK, DebugTwinsResponse{Total: total, Twins: items})
}
