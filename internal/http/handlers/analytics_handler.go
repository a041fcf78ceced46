package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAnalytics godoc
// @ID          getAnalytics
// @Summary     Engagement analytics
// @Description Returns dashboard figures. Engagement numbers are simulated; twinCount and conversationTurns come from the store.
// @Tags        Analytics
// @Produce     json
// @Success     200  {object}  services.Analytics
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /analytics [get]
func (h *Handlers) GetAnalytics(c *gin.Context) {
	a, err := h.analyticsSvc.Snapshot(c.Request.Context())
	if err != nil {
		failInternal(c, err, ErrCodeFetchFailed, "could not load analytics")
		return
	}
	ok(c, http.StatusOK, a)
}
