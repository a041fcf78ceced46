package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/echome-x/internal/http/middleware"
)

// ErrorBody is the machine-readable part of a failure.
type ErrorBody struct {
	// Stable code from errors.go; clients branch on this.
	Code string `json:"code" example:"not_found"`
	// Safe to show to users.
	Message string `json:"message" example:"twin not found"`
}

// ErrorResponse is the failure envelope:
//
//	{"success":false,"request_id":"...","error":{"code":"not_found","message":"twin not found"}}
type ErrorResponse struct {
	Success   bool      `json:"success" example:"false"`
	RequestID string    `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Error     ErrorBody `json:"error"`
}

// SuccessResponse is the success envelope, {"success":true,"data":...}.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
	Data    any  `json:"data"`
}

func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		logFailure(c, nil, status, code)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Error:     ErrorBody{Code: code, Message: msg},
	})
}

// failInternal answers 500 with a user-safe message and logs the cause,
// which never reaches the client.
func failInternal(c *gin.Context, err error, code, msg string) {
	logFailure(c, err, http.StatusInternalServerError, code)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Error:     ErrorBody{Code: code, Message: msg},
	})
}

// logFailure writes one error line on the request-scoped logger.
func logFailure(c *gin.Context, err error, status int, code string) {
	ev := middleware.LoggerFrom(c).Error().Int("status", status).Str("code", code)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("api error")
}

// Fail writes the failure envelope from outside this package (router
// fallbacks).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{Success: true, Data: data})
}

// OK writes the success envelope from outside this package.
func OK(c *gin.Context, status int, data any) { ok(c, status, data) }
