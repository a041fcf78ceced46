package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func envelopeRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zerolog.New(buf)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-7")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/missing", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "twin not found") })
	r.GET("/gone", func(c *gin.Context) { fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "later") })
	r.GET("/broken", func(c *gin.Context) {
		failInternal(c, errors.New("disk I/O error on twins.db"), ErrCodeFetchFailed, "could not load twin")
	})
	r.POST("/created", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"id": "t-1"}) })
	r.GET("/list", func(c *gin.Context) { OK(c, http.StatusOK, []string{"a", "b"}) })
	return r
}

func TestEnvelope_Failures(t *testing.T) {
	cases := []struct {
		path    string
		status  int
		code    string
		msg     string
		logged  bool
		logsErr bool
	}{
		{"/missing", http.StatusNotFound, ErrCodeNotFound, "twin not found", false, false},
		{"/gone", http.StatusServiceUnavailable, ErrCodeInternal, "later", true, false},
		{"/broken", http.StatusInternalServerError, ErrCodeFetchFailed, "could not load twin", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			var buf bytes.Buffer
			w := httptest.NewRecorder()
			envelopeRouter(&buf).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if w.Code != tc.status {
				t.Fatalf("status = %d; want %d", w.Code, tc.status)
			}
			var er ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("json: %v", err)
			}
			if er.Success || er.RequestID != "rid-7" || er.Error.Code != tc.code || er.Error.Message != tc.msg {
				t.Fatalf("body = %+v", er)
			}
			if strings.Contains(w.Body.String(), "disk I/O") {
				t.Fatalf("cause leaked to client: %s", w.Body.String())
			}

			logs := buf.String()
			if tc.logged != strings.Contains(logs, `"level":"error"`) {
				t.Fatalf("logged=%v, logs: %s", tc.logged, logs)
			}
			if tc.logsErr != strings.Contains(logs, "disk I/O error") {
				t.Fatalf("cause logged=%v, logs: %s", tc.logsErr, logs)
			}
		})
	}
}

func TestEnvelope_Success(t *testing.T) {
	var buf bytes.Buffer
	r := envelopeRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/created", nil))
	if w.Code != http.StatusCreated || w.Body.String() != `{"success":true,"data":{"id":"t-1"}}` {
		t.Fatalf("created: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/list", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"success":true,"data":["a","b"]}` {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
}
