package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/domain"
	"github.com/tbourn/echome-x/internal/repo"
	"github.com/tbourn/echome-x/internal/responder"
	"github.com/tbourn/echome-x/internal/services"
)

const testPersona = "A thoughtful engineer who loves long walks, old maps and explaining things slowly."

// ---------- test DB + repo shim ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"), repo.WithSilentLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Minimal shim implementing services.TwinRepo using repo package (like router.go)
type testTwinRepo struct{}

func (testTwinRepo) InsertTwin(ctx context.Context, db *gorm.DB, in repo.NewTwin) (*domain.Twin, error) {
	return repo.InsertTwin(ctx, db, in)
}

func (testTwinRepo) FindTwinByID(ctx context.Context, db *gorm.DB, id string) (*domain.Twin, error) {
	return repo.FindTwinByID(ctx, db, id)
}

func (testTwinRepo) FindMostRecentTwin(ctx context.Context, db *gorm.DB) (*domain.Twin, error) {
	return repo.FindMostRecentTwin(ctx, db)
}

func (testTwinRepo) ListTwinsByOwner(ctx context.Context, db *gorm.DB, owner string) ([]domain.Twin, error) {
	return repo.ListTwinsByOwner(ctx, db, owner)
}

func (testTwinRepo) DeleteTwin(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.DeleteTwin(ctx, db, id)
}

func (testTwinRepo) CountTwins(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountTwins(ctx, db)
}

func (testTwinRepo) ListTwinSummaries(ctx context.Context, db *gorm.DB, limit int) ([]domain.TwinSummary, error) {
	return repo.ListTwinSummaries(ctx, db, limit)
}

// newRealHandlers wires concrete services over db with a responder backed by p.
func newRealHandlers(db *gorm.DB, p responder.Completer) *Handlers {
	rsp := responder.New(p)
	rsp.Intn = func(int) int { return 0 }
	return New(
		services.NewTwinService(db, testTwinRepo{}),
		&services.ChatService{DB: db, Responder: rsp, HistoryWindow: 6, MaxMessageRunes: 2000},
		&services.AnalyticsService{DB: db, Float: func() float64 { return 0.5 }},
	)
}

// newRouter mounts the API routes the same way the production router does.
func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/twins", h.CreateTwin)
	r.POST("/twins/personality", h.CreatePersonalityTwin)
	r.GET("/twins", h.ListTwins)
	r.GET("/twins/latest", h.GetLatestTwin)
	r.GET("/twins/:id", h.GetTwin)
	r.GET("/twins/:id/history", h.TwinHistory)
	r.DELETE("/twins/:id", h.DeleteTwin)
	r.POST("/chat", h.PostChat)
	r.POST("/twins/:id/chat", h.PostTwinChat)
	r.GET("/analytics", h.GetAnalytics)
	r.GET("/debug/twins", h.DebugTwins)
	return r
}

func perform(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a success envelope into out.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", w.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("json data: %v", err)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return er
}

func TestSanitizeContent(t *testing.T) {
	in := "  hi\r\nthere\r\r\r\n\nfriend  "
	if got := sanitizeContent(in); got != "hi\nthere\n\nfriend" {
		t.Fatalf("sanitizeContent = %q", got)
	}
}

func TestNewPagination(t *testing.T) {
	p := newPagination(1, 2, 3)
	if p.TotalPages != 2 || !p.HasNext {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	p = newPagination(2, 2, 3)
	if p.HasNext {
		t.Fatalf("last page should not have next: %+v", p)
	}
	if p = newPagination(1, 20, 0); p.TotalPages != 0 || p.HasNext {
		t.Fatalf("empty pagination: %+v", p)
	}
}
