package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/echome-x/internal/domain"
	"github.com/tbourn/echome-x/internal/http/middleware"
	"github.com/tbourn/echome-x/internal/repo"
)

const profileBody = `{
	"name": "Ada",
	"bigFiveTraits": {"extraversion":0.8,"openness":0.9,"conscientiousness":0.3,"agreeableness":0.7,"neuroticism":0.2},
	"communicationStyle": {"formality":"casual","expressiveness":"expressive","supportiveness":"supportive","optimism":0.8},
	"cognitiveStyle": {"thinking_preference":"creative","decision_making":"intuitive","planning_approach":"flexible","creativity_level":0.9}
}`

func createRaw(t *testing.T, h *Handlers, name, owner string) CreateTwinResponse {
	t.Helper()
	hdr := map[string]string{}
	if owner != "" {
		hdr[middleware.HeaderOwnerToken] = owner
	}
	w := perform(newRouter(h), http.MethodPost, "/twins", `{"name":"`+name+`","persona":"`+testPersona+`"}`, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var out CreateTwinResponse
	decodeData(t, w, &out)
	return out
}

func TestCreateTwin_RawPersona(t *testing.T) {
	db := newHandlerDB(t)
	h := newRealHandlers(db, nil)

	out := createRaw(t, h, "  Ada   Lovelace ", "")
	if _, err := uuid.Parse(out.ID); err != nil {
		t.Fatalf("id should be a UUID: %q", out.ID)
	}
	if out.Name != "Ada Lovelace" {
		t.Fatalf("name should be normalized, got %q", out.Name)
	}
	if out.OwnerToken == "" {
		t.Fatalf("owner token should be generated when absent")
	}

	stored, err := repo.FindTwinByID(context.Background(), db, out.ID)
	if err != nil || stored.Persona != testPersona || stored.PersonalityProfile != nil {
		t.Fatalf("stored twin mismatch: %+v %v", stored, err)
	}
}

func TestCreateTwin_KeepsCallerOwnerToken(t *testing.T) {
	h := newRealHandlers(newHandlerDB(t), nil)
	if out := createRaw(t, h, "Ada", "owner-42"); out.OwnerToken != "owner-42" {
		t.Fatalf("owner token = %q", out.OwnerToken)
	}
}

func TestCreateTwin_Validation(t *testing.T) {
	db := newHandlerDB(t)
	r := newRouter(newRealHandlers(db, nil))

	cases := []struct {
		name     string
		body     string
		code     string
		contains string
	}{
		{"invalid json", `{"name":`, ErrCodeBadRequest, "invalid JSON"},
		{"missing persona", `{"name":"Ada"}`, ErrCodeValidation, "persona"},
		{"short persona", `{"name":"Ada","persona":"` + strings.Repeat("x", 49) + `"}`, ErrCodeValidation, "at least 50"},
		{"blank name", `{"name":"   ","persona":"` + testPersona + `"}`, ErrCodeValidation, "name"},
		{"long name", `{"name":"` + strings.Repeat("n", 51) + `","persona":"` + testPersona + `"}`, ErrCodeValidation, "at most 50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/twins", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			er := decodeError(t, w)
			if er.Error.Code != tc.code || !strings.Contains(er.Error.Message, tc.contains) {
				t.Fatalf("unexpected error: %+v", er)
			}
		})
	}

	n, _ := repo.CountTwins(context.Background(), db)
	if n != 0 {
		t.Fatalf("rejected requests must not store twins, got %d", n)
	}
}

func TestCreatePersonalityTwin(t *testing.T) {
	db := newHandlerDB(t)
	r := newRouter(newRealHandlers(db, nil))

	w := perform(r, http.MethodPost, "/twins/personality", profileBody, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out CreateTwinResponse
	decodeData(t, w, &out)

	stored, err := repo.FindTwinByID(context.Background(), db, out.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.PersonalityProfile == nil || stored.PersonalityProfile.BigFive.Openness != 0.9 {
		t.Fatalf("profile not stored: %+v", stored.PersonalityProfile)
	}
	if !strings.Contains(stored.Persona, "Ada") || len([]rune(stored.Persona)) < domain.MinPersonaRunes {
		t.Fatalf("generated persona unexpected: %q", stored.Persona)
	}

	// The general endpoint accepts the same payload.
	if w := perform(r, http.MethodPost, "/twins", profileBody, nil); w.Code != http.StatusCreated {
		t.Fatalf("POST /twins with profile = %d", w.Code)
	}
}

func TestCreatePersonalityTwin_Validation(t *testing.T) {
	r := newRouter(newRealHandlers(newHandlerDB(t), nil))

	cases := []struct {
		name     string
		body     string
		contains string
	}{
		{"no traits", `{"name":"Ada","persona":"` + testPersona + `"}`, "bigFiveTraits"},
		{"missing trait", `{"name":"Ada","bigFiveTraits":{"extraversion":0.8,"openness":0.9,"conscientiousness":0.3,"agreeableness":0.7}}`, "neuroticism"},
		{"out of range", `{"name":"Ada","bigFiveTraits":{"extraversion":1.5,"openness":0.9,"conscientiousness":0.3,"agreeableness":0.7,"neuroticism":0.2}}`, "extraversion"},
		{"bad enum", `{"name":"Ada","bigFiveTraits":{"extraversion":0.5,"openness":0.5,"conscientiousness":0.5,"agreeableness":0.5,"neuroticism":0.5},"cognitiveStyle":{"planning_approach":"chaotic"}}`, "planning_approach"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/twins/personality", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if er := decodeError(t, w); er.Error.Code != ErrCodeValidation || !strings.Contains(er.Error.Message, tc.contains) {
				t.Fatalf("unexpected error: %+v", er)
			}
		})
	}
}

func TestGetLatestTwin(t *testing.T) {
	h := newRealHandlers(newHandlerDB(t), nil)
	r := newRouter(h)

	if w := perform(r, http.MethodGet, "/twins/latest", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("empty store: status=%d", w.Code)
	}

	createRaw(t, h, "First", "")
	time.Sleep(2 * time.Millisecond)
	second := createRaw(t, h, "Second", "")

	w := perform(r, http.MethodGet, "/twins/latest", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var v TwinView
	decodeData(t, w, &v)
	if v.ID != second.ID || v.Name != "Second" {
		t.Fatalf("latest = %+v", v)
	}
}

func TestGetTwin(t *testing.T) {
	h := newRealHandlers(newHandlerDB(t), nil)
	r := newRouter(h)
	created := createRaw(t, h, "Ada", "")

	w := perform(r, http.MethodGet, "/twins/"+created.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var v TwinView
	decodeData(t, w, &v)
	if v.Persona != testPersona {
		t.Fatalf("persona = %q", v.Persona)
	}

	if w := perform(r, http.MethodGet, "/twins/not-a-uuid", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status=%d", w.Code)
	}
	if w := perform(r, http.MethodGet, "/twins/"+uuid.NewString(), "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status=%d", w.Code)
	}
}

func TestListTwins_OwnerScopedWithETag(t *testing.T) {
	h := newRealHandlers(newHandlerDB(t), nil)
	r := newRouter(h)
	createRaw(t, h, "Mine", "owner-a")
	createRaw(t, h, "Theirs", "owner-b")

	hdr := map[string]string{middleware.HeaderOwnerToken: "owner-a"}
	w := perform(r, http.MethodGet, "/twins", "", hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out ListTwinsResponse
	decodeData(t, w, &out)
	if len(out.Twins) != 1 || out.Twins[0].Name != "Mine" {
		t.Fatalf("owner scoping broken: %+v", out)
	}

	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"twins:owner-a:1:`) {
		t.Fatalf("unexpected etag %q", etag)
	}
	hdr["If-None-Match"] = etag
	if w := perform(r, http.MethodGet, "/twins", "", hdr); w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	// No owner token: empty list, no ETag.
	w = perform(r, http.MethodGet, "/twins", "", nil)
	decodeData(t, w, &out)
	if len(out.Twins) != 0 || w.Header().Get("ETag") != "" {
		t.Fatalf("anonymous list: %+v etag=%q", out, w.Header().Get("ETag"))
	}
}

func TestTwinsETag_SubSecond(t *testing.T) {
	a := time.Date(2026, 3, 1, 12, 0, 0, 100, time.UTC)
	b := a.Add(300 * time.Millisecond)
	if twinsETag("o", 1, &a) == twinsETag("o", 1, &b) {
		t.Fatalf("timestamps within the same second must yield different tags")
	}
	if got := twinsETag("o", 0, nil); got != `W/"twins:o:0:0"` {
		t.Fatalf("empty list tag = %q", got)
	}
}

func TestListTwins_ETagChangesAfterDeleteAndCreate(t *testing.T) {
	h := newRealHandlers(newHandlerDB(t), nil)
	r := newRouter(h)
	first := createRaw(t, h, "First", "owner-a")

	hdr := map[string]string{middleware.HeaderOwnerToken: "owner-a"}
	w := perform(r, http.MethodGet, "/twins", "", hdr)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag")
	}

	// Same count afterwards, and usually the same wall-clock second.
	if w := perform(r, http.MethodDelete, "/twins/"+first.ID, "", nil); w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	createRaw(t, h, "Second", "owner-a")

	hdr["If-None-Match"] = etag
	w = perform(r, http.MethodGet, "/twins", "", hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("stale ETag must not yield 304, got %d", w.Code)
	}
	var out ListTwinsResponse
	decodeData(t, w, &out)
	if len(out.Twins) != 1 || out.Twins[0].Name != "Second" {
		t.Fatalf("list after replace: %+v", out)
	}
}

func TestTwinHistory_PaginationAndETag(t *testing.T) {
	db := newHandlerDB(t)
	h := newRealHandlers(db, nil)
	r := newRouter(h)
	created := createRaw(t, h, "Ada", "")

	ctx := context.Background()
	for _, m := range []string{"one", "two", "three"} {
		if _, err := repo.AppendTurn(ctx, db, created.ID, m, "reply to "+m, time.Now()); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	path := "/twins/" + created.ID + "/history?page=1&page_size=2"
	w := perform(r, http.MethodGet, path, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out HistoryResponse
	decodeData(t, w, &out)
	if len(out.Turns) != 2 || out.Turns[0].UserMessage != "one" || out.Turns[1].UserMessage != "two" {
		t.Fatalf("unexpected turns: %+v", out.Turns)
	}
	if out.Pagination.Total != 3 || out.Pagination.TotalPages != 2 || !out.Pagination.HasNext {
		t.Fatalf("unexpected pagination: %+v", out.Pagination)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag on non-empty history")
	}
	if w := perform(r, http.MethodGet, path, "", map[string]string{"If-None-Match": etag}); w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	// A new turn invalidates the tag.
	if _, err := repo.AppendTurn(ctx, db, created.ID, "four", "reply", time.Now()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if w := perform(r, http.MethodGet, path, "", map[string]string{"If-None-Match": etag}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 after new turn, got %d", w.Code)
	}
}

func TestTwinHistory_EmptyAndMissing(t *testing.T) {
	h := newRealHandlers(newHandlerDB(t), nil)
	r := newRouter(h)
	created := createRaw(t, h, "Ada", "")

	w := perform(r, http.MethodGet, "/twins/"+created.ID+"/history", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"turns":[]`) {
		t.Fatalf("empty history should encode as []: %s", w.Body.String())
	}

	if w := perform(r, http.MethodGet, "/twins/"+uuid.NewString()+"/history", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown twin: status=%d", w.Code)
	}
	if w := perform(r, http.MethodGet, "/twins/xyz/history", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status=%d", w.Code)
	}
}

func TestDeleteTwin(t *testing.T) {
	db := newHandlerDB(t)
	h := newRealHandlers(db, nil)
	r := newRouter(h)
	created := createRaw(t, h, "Ada", "")
	if _, err := repo.AppendTurn(context.Background(), db, created.ID, "hi", "hello", time.Now()); err != nil {
		t.Fatalf("append: %v", err)
	}

	w := perform(r, http.MethodDelete, "/twins/"+created.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	var out DeleteTwinResponse
	decodeData(t, w, &out)
	if !out.Deleted {
		t.Fatalf("deleted flag not set")
	}

	if w := perform(r, http.MethodGet, "/twins/"+created.ID, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", w.Code)
	}
	if w := perform(r, http.MethodDelete, "/twins/"+created.ID, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
	if n, _ := repo.CountTurns(context.Background(), db, created.ID); n != 0 {
		t.Fatalf("history should be removed, %d turns left", n)
	}
}

func TestDebugTwins(t *testing.T) {
	h := newRealHandlers(newHandlerDB(t), nil)
	r := newRouter(h)
	createRaw(t, h, "Ada", "")
	perform(r, http.MethodPost, "/twins/personality", profileBody, nil)

	w := perform(r, http.MethodGet, "/debug/twins?limit=1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out DebugTwinsResponse
	decodeData(t, w, &out)
	if out.Total != 2 || len(out.Twins) != 1 {
		t.Fatalf("unexpected summaries: %+v", out)
	}
}
