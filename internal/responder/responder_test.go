package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/echome-x/internal/llm"
)

type stubCompleter struct {
	enabled bool
	text    string
	err     error

	calls   int
	system  string
	history []llm.Turn
	user    string
}

func (s *stubCompleter) Enabled() bool { return s.enabled }

func (s *stubCompleter) Complete(_ context.Context, system string, history []llm.Turn, user string) (string, error) {
	s.calls++
	s.system, s.history, s.user = system, history, user
	return s.text, s.err
}

func first(int) int { return 0 }

func TestRespond_UsesProvider(t *testing.T) {
	p := &stubCompleter{enabled: true, text: " Hi, I'm Ada. "}
	r := &Responder{Provider: p, Intn: first}
	hist := []llm.Turn{{User: "a", Assistant: "b"}}

	base := testutil.ToFloat64(repliesTotal.WithLabelValues("llm"))
	got := r.Respond(context.Background(), "curious engineer", "hello", hist)

	if got.Text != "Hi, I'm Ada." || got.Source != SourceLLM {
		t.Fatalf("unexpected reply %+v", got)
	}
	if p.user != "hello" || len(p.history) != 1 {
		t.Fatalf("provider got user=%q history=%v", p.user, p.history)
	}
	if !strings.Contains(p.system, "curious engineer") || !strings.Contains(p.system, "under 150 words") {
		t.Fatalf("system prompt missing persona or instruction: %q", p.system)
	}
	if testutil.ToFloat64(repliesTotal.WithLabelValues("llm")) != base+1 {
		t.Fatalf("llm replies counter not incremented")
	}
}

func TestRespond_FallbackOnUpstreamError(t *testing.T) {
	p := &stubCompleter{enabled: true, err: &llm.UpstreamError{Op: "complete", Status: 503, Err: errors.New("down")}}
	r := &Responder{Provider: p, Intn: first}

	base := testutil.ToFloat64(repliesTotal.WithLabelValues("fallback"))
	got := r.Respond(context.Background(), "persona", "how do I start?", nil)

	if got.Source != SourceFallback || strings.TrimSpace(got.Text) == "" {
		t.Fatalf("unexpected reply %+v", got)
	}
	if p.calls != 1 {
		t.Fatalf("provider should be called once by the responder, got %d", p.calls)
	}
	if testutil.ToFloat64(repliesTotal.WithLabelValues("fallback")) != base+1 {
		t.Fatalf("fallback counter not incremented")
	}
}

func TestRespond_FallbackOnEmptyProviderText(t *testing.T) {
	r := &Responder{Provider: &stubCompleter{enabled: true, text: "   "}, Intn: first}
	got := r.Respond(context.Background(), "persona", "hi", nil)
	if got.Source != SourceFallback || got.Text == "" {
		t.Fatalf("unexpected reply %+v", got)
	}
}

func TestRespond_NoProvider(t *testing.T) {
	p := &stubCompleter{enabled: false}
	r := &Responder{Provider: p, Intn: first}
	got := r.Respond(context.Background(), "persona", "hi", nil)
	if got.Source != SourceFallback || got.Text == "" {
		t.Fatalf("unexpected reply %+v", got)
	}
	if p.calls != 0 {
		t.Fatalf("disabled provider must not be called")
	}

	var zero Responder
	if got := zero.Respond(context.Background(), "persona", "hi", nil); got.Text == "" {
		t.Fatalf("zero responder must still reply")
	}

	var nilClient *llm.Client
	if got := New(nilClient).Respond(context.Background(), "persona", "hi", nil); got.Source != SourceFallback {
		t.Fatalf("nil llm client should fall back, got %+v", got)
	}
}

func TestFallback_KeywordBranches(t *testing.T) {
	tests := []struct {
		pick    int
		message string
		want    string
	}{
		{0, "How does this work?", "breaking things down step by step"},
		{0, "nice day", "I can definitely relate to that perspective."},
		{1, "WHAT should I do", "I think it depends on various factors"},
		{1, "nice day", "that really resonates with me. What made you think about that?"},
		{2, "why though", "There are usually multiple reasons"},
		{2, "nice day", "I see where you're coming from."},
	}
	for _, tc := range tests {
		got := Fallback(tc.message, func(int) int { return tc.pick })
		if !strings.Contains(got, tc.want) {
			t.Fatalf("pick %d %q: %q does not contain %q", tc.pick, tc.message, got, tc.want)
		}
	}
}

func TestFallback_OutOfRangePick(t *testing.T) {
	got := Fallback("hi", func(int) int { return 9 })
	if !strings.HasPrefix(got, "Based on my personality") {
		t.Fatalf("out-of-range pick should use the first template, got %q", got)
	}
	if Fallback("hi", nil) == "" {
		t.Fatalf("nil picker should still reply")
	}
}
