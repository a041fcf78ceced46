// Package responder produces a twin's reply to a chat message.
//
// Replies come from a two-stage pipeline. The primary stage asks the
// configured completion provider to answer in character. When the provider is
// missing or fails, a local fallback generator answers instead. Respond never
// returns an error: upstream failures are logged and counted, and the caller
// always gets displayable text.
package responder

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/echome-x/internal/llm"
)

// Source identifies which stage produced a reply. It is used for logs and
// metrics only and is never sent to clients.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Reply is the text shown to the user plus its origin.
type Reply struct {
	Text   string
	Source Source
}

// Completer is the provider contract. *llm.Client satisfies it, including
// when nil.
type Completer interface {
	Enabled() bool
	Complete(ctx context.Context, system string, history []llm.Turn, user string) (string, error)
}

var repliesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "echome_chat_replies_total",
		Help: "Chat replies produced, by source.",
	},
	[]string{"source"},
)

func init() {
	prometheus.MustRegister(repliesTotal)
}

// Responder runs the reply pipeline. The zero value answers with the
// fallback generator only.
type Responder struct {
	Provider Completer

	// Intn picks a template index in [0,n). Defaults to math/rand/v2.
	Intn func(n int) int
}

// New returns a Responder backed by p, which may be nil.
func New(p Completer) *Responder {
	return &Responder{Provider: p}
}

// SystemPrompt wraps persona text in the fixed in-character instruction.
func SystemPrompt(persona string) string {
	return "You are an AI twin with this persona: " + strings.TrimSpace(persona) +
		". Respond naturally and authentically based on this personality. " +
		"Keep responses conversational and under 150 words. " +
		"Don't say you're processing - just respond naturally as this character would."
}

// Respond answers message as the twin described by persona. history holds
// prior turns in chronological order and may be empty.
func (r *Responder) Respond(ctx context.Context, persona, message string, history []llm.Turn) Reply {
	if r.Provider != nil && r.Provider.Enabled() {
		text, err := r.Provider.Complete(ctx, SystemPrompt(persona), history, message)
		if err == nil && strings.TrimSpace(text) != "" {
			repliesTotal.WithLabelValues(string(SourceLLM)).Inc()
			return Reply{Text: strings.TrimSpace(text), Source: SourceLLM}
		}
		if err == nil {
			err = llm.ErrEmptyCompletion
		}
		ev := loggerFrom(ctx).Warn().Err(err)
		var ue *llm.UpstreamError
		if errors.As(err, &ue) && ue.Status > 0 {
			ev = ev.Int("upstream_status", ue.Status)
		}
		ev.Msg("completion failed, using fallback reply")
	}

	repliesTotal.WithLabelValues(string(SourceFallback)).Inc()
	return Reply{Text: Fallback(message, r.intn), Source: SourceFallback}
}

func (r *Responder) intn(n int) int {
	if r.Intn != nil {
		return r.Intn(n)
	}
	return rand.IntN(n)
}

// Fallback builds a reply without a provider. pick chooses one of the
// templates; the message's wording selects the template's middle clause.
func Fallback(message string, pick func(n int) int) string {
	lower := strings.ToLower(message)
	has := func(word string) bool { return strings.Contains(lower, word) }

	templates := []func() string{
		func() string {
			tail := "I can definitely relate to that perspective."
			if has("how") {
				tail = "The key is understanding the context and breaking things down step by step."
			}
			return "Based on my personality, I'd say that's really interesting! " + tail
		},
		func() string {
			mid := "that really resonates with me."
			if has("what") {
				mid = "I think it depends on various factors, but generally speaking..."
			}
			return "You know, given who I am, " + mid + " What made you think about that?"
		},
		func() string {
			mid := "I see where you're coming from."
			if has("why") {
				mid = "There are usually multiple reasons behind things like this."
			}
			return "That's a great question! " + mid + " Tell me more about your thoughts on this."
		},
	}

	i := 0
	if pick != nil {
		i = pick(len(templates))
	}
	if i < 0 || i >= len(templates) {
		i = 0
	}
	return templates[i]()
}

func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
