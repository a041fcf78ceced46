// Package services – ChatService
//
// This file implements ChatService, which turns a user message into a twin
// reply and records the exchange. A chat request resolves its twin (an
// explicit id or the most recent twin), gathers the recent history window,
// asks the responder for a reply, and appends one immutable turn.
//
// The responder never fails, so the only errors here are validation,
// ErrTwinNotFound and storage failures. Observability: public methods are
// OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/domain"
	"github.com/tbourn/echome-x/internal/llm"
	"github.com/tbourn/echome-x/internal/repo"
	"github.com/tbourn/echome-x/internal/responder"
	"github.com/tbourn/echome-x/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Replier produces a reply for a persona. *responder.Responder implements it.
type Replier interface {
	Respond(ctx context.Context, persona, message string, history []llm.Turn) responder.Reply
}

// ChatRequest is one user message addressed to a twin.
type ChatRequest struct {
	// TwinID selects the twin; empty means the most recently created one.
	TwinID         string
	Message        string
	OwnerToken     string
	IdempotencyKey string
}

// ChatResult is the recorded exchange.
type ChatResult struct {
	Twin     *domain.Twin
	Turn     *domain.ConversationTurn
	Source   responder.Source
	Replayed bool
}

// ChatService coordinates replies and history persistence.
type ChatService struct {
	DB        *gorm.DB
	Responder Replier

	// HistoryWindow is the number of prior turns sent as context.
	HistoryWindow int
	// Recent optionally caches the history window.
	Recent RecentWindow

	// MaxMessageRunes caps the user message; 0 disables the check.
	MaxMessageRunes int
	// IdempotencyTTL is how long a recorded reply can be replayed.
	IdempotencyTTL time.Duration
}

// Chat validates the message, resolves the twin, and returns the new turn.
// With an idempotency key that was already used for this owner and twin, the
// recorded turn is returned instead and no reply is generated.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Chat",
		trace.WithAttributes(attribute.String("twin.id", req.TwinID)),
	)
	defer span.End()

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(msg) > s.MaxMessageRunes {
		return nil, ErrTooLong
	}

	twin, err := s.resolveTwin(ctx, req.TwinID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("twin.resolved_id", twin.ID))

	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		if rec, err := repo.GetIdempotency(ctx, s.DB, req.OwnerToken, twin.ID, key, time.Now().UTC()); err == nil {
			if prev, err := repo.GetTurn(ctx, s.DB, rec.TurnID); err == nil {
				return &ChatResult{Twin: twin, Turn: prev, Replayed: true}, nil
			}
		}
	}

	history := s.history(ctx, twin.ID)
	reply := s.Responder.Respond(ctx, twin.Persona, msg, history)
	span.SetAttributes(attribute.String("reply.source", string(reply.Source)))

	turn, err := repo.AppendTurn(ctx, s.DB, twin.ID, msg, reply.Text, time.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTwinNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.Recent != nil {
		if err := s.Recent.Push(ctx, twin.ID, llm.Turn{User: msg, Assistant: reply.Text}); err != nil {
			logFrom(ctx).Warn().Err(err).Str("twin_id", twin.ID).Msg("recent turns cache push failed")
		}
	}

	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		ttl := s.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		// Best effort: a concurrent duplicate already recorded its own turn.
		_, _ = repo.CreateIdempotency(ctx, s.DB, repo.ReplayRecord{
			Owner: req.OwnerToken, TwinID: twin.ID, Key: key, TurnID: turn.ID, Status: 200, TTL: ttl,
		})
	}

	return &ChatResult{Twin: twin, Turn: turn, Source: reply.Source}, nil
}

// History returns a page of a twin's turns in chronological order plus the
// total number of turns.
func (s *ChatService) History(ctx context.Context, twinID string, page, pageSize int) ([]domain.ConversationTurn, int64, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(
			attribute.String("twin.id", twinID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	if _, err := repo.FindTwinByID(ctx, s.DB, twinID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrTwinNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountTurns(ctx, s.DB, twinID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ConversationTurn{}, 0, nil
	}
	// Past the last page is empty; this also keeps the offset below total.
	if page > utils.TotalPages(total, pageSize) {
		return []domain.ConversationTurn{}, total, nil
	}
	items, err := repo.ListTurnsPage(ctx, s.DB, twinID, (page-1)*pageSize, pageSize)
	return items, total, err
}

func (s *ChatService) resolveTwin(ctx context.Context, id string) (*domain.Twin, error) {
	var (
		t   *domain.Twin
		err error
	)
	if strings.TrimSpace(id) == "" {
		t, err = repo.FindMostRecentTwin(ctx, s.DB)
	} else {
		t, err = repo.FindTwinByID(ctx, s.DB, id)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTwinNotFound
	}
	return t, err
}

// history returns the context window, preferring the cache. Storage errors
// degrade to an empty history; the reply is still generated.
func (s *ChatService) history(ctx context.Context, twinID string) []llm.Turn {
	if s.HistoryWindow <= 0 {
		return nil
	}
	if s.Recent != nil {
		turns, ok, err := s.Recent.Get(ctx, twinID)
		if err != nil {
			logFrom(ctx).Warn().Err(err).Str("twin_id", twinID).Msg("recent turns cache read failed")
		} else if ok {
			if len(turns) > s.HistoryWindow {
				turns = turns[len(turns)-s.HistoryWindow:]
			}
			return turns
		}
	}

	rows, err := repo.ListRecentTurns(ctx, s.DB, twinID, s.HistoryWindow)
	if err != nil {
		logFrom(ctx).Warn().Err(err).Str("twin_id", twinID).Msg("load history failed")
		return nil
	}
	turns := make([]llm.Turn, 0, len(rows))
	for _, r := range rows {
		turns = append(turns, llm.Turn{User: r.UserMessage, Assistant: r.TwinResponse})
	}
	if s.Recent != nil && len(turns) > 0 {
		_ = s.Recent.Fill(ctx, twinID, turns)
	}
	return turns
}

func logFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
