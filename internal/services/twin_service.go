// Package services – TwinService
//
// This file implements TwinService, which owns the lifecycle of twins:
// creation from raw persona text or from a personality profile, lookup by id
// or recency, per-owner listing, and hard deletion. Persona input is resolved
// once into canonical text before it reaches the store.
//
// Structural validation failures surface as *domain.ValidationError so
// handlers can report the offending field; a missing twin is ErrTwinNotFound.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/domain"
	"github.com/tbourn/echome-x/internal/persona"
	"github.com/tbourn/echome-x/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/unicode/norm"
)

// TwinRepo defines the repository contract required by TwinService.
type TwinRepo interface {
	InsertTwin(ctx context.Context, db *gorm.DB, in repo.NewTwin) (*domain.Twin, error)
	FindTwinByID(ctx context.Context, db *gorm.DB, id string) (*domain.Twin, error)
	FindMostRecentTwin(ctx context.Context, db *gorm.DB) (*domain.Twin, error)
	ListTwinsByOwner(ctx context.Context, db *gorm.DB, ownerToken string) ([]domain.Twin, error)
	DeleteTwin(ctx context.Context, db *gorm.DB, id string) (bool, error)
	CountTwins(ctx context.Context, db *gorm.DB) (int64, error)
	ListTwinSummaries(ctx context.Context, db *gorm.DB, limit int) ([]domain.TwinSummary, error)
}

// TwinService provides twin-level operations.
type TwinService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the twin repository used by this service.
	Repo TwinRepo
	// Recent, when set, is invalidated on delete.
	Recent RecentWindow
}

// NewTwinService constructs a TwinService.
func NewTwinService(db *gorm.DB, r TwinRepo) *TwinService {
	return &TwinService{DB: db, Repo: r}
}

// Create resolves in into persona text and stores a new twin owned by
// ownerToken. An empty ownerToken gets a generated one.
func (s *TwinService) Create(ctx context.Context, ownerToken, name string, in persona.Input) (*domain.Twin, error) {
	tr := otel.Tracer("services/TwinService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	if in == nil {
		return nil, ErrPersonaRequired
	}
	name = normalizeName(name)

	text, profile, err := persona.Resolve(name, in)
	if err != nil {
		var fe *persona.FieldError
		if errors.As(err, &fe) {
			return nil, domain.NewValidationError(fe.Field, "%s", fe.Message)
		}
		return nil, err
	}

	t, err := s.Repo.InsertTwin(ctx, s.DB, repo.NewTwin{
		Name:       name,
		Persona:    text,
		OwnerToken: ownerToken,
		Profile:    profile,
	})
	if err != nil {
		return nil, err
	}

	path := "raw"
	if profile != nil {
		path = "personality"
	}
	twinsCreated.WithLabelValues(path).Inc()
	span.SetAttributes(attribute.String("twin.id", t.ID), attribute.String("twin.path", path))
	return t, nil
}

// Get returns the twin with the given id.
func (s *TwinService) Get(ctx context.Context, id string) (*domain.Twin, error) {
	tr := otel.Tracer("services/TwinService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("twin.id", id)))
	defer span.End()

	t, err := s.Repo.FindTwinByID(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTwinNotFound
	}
	return t, err
}

// Latest returns the most recently created twin.
func (s *TwinService) Latest(ctx context.Context) (*domain.Twin, error) {
	tr := otel.Tracer("services/TwinService")
	ctx, span := tr.Start(ctx, "Latest")
	defer span.End()

	t, err := s.Repo.FindMostRecentTwin(ctx, s.DB)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTwinNotFound
	}
	return t, err
}

// ListByOwner returns the caller's twins, most recent first.
func (s *TwinService) ListByOwner(ctx context.Context, ownerToken string) ([]domain.Twin, error) {
	tr := otel.Tracer("services/TwinService")
	ctx, span := tr.Start(ctx, "ListByOwner")
	defer span.End()

	if strings.TrimSpace(ownerToken) == "" {
		return []domain.Twin{}, nil
	}
	return s.Repo.ListTwinsByOwner(ctx, s.DB, ownerToken)
}

// Delete removes a twin and its history. Deleting a missing twin returns
// ErrTwinNotFound, including when it was already deleted.
func (s *TwinService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/TwinService")
	ctx, span := tr.Start(ctx, "Delete", trace.WithAttributes(attribute.String("twin.id", id)))
	defer span.End()

	removed, err := s.Repo.DeleteTwin(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrTwinNotFound
	}
	if s.Recent != nil {
		_ = s.Recent.Forget(ctx, id)
	}
	return nil
}

// Summaries returns the total twin count and up to limit summaries.
func (s *TwinService) Summaries(ctx context.Context, limit int) (int64, []domain.TwinSummary, error) {
	tr := otel.Tracer("services/TwinService")
	ctx, span := tr.Start(ctx, "Summaries", trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	total, err := s.Repo.CountTwins(ctx, s.DB)
	if err != nil {
		return 0, nil, err
	}
	items, err := s.Repo.ListTwinSummaries(ctx, s.DB, limit)
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// normalizeName applies NFC, trims, and collapses runs of whitespace.
func normalizeName(s string) string {
	s = norm.NFC.String(s)
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}
