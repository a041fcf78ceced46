// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Twin model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: structural validation and
// persistence only, no business rules.
//
// Error semantics:
//   - When a twin is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Name/persona bound violations return *domain.ValidationError.
//   - On other DB errors the raw gorm error is propagated.
//
// Functions:
//
//   - InsertTwin(ctx, db, NewTwin) -> *domain.Twin, error
//   - FindTwinByID(ctx, db, id) -> *domain.Twin, error
//   - FindMostRecentTwin(ctx, db) -> *domain.Twin, error
//   - ListTwinsByOwner(ctx, db, ownerToken) -> []domain.Twin, error
//   - DeleteTwin(ctx, db, id) -> (bool, error)
//   - CountTwins(ctx, db) -> (int64, error)
//   - ListTwinSummaries(ctx, db, limit) -> []domain.TwinSummary, error
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/domain"
	"github.com/tbourn/echome-x/internal/persona"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// NewTwin carries the fields supplied by the caller when creating a twin.
// ID and timestamps are assigned by InsertTwin.
type NewTwin struct {
	Name       string
	Persona    string
	OwnerToken string
	Profile    *persona.Profile
}

// InsertTwin validates and persists a new twin. Name and persona are trimmed
// before validation. An empty OwnerToken gets a fresh random token.
func InsertTwin(ctx context.Context, db *gorm.DB, in NewTwin) (*domain.Twin, error) {
	name := strings.TrimSpace(in.Name)
	text := strings.TrimSpace(in.Persona)
	if err := domain.ValidateTwin(name, text); err != nil {
		return nil, err
	}

	owner := strings.TrimSpace(in.OwnerToken)
	if owner == "" {
		owner = uuid.NewString()
	}

	now := time.Now().UTC()
	t := &domain.Twin{
		ID:                 uuid.NewString(),
		Name:               name,
		Persona:            text,
		OwnerToken:         owner,
		PersonalityProfile: in.Profile,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// FindTwinByID fetches a twin by exact id. A missing twin yields ErrNotFound.
func FindTwinByID(ctx context.Context, db *gorm.DB, id string) (*domain.Twin, error) {
	var t domain.Twin
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindMostRecentTwin returns the twin with the latest creation time.
// Ties are broken by insertion order.
func FindMostRecentTwin(ctx context.Context, db *gorm.DB) (*domain.Twin, error) {
	var out []domain.Twin
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Order("rowid DESC").
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// ListTwinsByOwner returns every twin created under ownerToken, most recent first.
func ListTwinsByOwner(ctx context.Context, db *gorm.DB, ownerToken string) ([]domain.Twin, error) {
	var out []domain.Twin
	err := db.WithContext(ctx).
		Where("owner_token = ?", ownerToken).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// DeleteTwin hard-deletes a twin together with its turns and idempotency
// records. It reports whether a twin row was removed.
func DeleteTwin(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var removed bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("twin_id = ?", id).Delete(&domain.ConversationTurn{}).Error; err != nil {
			return err
		}
		if err := tx.Where("twin_id = ?", id).Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Twin{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	return removed, err
}

// CountTwins returns the total number of stored twins.
func CountTwins(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Twin{}).Count(&total).Error
	return total, err
}

// ListTwinSummaries returns up to limit twins, most recent first, with
// their conversation counts. A non-positive limit defaults to 10.
func ListTwinSummaries(ctx context.Context, db *gorm.DB, limit int) ([]domain.TwinSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []domain.TwinSummary
	err := db.WithContext(ctx).
		Table("twins AS t").
		Select("t.id, t.name, t.owner_token, " +
			"(t.personality_profile IS NOT NULL AND t.personality_profile <> '') AS has_personality, " +
			"COUNT(c.id) AS conversation_count, t.created_at").
		Joins("LEFT JOIN conversation_turns AS c ON c.twin_id = t.id").
		Group("t.id").
		Order("t.created_at DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
