package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/domain"
)

// ErrDuplicate means (owner, twin, key) already has a record.
var ErrDuplicate = errors.New("duplicate")

// ReplayRecord links an Idempotency-Key to the turn it produced.
type ReplayRecord struct {
	Owner  string
	TwinID string
	Key    string
	TurnID uint64
	Status int
	TTL    time.Duration
}

// GetIdempotency returns the record for (owner, twin, key) if it expires
// after now, else ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, ownerToken, twinID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(twinID) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where(&domain.Idempotency{OwnerToken: ownerToken, TwinID: twinID, Key: key}, "OwnerToken", "TwinID", "Key").
		Where("expires_at > ?", now).
		Take(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency stores r, expiring TTL from now. A second record for the
// same scope yields ErrDuplicate.
func CreateIdempotency(ctx context.Context, db *gorm.DB, r ReplayRecord) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:         uuid.NewString(),
		OwnerToken: r.Owner,
		TwinID:     r.TwinID,
		Key:        r.Key,
		TurnID:     r.TurnID,
		Status:     r.Status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(r.TTL),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes records that expired at or before now.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// isUniqueViolation also matches the plain-text errors the pure-Go SQLite
// driver returns when TranslateError is off.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") || strings.Contains(low, "constraint failed: unique")
}
