// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ConversationTurn model.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/domain"
)

// AppendTurn inserts one immutable turn for twinID. The insert is a single
// statement; concurrent appends for the same twin never overwrite each other.
// It returns ErrNotFound when the twin does not exist.
func AppendTurn(ctx context.Context, db *gorm.DB, twinID, userMessage, twinResponse string, ts time.Time) (*domain.ConversationTurn, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Twin{}).Where("id = ?", twinID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	if ts.IsZero() {
		ts = time.Now()
	}
	turn := &domain.ConversationTurn{
		TwinID:       twinID,
		UserMessage:  userMessage,
		TwinResponse: twinResponse,
		Timestamp:    ts.UTC(),
	}
	if err := db.WithContext(ctx).Create(turn).Error; err != nil {
		// The twin was deleted between the check and the insert.
		if strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed") {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return turn, nil
}

// GetTurn fetches a single turn by id.
func GetTurn(ctx context.Context, db *gorm.DB, id uint64) (*domain.ConversationTurn, error) {
	var t domain.ConversationTurn
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListRecentTurns returns the last n turns of twinID in chronological order.
func ListRecentTurns(ctx context.Context, db *gorm.DB, twinID string, n int) ([]domain.ConversationTurn, error) {
	if n <= 0 {
		return nil, nil
	}
	var out []domain.ConversationTurn
	err := db.WithContext(ctx).
		Where("twin_id = ?", twinID).
		Order("id DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ListTurnsPage returns a page of twinID's turns in insertion order.
func ListTurnsPage(ctx context.Context, db *gorm.DB, twinID string, offset, limit int) ([]domain.ConversationTurn, error) {
	var out []domain.ConversationTurn
	err := db.WithContext(ctx).
		Where("twin_id = ?", twinID).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountTurns returns the number of turns recorded for twinID.
func CountTurns(ctx context.Context, db *gorm.DB, twinID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.ConversationTurn{}).Where("twin_id = ?", twinID).Count(&total).Error
	return total, err
}

// CountAllTurns returns the number of turns across all twins.
func CountAllTurns(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.ConversationTurn{}).Count(&total).Error
	return total, err
}

// ListRecentUserMessages returns the user side of the newest limit turns
// across all twins, newest first.
func ListRecentUserMessages(ctx context.Context, db *gorm.DB, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.ConversationTurn{}).
		Order("id DESC").
		Limit(limit).
		Pluck("user_message", &out).Error
	return out, err
}
