// Aggregates behind the ETags of the twin list and history endpoints.

package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/domain"
)

// TwinsStats returns the number of twins owned by ownerToken and the greatest
// UpdatedAt among them. maxUpdatedAt is nil when the owner has no twins.
func TwinsStats(ctx context.Context, db *gorm.DB, ownerToken string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Twin{}).Where("owner_token = ?", ownerToken)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// MAX(updated_at) comes back as TEXT from SQLite, so order instead.
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// TurnsStats returns the number of turns for twinID and the id of the most
// recent one. Turn ids only grow, so the pair changes on every append.
func TurnsStats(ctx context.Context, db *gorm.DB, twinID string) (count int64, lastID uint64, err error) {
	var row struct {
		N    int64
		Last uint64
	}
	err = db.WithContext(ctx).Model(&domain.ConversationTurn{}).
		Select("COUNT(*) AS n, COALESCE(MAX(id), 0) AS last").
		Where("twin_id = ?", twinID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.N, row.Last, nil
}
