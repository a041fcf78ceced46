// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency records the conversation turn produced by a chat request,
// keyed by (owner_token, twin_id, key). A retried request with the same key
// replays the recorded turn instead of calling the language model again.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	OwnerToken string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_owner_twin_key,priority:1"`
	TwinID     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_owner_twin_key,priority:2"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_owner_twin_key,priority:3"`
	TurnID     uint64    `gorm:"type:INTEGER NOT NULL"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
