// Package domain defines the persistence models for twins and their
// conversation history. These types are mapped with GORM and form the core
// data layer of the twin service.
package domain

import (
	"time"

	"github.com/tbourn/echome-x/internal/persona"
)

// Twin is a persisted AI twin: a display name plus the persona text that is
// sent to the language model as the system prompt.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), assigned once at insert.
//   - Name: display name, 1..50 runes after trimming.
//   - Persona: free-text character description, at least 50 runes.
//   - OwnerToken: opaque creator identifier; indexed, not unique, so one
//     owner may accumulate several twins.
//   - PersonalityProfile: quiz answers the persona was built from; nil when
//     the twin was created from raw persona text.
//   - Turns: append-only conversation history (cascade-deleted with the twin).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//
// Twins are hard-deleted; there is no DeletedAt column.
type Twin struct {
	ID                 string           `json:"id"          gorm:"type:char(36);primaryKey"`
	Name               string           `json:"name"        gorm:"type:varchar(50);not null"`
	Persona            string           `json:"persona"     gorm:"type:text;not null"`
	OwnerToken         string           `json:"ownerToken"  gorm:"type:varchar(64);not null;index:idx_owner_twins"`
	PersonalityProfile *persona.Profile `json:"personalityProfile" gorm:"serializer:json;type:text"`
	CreatedAt          time.Time        `json:"createdAt"   gorm:"index:idx_twins_created"`
	UpdatedAt          time.Time        `json:"updatedAt"`

	Turns []ConversationTurn `json:"-" gorm:"foreignKey:TwinID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Twin.
func (Twin) TableName() string { return "twins" }

// ConversationTurn is one exchange in a twin's history. Turns are immutable
// once written; the auto-increment ID doubles as the insertion order.
type ConversationTurn struct {
	ID           uint64    `json:"id"           gorm:"primaryKey;autoIncrement"`
	TwinID       string    `json:"twinId"       gorm:"type:char(36);not null;index:idx_twin_turns,priority:1"`
	UserMessage  string    `json:"userMessage"  gorm:"type:text;not null"`
	TwinResponse string    `json:"twinResponse" gorm:"type:text;not null"`
	Timestamp    time.Time `json:"timestamp"    gorm:"not null;index:idx_twin_turns,priority:2"`
}

// TableName returns the database table name for ConversationTurn.
func (ConversationTurn) TableName() string { return "conversation_turns" }

// TwinSummary is the lightweight projection used by debug and list views.
type TwinSummary struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	OwnerToken        string    `json:"ownerToken"`
	HasPersonality    bool      `json:"hasPersonality"`
	ConversationCount int64     `json:"conversationCount"`
	CreatedAt         time.Time `json:"createdAt"`
}
