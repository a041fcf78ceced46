package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Migration_AndUniqueKey(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&Idempotency{}, "ux_owner_twin_key") {
		t.Fatalf("expected composite index ux_owner_twin_key to exist")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID:         "id-1",
		OwnerToken: "o1",
		TwinID:     "t1",
		Key:        "k1",
		TurnID:     7,
		Status:     200,
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.OwnerToken != "o1" || got.TwinID != "t1" || got.Key != "k1" || got.TurnID != 7 || got.Status != 200 {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be set automatically")
	}

	dup := &Idempotency{ID: "id-2", OwnerToken: "o1", TwinID: "t1", Key: "k1", TurnID: 8, Status: 200, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (owner_token, twin_id, key)")
	}

	other := &Idempotency{ID: "id-3", OwnerToken: "o1", TwinID: "t2", Key: "k1", TurnID: 9, Status: 200, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("same key on another twin should be allowed: %v", err)
	}
}
