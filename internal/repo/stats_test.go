package repo

import (
	"context"
	"testing"
	"time"
)

func TestTwinsStats(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	count, maxAt, err := TwinsStats(ctx, db, "o1")
	if err != nil || count != 0 || maxAt != nil {
		t.Fatalf("empty: got (%d, %v, %v)", count, maxAt, err)
	}

	_, _ = InsertTwin(ctx, db, NewTwin{Name: "A", Persona: persona60, OwnerToken: "o1"})
	time.Sleep(5 * time.Millisecond)
	b, _ := InsertTwin(ctx, db, NewTwin{Name: "B", Persona: persona60, OwnerToken: "o1"})

	count, maxAt, err = TwinsStats(ctx, db, "o1")
	if err != nil || count != 2 || maxAt == nil {
		t.Fatalf("got (%d, %v, %v)", count, maxAt, err)
	}
	if d := maxAt.Sub(b.UpdatedAt); d > time.Millisecond || d < -time.Millisecond {
		t.Fatalf("maxUpdatedAt = %v; want %v", maxAt, b.UpdatedAt)
	}
}

func TestTurnsStats(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	tw, _ := InsertTwin(ctx, db, NewTwin{Name: "A", Persona: persona60})

	count, last, err := TurnsStats(ctx, db, tw.ID)
	if err != nil || count != 0 || last != 0 {
		t.Fatalf("empty: got (%d, %d, %v)", count, last, err)
	}

	_, _ = AppendTurn(ctx, db, tw.ID, "a", "b", time.Now())
	second, _ := AppendTurn(ctx, db, tw.ID, "c", "d", time.Now())

	count, last, err = TurnsStats(ctx, db, tw.ID)
	if err != nil || count != 2 || last != second.ID {
		t.Fatalf("got (%d, %d, %v); want last=%d", count, last, err, second.ID)
	}
}
