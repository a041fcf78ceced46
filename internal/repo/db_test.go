package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/echome-x/internal/domain"
)

// newRepoDB opens a migrated temp-file database the same way the server does.
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "repo.db"), WithSilentLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func TestDSN_AppendsPragmas(t *testing.T) {
	got := DSN("app.db")
	want := "app.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	if got != want {
		t.Fatalf("DSN = %q; want %q", got, want)
	}
	if got := DSN("file:x?mode=memory"); !strings.HasPrefix(got, "file:x?mode=memory&_pragma=") {
		t.Fatalf("existing query not extended: %q", got)
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "nope", "twins.db")
	db, err := OpenSQLite(bad)
	if db != nil || !os.IsNotExist(err) {
		t.Fatalf("OpenSQLite(%q) = %v, %v; want not-exist error", bad, db, err)
	}
}

func TestOpenSQLite_ConnectionSettings(t *testing.T) {
	db := newRepoDB(t)

	pragmas := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	}
	for _, p := range pragmas {
		var got string
		if err := db.Raw("PRAGMA " + p.name).Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", p.name, err)
		}
		if strings.ToLower(got) != p.want {
			t.Errorf("PRAGMA %s = %q; want %q", p.name, got, p.want)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	if n := sqlDB.Stats().MaxOpenConnections; n != 10 {
		t.Errorf("MaxOpenConnections = %d; want 10", n)
	}
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "traced.db"), WithTracing(), WithSilentLogger())
	if err != nil {
		t.Fatalf("OpenSQLite with tracing: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	// Running twice must be a no-op the second time.
	for i := 0; i < 2; i++ {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("AutoMigrate #%d: %v", i+1, err)
		}
	}
	for _, tbl := range []any{&domain.Twin{}, &domain.ConversationTurn{}, &domain.Idempotency{}} {
		if !db.Migrator().HasTable(tbl) {
			t.Errorf("missing table for %T", tbl)
		}
	}
}
