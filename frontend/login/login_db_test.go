package login

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"queueboard/infrastructure/argon"
	"queueboard/infrastructure/rbac"
	"queueboard/infrastructure/sqlite"
	"queueboard/models"
)

func openLoginDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "login.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.ApplyEmbeddedMigrations(context.Background(), db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestUpsertAndAuthenticateOfficer(t *testing.T) {
	db := openLoginDB(t)
	ctx := context.Background()

	in := OfficerInput{Username: "Kamala", Role: rbac.RoleOfficer, Password: "Counter#Seven7", APIToken: "backend-token"}
	if err := UpsertOfficer(ctx, db, in); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	officer, err := authenticateOfficer(ctx, db, "kamala", "Counter#Seven7")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if officer.DisplayName != "Kamala" || officer.APIToken != "backend-token" {
		t.Fatalf("unexpected officer %+v", officer)
	}

	if _, err := authenticateOfficer(ctx, db, "kamala", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := authenticateOfficer(ctx, db, "nobody", "Counter#Seven7"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}

	in.Role = rbac.RoleSupervisor
	in.Password = "Supervise#Nine9"
	if err := UpsertOfficer(ctx, db, in); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	officer, err = authenticateOfficer(ctx, db, "kamala", "Supervise#Nine9")
	if err != nil {
		t.Fatalf("authenticate after update: %v", err)
	}
	if officer.Role != rbac.RoleSupervisor {
		t.Fatalf("expected role updated, got %q", officer.Role)
	}
}

func TestUpsertOfficerValidation(t *testing.T) {
	db := openLoginDB(t)
	cases := []OfficerInput{
		{Username: "", Role: rbac.RoleOfficer, Password: "Counter#Seven7"},
		{Username: "a", Role: "admin", Password: "Counter#Seven7"},
		{Username: "a", Role: rbac.RoleOfficer, Password: "weak"},
	}
	for _, in := range cases {
		if err := UpsertOfficer(context.Background(), db, in); err == nil {
			t.Fatalf("expected error for %+v", in)
		}
	}
}

func TestAuthenticateUpgradesWeakHash(t *testing.T) {
	db := openLoginDB(t)
	ctx := context.Background()

	weak, err := argon.CreateHash("Counter#Seven7", &argon.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO officers (username, password_hash, role) VALUES (?, ?, ?)`, "nimal", weak, rbac.RoleOfficer)
		return err
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := authenticateOfficer(ctx, db, "nimal", "Counter#Seven7"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	var stored string
	err = db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT password_hash FROM officers WHERE username = ?`, "nimal").Scan(ctx, &stored)
	})
	if err != nil {
		t.Fatalf("load hash: %v", err)
	}
	if argon.NeedsRehash(stored, argon.DefaultParams) {
		t.Fatalf("expected hash upgraded to default params")
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := openLoginDB(t)
	ctx := context.Background()
	if err := UpsertOfficer(ctx, db, OfficerInput{Username: "sunil", Role: rbac.RoleSupervisor, Password: "Counter#Seven7"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	officer, err := authenticateOfficer(ctx, db, "sunil", "Counter#Seven7")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	live := newSession(officer)
	if err := persistSession(ctx, db, live); err != nil {
		t.Fatalf("persist: %v", err)
	}
	loaded, err := LoadSessionByToken(ctx, db, live.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Officer.Username != "sunil" || len(loaded.UserRoles) != 2 {
		t.Fatalf("unexpected session %+v", loaded)
	}

	expired := models.Session{ID: "expired-token", OfficerID: officer.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	if err := persistSession(ctx, db, expired); err != nil {
		t.Fatalf("persist expired: %v", err)
	}
	if _, err := LoadSessionByToken(ctx, db, expired.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected expired session rejected, got %v", err)
	}

	stale := models.Session{ID: "stale-token", OfficerID: officer.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	if err := persistSession(ctx, db, stale); err != nil {
		t.Fatalf("persist stale: %v", err)
	}
	n, err := PurgeExpiredSessions(ctx, db)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged session, got %d", n)
	}

	if err := DeleteSessionByToken(ctx, db, live.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := LoadSessionByToken(ctx, db, live.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected deleted session gone, got %v", err)
	}
}
