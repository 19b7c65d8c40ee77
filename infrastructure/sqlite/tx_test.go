package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/uptrace/bun"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	if err := ApplyMigrations(context.Background(), db, filepath.Join(filepath.Dir(file), "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

const insertOfficer = `INSERT INTO officers (username, password_hash, role) VALUES (?, ?, ?)`

func countOfficers(t *testing.T, db *DB, username string) int {
	t.Helper()
	var count int
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM officers WHERE username = ?`, username).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count officers: %v", err)
	}
	return count
}

func TestWithWriteTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)

	boom := errors.New("boom")
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, insertOfficer, "rollback-officer", "hash", "officer"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got: %v", err)
	}
	if n := countOfficers(t, db, "rollback-officer"); n != 0 {
		t.Fatalf("expected rollback to remove insert, count=%d", n)
	}
}

func TestWithWriteTxCommitsOnSuccess(t *testing.T) {
	db := openTestDB(t)

	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, insertOfficer, "commit-officer", "hash", "supervisor")
		return err
	})
	if err != nil {
		t.Fatalf("write tx failed: %v", err)
	}
	if n := countOfficers(t, db, "commit-officer"); n != 1 {
		t.Fatalf("expected committed insert, count=%d", n)
	}
}

func TestWithReadTxRejectsWrite(t *testing.T) {
	db := openTestDB(t)

	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, insertOfficer, "read-only-officer", "hash", "officer")
		return err
	})
	if err == nil && countOfficers(t, db, "read-only-officer") > 0 {
		t.Fatalf("expected write in read tx to be blocked; write succeeded")
	}
}

func TestOfficerRoleIsConstrained(t *testing.T) {
	db := openTestDB(t)

	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, insertOfficer, "bad-role", "hash", "admin")
		return err
	})
	if err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}
