package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"

	"queueboard/infrastructure/sqlite"
)

func openAuditDB(t *testing.T) (*sqlite.DB, int64) {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.ApplyEmbeddedMigrations(context.Background(), db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	var officerID int64
	err = db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`INSERT INTO officers (username, password_hash, role) VALUES (?, ?, ?) RETURNING id`, "kamala", "hash", "officer").Scan(ctx, &officerID)
	})
	if err != nil {
		t.Fatalf("insert officer: %v", err)
	}
	return db, officerID
}

func TestWriteAndRecent(t *testing.T) {
	db, officerID := openAuditDB(t)
	svc := NewService()

	for _, status := range []string{"being_served", "completed"} {
		err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
			return svc.Write(ctx, tx, officerID, ActionQueueStatusUpdate, "token", "QT-20250929-0002",
				map[string]string{"status": "waiting"}, map[string]string{"status": status})
		})
		if err != nil {
			t.Fatalf("write audit: %v", err)
		}
	}

	var logs []string
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		entries, err := svc.Recent(ctx, tx, officerID, 5)
		for _, e := range entries {
			logs = append(logs, e.AfterJSON)
		}
		return err
	})
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(logs))
	}
	if logs[0] != `{"status":"completed"}` {
		t.Fatalf("expected newest first, got %s", logs[0])
	}
}

func TestWriteRollsBackWithCaller(t *testing.T) {
	db, officerID := openAuditDB(t)
	svc := NewService()

	_ = db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		if err := svc.Write(ctx, tx, officerID, ActionQueueExport, "outlet", "outlet-1", nil, nil); err != nil {
			return err
		}
		return context.Canceled
	})

	var count int
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM audit_logs`).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected audit row rolled back, got %d", count)
	}
}
