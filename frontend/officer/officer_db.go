package officer

import (
	"context"
	"encoding/json"

	"github.com/uptrace/bun"

	"queueboard/infrastructure/audit"
	"queueboard/infrastructure/sqlite"
)

const recentActivityLimit = 8

type statusChange struct {
	Status string `json:"status"`
}

func auditStatusChange(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, officerID int64, token, from, to string) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var before any
		if from != "" {
			before = statusChange{Status: from}
		}
		return auditSvc.Write(ctx, tx, officerID, audit.ActionQueueStatusUpdate, "queue_token", token, before, statusChange{Status: to})
	})
}

// recordExportRun stores the export and its audit entry in one transaction.
func recordExportRun(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, officerID int64, outletID, exportType string, rowCount int) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var oid any
		if officerID > 0 {
			oid = officerID
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO export_runs (officer_id, outlet_id, export_type, row_count, created_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
			oid, outletID, exportType, rowCount); err != nil {
			return err
		}
		if officerID <= 0 {
			return nil
		}
		return auditSvc.Write(ctx, tx, officerID, audit.ActionQueueExport, "outlet", outletID, nil, map[string]any{"type": exportType, "rows": rowCount})
	})
}

func recentActivity(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, officerID int64) ([]Activity, error) {
	var out []Activity
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		logs, err := auditSvc.Recent(ctx, tx, officerID, recentActivityLimit)
		if err != nil {
			return err
		}
		out = make([]Activity, 0, len(logs))
		for _, l := range logs {
			a := Activity{When: l.CreatedAt.Local().Format("15:04"), Action: actionLabel(l.Action), Token: l.EntityID}
			var after statusChange
			if l.Action == audit.ActionQueueStatusUpdate && json.Unmarshal([]byte(l.AfterJSON), &after) == nil {
				a.Detail = statusLabel(after.Status)
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}

func actionLabel(action string) string {
	switch action {
	case audit.ActionQueueStatusUpdate:
		return "Status changed"
	case audit.ActionQueueExport:
		return "Queue exported"
	case audit.ActionLogin:
		return "Signed in"
	}
	return action
}
