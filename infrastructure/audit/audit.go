package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"queueboard/models"
)

// Actions recorded for officer activity.
const (
	ActionQueueStatusUpdate = "queue_status_update"
	ActionQueueExport       = "queue_export"
	ActionLogin             = "login"
)

// Service writes audit records inside the caller transaction.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Write(ctx context.Context, tx bun.Tx, officerID int64, action, entityType, entityID string, before, after any) error {
	beforeJSON, err := marshal(before)
	if err != nil {
		return fmt.Errorf("marshal audit before: %w", err)
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return fmt.Errorf("marshal audit after: %w", err)
	}
	_, err = tx.NewInsert().Model(&models.AuditLog{
		OfficerID:  officerID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}).Exec(ctx)
	return err
}

// Recent lists an officer's latest audit entries, newest first.
func (s *Service) Recent(ctx context.Context, tx bun.Tx, officerID int64, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 10
	}
	logs := make([]models.AuditLog, 0, limit)
	err := tx.NewSelect().
		Model(&logs).
		Where("officer_id = ?", officerID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	return logs, err
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
