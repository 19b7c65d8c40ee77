package login

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"queueboard/infrastructure/argon"
	"queueboard/infrastructure/rbac"
	"queueboard/infrastructure/sqlite"
	"queueboard/models"
)

// ErrInvalidCredentials is returned for unknown usernames and wrong passwords
// alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

func findOfficerByUsername(ctx context.Context, tx bun.Tx, username string) (models.Officer, error) {
	var officer models.Officer
	err := tx.NewSelect().
		Model(&officer).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		Limit(1).
		Scan(ctx)
	return officer, err
}

func authenticateOfficer(ctx context.Context, db *sqlite.DB, username, password string) (models.Officer, error) {
	var officer models.Officer
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		officer, err = findOfficerByUsername(ctx, tx, username)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Officer{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Officer{}, err
	}

	ok, err := argon.ComparePasswordAndHash(password, officer.PasswordHash)
	if err != nil {
		return models.Officer{}, err
	}
	if !ok {
		return models.Officer{}, ErrInvalidCredentials
	}

	if argon.NeedsRehash(officer.PasswordHash, argon.DefaultParams) {
		if err := rehashPassword(ctx, db, officer.ID, password); err != nil {
			slog.Warn("password rehash failed", slog.Int64("officer_id", officer.ID), slog.Any("err", err))
		}
	}
	return officer, nil
}

func rehashPassword(ctx context.Context, db *sqlite.DB, officerID int64, password string) error {
	hash, err := argon.CreateHash(password, argon.DefaultParams)
	if err != nil {
		return err
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.Officer)(nil)).
			Set("password_hash = ?", hash).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", officerID).
			Exec(ctx)
		return err
	})
}

func persistSession(ctx context.Context, db *sqlite.DB, session models.Session) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&models.Session{
			ID:        session.ID,
			OfficerID: session.OfficerID,
			ExpiresAt: session.ExpiresAt,
		}).Exec(ctx)
		return err
	})
}

func DeleteSessionByToken(ctx context.Context, db *sqlite.DB, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.Session)(nil)).Where("id = ?", token).Exec(ctx)
		return err
	})
}

// PurgeExpiredSessions removes expired session rows and returns how many
// were deleted.
func PurgeExpiredSessions(ctx context.Context, db *sqlite.DB) (int64, error) {
	var n int64
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*models.Session)(nil)).Where("expires_at < ?", time.Now()).Exec(ctx)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// LoadSessionByToken loads a live session with its officer. Expired sessions
// are deleted and reported as sql.ErrNoRows.
func LoadSessionByToken(ctx context.Context, db *sqlite.DB, token string) (models.Session, error) {
	var session models.Session
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&session).
			Relation("Officer").
			Where("s.id = ?", token).
			Limit(1).
			Scan(ctx)
	})
	if err != nil {
		return models.Session{}, err
	}
	if session.Expired() {
		_ = DeleteSessionByToken(ctx, db, token)
		return models.Session{}, sql.ErrNoRows
	}
	session.UserRoles = rbac.Expand(session.Officer.Role)
	return session, nil
}

// OfficerInput describes an officer account to create or update.
type OfficerInput struct {
	Username    string
	DisplayName string
	Role        string
	Password    string
	// APIToken is the officer's bearer token for the queue backend.
	APIToken string
}

// UpsertOfficer creates the officer or replaces its password, role and
// backend token.
func UpsertOfficer(ctx context.Context, db *sqlite.DB, in OfficerInput) error {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return errors.New("username is required")
	}
	if !rbac.ValidRole(in.Role) {
		return fmt.Errorf("unknown role %q", in.Role)
	}
	password := strings.TrimSpace(in.Password)
	if password == "" {
		return errors.New("password is required")
	}
	if err := ValidatePasswordPolicy(password); err != nil {
		return err
	}
	hash, err := argon.CreateHash(password, argon.DefaultParams)
	if err != nil {
		return err
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	now := time.Now()
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO officers (username, display_name, password_hash, role, api_token, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
  display_name = excluded.display_name,
  password_hash = excluded.password_hash,
  role = excluded.role,
  api_token = excluded.api_token,
  updated_at = excluded.updated_at`, username, displayName, hash, in.Role, strings.TrimSpace(in.APIToken), now, now)
		return err
	})
}
