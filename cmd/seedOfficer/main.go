package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"queueboard/frontend/login"
	"queueboard/infrastructure/config"
	"queueboard/infrastructure/rbac"
	"queueboard/infrastructure/sqlite"
)

func main() {
	cfg := config.Load()

	in := login.OfficerInput{
		Username:    getenv("OFFICER_USERNAME", "supervisor"),
		DisplayName: os.Getenv("OFFICER_DISPLAY_NAME"),
		Role:        getenv("OFFICER_ROLE", rbac.RoleSupervisor),
		Password:    getenv("OFFICER_PASSWORD", "Supervisor123!Queue"),
		APIToken:    os.Getenv("OFFICER_API_TOKEN"),
	}
	if err := seed(context.Background(), cfg.SQLitePath, in); err != nil {
		log.Fatalf("seed officer: %v", err)
	}

	fmt.Printf("seeded officer (username=%s role=%s)\n", in.Username, in.Role)
}

// seed opens the database, brings the schema up to date and upserts the
// officer.
func seed(ctx context.Context, dbPath string, in login.OfficerInput) error {
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := sqlite.ApplyEmbeddedMigrations(ctx, db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return login.UpsertOfficer(ctx, db, in)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
