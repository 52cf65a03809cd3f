package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SchemaVersion is the version row scripts/initdb.sql writes to orthoscan_meta.
const SchemaVersion = 1

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// EnsureBootstrapped runs the embedded schema unless the meta table already records
// the current version.
func EnsureBootstrapped(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctxBoot, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'orthoscan_meta'
		)`).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("meta table check failed: %w", err)
	}

	if !exists {
		log.Info("bootstrapping schema", zap.Int("version", SchemaVersion))
		return runBootstrap(ctxBoot, db)
	}

	var hasVersion bool
	if err := db.QueryRowContext(ctxBoot,
		`SELECT EXISTS (SELECT 1 FROM orthoscan_meta WHERE version = $1)`, SchemaVersion,
	).Scan(&hasVersion); err != nil {
		return fmt.Errorf("meta version check failed: %w", err)
	}
	if !hasVersion {
		log.Info("schema version missing, re-running bootstrap", zap.Int("version", SchemaVersion))
		return runBootstrap(ctxBoot, db)
	}

	log.Debug("schema up to date", zap.Int("version", SchemaVersion))
	return nil
}

func runBootstrap(ctx context.Context, db *sql.DB) error {
	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}
