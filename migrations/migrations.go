package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed *.sql
var files embed.FS

// Up applies every embedded migration that is not yet recorded in
// schema_migrations. Each file runs in its own transaction.
func Up(ctx context.Context, db *sqlx.DB, log logger.ZapLogger) error {
	if _, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version    TEXT PRIMARY KEY,
            applied_at TIMESTAMP NOT NULL
        )`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")

		var applied int
		if err := db.GetContext(ctx, &applied, db.Rebind(`SELECT count(*) FROM schema_migrations WHERE version = ?`), version); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		body, err := files.ReadFile(name)
		if err != nil {
			return err
		}
		if err := apply(ctx, db, version, string(body)); err != nil {
			return err
		}
		log.Info("Applied migration", zap.String("version", version))
	}
	return nil
}

func apply(ctx context.Context, db *sqlx.DB, version, body string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(body, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %s failed: %w", version, err)
		}
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`), version, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", version, err)
	}
	return tx.Commit()
}
