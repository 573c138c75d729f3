// Package database holds the schema migrations and the goose runner that
// applies them.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

func init() {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		panic(err)
	}
}

// Migrate applies all pending migrations to the database at dsn.
func Migrate(ctx context.Context, dsn string) error {
	return withDB(dsn, func(db *sql.DB) error {
		return MigrateDB(ctx, db)
	})
}

// Rollback reverts the most recently applied migration.
func Rollback(ctx context.Context, dsn string) error {
	return withDB(dsn, func(db *sql.DB) error {
		return RollbackDB(ctx, db)
	})
}

// Status prints the state of every migration.
func Status(ctx context.Context, dsn string) error {
	return withDB(dsn, func(db *sql.DB) error {
		if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		return nil
	})
}

// MigrateDB applies all pending migrations using an open connection.
func MigrateDB(ctx context.Context, db *sql.DB) error {
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// RollbackDB reverts the latest migration using an open connection.
func RollbackDB(ctx context.Context, db *sql.DB) error {
	if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

func withDB(dsn string, fn func(db *sql.DB) error) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return fn(db)
}
