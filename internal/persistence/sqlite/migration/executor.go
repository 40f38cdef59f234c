package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sqlExecutor implements Executor over a database/sql handle.
type sqlExecutor struct {
	db *sql.DB
}

// NewExecutor creates an Executor bound to the given database handle.
func NewExecutor(db *sql.DB) Executor {
	return &sqlExecutor{db: db}
}

func (e *sqlExecutor) InitializeVersionTable(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`
	if _, err := e.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

func (e *sqlExecutor) ExecuteMigration(ctx context.Context, migration Migration) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %s failed: %w", migration.Version, err)
	}

	const record = `INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, record, migration.Version, migration.Description, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", migration.Version, err)
	}
	return nil
}

func (e *sqlExecutor) AppliedVersions(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migration versions: %w", err)
	}
	return versions, nil
}
