// Package migration applies the dashboard's embedded schema migrations in
// sequential order, tracking applied versions in a schema_migrations table.
package migration

import (
	"context"
	"time"
)

// Migration represents a single schema migration compiled into the binary.
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// AppliedMigration records a migration that has been executed.
type AppliedMigration struct {
	Version   string
	AppliedAt time.Time
}

// Executor handles the execution of migrations against the database.
type Executor interface {
	// InitializeVersionTable creates the schema_migrations table if needed.
	InitializeVersionTable(ctx context.Context) error
	// ExecuteMigration runs a single migration and records its version
	// within one transaction.
	ExecuteMigration(ctx context.Context, migration Migration) error
	// AppliedVersions returns the versions already recorded, ascending.
	AppliedVersions(ctx context.Context) ([]string, error)
}
