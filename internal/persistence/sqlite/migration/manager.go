package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Manager orchestrates the migration process over an embedded migration set.
type Manager struct {
	executor   Executor
	migrations []Migration
	logger     *slog.Logger
}

// NewManager creates a Manager. Migrations may be supplied in any order;
// they are applied sorted by version.
func NewManager(executor Executor, migrations []Migration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })
	return &Manager{executor: executor, migrations: ordered, logger: logger}
}

// Run executes all pending migrations in sequential order.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.logger.InfoContext(ctx, "schema up to date", "migrations", len(m.migrations))
		return nil
	}

	for _, migration := range pending {
		m.logger.InfoContext(ctx, "applying migration", "version", migration.Version, "description", migration.Description)
		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			return err
		}
	}

	m.logger.InfoContext(ctx, "migrations applied", "count", len(pending))
	return nil
}

// Pending returns the migrations that have not yet been applied.
func (m *Manager) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.executor.AppliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(applied))
	for _, version := range applied {
		seen[version] = struct{}{}
	}

	var pending []Migration
	for _, migration := range m.migrations {
		if _, ok := seen[migration.Version]; !ok {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}
