package data

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// Migrate applies pending schema migrations for the store's dialect. It is
// idempotent and safe to call on every start. s.DB stays open afterwards.
func (s *SQLStore) Migrate(ctx context.Context, logger *slog.Logger) error {
	source, err := iofs.New(migrationFS, "migrations/"+string(s.Dialect))
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("failed to close migration source", "error", err)
		}
	}()

	// Both drivers close whatever *sql.DB they are given, so m.Close is
	// never called. Postgres migrates over its own connection instead.
	var driver database.Driver
	switch s.Dialect {
	case Postgres:
		conn, connErr := s.DB.Conn(ctx)
		if connErr != nil {
			return fmt.Errorf("failed to reserve migration connection: %w", connErr)
		}
		defer conn.Close()
		driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
	case SQLite:
		driver, err = sqlite.WithInstance(s.DB, &sqlite.Config{})
	default:
		err = fmt.Errorf("unsupported dialect %q", s.Dialect)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(s.Dialect), driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("applied migrations successfully", "version", version)
	return nil
}
