package sqldb

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// Migrate applies every pending schema migration for the pool's dialect.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := "migrations/sqlite"
	if cp.driver == DriverPostgres {
		dir = "migrations/postgres"
	}

	source, err := iofs.New(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("sqldb: open migrations: %w", err)
	}
	defer source.Close()

	var driver database.Driver
	switch cp.driver {
	case DriverPostgres:
		driver, err = pgxmigrate.WithInstance(cp.db.DB, &pgxmigrate.Config{})
	default:
		driver, err = sqlitemigrate.WithInstance(cp.db.DB, &sqlitemigrate.Config{})
	}
	if err != nil {
		return fmt.Errorf("sqldb: prepare migration driver: %w", err)
	}

	// The migrate instance is not closed: closing it would close the shared *sql.DB.
	m, err := migrate.NewWithInstance("iofs", source, cp.driver, driver)
	if err != nil {
		return fmt.Errorf("sqldb: create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqldb: apply migrations: %w", err)
	}
	return nil
}
