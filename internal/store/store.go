// Package store persists the small amount of state kept between runs in a sqlite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
)

// MigrationAction selects the direction of a schema migration.
type MigrationAction int

const (
	MigrateUp MigrationAction = iota
	MigrateDown
)

const (
	memoryDSN   = ":memory:?cache=private"
	pingTimeout = 10 * time.Second
)

var (
	//go:embed migrations
	migrations embed.FS

	// Applied to file backed databases only.
	filePragmas = []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}

	ErrDBConnect = errors.New("db connect error")
	ErrMigrate   = errors.New("failed to migrate db schema")
)

// Open connects to the sqlite database at path, creating it if needed. An empty path opens a
// private in-memory database that lives as long as the returned handle.
func Open(ctx context.Context, path string, autoMigrate bool) (*sql.DB, error) {
	dsn := memoryDSN
	if path != "" {
		dsn = path + "?cache=private"
	}

	database, errOpen := sql.Open("sqlite", dsn)
	if errOpen != nil {
		return nil, errors.Join(errOpen, ErrDBConnect)
	}

	if errSetup := setup(ctx, database, dsn == memoryDSN); errSetup != nil {
		_ = database.Close()

		return nil, errSetup
	}

	if autoMigrate {
		if errMigrate := Migrate(database, MigrateUp); errMigrate != nil {
			_ = database.Close()

			return nil, errors.Join(errMigrate, ErrDBConnect)
		}
	}

	return database, nil
}

func setup(ctx context.Context, database *sql.DB, inMemory bool) error {
	if inMemory {
		// Every new connection would otherwise get its own empty database.
		database.SetMaxOpenConns(1)
	} else {
		database.SetMaxOpenConns(2)
		for _, pragma := range filePragmas {
			if _, errPragma := database.ExecContext(ctx, pragma); errPragma != nil {
				return errors.Join(errPragma, ErrDBConnect)
			}
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if errPing := database.PingContext(pingCtx); errPing != nil {
		return errors.Join(errPing, ErrDBConnect)
	}

	return nil
}

// Migrate applies every pending migration, or reverts all of them for MigrateDown. A schema that
// is already at the target version is not an error.
func Migrate(database *sql.DB, action MigrationAction) error {
	driver, errDriver := sqlite.WithInstance(database, &sqlite.Config{})
	if errDriver != nil {
		return errors.Join(errDriver, ErrMigrate)
	}

	source, errSource := httpfs.New(http.FS(migrations), "migrations")
	if errSource != nil {
		return errors.Join(errSource, ErrMigrate)
	}

	migrator, errMigrator := migrate.NewWithInstance("httpfs", source, "sqlite", driver)
	if errMigrator != nil {
		return errors.Join(errMigrator, ErrMigrate)
	}

	run := migrator.Up
	if action == MigrateDown {
		run = migrator.Down
	}

	if err := run(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Join(err, ErrMigrate)
	}

	return nil
}
