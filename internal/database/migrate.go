package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// RunMigrations applies all pending up migrations.
func RunMigrations(db *sqlx.DB, driver string, log *zap.Logger) error {
	if driver == DriverOracle {
		return execMigrationFiles(db, ".up.sql", false, log)
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not apply migrations: %w", err)
	}
	log.Info("Migrations completed successfully", zap.String("driver", driver))
	return nil
}

// RollbackMigrations reverts every applied migration.
func RollbackMigrations(db *sqlx.DB, driver string, log *zap.Logger) error {
	if driver == DriverOracle {
		return execMigrationFiles(db, ".down.sql", true, log)
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not roll back migrations: %w", err)
	}
	log.Info("Migrations rolled back", zap.String("driver", driver))
	return nil
}

// newMigrator wraps the shared handle. The migrator is never closed because
// closing it would close db as well.
func newMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not read embedded migrations: %w", err)
	}
	target, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not prepare sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, DriverSQLite, target)
	if err != nil {
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	return m, nil
}

// execMigrationFiles runs each embedded file with the given suffix. Oracle
// has no migrate driver here, so objects that already exist (ORA-00955) or are
// already gone (ORA-00942, ORA-01418) are treated as applied.
func execMigrationFiles(db *sqlx.DB, suffix string, reverse bool, log *zap.Logger) error {
	names, err := fs.Glob(migrationFS, "migrations/*"+suffix)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}
	sort.Strings(names)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}

	for _, name := range names {
		content, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		stmt := strings.TrimSpace(string(content))
		if _, err := db.Exec(stmt); err != nil {
			if alreadyApplied(err) {
				log.Info("Skipping applied migration", zap.String("file", name))
				continue
			}
			return fmt.Errorf("could not execute migration %s: %w", name, err)
		}
		log.Info("Executed migration", zap.String("file", name))
	}
	return nil
}

func alreadyApplied(err error) bool {
	msg := err.Error()
	for _, code := range []string{"ORA-00955", "ORA-00942", "ORA-01418"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
