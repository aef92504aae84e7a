package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/sijms/go-ora/v2" // Oracle driver
	_ "modernc.org/sqlite"         // SQLite driver
)

// Supported history drivers. The names are the database/sql driver names
// registered by go-ora and modernc.org/sqlite.
const (
	DriverSQLite = "sqlite"
	DriverOracle = "oracle"
)

func init() {
	// Queries are written with ? placeholders and passed through Rebind.
	sqlx.BindDriver(DriverOracle, sqlx.NAMED)
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the attempt-history database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverOracle:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// A single connection serializes writers and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	return db, nil
}
