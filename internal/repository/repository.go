package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sqlx.DB and *sqlx.Tx the SQL repositories use.
type DBTX interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
	DriverName() string
}
