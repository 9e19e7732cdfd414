package db

import (
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var EmbedMigrations embed.FS

// Pool is nil when no database is configured; callers must check before using it.
var Pool *pgxpool.Pool

// Enabled reports whether a database connection is available.
func Enabled() bool {
	return Pool != nil
}
