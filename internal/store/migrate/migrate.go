// Package migrate applies the embedded schema migrations with goose.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrations embed.FS

// Dialect names a supported database flavour.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Up applies every pending migration for the dialect.
// It returns the number of migrations applied.
func Up(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) (int, error) {
	const op = "migrate.Up"

	gooseDialect, dir, err := resolve(dialect)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("%s: new provider: %w", op, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, r := range results {
		if logger != nil {
			logger.Info("Applied migration",
				"dialect", string(dialect),
				"version", r.Source.Version,
				"duration", r.Duration,
			)
		}
	}

	return len(results), nil
}

func resolve(dialect Dialect) (goose.Dialect, string, error) {
	switch dialect {
	case SQLite:
		return goose.DialectSQLite3, "sqlite", nil
	case Postgres:
		return goose.DialectPostgres, "postgres", nil
	default:
		return "", "", fmt.Errorf("unsupported dialect %q", dialect)
	}
}
