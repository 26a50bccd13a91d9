package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Source is the journal migration set for one dialect.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type RegisterFunc func(ctx context.Context, source Source) error

// Sources resolves the per dialect migration directories. Postgres files sit
// at the root, sqlite alternatives under sqlite/.
func Sources(root ...fs.FS) ([]Source, error) {
	base := GetMigrationsFS()
	if len(root) > 0 && root[0] != nil {
		base = root[0]
	}
	if info, err := fs.Stat(base, "data/sql/migrations"); err == nil && info.IsDir() {
		sub, subErr := fs.Sub(base, "data/sql/migrations")
		if subErr != nil {
			return nil, fmt.Errorf("migrations: resolve data/sql/migrations: %w", subErr)
		}
		base = sub
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: ".", FS: base},
		{Dialect: DialectSQLite, Path: "sqlite", FS: sqliteFS},
	}
	for _, source := range sources {
		matches, globErr := fs.Glob(source.FS, "*.up.sql")
		if globErr != nil {
			return nil, fmt.Errorf("migrations: glob %s: %w", source.Dialect, globErr)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("migrations: %s has no *.up.sql files", source.Dialect)
		}
	}
	return sources, nil
}

// Register hands the embedded source for dialect to registerFn.
func Register(ctx context.Context, registerFn RegisterFunc, dialect string) error {
	if registerFn == nil {
		return fmt.Errorf("migrations: register function is required")
	}
	dialect = strings.TrimSpace(strings.ToLower(dialect))
	sources, err := Sources()
	if err != nil {
		return err
	}
	for _, source := range sources {
		if source.Dialect != dialect {
			continue
		}
		if err := registerFn(ctx, source); err != nil {
			return fmt.Errorf("migrations: register %s: %w", source.Dialect, err)
		}
		return nil
	}
	return fmt.Errorf("migrations: no source for dialect %q", dialect)
}

// DialectFor maps a database/sql driver name to its migration dialect.
func DialectFor(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}
