package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-splist/core"
	"github.com/goliatone/go-splist/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

type RepositoryFactory struct {
	db           *bun.DB
	journalStore *JournalStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.journalStore != nil {
		return nil
	}
	journalStore, err := NewJournalStore(f.db)
	if err != nil {
		return err
	}
	f.journalStore = journalStore
	return nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) JournalStore() *JournalStore {
	if f == nil {
		return nil
	}
	return f.journalStore
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

type persistenceConfig struct {
	driver string
	server string
	debug  bool
}

func (c persistenceConfig) GetDebug() bool {
	return c.debug
}

func (c persistenceConfig) GetDriver() string {
	return c.driver
}

func (c persistenceConfig) GetServer() string {
	return c.server
}

func (c persistenceConfig) GetPingTimeout() time.Duration {
	return 5 * time.Second
}

func (c persistenceConfig) GetOtelIdentifier() string {
	return "go-splist"
}

// Open connects to the journal database described by cfg and applies the
// embedded migrations for its dialect.
func Open(ctx context.Context, cfg core.JournalConfig) (*persistence.Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("sqlstore: journal driver and dsn are required")
	}
	driver := sqlDriverName(cfg.Driver)
	dialectName, err := migrations.DialectFor(driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, strings.TrimSpace(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	var dialect schema.Dialect
	switch dialectName {
	case migrations.DialectSQLite:
		sqlDB.SetMaxOpenConns(1)
		dialect = sqlitedialect.New()
	default:
		dialect = pgdialect.New()
	}

	client, err := persistence.New(persistenceConfig{driver: driver, server: cfg.DSN}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	err = migrations.Register(ctx, func(_ context.Context, source migrations.Source) error {
		client.RegisterSQLMigrations(source.FS)
		return nil
	}, dialectName)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return client, nil
}

func sqlDriverName(driver string) string {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "postgres", "postgresql":
		return "postgres"
	default:
		return strings.TrimSpace(strings.ToLower(driver))
	}
}
