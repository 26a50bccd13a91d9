package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-splist/core"
	"github.com/goliatone/go-splist/errorreport"
	sqlstore "github.com/goliatone/go-splist/store/sql"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var dbCounter atomic.Int64

func sqliteDSN(name string) string {
	return fmt.Sprintf("file:%s-%d?mode=memory&cache=shared&_foreign_keys=on", name, dbCounter.Add(1))
}

func newJournalStore(t *testing.T) *sqlstore.JournalStore {
	t.Helper()
	client, err := sqlstore.Open(context.Background(), core.JournalConfig{
		Driver: "sqlite",
		DSN:    sqliteDSN("journal"),
	})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.JournalStore()
	if store == nil {
		t.Fatalf("expected journal store from factory")
	}
	return store
}

func journalEntry(userID string, title string, createdAt time.Time) errorreport.JournalEntry {
	return errorreport.JournalEntry{
		Report: errorreport.Report{
			ID:          uuid.NewString(),
			Title:       title,
			Application: "MySSC",
			UserID:      userID,
			Location:    "/profile",
			Payload:     7,
			Message:     "boom",
		},
		Failure:   "list unavailable",
		CreatedAt: createdAt,
	}
}

func TestOpen_AppliesJournalMigration(t *testing.T) {
	client, err := sqlstore.Open(context.Background(), core.JournalConfig{
		Driver: "sqlite3",
		DSN:    sqliteDSN("journal-migrate"),
	})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer func() { _ = client.Close() }()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"splist_error_journal",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "splist_error_journal" {
		t.Fatalf("expected splist_error_journal table, got %q", tableName)
	}
}

func TestOpen_RejectsUnsupportedOrMissingConfig(t *testing.T) {
	if _, err := sqlstore.Open(context.Background(), core.JournalConfig{}); err == nil {
		t.Fatalf("expected error for disabled journal config")
	}
	if _, err := sqlstore.Open(context.Background(), core.JournalConfig{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestJournalStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := newJournalStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := journalEntry("u-1", "Save failed", base)
	second := journalEntry("u-1", "Search failed", base.Add(time.Minute))
	other := journalEntry("u-2", "Save failed", base.Add(2*time.Minute))
	for _, entry := range []errorreport.JournalEntry{first, second, other} {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("record entry: %v", err)
		}
	}

	page, err := store.List(ctx, sqlstore.JournalFilter{UserID: "u-1"})
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("expected 2 entries for u-1, got total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].Report.ID != second.Report.ID {
		t.Fatalf("expected newest entry first, got %q", page.Items[0].Report.ID)
	}
	got := page.Items[1]
	if got.Report.Title != "Save failed" || got.Report.Payload != "7" || got.Failure != "list unavailable" {
		t.Fatalf("unexpected journal entry %#v", got)
	}

	paged, err := store.List(ctx, sqlstore.JournalFilter{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if !paged.HasNext || paged.Total != 3 {
		t.Fatalf("expected next page with total=3, got %#v", paged)
	}
}

func TestJournalStore_RecordAssignsIDWhenMissing(t *testing.T) {
	ctx := context.Background()
	store := newJournalStore(t)

	entry := journalEntry("u-1", "Save failed", time.Time{})
	entry.Report.ID = "report-1"
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("record entry: %v", err)
	}
	page, err := store.List(ctx, sqlstore.JournalFilter{})
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one entry, got %d", len(page.Items))
	}
	if _, err := uuid.Parse(page.Items[0].Report.ID); err != nil {
		t.Fatalf("expected generated uuid id, got %q", page.Items[0].Report.ID)
	}
	if page.Items[0].CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestJournalStore_PruneByRowCap(t *testing.T) {
	ctx := context.Background()
	store := newJournalStore(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, journalEntry("u-1", "t", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("record entry %d: %v", i, err)
		}
	}

	deleted, err := store.Prune(ctx, sqlstore.RetentionPolicy{RowCap: 2})
	if err != nil {
		t.Fatalf("prune journal: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 pruned rows, got %d", deleted)
	}
	page, err := store.List(ctx, sqlstore.JournalFilter{})
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 remaining rows, got %d", page.Total)
	}
}

func TestJournalStore_PruneByTTL(t *testing.T) {
	ctx := context.Background()
	store := newJournalStore(t)

	now := time.Now().UTC()
	if err := store.Record(ctx, journalEntry("u-1", "old", now.Add(-48*time.Hour))); err != nil {
		t.Fatalf("record old entry: %v", err)
	}
	if err := store.Record(ctx, journalEntry("u-1", "new", now.Add(-time.Minute))); err != nil {
		t.Fatalf("record new entry: %v", err)
	}

	deleted, err := store.Prune(ctx, sqlstore.RetentionPolicy{TTL: 24 * time.Hour})
	if err != nil {
		t.Fatalf("prune journal: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 pruned row, got %d", deleted)
	}
}

func TestJournalStore_EnsureSchemaOnBareDB(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := sql.Open("sqlite3", sqliteDSN("journal-bare"))
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	defer func() { _ = db.Close() }()

	factory, err := sqlstore.NewRepositoryFactoryFromDB(db)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.JournalStore()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := store.Record(ctx, journalEntry("u-1", "t", time.Now().UTC())); err != nil {
		t.Fatalf("record entry: %v", err)
	}
}

func TestJournalStore_WiredIntoReporter(t *testing.T) {
	ctx := context.Background()
	store := newJournalStore(t)

	reporter := errorreport.NewReporter(errorreport.Config{Journal: store})
	reporter.Report(ctx, fmt.Errorf("boom"), "Save failed", "/profile", map[string]any{"ID": 3})

	page, err := store.List(ctx, sqlstore.JournalFilter{Title: "Save failed"})
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected undelivered report in journal, got %d", len(page.Items))
	}
	if page.Items[0].Report.Payload != `{"ID":3}` {
		t.Fatalf("unexpected payload %#v", page.Items[0].Report.Payload)
	}
}

func TestResolveFactoryRejectsUnknownClient(t *testing.T) {
	if _, err := sqlstore.NewRepositoryFactoryFromDB(nil); err == nil {
		t.Fatalf("expected nil db error")
	}
}
