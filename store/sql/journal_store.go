package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-splist/errorreport"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const journalTable = "splist_error_journal"

type JournalFilter struct {
	UserID  string
	Title   string
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

type JournalPage struct {
	Items   []errorreport.JournalEntry
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

// RetentionPolicy bounds the journal by age, row count, or both.
type RetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

// JournalStore keeps error reports that could not be delivered.
type JournalStore struct {
	db   *bun.DB
	repo repository.Repository[*journalRecord]
	now  func() time.Time
}

func NewJournalStore(db *bun.DB) (*JournalStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*journalRecord](db, journalHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid journal repository wiring: %w", err)
		}
	}
	return &JournalStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// EnsureSchema creates the journal table when migrations were not applied.
func (s *JournalStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: journal store is not configured")
	}
	_, err := s.db.NewCreateTable().
		Model((*journalRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (s *JournalStore) Record(ctx context.Context, entry errorreport.JournalEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: journal store is not configured")
	}
	id := strings.TrimSpace(entry.Report.ID)
	if parseUUID(id) == uuid.Nil {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if entry.CreatedAt.IsZero() {
		createdAt = s.now()
	}
	record := &journalRecord{
		ID:          id,
		Title:       strings.TrimSpace(entry.Report.Title),
		Application: strings.TrimSpace(entry.Report.Application),
		UserID:      strings.TrimSpace(entry.Report.UserID),
		Location:    strings.TrimSpace(entry.Report.Location),
		Payload:     entry.Report.PayloadString(),
		Message:     entry.Report.Message,
		Failure:     strings.TrimSpace(entry.Failure),
		CreatedAt:   createdAt,
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

// List returns journal entries newest first.
func (s *JournalStore) List(ctx context.Context, filter JournalFilter) (JournalPage, error) {
	if s == nil || s.repo == nil {
		return JournalPage{}, fmt.Errorf("sqlstore: journal store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		selectors = append(selectors, repository.SelectBy("user_id", "=", userID))
	}
	if title := strings.TrimSpace(filter.Title); title != "" {
		selectors = append(selectors, repository.SelectBy("title", "=", title))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return JournalPage{}, err
	}
	items := make([]errorreport.JournalEntry, 0, len(records))
	for _, record := range records {
		items = append(items, journalRecordToEntry(record))
	}
	return JournalPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

func (s *JournalStore) Prune(ctx context.Context, policy RetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: journal store is not configured")
	}
	deleted := 0

	if policy.TTL > 0 {
		cutoff := s.now().Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*journalRecord)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*journalRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		excess := total - policy.RowCap
		if excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM "+journalTable+" WHERE id IN (SELECT id FROM "+journalTable+" ORDER BY created_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

func journalRecordToEntry(record *journalRecord) errorreport.JournalEntry {
	if record == nil {
		return errorreport.JournalEntry{}
	}
	return errorreport.JournalEntry{
		Report: errorreport.Report{
			ID:          record.ID,
			Title:       record.Title,
			Application: record.Application,
			UserID:      record.UserID,
			Location:    record.Location,
			Payload:     record.Payload,
			Message:     record.Message,
		},
		Failure:   record.Failure,
		CreatedAt: record.CreatedAt,
	}
}
