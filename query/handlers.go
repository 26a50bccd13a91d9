package query

import (
	"context"

	"github.com/goliatone/go-splist/directory"
	sqlstore "github.com/goliatone/go-splist/store/sql"
)

type ProfileReader interface {
	Load(ctx context.Context) directory.Profile
	Current() directory.Profile
	Loaded() bool
}

type ProfileSearcher interface {
	Search(ctx context.Context, query string) []directory.Profile
}

type ListDataLoader interface {
	Load(ctx context.Context) directory.ListData
}

type ErrorJournalReader interface {
	List(ctx context.Context, filter sqlstore.JournalFilter) (sqlstore.JournalPage, error)
}

type CurrentUserQuery struct {
	reader ProfileReader
}

func NewCurrentUserQuery(reader ProfileReader) *CurrentUserQuery {
	return &CurrentUserQuery{reader: reader}
}

func (q *CurrentUserQuery) Query(ctx context.Context, msg CurrentUserMessage) (directory.Profile, error) {
	if q == nil || q.reader == nil {
		return directory.Profile{}, queryDependencyError("query: profile reader is required")
	}
	if msg.Refresh || !q.reader.Loaded() {
		return q.reader.Load(ctx), nil
	}
	return q.reader.Current(), nil
}

type SearchUsersQuery struct {
	searcher ProfileSearcher
}

func NewSearchUsersQuery(searcher ProfileSearcher) *SearchUsersQuery {
	return &SearchUsersQuery{searcher: searcher}
}

func (q *SearchUsersQuery) Query(ctx context.Context, msg SearchUsersMessage) ([]directory.Profile, error) {
	if q == nil || q.searcher == nil {
		return nil, queryDependencyError("query: profile searcher is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.searcher.Search(ctx, msg.Query), nil
}

type LoadListDataQuery struct {
	loader ListDataLoader
}

func NewLoadListDataQuery(loader ListDataLoader) *LoadListDataQuery {
	return &LoadListDataQuery{loader: loader}
}

func (q *LoadListDataQuery) Query(ctx context.Context, _ LoadListDataMessage) (directory.ListData, error) {
	if q == nil || q.loader == nil {
		return directory.ListData{}, queryDependencyError("query: list data loader is required")
	}
	return q.loader.Load(ctx), nil
}

type ListErrorJournalQuery struct {
	reader ErrorJournalReader
}

func NewListErrorJournalQuery(reader ErrorJournalReader) *ListErrorJournalQuery {
	return &ListErrorJournalQuery{reader: reader}
}

func (q *ListErrorJournalQuery) Query(ctx context.Context, msg ListErrorJournalMessage) (sqlstore.JournalPage, error) {
	if q == nil || q.reader == nil {
		return sqlstore.JournalPage{}, queryDependencyError("query: error journal reader is required")
	}
	if err := msg.Validate(); err != nil {
		return sqlstore.JournalPage{}, err
	}
	return q.reader.List(ctx, msg.Filter)
}
