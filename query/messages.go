package query

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	sqlstore "github.com/goliatone/go-splist/store/sql"
)

const (
	TypeCurrentUser      = "splist.query.user.current"
	TypeSearchUsers      = "splist.query.user.search"
	TypeLoadListData     = "splist.query.list.load"
	TypeListErrorJournal = "splist.query.error_journal.list"
)

// CurrentUserMessage loads the signed-in profile. Refresh forces a reload
// even when the directory already holds one.
type CurrentUserMessage struct {
	Refresh bool
}

func (CurrentUserMessage) Type() string { return TypeCurrentUser }

func (CurrentUserMessage) Validate() error { return nil }

type SearchUsersMessage struct {
	Query string
}

func (SearchUsersMessage) Type() string { return TypeSearchUsers }

func (m SearchUsersMessage) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Query, validation.Required, validation.Length(1, 256)),
	)
	return queryWrapValidation(err, "query: search users validation failed")
}

type LoadListDataMessage struct{}

func (LoadListDataMessage) Type() string { return TypeLoadListData }

func (LoadListDataMessage) Validate() error { return nil }

type ListErrorJournalMessage struct {
	Filter sqlstore.JournalFilter
}

func (ListErrorJournalMessage) Type() string { return TypeListErrorJournal }

func (m ListErrorJournalMessage) Validate() error {
	filter := m.Filter
	err := validation.ValidateStruct(&filter,
		validation.Field(&filter.Page, validation.Min(0)),
		validation.Field(&filter.PerPage, validation.Min(0), validation.Max(500)),
	)
	if err == nil && filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		err = validation.Errors{"to": validation.NewError("validation_range", "must not be before from")}
	}
	return queryWrapValidation(err, "query: list error journal validation failed")
}
