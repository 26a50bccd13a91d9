package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-splist/directory"
	sqlstore "github.com/goliatone/go-splist/store/sql"
)

var (
	_ gocmd.Querier[CurrentUserMessage, directory.Profile]         = (*CurrentUserQuery)(nil)
	_ gocmd.Querier[SearchUsersMessage, []directory.Profile]       = (*SearchUsersQuery)(nil)
	_ gocmd.Querier[LoadListDataMessage, directory.ListData]       = (*LoadListDataQuery)(nil)
	_ gocmd.Querier[ListErrorJournalMessage, sqlstore.JournalPage] = (*ListErrorJournalQuery)(nil)
	_ ProfileReader                                                = (*directory.Directory)(nil)
	_ ProfileSearcher                                              = (*directory.Directory)(nil)
	_ ListDataLoader                                               = (*directory.ListLoader)(nil)
	_ ErrorJournalReader                                           = (*sqlstore.JournalStore)(nil)
)
