package sqlstore

import "github.com/goliatone/go-splist/errorreport"

var _ errorreport.Journal = (*JournalStore)(nil)
