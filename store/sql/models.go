package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type journalRecord struct {
	bun.BaseModel `bun:"table:splist_error_journal,alias:sej"`

	ID          string    `bun:"id,pk"`
	Title       string    `bun:"title,notnull"`
	Application string    `bun:"application,notnull"`
	UserID      string    `bun:"user_id,notnull"`
	Location    string    `bun:"location,notnull"`
	Payload     string    `bun:"payload,notnull"`
	Message     string    `bun:"message,notnull"`
	Failure     string    `bun:"failure,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
