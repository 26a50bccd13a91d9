package errorreport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-splist/odata"
)

const (
	DefaultPayload = "no payload"
	UnknownUser    = "No User Data Loaded"
)

type Report struct {
	ID          string `json:"id"`
	Title       string `json:"Title"`
	Application string `json:"application"`
	UserID      string `json:"userID"`
	Location    string `json:"location"`
	Payload     any    `json:"payload"`
	Message     string `json:"message"`
}

// Item renders the report as an errors list payload.
func (r Report) Item() odata.Item {
	return odata.Item{
		"Title":       r.Title,
		"application": r.Application,
		"userID":      r.UserID,
		"location":    r.Location,
		"payload":     r.Payload,
		"message":     r.Message,
	}
}

func (r Report) PayloadString() string {
	switch value := r.Payload.(type) {
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

// UserIDSource resolves the identifier of the user the report is about.
type UserIDSource interface {
	UserID(ctx context.Context) string
}

type UserIDFunc func(ctx context.Context) string

func (f UserIDFunc) UserID(ctx context.Context) string {
	if f == nil {
		return ""
	}
	return f(ctx)
}

// Creator is the write side of the errors resource.
type Creator interface {
	Create(ctx context.Context, payload odata.Item) (odata.Item, error)
}

// JournalEntry is a report that could not be delivered.
type JournalEntry struct {
	Report    Report
	Failure   string
	CreatedAt time.Time
}

type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
}

// normalizePayload keeps strings and numbers as they are and JSON-encodes
// anything else.
func normalizePayload(payload []any) any {
	if len(payload) == 0 || payload[0] == nil {
		return DefaultPayload
	}
	switch value := payload[0].(type) {
	case string:
		if strings.TrimSpace(value) == "" {
			return DefaultPayload
		}
		return value
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return value
	case json.Number:
		return value
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	}
}
