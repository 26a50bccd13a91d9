package errorreport

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-splist/core"
	"github.com/google/uuid"
)

const (
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed"
	outcomeDropped   = "dropped"
)

type Config struct {
	Application    string
	Sink           Creator
	Users          UserIDSource
	Journal        Journal
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
	Metrics        core.MetricsRecorder
	Now            func() time.Time
	NewID          func() string
}

type Reporter struct {
	application string
	sink        Creator
	users       UserIDSource
	journal     Journal
	logger      core.Logger
	metrics     core.MetricsRecorder
	now         func() time.Time
	newID       func() string
}

func NewReporter(cfg Config) *Reporter {
	application := strings.TrimSpace(cfg.Application)
	if application == "" {
		application = core.DefaultApplication
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Reporter{
		application: application,
		sink:        cfg.Sink,
		users:       cfg.Users,
		journal:     cfg.Journal,
		logger:      core.ResolveLogger("splist.errorreport", cfg.LoggerProvider, cfg.Logger),
		metrics:     core.EnsureMetrics(cfg.Metrics),
		now:         now,
		newID:       newID,
	}
}

// Report submits err to the errors resource. Values that are not errors are
// ignored. Delivery failures are logged and journaled, never returned.
func (r *Reporter) Report(ctx context.Context, err any, title string, location string, payload ...any) {
	if r == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cause, ok := err.(error)
	if !ok || isNilError(cause) {
		core.RecordCounter(ctx, r.metrics, core.MetricErrorReport, map[string]string{"outcome": outcomeDropped})
		return
	}
	r.Submit(ctx, r.Build(ctx, cause, title, location, payload...))
}

// Build assembles the report for cause without sending it.
func (r *Reporter) Build(ctx context.Context, cause error, title string, location string, payload ...any) Report {
	message := ""
	if !isNilError(cause) {
		message = cause.Error()
	}
	return Report{
		ID:          r.newID(),
		Title:       strings.TrimSpace(title),
		Application: r.application,
		UserID:      r.userID(ctx),
		Location:    strings.TrimSpace(location),
		Payload:     normalizePayload(payload),
		Message:     message,
	}
}

// isNilError also catches nil pointers stored in a non-nil error interface.
func isNilError(err error) bool {
	if err == nil {
		return true
	}
	value := reflect.ValueOf(err)
	switch value.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return value.IsNil()
	}
	return false
}

// Submit makes a single delivery attempt for report.
func (r *Reporter) Submit(ctx context.Context, report Report) {
	fields := map[string]any{
		"report_id": report.ID,
		"title":     report.Title,
		"location":  report.Location,
		"message":   report.Message,
	}
	core.Log(ctx, r.logger, core.LevelError, report.Message, fields)

	err := r.deliver(ctx, report)
	if err == nil {
		core.RecordCounter(ctx, r.metrics, core.MetricErrorReport, map[string]string{"outcome": outcomeDelivered})
		core.Log(ctx, r.logger, core.LevelDebug, "error report delivered", fields)
		return
	}

	core.RecordCounter(ctx, r.metrics, core.MetricErrorReport, map[string]string{"outcome": outcomeFailed})
	fields["error"] = err.Error()
	core.Log(ctx, r.logger, core.LevelWarn, "error report delivery failed", fields)
	r.record(ctx, report, err)
}

func (r *Reporter) deliver(ctx context.Context, report Report) error {
	if r.sink == nil {
		return errNoSink
	}
	_, err := r.sink.Create(ctx, report.Item())
	return err
}

func (r *Reporter) record(ctx context.Context, report Report, failure error) {
	if r.journal == nil {
		return
	}
	entry := JournalEntry{
		Report:    report,
		Failure:   failure.Error(),
		CreatedAt: r.now(),
	}
	if err := r.journal.Record(ctx, entry); err != nil {
		core.Log(ctx, r.logger, core.LevelWarn, "error report journal write failed", map[string]any{
			"report_id": report.ID,
			"error":     err.Error(),
		})
	}
}

func (r *Reporter) userID(ctx context.Context) string {
	if r.users == nil {
		return UnknownUser
	}
	if id := strings.TrimSpace(r.users.UserID(ctx)); id != "" {
		return id
	}
	return UnknownUser
}
