package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Clock returns the current time. Nil means time.Now in UTC.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}

type TransportRequest struct {
	Method   string
	URL      string
	Headers  Headers
	Query    map[string]string
	Body     []byte
	Metadata map[string]any
	Timeout  time.Duration
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

func (r TransportResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}
