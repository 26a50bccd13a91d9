package core

import (
	"context"
	"strings"
)

const (
	MetricDigestRefresh   = "splist.digest.refresh.total"
	MetricDigestCacheHit  = "splist.digest.cache_hit.total"
	MetricTokenBootstrap  = "splist.token.bootstrap.total"
	MetricRequestTotal    = "splist.request.total"
	MetricRequestDuration = "splist.request.duration_ms"
	MetricErrorReport     = "splist.error_report.total"
)

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// EnsureMetrics never returns nil.
func EnsureMetrics(recorder MetricsRecorder) MetricsRecorder {
	if recorder == nil {
		return NopMetricsRecorder{}
	}
	return recorder
}

func RecordCounter(ctx context.Context, recorder MetricsRecorder, name string, tags map[string]string) {
	if recorder == nil {
		return
	}
	recorder.IncCounter(ctx, strings.TrimSpace(name), 1, cloneTags(tags))
}

func RecordHistogram(ctx context.Context, recorder MetricsRecorder, name string, value float64, tags map[string]string) {
	if recorder == nil {
		return
	}
	recorder.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
