package metrics

import (
	"context"
	"testing"

	"github.com/goliatone/go-splist/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder_CountersByLabel(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheusRecorder(registry)
	ctx := context.Background()

	recorder.IncCounter(ctx, core.MetricDigestRefresh, 1, map[string]string{"outcome": "success"})
	recorder.IncCounter(ctx, core.MetricDigestRefresh, 1, map[string]string{"outcome": "success"})
	recorder.IncCounter(ctx, core.MetricDigestRefresh, 1, map[string]string{"outcome": "fallback"})

	counter := recorder.counters["splist_digest_refresh_total"]
	if counter == nil {
		t.Fatalf("expected counter to be created")
	}
	if got := testutil.ToFloat64(counter.vec.WithLabelValues("success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(counter.vec.WithLabelValues("fallback")); got != 1 {
		t.Fatalf("expected 1 fallback, got %v", got)
	}
}

func TestPrometheusRecorder_HistogramObservations(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheusRecorder(registry)
	ctx := context.Background()
	tags := map[string]string{"resource": "users", "operation": "read_one", "status": "200"}

	recorder.ObserveHistogram(ctx, core.MetricRequestDuration, 12, tags)
	recorder.ObserveHistogram(ctx, core.MetricRequestDuration, 40, tags)

	histogram := recorder.histograms["splist_request_duration_ms"]
	if histogram == nil {
		t.Fatalf("expected histogram to be created")
	}
	if histogram.labels[0] != "operation" || histogram.labels[2] != "status" {
		t.Fatalf("expected sorted label names, got %v", histogram.labels)
	}
	if got := testutil.CollectAndCount(histogram.vec); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
}

func TestPrometheusRecorder_ToleratesLabelDrift(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheusRecorder(registry)
	ctx := context.Background()

	recorder.IncCounter(ctx, core.MetricErrorReport, 1, map[string]string{"outcome": "delivered"})
	recorder.IncCounter(ctx, core.MetricErrorReport, 1, map[string]string{"outcome": "failed", "extra": "x"})
	recorder.IncCounter(ctx, core.MetricErrorReport, 1, nil)

	counter := recorder.counters["splist_error_report_total"]
	if got := testutil.ToFloat64(counter.vec.WithLabelValues("")); got != 1 {
		t.Fatalf("expected missing label to record as empty, got %v", got)
	}
	if got := testutil.ToFloat64(counter.vec.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected extra label to be dropped, got %v", got)
	}
}

func TestPrometheusRecorder_SharesRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewPrometheusRecorder(registry)
	second := NewPrometheusRecorder(registry)
	ctx := context.Background()

	first.IncCounter(ctx, core.MetricTokenBootstrap, 1, map[string]string{"outcome": "success"})
	second.IncCounter(ctx, core.MetricTokenBootstrap, 1, map[string]string{"outcome": "success"})

	counter := first.counters["splist_token_bootstrap_total"]
	if got := testutil.ToFloat64(counter.vec.WithLabelValues("success")); got != 2 {
		t.Fatalf("expected shared counter total 2, got %v", got)
	}
}

func TestMetricName(t *testing.T) {
	if got := MetricName(" splist.request.duration_ms "); got != "splist_request_duration_ms" {
		t.Fatalf("unexpected metric name %q", got)
	}
}
