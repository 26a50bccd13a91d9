// Package metrics exposes the client's counters and histograms to
// Prometheus.
package metrics

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-splist/core"
	"github.com/prometheus/client_golang/prometheus"
)

// DurationBuckets are in milliseconds.
var DurationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

type labeledCounter struct {
	vec    *prometheus.CounterVec
	labels []string
}

type labeledHistogram struct {
	vec    *prometheus.HistogramVec
	labels []string
}

// PrometheusRecorder creates one vector per metric name on first use. The
// label set is fixed by the tags of that first observation; later tags not
// in the set are dropped and missing ones are recorded as "".
type PrometheusRecorder struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*labeledCounter
	histograms map[string]*labeledHistogram
}

func NewPrometheusRecorder(registerer prometheus.Registerer) *PrometheusRecorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PrometheusRecorder{
		registerer: registerer,
		counters:   map[string]*labeledCounter{},
		histograms: map[string]*labeledHistogram{},
	}
}

func (r *PrometheusRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	counter, err := r.counter(name, tags)
	if err != nil {
		return
	}
	counter.vec.WithLabelValues(labelValues(counter.labels, tags)...).Add(float64(value))
}

func (r *PrometheusRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	histogram, err := r.histogram(name, tags)
	if err != nil {
		return
	}
	histogram.vec.WithLabelValues(labelValues(histogram.labels, tags)...).Observe(value)
}

func (r *PrometheusRecorder) counter(name string, tags map[string]string) (*labeledCounter, error) {
	metricName := MetricName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.counters[metricName]; ok {
		return existing, nil
	}
	labels := labelNames(tags)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName,
		Help: "splist counter " + name,
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		vec = existing
	}
	counter := &labeledCounter{vec: vec, labels: labels}
	r.counters[metricName] = counter
	return counter, nil
}

func (r *PrometheusRecorder) histogram(name string, tags map[string]string) (*labeledHistogram, error) {
	metricName := MetricName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.histograms[metricName]; ok {
		return existing, nil
	}
	labels := labelNames(tags)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName,
		Help:    "splist histogram " + name,
		Buckets: DurationBuckets,
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		vec = existing
	}
	histogram := &labeledHistogram{vec: vec, labels: labels}
	r.histograms[metricName] = histogram
	return histogram, nil
}

// MetricName converts a dotted metric name to a Prometheus one.
func MetricName(name string) string {
	name = strings.TrimSpace(name)
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}

func labelNames(tags map[string]string) []string {
	labels := make([]string, 0, len(tags))
	for key := range tags {
		key = MetricName(key)
		if key != "" {
			labels = append(labels, key)
		}
	}
	sort.Strings(labels)
	return labels
}

func labelValues(labels []string, tags map[string]string) []string {
	normalized := make(map[string]string, len(tags))
	for key, value := range tags {
		normalized[MetricName(key)] = value
	}
	values := make([]string, len(labels))
	for i, label := range labels {
		values[i] = normalized[label]
	}
	return values
}

var _ core.MetricsRecorder = (*PrometheusRecorder)(nil)
