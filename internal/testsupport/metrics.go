package testsupport

import (
	"context"
	"sync"
)

type Counter struct {
	Name  string
	Value int64
	Tags  map[string]string
}

type Histogram struct {
	Name  string
	Value float64
	Tags  map[string]string
}

type CaptureMetrics struct {
	mu         sync.Mutex
	counters   []Counter
	histograms []Histogram
}

func (m *CaptureMetrics) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, Counter{Name: name, Value: value, Tags: cloneTags(tags)})
}

func (m *CaptureMetrics) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, Histogram{Name: name, Value: value, Tags: cloneTags(tags)})
}

// CounterTotal sums counter values for name whose tags include match.
func (m *CaptureMetrics) CounterTotal(name string, match map[string]string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, counter := range m.counters {
		if counter.Name != name || !tagsMatch(counter.Tags, match) {
			continue
		}
		total += counter.Value
	}
	return total
}

func (m *CaptureMetrics) Histograms(name string) []Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Histogram{}
	for _, histogram := range m.histograms {
		if histogram.Name == name {
			out = append(out, histogram)
		}
	}
	return out
}

func tagsMatch(tags map[string]string, match map[string]string) bool {
	for key, value := range match {
		if tags[key] != value {
			return false
		}
	}
	return true
}

func cloneTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
