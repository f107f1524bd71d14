// Package metrics holds the evaluation counters and timings recorded by the
// analysis service.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/runnerr0/trailscope/internal/filter"
)

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	filterFailures *prometheus.CounterVec
	records        *prometheus.CounterVec
	duration       *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		filterFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trailscope",
				Name:      "filter_failures_total",
				Help:      "Filters that could not be prepared for evaluation, by reason.",
			},
			[]string{"reason"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trailscope",
				Name:      "partitioned_records_total",
				Help:      "Records placed in each partition bucket.",
			},
			[]string{"bucket"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "trailscope",
				Name:      "aggregation_duration_seconds",
				Help:      "Time spent computing each aggregation.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"aggregation"},
		),
	}

	for _, c := range []prometheus.Collector{m.filterFailures, m.records, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Reason classifies a filter preparation failure.
func Reason(err error) string {
	switch {
	case errors.Is(err, filter.ErrBadPattern):
		return "bad_pattern"
	case errors.Is(err, filter.ErrListNotFound):
		return "list_not_found"
	}
	return "other"
}

// FilterFailed counts one filter that failed to compile.
func (m *Metrics) FilterFailed(err error) {
	if m == nil {
		return
	}
	m.filterFailures.WithLabelValues(Reason(err)).Inc()
}

// Partitioned counts the records placed in each bucket.
func (m *Metrics) Partitioned(removed, highlighted, plain int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues("removed").Add(float64(removed))
	m.records.WithLabelValues("highlighted").Add(float64(highlighted))
	m.records.WithLabelValues("plain").Add(float64(plain))
}

// Since records the time elapsed since start for an aggregation.
func (m *Metrics) Since(aggregation string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(aggregation).Observe(time.Since(start).Seconds())
}
