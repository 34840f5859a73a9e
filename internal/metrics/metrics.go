// Package metrics holds the Prometheus collectors for a scoring run.
// The CLI is a batch job, so collectors are dumped to a textfile at the end
// of a run instead of being served over HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	patientsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hccscore_patients_scored_total",
			Help: "Total number of per-year patient scores computed",
		},
		[]string{"year", "status"},
	)

	patientsUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hccscore_patients_unavailable_total",
			Help: "Total number of per-year patient scores that could not be computed",
		},
		[]string{"year", "reason"},
	)

	lookupMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hccscore_lookup_misses_total",
			Help: "Total number of coefficient lookups that resolved to no value",
		},
		[]string{"kind", "status"},
	)

	fieldErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hccscore_member_field_errors_total",
			Help: "Total number of member fields that failed to parse",
		},
		[]string{"field"},
	)

	phaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hccscore_phase_duration_seconds",
			Help:    "Duration of each run phase in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"phase"},
	)
)

// RecordScore counts a computed per-year score.
func RecordScore(year int, status string) {
	patientsScored.WithLabelValues(strconv.Itoa(year), status).Inc()
}

// RecordUnavailable counts a per-year score that could not be computed.
func RecordUnavailable(year int, reason string) {
	patientsUnavailable.WithLabelValues(strconv.Itoa(year), reason).Inc()
}

// RecordLookupMiss counts a coefficient lookup miss.
func RecordLookupMiss(kind, status string) {
	lookupMisses.WithLabelValues(kind, status).Inc()
}

// RecordFieldError counts a member field parse failure.
func RecordFieldError(field string) {
	fieldErrors.WithLabelValues(field).Inc()
}

// ObservePhase records how long a phase took.
func ObservePhase(phase string, d time.Duration) {
	phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// WriteTextfile writes every registered collector to path in the text
// exposition format, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
