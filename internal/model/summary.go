package model

import "time"

// YearSummary captures per-model-year counts from a run.
type YearSummary struct {
	Year         int
	Scored       int64
	Unavailable  int64
	LookupMisses int64
}

// RunSummary captures metrics from a single scoring run.
type RunSummary struct {
	RunID           string
	Fingerprint     string
	AsOf            time.Time
	Members         int64
	FieldErrors     int64
	Years           []YearSummary
	Blended         int64
	AlreadyLoaded   bool
	DurationLoad    time.Duration
	DurationCompute time.Duration
	DurationPersist time.Duration
	DurationTotal   time.Duration
}

// Unavailable sums unavailable scores across all years.
func (s *RunSummary) Unavailable() int64 {
	var n int64
	for _, y := range s.Years {
		n += y.Unavailable
	}
	return n
}
