/*
errors.go - Centralized error taxonomy for the KPI engine

PURPOSE:
  All engine error kinds in one place. The taxonomy follows how failures
  surface to callers:

  1. Input errors    - Bad requests (unknown metric, malformed months,
                       missing time spec). Converted by the dispatcher into
                       unsuccessful Result envelopes, never Go errors.
  2. Source errors   - Data-source failures (connectivity, scan errors).
                       Returned as Go errors so the transport layer can
                       distinguish "bad question" from "broken backend".
  3. Internal faults - Panics inside a metric handler. Recovered by the
                       dispatcher and reported as source-style errors.

USAGE:
  if errors.Is(err, kpi.ErrDataSource) {
      // backend problem, render a 500
  }

SEE ALSO:
  - dispatch.go: The single fault-to-envelope conversion point
*/
package kpi

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnsupportedMetric is returned for metric names outside the registry.
	ErrUnsupportedMetric = errors.New("unsupported metric")

	// ErrInvalidMonth is returned when a month string is not "YYYY-MM".
	ErrInvalidMonth = errors.New("invalid month format")

	// ErrInvalidWindow is returned when a range ends before it starts.
	ErrInvalidWindow = errors.New("invalid time range")

	// ErrMissingTimeSpec is returned when a demand metric has neither a
	// time range nor explicit target months.
	ErrMissingTimeSpec = errors.New("missing time specification")

	// ErrDataSource wraps failures of the underlying roster/entitlement source.
	ErrDataSource = errors.New("data source failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SourceError reports a data-source failure with the operation that hit it.
type SourceError struct {
	Op  string // e.g. "employees", "entitlement_rules"
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("data source failure in %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return ErrDataSource }

// NewSourceError wraps err as a SourceError, or returns nil if err is nil.
func NewSourceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Op: op, Err: err}
}
