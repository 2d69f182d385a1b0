/*
errors.go - Centralized error types for the switching engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The pipeline degrades softly: empty input is an empty-but-valid result,
  and an over-aggressive filter is a warning state, not a failure.
  The surrounding application must always have something to render.

ERROR CATEGORIES:
  1. Spec errors    - Invalid analysis configuration from the caller
  2. Pipeline errors - Invariant violations that should be unreachable
  3. Soft states    - Conditions reported to the caller without aborting

USAGE:
  if errors.Is(err, flow.ErrNoPresence) { ... }

SEE ALSO:
  - classifier.go: Returns ErrNoPresence for the unreachable both-absent pair
  - engine.go: Returns spec errors before touching the source
*/
package flow

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoPresence is returned when a profile pair is absent in both
	// periods. The source join guarantees every customer appears in at
	// least one period, so hitting this means the caller built the pair
	// set wrong.
	ErrNoPresence = errors.New("customer absent from both periods")

	// ErrInvalidThreshold is returned when the primary threshold is outside
	// [0, 1].
	ErrInvalidThreshold = errors.New("primary threshold outside [0, 1]")

	// ErrInvalidMode is returned for a grouping mode outside the closed set.
	ErrInvalidMode = errors.New("invalid grouping mode")

	// ErrMissingMapping is returned when custom mode is requested without
	// any valid barcode mappings.
	ErrMissingMapping = errors.New("custom mode requires a barcode mapping")

	// ErrConservation is returned when the aggregated table does not account
	// for every observed customer exactly once.
	ErrConservation = errors.New("flow table does not conserve customer count")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ThresholdError reports the offending threshold value.
type ThresholdError struct {
	Value string
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("primary threshold %s outside [0, 1]", e.Value)
}

func (e *ThresholdError) Unwrap() error { return ErrInvalidThreshold }

// ConservationError reports a customer-count mismatch in the aggregator.
type ConservationError struct {
	Observed int
	Counted  int
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("flow table counts %d customers, observed %d", e.Counted, e.Observed)
}

func (e *ConservationError) Unwrap() error { return ErrConservation }

// =============================================================================
// SOFT STATES - Degraded results, not failures
// =============================================================================

// Warning flags a degraded-but-valid result. The pipeline never aborts for
// these; callers decide how to surface them.
type Warning string

const (
	// WarnEmptyInput: zero qualifying sales for the requested scope.
	WarnEmptyInput Warning = "no data for the requested scope"

	// WarnEmptySelection: the filtered view collapsed every row away.
	WarnEmptySelection Warning = "selection matches no flows"
)
