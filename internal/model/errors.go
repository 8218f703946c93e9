package model

import "fmt"

// ResolutionAmbiguityError means an entity or claim could not be confidently
// clustered. It is surfaced for manual review, not treated as an aggregation
// failure.
type ResolutionAmbiguityError struct {
	Mention string
	Reason  string
}

func (e *ResolutionAmbiguityError) Error() string {
	return fmt.Sprintf("resolution ambiguity for %q: %s", e.Mention, e.Reason)
}

// InsufficientEvidenceError means a cluster has fewer instances than the
// requested confidence method requires. Aggregation falls back to a
// lower-resolution method with an explicit caveat.
type InsufficientEvidenceError struct {
	ClusterID string
	Have      int
	Need      int
}

func (e *InsufficientEvidenceError) Error() string {
	return fmt.Sprintf("cluster %s has %d evidence instances, need %d", e.ClusterID, e.Have, e.Need)
}

// ReasoningCallError wraps an external reasoning engine error or timeout
// after retries are exhausted.
type ReasoningCallError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ReasoningCallError) Error() string {
	return fmt.Sprintf("reasoning call to %s failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *ReasoningCallError) Unwrap() error { return e.Err }

// InvariantViolationError means an internal invariant would be broken
// (e.g. Beta parameters going non-positive). The offending update is
// rejected and logged; processing continues with prior state.
type InvariantViolationError struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation (%s): %s", e.Invariant, e.Detail)
}

// MalformedRecordError means an upstream evidence record failed shape
// validation. Malformed records are rejected, never silently dropped.
type MalformedRecordError struct {
	Index int
	Field string
	Value string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed evidence record %d: field %q has invalid value %q", e.Index, e.Field, e.Value)
}
