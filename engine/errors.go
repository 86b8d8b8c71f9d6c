/*
errors.go - Centralized error types for the attribution engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (API layer, report builder) classify errors with the helpers
  at the bottom instead of matching strings.

ERROR CATEGORIES:
  1. Tree errors - Structural problems found while building the hierarchy
  2. Cascade errors - A single entry that cannot be computed
  3. Snapshot errors - Partial or inconsistent frozen rate data

PROPAGATION POLICY:
  Cascade errors are per-entry. A batch computation (monthly report over
  hundreds of entries) must isolate a failing entry - log and exclude it -
  rather than abort the whole report. See report.Builder.

USAGE:
  if errors.Is(err, engine.ErrParticipantNotFound) {
      // entry references an employee missing from the tree
  }

SEE ALSO:
  - hierarchy.go: Returns tree errors from BuildTree/Reparent
  - cascade.go: Returns ParticipantNotFoundError
  - snapshot.go: Returns SnapshotInconsistencyError from validation
*/
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrParticipantNotFound is returned when an entry's employee id does
	// not resolve to a node in the supplied tree. Fatal for that single
	// computation, never for the caller's batch.
	ErrParticipantNotFound = errors.New("participant not found in hierarchy")

	// ErrInvalidRate is returned when a rate field outside [0,100] is
	// encountered while building the tree. Rejected at construction time,
	// never discovered mid-cascade.
	ErrInvalidRate = errors.New("rate outside [0,100]")

	// ErrSnapshotInconsistent is returned when an entry carries a partial
	// snapshot (some but not all frozen fields present). The read path
	// treats this as "no snapshot"; only explicit validation surfaces it.
	ErrSnapshotInconsistent = errors.New("partial provision snapshot")

	// ErrNoRoot is returned when no node has a nil parent.
	ErrNoRoot = errors.New("hierarchy has no root")

	// ErrMultipleRoots is returned when more than one node has a nil parent.
	ErrMultipleRoots = errors.New("hierarchy has multiple roots")

	// ErrCycleDetected is returned when a parent chain does not terminate
	// at the root.
	ErrCycleDetected = errors.New("cycle in hierarchy")

	// ErrOrphanParent is returned when a node references a parent id that
	// does not exist in the same tree.
	ErrOrphanParent = errors.New("parent not found in hierarchy")

	// ErrStatusFinal is returned when transitioning an entry whose status
	// is already terminal.
	ErrStatusFinal = errors.New("entry status is final")

	// ErrInvalidStatus is returned for an unknown status value or an
	// illegal transition target.
	ErrInvalidStatus = errors.New("invalid status transition")

	// ErrEntryNotFound is returned by stores when an entry id is unknown.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrNodeNotFound is returned by stores when a node id is unknown.
	ErrNodeNotFound = errors.New("node not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParticipantNotFoundError identifies which entry referenced which missing
// employee. The report builder records these per entry.
type ParticipantNotFoundError struct {
	EntryID    EntryID
	EmployeeID NodeID
}

func (e *ParticipantNotFoundError) Error() string {
	return fmt.Sprintf("entry %s: employee %s not found in hierarchy", e.EntryID, e.EmployeeID)
}

func (e *ParticipantNotFoundError) Unwrap() error {
	return ErrParticipantNotFound
}

// InvalidRateError identifies the offending node and field.
type InvalidRateError struct {
	NodeID NodeID
	Field  RateField
	Value  Percent
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("node %s: %s rate %s outside [0,100]", e.NodeID, e.Field, e.Value)
}

func (e *InvalidRateError) Unwrap() error {
	return ErrInvalidRate
}

// SnapshotInconsistencyError lists which snapshot fields are missing from
// a partially snapshotted entry.
type SnapshotInconsistencyError struct {
	EntryID EntryID
	Missing []string
}

func (e *SnapshotInconsistencyError) Error() string {
	return fmt.Sprintf("entry %s: partial snapshot, missing %s", e.EntryID, strings.Join(e.Missing, ", "))
}

func (e *SnapshotInconsistencyError) Unwrap() error {
	return ErrSnapshotInconsistent
}

// CycleError carries the path that led back to the starting node.
type CycleError struct {
	NodeID NodeID
	Path   []NodeID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = string(id)
	}
	return fmt.Sprintf("cycle through node %s: %s", e.NodeID, strings.Join(parts, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// StatusTransitionError identifies an illegal lifecycle move.
type StatusTransitionError struct {
	EntryID EntryID
	From    EntryStatus
	To      EntryStatus
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("entry %s: cannot transition %s -> %s", e.EntryID, e.From, e.To)
}

func (e *StatusTransitionError) Unwrap() error {
	if e.From.IsTerminal() {
		return ErrStatusFinal
	}
	return ErrInvalidStatus
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input rather
// than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrStatusFinal) ||
		errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrMultipleRoots) ||
		errors.Is(err, ErrOrphanParent)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrParticipantNotFound) ||
		errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrNodeNotFound)
}
