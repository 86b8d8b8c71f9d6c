/*
snapshot.go - Frozen rate capture and the snapshot-preferring read path

PURPOSE:
  Commission rates change over time, but billing for a historical entry
  must not. At entry creation (or once per entry during a backfill
  migration) the resolver freezes the owner rate, the direct manager rate
  and both identities. The flattened owner/manager figures shown in tables
  and dashboards read the frozen values; the full cascade deliberately
  does not.

WHY ONLY TWO LEVELS:
  The snapshot exists so the owner's and their IMMEDIATE manager's billing
  stay stable. The full ancestor chain is not frozen - the detailed
  cascade visualization recomputes from the live tree and will reflect
  later reorganizations. This inconsistency is preserved from the original
  system; do not unify it without product confirmation.

IDEMPOTENCE:
  Capture on an already-snapshotted entry is a no-op. Running the backfill
  migration twice yields identical snapshot values.

SEE ALSO:
  - entry.go: The snapshot trio and its presence invariant
  - cascade.go: The live-only computation path
*/
package engine

import (
	"time"
)

// =============================================================================
// SNAPSHOT RESOLVER
// =============================================================================

// SnapshotResolver captures frozen rates and answers the flattened
// owner/manager rate question for display and aggregation.
type SnapshotResolver struct {
	Config CategoryConfig
}

func NewSnapshotResolver(config CategoryConfig) *SnapshotResolver {
	return &SnapshotResolver{Config: config}
}

// RateSource tells callers whether a resolution came from frozen data.
type RateSource string

const (
	SourceSnapshot RateSource = "snapshot"
	SourceLive     RateSource = "live"
)

// RateResolution is the flattened owner/manager view of an entry.
type RateResolution struct {
	OwnerRate   Percent
	ManagerRate *Percent // nil when the owner has no manager
	Source      RateSource
}

// Capture freezes the current tree state onto the entry. Reads the owner
// and the owner's direct parent only. Returns false without touching the
// entry when a complete snapshot is already present (idempotent).
func (r *SnapshotResolver) Capture(entry *RevenueEntry, tree *HierarchyTree, now time.Time) (bool, error) {
	if entry.HasProvisionSnapshot() {
		return false, nil
	}

	owner, ok := tree.Lookup(entry.EmployeeID)
	if !ok {
		return false, &ParticipantNotFoundError{EntryID: entry.ID, EmployeeID: entry.EmployeeID}
	}

	field := r.Config.RateFieldFor(entry.Category)
	ownerRate := owner.Rate(field)

	hs := &HierarchySnapshot{
		OwnerID:    owner.ID,
		OwnerName:  owner.Name,
		CapturedAt: now,
	}

	var managerRate *Percent
	if manager := directManager(owner, tree); manager != nil {
		rate := manager.Rate(field)
		managerRate = &rate
		hs.ManagerID = manager.ID
		hs.ManagerName = manager.Name
	}

	entry.OwnerRateSnapshot = &ownerRate
	entry.ManagerRateSnapshot = managerRate
	entry.HierarchySnapshot = hs
	return true, nil
}

// ResolveRates is the read path for tables and dashboards: frozen values
// when a complete snapshot is present, live tree otherwise. A partial
// snapshot is treated defensively as "no snapshot" - it falls through to
// the live lookup instead of crashing the caller.
func (r *SnapshotResolver) ResolveRates(entry *RevenueEntry, tree *HierarchyTree) (RateResolution, error) {
	if entry.HasProvisionSnapshot() {
		return RateResolution{
			OwnerRate:   *entry.OwnerRateSnapshot,
			ManagerRate: entry.ManagerRateSnapshot,
			Source:      SourceSnapshot,
		}, nil
	}

	owner, ok := tree.Lookup(entry.EmployeeID)
	if !ok {
		return RateResolution{}, &ParticipantNotFoundError{EntryID: entry.ID, EmployeeID: entry.EmployeeID}
	}

	field := r.Config.RateFieldFor(entry.Category)
	res := RateResolution{
		OwnerRate: owner.Rate(field),
		Source:    SourceLive,
	}
	if manager := directManager(owner, tree); manager != nil {
		rate := manager.Rate(field)
		res.ManagerRate = &rate
	}
	return res, nil
}

// directManager returns the owner's direct parent, or nil when the owner
// is top-level (the root itself, or a direct child of the root - the
// company is not anyone's manager).
func directManager(owner *HierarchyNode, tree *HierarchyTree) *HierarchyNode {
	if owner.ParentID == nil {
		return nil
	}
	parent, ok := tree.Lookup(*owner.ParentID)
	if !ok || parent.IsRoot() {
		return nil
	}
	return parent
}

// =============================================================================
// BACKFILL MIGRATION - One-time snapshot capture over historical entries
// =============================================================================

// BackfillResult reports the outcome of a backfill run. Failures are
// per-entry; one bad entry never aborts the migration.
type BackfillResult struct {
	Captured int
	Skipped  int // already snapshotted
	Failed   []BackfillFailure
}

type BackfillFailure struct {
	EntryID EntryID
	Err     error
}

// BackfillSnapshots captures snapshots for every entry that does not have
// one yet. Idempotent: a second run over the same entries skips them all
// and changes nothing.
func (r *SnapshotResolver) BackfillSnapshots(entries []*RevenueEntry, tree *HierarchyTree, now time.Time) BackfillResult {
	var result BackfillResult
	for _, entry := range entries {
		captured, err := r.Capture(entry, tree, now)
		switch {
		case err != nil:
			result.Failed = append(result.Failed, BackfillFailure{EntryID: entry.ID, Err: err})
		case captured:
			result.Captured++
		default:
			result.Skipped++
		}
	}
	return result
}
