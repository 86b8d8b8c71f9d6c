/*
entry.go - Revenue entries: the transaction records the cascade splits

PURPOSE:
  A RevenueEntry records one sale: who made it, in which category, the
  gross provision to distribute, the revenue breakdown for billing, an
  optional external referrer, and - once captured - the frozen rate
  snapshot that keeps historical billing stable.

SNAPSHOT TRIO:
  The frozen fields travel together: owner rate, manager rate (nil only
  when the owner has no manager) and the hierarchy identity snapshot. If
  any of them is present all of them must be; HasProvisionSnapshot is a
  derived boolean, never an independent flag. ValidateSnapshot reports a
  partial trio, the read path treats a partial trio as "no snapshot".

LIFECYCLE:
  submitted -> provisioned | rejected | cancelled, then immutable.
  Rejected/cancelled entries are excluded from all aggregates.

SEE ALSO:
  - snapshot.go: Captures and resolves the frozen fields
  - cascade.go: Splits ProvisionAmount across participants
  - billing.go: Folds entries into summaries
*/
package engine

import (
	"time"
)

// =============================================================================
// TIP PROVIDER - External referrer outside the hierarchy
// =============================================================================

// TipProvider is a party outside the management hierarchy that referred
// the sale. Their share is a flat deduction from the owner's share, never
// from the managers'.
type TipProvider struct {
	ID      string
	Name    string
	Percent Percent
}

// =============================================================================
// HIERARCHY SNAPSHOT - Frozen identities at capture time
// =============================================================================

// HierarchySnapshot freezes who the owner and their direct manager were
// when the entry was created. Only two levels: the full cascade is
// intentionally not frozen (see snapshot.go).
type HierarchySnapshot struct {
	OwnerID     NodeID
	OwnerName   string
	ManagerID   NodeID // empty when the owner had no manager
	ManagerName string
	CapturedAt  time.Time
}

// =============================================================================
// REVENUE ENTRY
// =============================================================================

type RevenueEntry struct {
	ID         EntryID
	EmployeeID NodeID // the owner; must resolve in the tree
	Category   CategoryType

	// ProvisionAmount is the base on which every split is computed.
	ProvisionAmount Money

	// Revenue breakdown. Informational for billing documents; the cascade
	// never reads these.
	NetRevenue   Money
	VatRevenue   Money
	GrossRevenue Money

	TipProvider *TipProvider

	Status EntryStatus

	// Frozen snapshot fields. Present together or not at all.
	OwnerRateSnapshot   *Percent
	ManagerRateSnapshot *Percent // nil also when the owner had no manager
	HierarchySnapshot   *HierarchySnapshot

	EntryDate time.Time
	CreatedAt time.Time
}

// HasProvisionSnapshot reports whether the entry carries a complete
// frozen snapshot. Derived: true only when the owner rate and the
// hierarchy snapshot are present and the manager rate is consistent with
// the recorded manager identity.
func (e *RevenueEntry) HasProvisionSnapshot() bool {
	if e.OwnerRateSnapshot == nil || e.HierarchySnapshot == nil {
		return false
	}
	if e.HierarchySnapshot.ManagerID != "" && e.ManagerRateSnapshot == nil {
		return false
	}
	return true
}

// ValidateSnapshot returns a SnapshotInconsistencyError when the entry
// carries a partial snapshot. A complete snapshot and no snapshot at all
// are both valid.
func (e *RevenueEntry) ValidateSnapshot() error {
	present := 0
	var missing []string

	if e.OwnerRateSnapshot != nil {
		present++
	} else {
		missing = append(missing, "ownerProvisionSnapshot")
	}
	if e.HierarchySnapshot != nil {
		present++
	} else {
		missing = append(missing, "hierarchySnapshot")
	}

	managerExpected := e.HierarchySnapshot != nil && e.HierarchySnapshot.ManagerID != ""
	if managerExpected && e.ManagerRateSnapshot == nil {
		missing = append(missing, "managerProvisionSnapshot")
	}

	if present == 0 && e.ManagerRateSnapshot == nil {
		return nil // no snapshot at all
	}
	if len(missing) == 0 {
		return nil // complete
	}
	return &SnapshotInconsistencyError{EntryID: e.ID, Missing: missing}
}

// TransitionStatus moves the entry through its lifecycle. Submitted can
// become provisioned, rejected or cancelled; terminal states are
// immutable.
func (e *RevenueEntry) TransitionStatus(to EntryStatus) error {
	if !to.Valid() || to == StatusSubmitted {
		return &StatusTransitionError{EntryID: e.ID, From: e.Status, To: to}
	}
	if e.Status.IsTerminal() {
		return &StatusTransitionError{EntryID: e.ID, From: e.Status, To: to}
	}
	e.Status = to
	return nil
}
