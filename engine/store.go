/*
store.go - Persistence interfaces for nodes and revenue entries

PURPOSE:
  Defines the interface between the engine and the database. The engine
  itself is pure; stores only materialize trees and entries for it.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  NodeStore:  Hierarchy node records (the tree is built from ListNodes)
  EntryStore: Revenue entry records, status transitions, snapshot writes

WRITE DISCIPLINE:
  Entries are mostly immutable after creation. The only mutations are the
  one-shot snapshot capture (write-once) and the status transition
  (submitted -> terminal, enforced by the implementations via
  RevenueEntry.TransitionStatus semantics).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - engine/store/memory.go: In-memory for testing

SEE ALSO:
  - hierarchy.go: BuildTree over ListNodes output
  - snapshot.go: Produces the snapshot fields SaveSnapshot persists
*/
package engine

import (
	"context"
	"time"
)

// =============================================================================
// NODE STORE
// =============================================================================

// NodeStore persists hierarchy node records. The tree is always rebuilt
// in memory from ListNodes; the store never maintains the children index.
type NodeStore interface {
	// SaveNode inserts or replaces a node record.
	SaveNode(ctx context.Context, node *HierarchyNode) error

	// ListNodes returns all node records. Feed into BuildTree.
	ListNodes(ctx context.Context) ([]*HierarchyNode, error)

	// DeleteNode removes a node record.
	DeleteNode(ctx context.Context, id NodeID) error
}

// =============================================================================
// ENTRY STORE
// =============================================================================

// EntryFilter narrows ListEntries. Nil fields match everything.
type EntryFilter struct {
	EmployeeID    *NodeID
	Category      *CategoryType
	Status        *EntryStatus
	TipProviderID *string
	From          *time.Time // inclusive, on EntryDate
	To            *time.Time // inclusive, on EntryDate
}

// Matches reports whether an entry passes the filter.
func (f EntryFilter) Matches(e *RevenueEntry) bool {
	if f.EmployeeID != nil && e.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.TipProviderID != nil {
		if e.TipProvider == nil || e.TipProvider.ID != *f.TipProviderID {
			return false
		}
	}
	if f.From != nil && e.EntryDate.Before(*f.From) {
		return false
	}
	if f.To != nil && e.EntryDate.After(*f.To) {
		return false
	}
	return true
}

// EntryStore persists revenue entries.
type EntryStore interface {
	// SaveEntry inserts a new entry record.
	SaveEntry(ctx context.Context, e *RevenueEntry) error

	// GetEntry returns one entry, ErrEntryNotFound when absent.
	GetEntry(ctx context.Context, id EntryID) (*RevenueEntry, error)

	// ListEntries returns entries matching the filter, ordered by
	// EntryDate then ID.
	ListEntries(ctx context.Context, filter EntryFilter) ([]*RevenueEntry, error)

	// UpdateStatus applies a lifecycle transition. Fails with
	// ErrStatusFinal when the stored status is already terminal.
	UpdateStatus(ctx context.Context, id EntryID, status EntryStatus) error

	// SaveSnapshot writes the frozen snapshot trio for an entry.
	// Write-once: a second call for an already-snapshotted entry is a
	// no-op (the capture path is idempotent).
	SaveSnapshot(ctx context.Context, id EntryID, owner Percent, manager *Percent, hs HierarchySnapshot) error
}
