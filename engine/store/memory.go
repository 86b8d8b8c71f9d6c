// Package store provides in-memory Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/provision-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements engine.NodeStore and engine.EntryStore. Copies on the
// way in and out so callers never share state with the store.
type Memory struct {
	mu      sync.RWMutex
	nodes   map[engine.NodeID]*engine.HierarchyNode
	entries map[engine.EntryID]*engine.RevenueEntry
}

func NewMemory() *Memory {
	return &Memory{
		nodes:   make(map[engine.NodeID]*engine.HierarchyNode),
		entries: make(map[engine.EntryID]*engine.RevenueEntry),
	}
}

// =============================================================================
// NODE STORE
// =============================================================================

func (m *Memory) SaveNode(_ context.Context, node *engine.HierarchyNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[node.ID] = copyNode(node)
	return nil
}

func (m *Memory) ListNodes(_ context.Context) ([]*engine.HierarchyNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*engine.HierarchyNode, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, copyNode(n))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteNode(_ context.Context, id engine.NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[id]; !ok {
		return engine.ErrNodeNotFound
	}
	delete(m.nodes, id)
	return nil
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (m *Memory) SaveEntry(_ context.Context, e *engine.RevenueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = copyEntry(e)
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id engine.EntryID) (*engine.RevenueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, engine.ErrEntryNotFound
	}
	return copyEntry(e), nil
}

func (m *Memory) ListEntries(_ context.Context, filter engine.EntryFilter) ([]*engine.RevenueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*engine.RevenueEntry
	for _, e := range m.entries {
		if filter.Matches(e) {
			out = append(out, copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.Before(out[j].EntryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id engine.EntryID, status engine.EntryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return engine.ErrEntryNotFound
	}
	return e.TransitionStatus(status)
}

func (m *Memory) SaveSnapshot(_ context.Context, id engine.EntryID, owner engine.Percent, manager *engine.Percent, hs engine.HierarchySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return engine.ErrEntryNotFound
	}
	if e.HasProvisionSnapshot() {
		return nil // write-once
	}
	e.OwnerRateSnapshot = &owner
	if manager != nil {
		rate := *manager
		e.ManagerRateSnapshot = &rate
	}
	snapshot := hs
	e.HierarchySnapshot = &snapshot
	return nil
}

// =============================================================================
// COPY HELPERS
// =============================================================================

func copyNode(n *engine.HierarchyNode) *engine.HierarchyNode {
	out := *n
	if n.ParentID != nil {
		pid := *n.ParentID
		out.ParentID = &pid
	}
	return &out
}

func copyEntry(e *engine.RevenueEntry) *engine.RevenueEntry {
	out := *e
	if e.TipProvider != nil {
		tp := *e.TipProvider
		out.TipProvider = &tp
	}
	if e.OwnerRateSnapshot != nil {
		r := *e.OwnerRateSnapshot
		out.OwnerRateSnapshot = &r
	}
	if e.ManagerRateSnapshot != nil {
		r := *e.ManagerRateSnapshot
		out.ManagerRateSnapshot = &r
	}
	if e.HierarchySnapshot != nil {
		hs := *e.HierarchySnapshot
		out.HierarchySnapshot = &hs
	}
	return &out
}
