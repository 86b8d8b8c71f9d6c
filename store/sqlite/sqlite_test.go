package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/provision-engine/engine"
	"github.com/warp/provision-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedNodes(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	company := engine.NodeID("company")
	manager := engine.NodeID("manager")

	nodes := []*engine.HierarchyNode{
		{ID: company, Name: "Company", Type: engine.NodeRoot,
			BankRate: engine.NewPercent(100)},
		{ID: manager, Name: "Manager", ParentID: &company, Type: engine.NodeDivision, Order: 1,
			BankRate: engine.NewPercent(60), CareerLevel: "Division Manager"},
		{ID: "employee", Name: "Employee", ParentID: &manager, Type: engine.NodePerson, Order: 1,
			BankRate: engine.NewPercent(40)},
	}
	for _, n := range nodes {
		require.NoError(t, store.SaveNode(ctx, n))
	}
}

func sampleEntry(id string) *engine.RevenueEntry {
	return &engine.RevenueEntry{
		ID:              engine.EntryID(id),
		EmployeeID:      "employee",
		Category:        engine.CategoryBank,
		ProvisionAmount: engine.NewMoney(1000),
		NetRevenue:      engine.NewMoney(1000),
		VatRevenue:      engine.NewMoney(190),
		GrossRevenue:    engine.NewMoney(1190),
		Status:          engine.StatusSubmitted,
		EntryDate:       time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:       time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC),
	}
}

// =============================================================================
// NODE STORE
// =============================================================================

func TestSaveAndListNodes_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedNodes(t, store)

	nodes, err := store.ListNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	// The listed nodes must rebuild into a valid tree.
	tree, err := engine.BuildTree(nodes)
	require.NoError(t, err)
	assert.Equal(t, engine.NodeID("company"), tree.Root().ID)

	manager, ok := tree.Lookup("manager")
	require.True(t, ok)
	assert.True(t, manager.BankRate.Equal(engine.NewPercent(60)))
	assert.Equal(t, "Division Manager", manager.CareerLevel)
}

func TestSaveNode_UpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	seedNodes(t, store)
	ctx := context.Background()

	manager := engine.NodeID("manager")
	require.NoError(t, store.SaveNode(ctx, &engine.HierarchyNode{
		ID: "employee", Name: "Employee Renamed", ParentID: &manager,
		Type: engine.NodePerson, BankRate: engine.NewPercent(45),
	}))

	nodes, err := store.ListNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	for _, n := range nodes {
		if n.ID == "employee" {
			assert.Equal(t, "Employee Renamed", n.Name)
			assert.True(t, n.BankRate.Equal(engine.NewPercent(45)))
		}
	}
}

func TestDeleteNode_Unknown(t *testing.T) {
	store := newTestStore(t)
	err := store.DeleteNode(context.Background(), "ghost")
	assert.True(t, errors.Is(err, engine.ErrNodeNotFound))
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func TestSaveAndGetEntry_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := sampleEntry("e1")
	e.TipProvider = &engine.TipProvider{ID: "ext-1", Name: "Referrer", Percent: engine.NewPercent(12.5)}
	require.NoError(t, store.SaveEntry(ctx, e))

	got, err := store.GetEntry(ctx, "e1")
	require.NoError(t, err)

	assert.Equal(t, engine.NodeID("employee"), got.EmployeeID)
	assert.True(t, got.ProvisionAmount.Equal(engine.NewMoney(1000)))
	assert.True(t, got.VatRevenue.Equal(engine.NewMoney(190)))
	require.NotNil(t, got.TipProvider)
	assert.True(t, got.TipProvider.Percent.Equal(engine.NewPercent(12.5)))
	assert.False(t, got.HasProvisionSnapshot())
	assert.True(t, got.EntryDate.Equal(e.EntryDate))
}

func TestGetEntry_Unknown(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetEntry(context.Background(), "ghost")
	assert.True(t, errors.Is(err, engine.ErrEntryNotFound))
}

func TestListEntries_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := sampleEntry("e1")
	require.NoError(t, store.SaveEntry(ctx, first))

	second := sampleEntry("e2")
	second.EmployeeID = "manager"
	second.Category = engine.CategoryInsurance
	second.EntryDate = time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveEntry(ctx, second))

	employee := engine.NodeID("employee")
	byEmployee, err := store.ListEntries(ctx, engine.EntryFilter{EmployeeID: &employee})
	require.NoError(t, err)
	require.Len(t, byEmployee, 1)
	assert.Equal(t, engine.EntryID("e1"), byEmployee[0].ID)

	insurance := engine.CategoryInsurance
	byCategory, err := store.ListEntries(ctx, engine.EntryFilter{Category: &insurance})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, engine.EntryID("e2"), byCategory[0].ID)

	from := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	byDate, err := store.ListEntries(ctx, engine.EntryFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, engine.EntryID("e2"), byDate[0].ID)

	all, err := store.ListEntries(ctx, engine.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// STATUS AND SNAPSHOT WRITE DISCIPLINE
// =============================================================================

func TestUpdateStatus_TerminalGuard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEntry(ctx, sampleEntry("e1")))

	require.NoError(t, store.UpdateStatus(ctx, "e1", engine.StatusProvisioned))

	// A second transition must fail at the database level.
	err := store.UpdateStatus(ctx, "e1", engine.StatusCancelled)
	assert.True(t, errors.Is(err, engine.ErrStatusFinal))

	got, err := store.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, engine.StatusProvisioned, got.Status)
}

func TestUpdateStatus_UnknownEntry(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateStatus(context.Background(), "ghost", engine.StatusProvisioned)
	assert.True(t, errors.Is(err, engine.ErrEntryNotFound))
}

func TestUpdateStatus_InvalidTarget(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEntry(ctx, sampleEntry("e1")))

	err := store.UpdateStatus(ctx, "e1", engine.StatusSubmitted)
	assert.True(t, errors.Is(err, engine.ErrInvalidStatus))
}

func TestSaveSnapshot_WriteOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEntry(ctx, sampleEntry("e1")))

	managerRate := engine.NewPercent(60)
	capturedAt := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSnapshot(ctx, "e1", engine.NewPercent(40), &managerRate, engine.HierarchySnapshot{
		OwnerID:     "employee",
		OwnerName:   "Employee",
		ManagerID:   "manager",
		ManagerName: "Manager",
		CapturedAt:  capturedAt,
	}))

	// A second capture with different values is a silent no-op.
	otherRate := engine.NewPercent(99)
	require.NoError(t, store.SaveSnapshot(ctx, "e1", otherRate, nil, engine.HierarchySnapshot{
		OwnerID:    "employee",
		OwnerName:  "Employee",
		CapturedAt: capturedAt.Add(time.Hour),
	}))

	got, err := store.GetEntry(ctx, "e1")
	require.NoError(t, err)
	require.True(t, got.HasProvisionSnapshot())
	assert.True(t, got.OwnerRateSnapshot.Equal(engine.NewPercent(40)))
	require.NotNil(t, got.ManagerRateSnapshot)
	assert.True(t, got.ManagerRateSnapshot.Equal(engine.NewPercent(60)))
	assert.Equal(t, engine.NodeID("manager"), got.HierarchySnapshot.ManagerID)
	assert.True(t, got.HierarchySnapshot.CapturedAt.Equal(capturedAt))
}

func TestSaveSnapshot_UnknownEntry(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveSnapshot(context.Background(), "ghost", engine.NewPercent(40), nil, engine.HierarchySnapshot{
		OwnerID: "employee",
	})
	assert.True(t, errors.Is(err, engine.ErrEntryNotFound))
}
