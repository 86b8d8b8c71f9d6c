package report_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/provision-engine/engine"
	"github.com/warp/provision-engine/report"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

// brokerage: company -> manager (bank 60) -> {lead (bank 50) -> employee (bank 40), peer (bank 30)}
func brokerage(t *testing.T) *engine.HierarchyTree {
	t.Helper()
	company := engine.NodeID("company")
	manager := engine.NodeID("manager")
	lead := engine.NodeID("lead")

	tree, err := engine.BuildTree([]*engine.HierarchyNode{
		{ID: company, Name: "Company", Type: engine.NodeRoot,
			BankRate: engine.NewPercent(100)},
		{ID: manager, Name: "Manager", ParentID: &company, Type: engine.NodeDivision,
			BankRate: engine.NewPercent(60)},
		{ID: lead, Name: "Lead", ParentID: &manager, Type: engine.NodeTeam,
			BankRate: engine.NewPercent(50)},
		{ID: "employee", Name: "Employee", ParentID: &lead, Type: engine.NodePerson,
			BankRate: engine.NewPercent(40)},
		{ID: "peer", Name: "Peer", ParentID: &manager, Type: engine.NodePerson,
			BankRate: engine.NewPercent(30)},
	})
	require.NoError(t, err)
	return tree
}

func entry(id, owner string, provision float64, day int) *engine.RevenueEntry {
	return &engine.RevenueEntry{
		ID:              engine.EntryID(id),
		EmployeeID:      engine.NodeID(owner),
		Category:        engine.CategoryBank,
		ProvisionAmount: engine.NewMoney(provision),
		NetRevenue:      engine.NewMoney(provision * 2),
		Status:          engine.StatusSubmitted,
		EntryDate:       time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC),
	}
}

func march() (time.Time, time.Time) {
	return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// EMPLOYEE REPORT
// =============================================================================

func TestEmployeeReport_ClassifiesOwnTeamReferred(t *testing.T) {
	tree := brokerage(t)
	builder := report.NewBuilder(engine.DefaultCategoryConfig())
	from, to := march()

	referral := entry("e3", "peer", 300, 12)
	referral.TipProvider = &engine.TipProvider{ID: "lead", Name: "Lead", Percent: engine.NewPercent(10)}

	rep, err := builder.EmployeeReport("lead", []*engine.RevenueEntry{
		entry("e1", "lead", 1000, 5),     // own
		entry("e2", "employee", 500, 10), // team: employee sits under lead
		referral,                         // referred: lead is the tip provider
		entry("e4", "peer", 700, 15),     // someone else's revenue
	}, tree, from, to)
	require.NoError(t, err)

	assert.Equal(t, "Lead", rep.EmployeeName)
	assert.Equal(t, 1, rep.Own.EntryCount)
	assert.True(t, rep.Own.TotalProvision.Equal(engine.NewMoney(1000)))
	assert.Equal(t, 1, rep.Team.EntryCount)
	assert.True(t, rep.Team.TotalProvision.Equal(engine.NewMoney(500)))
	assert.Equal(t, 1, rep.Referred.EntryCount)
	assert.True(t, rep.Referred.TotalProvision.Equal(engine.NewMoney(300)))

	// Total is the merge of the three buckets.
	assert.Equal(t, 3, rep.Total.EntryCount)
	assert.True(t, rep.Total.TotalProvision.Equal(engine.NewMoney(1800)))
	assert.Empty(t, rep.Failed)
}

func TestEmployeeReport_ReferralCanAlsoBeTeamRevenue(t *testing.T) {
	// An entry made by a subordinate with the manager as tip provider lands
	// in BOTH buckets; the buckets answer different questions.
	tree := brokerage(t)
	builder := report.NewBuilder(engine.DefaultCategoryConfig())
	from, to := march()

	e := entry("e1", "employee", 500, 10)
	e.TipProvider = &engine.TipProvider{ID: "lead", Name: "Lead", Percent: engine.NewPercent(5)}

	rep, err := builder.EmployeeReport("lead", []*engine.RevenueEntry{e}, tree, from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Team.EntryCount)
	assert.Equal(t, 1, rep.Referred.EntryCount)
}

func TestEmployeeReport_ExcludesRejectedCountsThem(t *testing.T) {
	tree := brokerage(t)
	builder := report.NewBuilder(engine.DefaultCategoryConfig())
	from, to := march()

	rejected := entry("e2", "lead", 999, 8)
	rejected.Status = engine.StatusRejected

	rep, err := builder.EmployeeReport("lead", []*engine.RevenueEntry{
		entry("e1", "lead", 1000, 5),
		rejected,
	}, tree, from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.ExcludedEntries)
	assert.True(t, rep.Own.TotalProvision.Equal(engine.NewMoney(1000)))
}

func TestEmployeeReport_PeriodFilter(t *testing.T) {
	tree := brokerage(t)
	builder := report.NewBuilder(engine.DefaultCategoryConfig())
	from, to := march()

	outside := entry("e2", "lead", 999, 1)
	outside.EntryDate = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	rep, err := builder.EmployeeReport("lead", []*engine.RevenueEntry{
		entry("e1", "lead", 1000, 5),
		outside,
	}, tree, from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Own.EntryCount)
}

func TestEmployeeReport_UnknownOwnerIsolatedNotFatal(t *testing.T) {
	tree := brokerage(t)
	builder := report.NewBuilder(engine.DefaultCategoryConfig())
	from, to := march()

	rep, err := builder.EmployeeReport("lead", []*engine.RevenueEntry{
		entry("e1", "lead", 1000, 5),
		entry("e2", "ghost", 500, 10),
	}, tree, from, to)
	require.NoError(t, err)

	require.Len(t, rep.Failed, 1)
	assert.Equal(t, engine.EntryID("e2"), rep.Failed[0].EntryID)
	assert.True(t, rep.Own.TotalProvision.Equal(engine.NewMoney(1000)))
}

func TestEmployeeReport_UnknownEmployee_Errors(t *testing.T) {
	tree := brokerage(t)
	builder := report.NewBuilder(engine.DefaultCategoryConfig())
	from, to := march()

	_, err := builder.EmployeeReport("ghost", nil, tree, from, to)
	assert.True(t, engine.IsNotFound(err))
}

// =============================================================================
// PERIOD SUMMARY AND STATEMENTS
// =============================================================================

func TestSummary_CompanyWide(t *testing.T) {
	builder := report.NewBuilder(engine.DefaultCategoryConfig())
	from, to := march()

	rejected := entry("e3", "peer", 999, 20)
	rejected.Status = engine.StatusCancelled

	ps := builder.Summary([]*engine.RevenueEntry{
		entry("e1", "lead", 1000, 5),
		entry("e2", "employee", 500, 10),
		rejected,
	}, from, to)

	assert.Equal(t, 2, ps.Summary.EntryCount)
	assert.Equal(t, 1, ps.ExcludedEntries)
	assert.True(t, ps.Summary.TotalProvision.Equal(engine.NewMoney(1500)))
}

func TestCascadeStatement_IsolatesFailures(t *testing.T) {
	tree := brokerage(t)
	builder := report.NewBuilder(engine.DefaultCategoryConfig())

	lines, failed := builder.CascadeStatement([]*engine.RevenueEntry{
		entry("e1", "employee", 1000, 5),
		entry("e2", "ghost", 500, 10),
	}, tree)

	require.Len(t, lines, 1)
	require.Len(t, failed, 1)
	assert.Equal(t, engine.EntryID("e2"), failed[0].EntryID)
	assert.True(t, engine.CascadeTotal(lines[0].Participants).Equal(engine.NewMoney(1000)))
}

// =============================================================================
// PARALLEL SUMMARIZATION
// =============================================================================

func TestSummarizeParallel_MatchesSequential(t *testing.T) {
	var items []engine.LineItem
	for i := 0; i < 100; i++ {
		e := entry(fmt.Sprintf("e%d", i), "employee", float64(i)+0.33, 1+i%28)
		li, ok := engine.LineItemFromEntry(e)
		require.True(t, ok)
		items = append(items, li)
	}

	sequential := engine.Summarize(items)
	for _, workers := range []int{1, 2, 4, 7, 16} {
		parallel := report.SummarizeParallel(items, workers)
		assert.Equal(t, sequential.EntryCount, parallel.EntryCount, "workers=%d", workers)
		assert.True(t, sequential.TotalProvision.Equal(parallel.TotalProvision), "workers=%d", workers)
		assert.True(t, sequential.TotalNet.Equal(parallel.TotalNet), "workers=%d", workers)
	}
}
