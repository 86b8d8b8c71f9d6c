package engine_test

import (
	"testing"

	"github.com/warp/provision-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func billedEntry(id string, category engine.CategoryType, net, vat, provision float64) *engine.RevenueEntry {
	e := bankEntry(id, "employee", provision)
	e.Category = category
	e.NetRevenue = money(net)
	e.VatRevenue = money(vat)
	e.GrossRevenue = money(net + vat)
	return e
}

func item(id string, category engine.CategoryType, net, vat, provision float64) engine.LineItem {
	li, ok := engine.LineItemFromEntry(billedEntry(id, category, net, vat, provision))
	if !ok {
		panic("entry unexpectedly excluded")
	}
	return li
}

func assertSummariesEqual(t *testing.T, a, b engine.ProvisionSummary) {
	t.Helper()
	if a.EntryCount != b.EntryCount {
		t.Errorf("entry counts differ: %d vs %d", a.EntryCount, b.EntryCount)
	}
	pairs := []struct {
		name string
		x, y engine.Money
	}{
		{"net", a.TotalNet, b.TotalNet},
		{"vat", a.TotalVat, b.TotalVat},
		{"gross", a.TotalGross, b.TotalGross},
		{"provision", a.TotalProvision, b.TotalProvision},
		{"provisionVat", a.TotalProvisionVat, b.TotalProvisionVat},
		{"provisionGross", a.TotalProvisionGross, b.TotalProvisionGross},
	}
	for _, p := range pairs {
		if !p.x.Equal(p.y) {
			t.Errorf("%s differs: %v vs %v", p.name, p.x, p.y)
		}
	}
	if len(a.Categories) != len(b.Categories) {
		t.Fatalf("category maps differ in size: %d vs %d", len(a.Categories), len(b.Categories))
	}
	for cat, ta := range a.Categories {
		tb, ok := b.Categories[cat]
		if !ok {
			t.Errorf("category %s missing from second summary", cat)
			continue
		}
		if ta.EntryCount != tb.EntryCount || !ta.Net.Equal(tb.Net) || !ta.Provision.Equal(tb.Provision) {
			t.Errorf("category %s differs: %+v vs %+v", cat, ta, tb)
		}
	}
}

// =============================================================================
// THE ASSOCIATIVE FOLD
// =============================================================================

func TestSummarize_SplitMergeEqualsWhole(t *testing.T) {
	// GIVEN: A line-item sequence split at an arbitrary point
	// WHEN: Summarizing the parts and merging, vs. summarizing the whole
	// THEN: Identical summaries for every split point

	items := []engine.LineItem{
		item("e1", engine.CategoryBank, 1000, 190, 400),
		item("e2", engine.CategoryInsurance, 450, 85.5, 157.5),
		item("e3", engine.CategoryBank, 2400, 456, 720),
		item("e4", engine.CategoryRealEstate, 300, 57, 90),
		item("e5", engine.CategoryInsurance, 99.99, 19, 33.33),
	}

	whole := engine.Summarize(items)
	for split := 0; split <= len(items); split++ {
		merged := engine.Merge(engine.Summarize(items[:split]), engine.Summarize(items[split:]))
		assertSummariesEqual(t, whole, merged)
	}
}

func TestMerge_EmptySummaryIsIdentity(t *testing.T) {
	s := engine.Summarize([]engine.LineItem{
		item("e1", engine.CategoryBank, 1000, 190, 400),
	})

	assertSummariesEqual(t, s, engine.Merge(s, engine.EmptySummary()))
	assertSummariesEqual(t, s, engine.Merge(engine.EmptySummary(), s))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	// GIVEN: Two summaries with overlapping category keys
	// WHEN: Merging them
	// THEN: The inputs keep their original category totals

	a := engine.Summarize([]engine.LineItem{item("e1", engine.CategoryBank, 1000, 190, 400)})
	b := engine.Summarize([]engine.LineItem{item("e2", engine.CategoryBank, 500, 95, 200)})

	_ = engine.Merge(a, b)

	if a.Categories[engine.CategoryBank].EntryCount != 1 {
		t.Error("merge mutated its first input")
	}
	if !b.Categories[engine.CategoryBank].Provision.Equal(money(200)) {
		t.Error("merge mutated its second input")
	}
}

func TestSummarize_OrderIndependent(t *testing.T) {
	items := []engine.LineItem{
		item("e1", engine.CategoryBank, 1000, 190, 400),
		item("e2", engine.CategoryInsurance, 450, 85.5, 157.5),
		item("e3", engine.CategoryRealEstate, 300, 57, 90),
	}
	reversed := []engine.LineItem{items[2], items[1], items[0]}

	assertSummariesEqual(t, engine.Summarize(items), engine.Summarize(reversed))
}

// =============================================================================
// EXCLUSION AND LINE-ITEM DERIVATION
// =============================================================================

func TestSummarizeEntries_ExcludesRejectedAndCancelled(t *testing.T) {
	// GIVEN: Four entries, one rejected and one cancelled
	// WHEN: Summarizing
	// THEN: Two entries counted, two excluded, excluded money absent

	rejected := billedEntry("e3", engine.CategoryBank, 9999, 0, 9999)
	rejected.Status = engine.StatusRejected
	cancelled := billedEntry("e4", engine.CategoryBank, 8888, 0, 8888)
	cancelled.Status = engine.StatusCancelled

	summary, excluded := engine.SummarizeEntries([]*engine.RevenueEntry{
		billedEntry("e1", engine.CategoryBank, 1000, 190, 400),
		billedEntry("e2", engine.CategoryInsurance, 500, 95, 150),
		rejected,
		cancelled,
	})

	if excluded != 2 {
		t.Errorf("expected 2 excluded, got %d", excluded)
	}
	if summary.EntryCount != 2 {
		t.Errorf("expected 2 counted, got %d", summary.EntryCount)
	}
	if !summary.TotalProvision.Equal(money(550)) {
		t.Errorf("excluded provision leaked into the total: %v", summary.TotalProvision)
	}
}

func TestLineItemFromEntry_DerivesProvisionVatFromRevenueRatio(t *testing.T) {
	// GIVEN: An entry with 19% VAT on revenue and a 400 provision
	// WHEN: Converting to a line item
	// THEN: Provision VAT is 400 * 19% = 76, provision gross 476

	li, ok := engine.LineItemFromEntry(billedEntry("e1", engine.CategoryBank, 1000, 190, 400))
	if !ok {
		t.Fatal("entry unexpectedly excluded")
	}
	if !li.ProvisionVat.Equal(money(76)) {
		t.Errorf("provision vat: expected 76, got %v", li.ProvisionVat)
	}
	if !li.ProvisionGross.Equal(money(476)) {
		t.Errorf("provision gross: expected 476, got %v", li.ProvisionGross)
	}
}

func TestLineItemFromEntry_ZeroNet_NoVat(t *testing.T) {
	li, ok := engine.LineItemFromEntry(billedEntry("e1", engine.CategoryBank, 0, 0, 400))
	if !ok {
		t.Fatal("entry unexpectedly excluded")
	}
	if !li.ProvisionVat.IsZero() {
		t.Errorf("zero net revenue must yield zero provision vat, got %v", li.ProvisionVat)
	}
}

// =============================================================================
// DERIVED FIGURES
// =============================================================================

func TestSummary_DerivedFigures(t *testing.T) {
	summary := engine.Summarize([]engine.LineItem{
		item("e1", engine.CategoryBank, 1000, 190, 400),
		item("e2", engine.CategoryBank, 1000, 190, 200),
	})

	if !summary.AverageProvisionPerEntry().Equal(money(300)) {
		t.Errorf("average: expected 300, got %v", summary.AverageProvisionPerEntry())
	}
	// 600 provision on 2000 net
	if !summary.EffectiveProvisionRate().Equal(pct(30)) {
		t.Errorf("effective rate: expected 30, got %v", summary.EffectiveProvisionRate())
	}
	// gross 714 minus vat 114
	if !summary.TotalProvisionNet().Equal(money(600)) {
		t.Errorf("provision net: expected 600, got %v", summary.TotalProvisionNet())
	}
}

func TestSummary_EmptyDerivedFigures(t *testing.T) {
	empty := engine.EmptySummary()
	if !empty.AverageProvisionPerEntry().IsZero() {
		t.Error("empty average must be zero")
	}
	if !empty.EffectiveProvisionRate().IsZero() {
		t.Error("empty effective rate must be zero")
	}
}
