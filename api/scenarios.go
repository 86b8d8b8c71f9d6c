/*
scenarios.go - Demo scenarios for exploring the engine

PURPOSE:
  Seeds the store with a small brokerage hierarchy and a handful of
  revenue entries so the cascade and report endpoints have something to
  show. Dev/demo only; production data arrives through the API and the
  external import pipeline.

SCENARIOS:
  standard-brokerage: Three-level hierarchy (company, division, team,
                      consultants) with mixed-category entries, one tip
                      provider and one rejected entry.

SEE ALSO:
  - handlers.go: Endpoint wiring
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/warp/provision-engine/engine"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []Scenario{
	{
		ID:          "standard-brokerage",
		Name:        "Standard Brokerage",
		Description: "Three-level hierarchy with bank, insurance and real estate entries, one tip provider and one rejected entry.",
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario seeds the store with the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		id = "standard-brokerage"
	}
	if id != "standard-brokerage" {
		writeError(w, http.StatusNotFound, "Unknown scenario", nil)
		return
	}

	if err := h.seedStandardBrokerage(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"loaded": id})
}

func (h *Handler) seedStandardBrokerage(ctx context.Context) error {
	company := engine.NodeID("company")
	north := engine.NodeID("division-north")
	teamA := engine.NodeID("team-a")

	nodes := []*engine.HierarchyNode{
		{
			ID: company, Name: "Musterhaus Finanz", Type: engine.NodeRoot,
			BankRate: engine.NewPercent(100), InsuranceRate: engine.NewPercent(100), RealEstateRate: engine.NewPercent(100),
		},
		{
			ID: north, Name: "Division Nord", ParentID: &company, Type: engine.NodeDivision, Order: 1,
			BankRate: engine.NewPercent(75), InsuranceRate: engine.NewPercent(65), RealEstateRate: engine.NewPercent(60),
			CareerLevel: "Division Manager",
		},
		{
			ID: teamA, Name: "Team Hamburg", ParentID: &north, Type: engine.NodeTeam, Order: 1,
			BankRate: engine.NewPercent(60), InsuranceRate: engine.NewPercent(50), RealEstateRate: engine.NewPercent(45),
			CareerLevel: "Team Lead",
		},
		{
			ID: "emp-schmidt", Name: "A. Schmidt", ParentID: &teamA, Type: engine.NodePerson, Order: 1,
			BankRate: engine.NewPercent(40), InsuranceRate: engine.NewPercent(35), RealEstateRate: engine.NewPercent(30),
			CareerLevel: "Senior Consultant",
		},
		{
			ID: "emp-weber", Name: "B. Weber", ParentID: &teamA, Type: engine.NodePerson, Order: 2,
			BankRate: engine.NewPercent(25), InsuranceRate: engine.NewPercent(20), RealEstateRate: engine.NewPercent(15),
			CareerLevel: "Junior Consultant",
		},
	}
	for _, n := range nodes {
		if err := h.Store.SaveNode(ctx, n); err != nil {
			return err
		}
	}

	tree, err := engine.BuildTree(nodes)
	if err != nil {
		return err
	}

	date := func(day int) time.Time { return time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC) }
	entries := []*engine.RevenueEntry{
		{
			ID: "entry-1", EmployeeID: "emp-schmidt", Category: engine.CategoryBank,
			ProvisionAmount: engine.NewMoney(1000),
			NetRevenue:      engine.NewMoney(1000), VatRevenue: engine.NewMoney(190), GrossRevenue: engine.NewMoney(1190),
			Status: engine.StatusProvisioned, EntryDate: date(3),
		},
		{
			ID: "entry-2", EmployeeID: "emp-schmidt", Category: engine.CategoryInsurance,
			ProvisionAmount: engine.NewMoney(450),
			NetRevenue:      engine.NewMoney(450), VatRevenue: engine.NewMoney(85.5), GrossRevenue: engine.NewMoney(535.5),
			TipProvider: &engine.TipProvider{ID: "tip-koch", Name: "C. Koch", Percent: engine.NewPercent(10)},
			Status:      engine.StatusSubmitted, EntryDate: date(10),
		},
		{
			ID: "entry-3", EmployeeID: "emp-weber", Category: engine.CategoryRealEstate,
			ProvisionAmount: engine.NewMoney(2400),
			NetRevenue:      engine.NewMoney(2400), VatRevenue: engine.NewMoney(456), GrossRevenue: engine.NewMoney(2856),
			Status: engine.StatusSubmitted, EntryDate: date(14),
		},
		{
			ID: "entry-4", EmployeeID: "emp-weber", Category: engine.CategoryBank,
			ProvisionAmount: engine.NewMoney(300),
			NetRevenue:      engine.NewMoney(300), VatRevenue: engine.NewMoney(57), GrossRevenue: engine.NewMoney(357),
			Status: engine.StatusRejected, EntryDate: date(21),
		},
	}

	now := time.Now().UTC()
	for _, e := range entries {
		if _, err := h.Resolver.Capture(e, tree, now); err != nil {
			return err
		}
		if err := h.Store.SaveEntry(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
