/*
cascade.go - The provision cascade calculator

PURPOSE:
  Turns a (revenue entry, hierarchy tree) pair into an ordered list of
  participant shares. This is the core algorithm of the engine: cascading,
  delta-based percentage attribution.

ALGORITHM:
  1. Resolve the owner node; fail if absent
  2. Base rate = owner's rate field for the entry's category
  3. Tip provider (if any) takes a flat provision * p / 100 cut; the
     owner's effective rate drops to max(0, base - p)
  4. Walk the parent chain upward (root excluded), tracking a cumulative
     rate that starts at the UN-reduced base rate. An ancestor whose rate
     exceeds the cumulative rate receives the delta; one whose rate does
     not gets nothing (rate compression)
  5. The company (root) receives the remainder by subtraction, so the
     conservation invariant holds exactly:
       sum(amounts) == entry.ProvisionAmount
       sum(rates)   == 100

EXAMPLE:
  Owner 40%, manager 60%, company, entry 1000, tip provider 10%:
    owner        30%  300   (40 - 10)
    tipProvider  10%  100
    manager      20%  200   (60 - 40, delta over the un-reduced base)
    company      40%  400   (remainder)

RESOLUTION DUALITY:
  The cascade ALWAYS computes from the live tree, even for entries that
  carry a frozen snapshot. Only the flattened owner/manager figures used
  in tables prefer the snapshot (snapshot.go). The divergence is carried
  over from the original system deliberately.

SEE ALSO:
  - hierarchy.go: ParentChain traversal
  - category.go: Category-to-rate-field mapping
  - snapshot.go: The snapshot-preferring read path
*/
package engine

// =============================================================================
// PARTICIPANT - One share of the cascade
// =============================================================================

// Role is the closed set of cascade participant kinds. All roles share
// the same rate/amount shape and differ only in semantics and display.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleManager     Role = "manager"
	RoleTipProvider Role = "tipProvider"
	RoleCompany     Role = "company"
)

// Participant is one attributed share of an entry's provision.
type Participant struct {
	NodeID NodeID // empty for tip providers (outside the hierarchy)
	Name   string
	Role   Role
	Rate   Percent
	Amount Money
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes provision cascades. Pure: same (entry, tree) input
// always produces the same participant list.
type Calculator struct {
	Config CategoryConfig
}

func NewCalculator(config CategoryConfig) *Calculator {
	return &Calculator{Config: config}
}

// Cascade computes the full participant list for an entry against the
// live tree. Returned order is stable and owner-first:
// owner, tip provider, managers ascending, company. Callers reverse for
// top-down display (ReverseForDisplay).
func (c *Calculator) Cascade(entry *RevenueEntry, tree *HierarchyTree) ([]Participant, error) {
	owner, ok := tree.Lookup(entry.EmployeeID)
	if !ok {
		return nil, &ParticipantNotFoundError{EntryID: entry.ID, EmployeeID: entry.EmployeeID}
	}

	field := c.Config.RateFieldFor(entry.Category)
	baseRate := owner.Rate(field)

	var participants []Participant

	// Owner share. A tip provider reduces the owner's effective rate,
	// never the base rate the managers are measured against.
	ownerRate := baseRate
	if entry.TipProvider != nil {
		ownerRate = baseRate.Sub(entry.TipProvider.Percent).ClampZero()
	}
	participants = append(participants, Participant{
		NodeID: owner.ID,
		Name:   owner.Name,
		Role:   RoleOwner,
		Rate:   ownerRate,
		Amount: entry.ProvisionAmount.ApplyPercent(ownerRate),
	})

	// Tip provider sits directly above the owner.
	if entry.TipProvider != nil {
		participants = append(participants, Participant{
			Name:   entry.TipProvider.Name,
			Role:   RoleTipProvider,
			Rate:   entry.TipProvider.Percent,
			Amount: entry.ProvisionAmount.ApplyPercent(entry.TipProvider.Percent),
		})
	}

	// Manager deltas. Cumulative starts at the un-reduced base rate; an
	// ancestor with a lower or equal rate is compressed out.
	cumulative := baseRate
	for _, ancestor := range tree.ParentChain(owner.ID) {
		if ancestor.IsRoot() {
			break
		}
		ancestorRate := ancestor.Rate(field)
		if ancestorRate.GreaterThan(cumulative) {
			delta := ancestorRate.Sub(cumulative)
			participants = append(participants, Participant{
				NodeID: ancestor.ID,
				Name:   ancestor.Name,
				Role:   RoleManager,
				Rate:   delta,
				Amount: entry.ProvisionAmount.ApplyPercent(delta),
			})
		}
		cumulative = cumulative.Max(ancestorRate)
	}

	// Company remainder, by subtraction so conservation is exact.
	emittedRate := ZeroPercent()
	emittedAmount := ZeroMoney()
	for _, p := range participants {
		emittedRate = emittedRate.Add(p.Rate)
		emittedAmount = emittedAmount.Add(p.Amount)
	}
	root := tree.Root()
	participants = append(participants, Participant{
		NodeID: root.ID,
		Name:   root.Name,
		Role:   RoleCompany,
		Rate:   HundredPercent().Sub(emittedRate).ClampZero(),
		Amount: entry.ProvisionAmount.Sub(emittedAmount),
	})

	return participants, nil
}

// ReverseForDisplay returns the cascade in top-down presentation order:
// company, managers descending, tip provider, owner.
func ReverseForDisplay(participants []Participant) []Participant {
	out := make([]Participant, len(participants))
	for i, p := range participants {
		out[len(participants)-1-i] = p
	}
	return out
}

// CascadeTotal sums the participant amounts. Together with the
// conservation invariant this always equals the entry's provision amount.
func CascadeTotal(participants []Participant) Money {
	total := ZeroMoney()
	for _, p := range participants {
		total = total.Add(p.Amount)
	}
	return total
}
