/*
Package report assembles billing reports on top of the attribution engine.

PURPOSE:
  The engine computes one cascade or one summary at a time; this package
  turns stores full of entries into the documents the billing side
  actually consumes: per-employee reports (own / team / referred revenue)
  and period summaries, with per-entry failure isolation.

REVENUE BUCKETS:
  Own:      Entries the employee made themselves
  Team:     Entries made by anyone below them in the hierarchy
  Referred: Entries where the employee appears as the tip provider

  The three buckets are summarized independently and combined with
  engine.Merge - never re-derived from raw entries - which is exactly the
  associativity property the engine guarantees.

FAILURE ISOLATION:
  A monthly report runs over hundreds of entries. One entry whose owner
  has left the tree must not abort the report: it is excluded and counted,
  and the report surfaces "N entries could not be computed".

SEE ALSO:
  - engine/billing.go: Summarize/Merge algebra
  - engine/cascade.go: Per-entry participant lists for statements
*/
package report

import (
	"time"

	"github.com/warp/provision-engine/engine"
)

// =============================================================================
// BUILDER
// =============================================================================

// Builder assembles reports. Pure with respect to its inputs: entries and
// tree are caller-provided snapshots for the duration of one build.
type Builder struct {
	Calc     *engine.Calculator
	Resolver *engine.SnapshotResolver
}

func NewBuilder(config engine.CategoryConfig) *Builder {
	return &Builder{
		Calc:     engine.NewCalculator(config),
		Resolver: engine.NewSnapshotResolver(config),
	}
}

// EntryFailure records one entry that could not be computed.
type EntryFailure struct {
	EntryID engine.EntryID
	Reason  string
}

// =============================================================================
// EMPLOYEE BILLING REPORT - own / team / referred
// =============================================================================

// BillingReport is the per-employee rollup for a period.
type BillingReport struct {
	EmployeeID   engine.NodeID
	EmployeeName string
	From, To     time.Time

	Own      engine.ProvisionSummary
	Team     engine.ProvisionSummary
	Referred engine.ProvisionSummary

	// Total is Merge(Own, Team, Referred), computed once at build time.
	Total engine.ProvisionSummary

	// ExcludedEntries counts rejected/cancelled entries that were
	// filtered before aggregation. Informational.
	ExcludedEntries int

	// Failed lists entries that could not be classified or computed.
	Failed []EntryFailure
}

// EmployeeReport classifies every entry into own/team/referred buckets
// for the given employee and merges the three summaries. Entries whose
// owner does not resolve in the tree are isolated into Failed.
func (b *Builder) EmployeeReport(employeeID engine.NodeID, entries []*engine.RevenueEntry, tree *engine.HierarchyTree, from, to time.Time) (BillingReport, error) {
	employee, ok := tree.Lookup(employeeID)
	if !ok {
		return BillingReport{}, &engine.ParticipantNotFoundError{EmployeeID: employeeID}
	}

	report := BillingReport{
		EmployeeID:   employeeID,
		EmployeeName: employee.Name,
		From:         from,
		To:           to,
	}

	var own, team, referred []*engine.RevenueEntry
	for _, e := range entries {
		if !inPeriod(e, from, to) {
			continue
		}
		if !e.Status.CountsForBilling() {
			report.ExcludedEntries++
			continue
		}

		// Referred revenue is independent of the hierarchy: an entry can
		// be both someone's team revenue and this employee's referral.
		if e.TipProvider != nil && e.TipProvider.ID == string(employeeID) {
			referred = append(referred, e)
		}

		switch {
		case e.EmployeeID == employeeID:
			own = append(own, e)
		case tree.IsAncestor(employeeID, e.EmployeeID):
			team = append(team, e)
		default:
			if _, found := tree.Lookup(e.EmployeeID); !found {
				report.Failed = append(report.Failed, EntryFailure{
					EntryID: e.ID,
					Reason:  (&engine.ParticipantNotFoundError{EntryID: e.ID, EmployeeID: e.EmployeeID}).Error(),
				})
			}
		}
	}

	report.Own, _ = engine.SummarizeEntries(own)
	report.Team, _ = engine.SummarizeEntries(team)
	report.Referred, _ = engine.SummarizeEntries(referred)
	report.Total = engine.Merge(engine.Merge(report.Own, report.Team), report.Referred)
	return report, nil
}

func inPeriod(e *engine.RevenueEntry, from, to time.Time) bool {
	if !from.IsZero() && e.EntryDate.Before(from) {
		return false
	}
	if !to.IsZero() && e.EntryDate.After(to) {
		return false
	}
	return true
}

// =============================================================================
// PERIOD SUMMARY - company-wide rollup
// =============================================================================

// PeriodSummary is the company-wide summary for a period.
type PeriodSummary struct {
	From, To        time.Time
	Summary         engine.ProvisionSummary
	ExcludedEntries int
}

// Summary aggregates all billable entries in [from, to].
func (b *Builder) Summary(entries []*engine.RevenueEntry, from, to time.Time) PeriodSummary {
	var inRange []*engine.RevenueEntry
	for _, e := range entries {
		if inPeriod(e, from, to) {
			inRange = append(inRange, e)
		}
	}
	summary, excluded := engine.SummarizeEntries(inRange)
	return PeriodSummary{From: from, To: to, Summary: summary, ExcludedEntries: excluded}
}

// =============================================================================
// CASCADE STATEMENT - participant lists for a batch of entries
// =============================================================================

// StatementLine is one entry's cascade, for the export collaborator.
type StatementLine struct {
	Entry        *engine.RevenueEntry
	Participants []engine.Participant
}

// CascadeStatement computes the live cascade for every entry, isolating
// per-entry failures instead of aborting the batch.
func (b *Builder) CascadeStatement(entries []*engine.RevenueEntry, tree *engine.HierarchyTree) ([]StatementLine, []EntryFailure) {
	var lines []StatementLine
	var failed []EntryFailure
	for _, e := range entries {
		participants, err := b.Calc.Cascade(e, tree)
		if err != nil {
			failed = append(failed, EntryFailure{EntryID: e.ID, Reason: err.Error()})
			continue
		}
		lines = append(lines, StatementLine{Entry: e, Participants: participants})
	}
	return lines, failed
}
