/*
billing.go - Summary aggregation over revenue line items

PURPOSE:
  Folds many line items into per-category and overall billing summaries.
  The fold is commutative and associative, and the same combination is
  exposed directly on two already-computed summaries (Merge), so a report
  can be assembled from own / team / referred partial summaries without
  re-deriving from raw entries.

ALGEBRA:
  Summarize(A ++ B) == Merge(Summarize(A), Summarize(B))
  for ANY partition of a line-item sequence. This also makes monthly
  aggregation embarrassingly parallel - partitions can be summarized
  independently and merged.

EXCLUSION:
  Rejected and cancelled entries never become line items. The count of
  entries excluded this way is reported alongside the summary, purely
  informational - it is not mixed into the monetary totals.

SEE ALSO:
  - entry.go: Status lifecycle that drives exclusion
  - report/: Own/team/referred report assembly on top of Merge
*/
package engine

// =============================================================================
// LINE ITEM - One entry's contribution to a summary
// =============================================================================

// LineItem carries the revenue and provision figures of one entry plus
// its category tag. The aggregation has no ordering dependency over these.
type LineItem struct {
	EntryID  EntryID
	Category CategoryType

	Net   Money
	Vat   Money
	Gross Money

	Provision      Money
	ProvisionVat   Money
	ProvisionGross Money
}

// LineItemFromEntry converts an entry into a line item. The second return
// is false for entries excluded from billing (rejected/cancelled).
func LineItemFromEntry(e *RevenueEntry) (LineItem, bool) {
	if !e.Status.CountsForBilling() {
		return LineItem{}, false
	}
	// Provision VAT follows the entry's own revenue VAT ratio.
	provisionVat := ZeroMoney()
	if !e.NetRevenue.IsZero() {
		provisionVat = Money{Value: e.ProvisionAmount.Value.Mul(e.VatRevenue.Value).Div(e.NetRevenue.Value)}
	}
	return LineItem{
		EntryID:        e.ID,
		Category:       e.Category,
		Net:            e.NetRevenue,
		Vat:            e.VatRevenue,
		Gross:          e.GrossRevenue,
		Provision:      e.ProvisionAmount,
		ProvisionVat:   provisionVat,
		ProvisionGross: e.ProvisionAmount.Add(provisionVat),
	}, true
}

// =============================================================================
// PROVISION SUMMARY - Immutable aggregation value
// =============================================================================

// CategoryTotal is the per-category slice of a summary.
type CategoryTotal struct {
	EntryCount int
	Net        Money
	Provision  Money
}

func (c CategoryTotal) add(b CategoryTotal) CategoryTotal {
	return CategoryTotal{
		EntryCount: c.EntryCount + b.EntryCount,
		Net:        c.Net.Add(b.Net),
		Provision:  c.Provision.Add(b.Provision),
	}
}

// ProvisionSummary is the aggregation value: entry count, money totals
// and a category breakdown. Treat as immutable - Merge returns a fresh
// value and never mutates its inputs.
type ProvisionSummary struct {
	EntryCount int

	TotalNet   Money
	TotalVat   Money
	TotalGross Money

	TotalProvision      Money
	TotalProvisionVat   Money
	TotalProvisionGross Money

	Categories map[CategoryType]CategoryTotal
}

// EmptySummary returns the identity element of Merge.
func EmptySummary() ProvisionSummary {
	return ProvisionSummary{
		TotalNet:            ZeroMoney(),
		TotalVat:            ZeroMoney(),
		TotalGross:          ZeroMoney(),
		TotalProvision:      ZeroMoney(),
		TotalProvisionVat:   ZeroMoney(),
		TotalProvisionGross: ZeroMoney(),
		Categories:          map[CategoryType]CategoryTotal{},
	}
}

// TotalProvisionNet is derived: gross provision minus provision VAT.
func (s ProvisionSummary) TotalProvisionNet() Money {
	return s.TotalProvisionGross.Sub(s.TotalProvisionVat)
}

// AverageProvisionPerEntry is derived; zero for an empty summary.
func (s ProvisionSummary) AverageProvisionPerEntry() Money {
	if s.EntryCount == 0 {
		return ZeroMoney()
	}
	return s.TotalProvision.Div(int64(s.EntryCount))
}

// EffectiveProvisionRate is derived: totalProvision / totalNet * 100.
// Zero when there is no net revenue.
func (s ProvisionSummary) EffectiveProvisionRate() Percent {
	if s.TotalNet.IsZero() {
		return ZeroPercent()
	}
	return Percent{Value: s.TotalProvision.Value.Div(s.TotalNet.Value).Mul(HundredPercent().Value)}
}

// =============================================================================
// SUMMARIZE / MERGE - The associative fold
// =============================================================================

// Summarize folds a line-item sequence into one summary by straightforward
// summation. Commutative and associative over the input order.
func Summarize(items []LineItem) ProvisionSummary {
	s := EmptySummary()
	for _, item := range items {
		s.EntryCount++
		s.TotalNet = s.TotalNet.Add(item.Net)
		s.TotalVat = s.TotalVat.Add(item.Vat)
		s.TotalGross = s.TotalGross.Add(item.Gross)
		s.TotalProvision = s.TotalProvision.Add(item.Provision)
		s.TotalProvisionVat = s.TotalProvisionVat.Add(item.ProvisionVat)
		s.TotalProvisionGross = s.TotalProvisionGross.Add(item.ProvisionGross)
		s.Categories[item.Category] = s.Categories[item.Category].add(CategoryTotal{
			EntryCount: 1,
			Net:        item.Net,
			Provision:  item.Provision,
		})
	}
	return s
}

// Merge combines two summaries field-wise, merging category maps key-wise.
// Associative with EmptySummary as identity:
//
//	Summarize(A ++ B) == Merge(Summarize(A), Summarize(B))
func Merge(a, b ProvisionSummary) ProvisionSummary {
	out := ProvisionSummary{
		EntryCount:          a.EntryCount + b.EntryCount,
		TotalNet:            a.TotalNet.Add(b.TotalNet),
		TotalVat:            a.TotalVat.Add(b.TotalVat),
		TotalGross:          a.TotalGross.Add(b.TotalGross),
		TotalProvision:      a.TotalProvision.Add(b.TotalProvision),
		TotalProvisionVat:   a.TotalProvisionVat.Add(b.TotalProvisionVat),
		TotalProvisionGross: a.TotalProvisionGross.Add(b.TotalProvisionGross),
		Categories:          make(map[CategoryType]CategoryTotal, len(a.Categories)+len(b.Categories)),
	}
	for cat, total := range a.Categories {
		out.Categories[cat] = total
	}
	for cat, total := range b.Categories {
		out.Categories[cat] = out.Categories[cat].add(total)
	}
	return out
}

// SummarizeEntries is the common path from raw entries: converts each to
// a line item, skipping rejected/cancelled ones, and returns the summary
// plus the excluded count.
func SummarizeEntries(entries []*RevenueEntry) (ProvisionSummary, int) {
	items := make([]LineItem, 0, len(entries))
	excluded := 0
	for _, e := range entries {
		item, ok := LineItemFromEntry(e)
		if !ok {
			excluded++
			continue
		}
		items = append(items, item)
	}
	return Summarize(items), excluded
}
