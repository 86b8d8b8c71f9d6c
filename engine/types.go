/*
Package engine provides the core commission attribution engine.

PURPOSE:
  This package contains the types and algorithms for splitting the
  commission ("provision") on a sale across the employee who made it, the
  managers above them, an optional external referrer (tip provider), and
  the company. The same engine also rolls many splits into billing
  summaries.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal
  - Percent: A percentage in [0, 100], also decimal-backed
  - CategoryType: Which line of business a sale belongs to
  - EntryStatus: Lifecycle state of a revenue entry
  - Node/Entry IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Determinism: Same (entry, tree) input always yields the same split
  3. Type Safety: Strong typing for IDs prevents mixing node/entry IDs
  4. Purity: No I/O, no shared mutable state inside a computation

USAGE:
  amount := engine.NewMoney(1000)
  rate := engine.NewPercent(40)
  share := amount.ApplyPercent(rate) // 400

SEE ALSO:
  - hierarchy.go: Organizational tree with per-category rates
  - cascade.go: The provision cascade calculator
  - billing.go: Summary aggregation
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount (decimal-backed, never float)
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money        { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money        { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool       { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool    { return m.Value.LessThan(b.Value) }
func (m Money) Div(n int64) Money        { return Money{Value: m.Value.Div(decimal.NewFromInt(n))} }

// ApplyPercent returns m * p / 100. This is THE money operation of the
// cascade: every participant amount is provision * rate / 100.
func (m Money) ApplyPercent(p Percent) Money {
	return Money{Value: m.Value.Mul(p.Value).Div(decimal.NewFromInt(100))}
}

// Round2 rounds to two decimal places (cents). Used at presentation
// boundaries only - internal arithmetic stays at full precision so the
// conservation invariant holds exactly.
func (m Money) Round2() Money  { return Money{Value: m.Value.Round(2)} }
func (m Money) String() string { return m.Value.StringFixed(2) }

// =============================================================================
// PERCENT - Percentage in [0, 100]
// =============================================================================

type Percent struct {
	Value decimal.Decimal
}

func NewPercent(value float64) Percent {
	return Percent{Value: decimal.NewFromFloat(value)}
}

func MustParsePercent(s string) Percent {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Percent{Value: decimal.Zero}
	}
	return Percent{Value: d}
}

func ZeroPercent() Percent { return Percent{Value: decimal.Zero} }

// HundredPercent is the full provision of an entry; the company share is
// always 100 minus everything attributed below it.
func HundredPercent() Percent { return Percent{Value: decimal.NewFromInt(100)} }

func (p Percent) Add(b Percent) Percent      { return Percent{Value: p.Value.Add(b.Value)} }
func (p Percent) Sub(b Percent) Percent      { return Percent{Value: p.Value.Sub(b.Value)} }
func (p Percent) IsZero() bool               { return p.Value.IsZero() }
func (p Percent) IsNegative() bool           { return p.Value.IsNegative() }
func (p Percent) Equal(b Percent) bool       { return p.Value.Equal(b.Value) }
func (p Percent) GreaterThan(b Percent) bool { return p.Value.GreaterThan(b.Value) }
func (p Percent) LessThan(b Percent) bool    { return p.Value.LessThan(b.Value) }

func (p Percent) Max(b Percent) Percent {
	if p.GreaterThan(b) {
		return p
	}
	return b
}

// ClampZero floors a percentage at 0. The cascade never emits a negative
// rate: a tip provider larger than the owner rate zeroes the owner share.
func (p Percent) ClampZero() Percent {
	if p.IsNegative() {
		return ZeroPercent()
	}
	return p
}

// InRange reports whether p is a valid configured rate (0..100 inclusive).
func (p Percent) InRange() bool {
	return !p.IsNegative() && !p.GreaterThan(HundredPercent())
}

func (p Percent) String() string { return p.Value.StringFixed(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type NodeID string
type EntryID string

// =============================================================================
// CATEGORY - Line of business a revenue entry belongs to
// =============================================================================

type CategoryType string

const (
	CategoryBank               CategoryType = "bank"
	CategoryInsurance          CategoryType = "insurance"
	CategoryRealEstate         CategoryType = "realEstate"
	CategoryPropertyManagement CategoryType = "propertyManagement"
	CategoryEnergyContracts    CategoryType = "energyContracts"
)

// AllCategories lists every known category, in display order.
var AllCategories = []CategoryType{
	CategoryBank,
	CategoryInsurance,
	CategoryRealEstate,
	CategoryPropertyManagement,
	CategoryEnergyContracts,
}

// RateField names one of the three independent rate fields a hierarchy
// node carries. Several categories can map to the same field; a category
// can also map to no field at all (RateFieldNone), in which case the
// owner-payable rate is zero and the full provision stays with the company.
type RateField string

const (
	RateFieldBank       RateField = "bank"
	RateFieldInsurance  RateField = "insurance"
	RateFieldRealEstate RateField = "realEstate"
	RateFieldNone       RateField = "none"
)

// =============================================================================
// ENTRY STATUS - Lifecycle of a revenue entry
// =============================================================================

type EntryStatus string

const (
	StatusSubmitted   EntryStatus = "submitted"
	StatusProvisioned EntryStatus = "provisioned"
	StatusRejected    EntryStatus = "rejected"
	StatusCancelled   EntryStatus = "cancelled"
)

// IsTerminal reports whether the status can never change again.
// Submitted is the only non-terminal state.
func (s EntryStatus) IsTerminal() bool {
	return s == StatusProvisioned || s == StatusRejected || s == StatusCancelled
}

// CountsForBilling reports whether entries in this status participate in
// aggregate calculations. Rejected and cancelled entries are excluded
// from every summary.
func (s EntryStatus) CountsForBilling() bool {
	return s == StatusSubmitted || s == StatusProvisioned
}

func (s EntryStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusProvisioned, StatusRejected, StatusCancelled:
		return true
	}
	return false
}
