/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  JSON shapes exchanged with clients, kept separate from the engine types.
  Money and percentages travel as strings so clients never see binary
  float artifacts in billing figures.

SEE ALSO:
  - handlers.go: Uses these DTOs
  - engine/: The domain types they mirror
*/
package api

import (
	"time"

	"github.com/warp/provision-engine/engine"
)

// =============================================================================
// HIERARCHY DTOs
// =============================================================================

type NodeDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ParentID       *string `json:"parent_id,omitempty"`
	Type           string  `json:"type"`
	Order          int     `json:"order"`
	BankRate       string  `json:"bank_rate"`
	InsuranceRate  string  `json:"insurance_rate"`
	RealEstateRate string  `json:"real_estate_rate"`
	CareerLevel    string  `json:"career_level,omitempty"`

	Children []NodeDTO `json:"children,omitempty"`
}

func nodeToDTO(n *engine.HierarchyNode) NodeDTO {
	dto := NodeDTO{
		ID:             string(n.ID),
		Name:           n.Name,
		Type:           string(n.Type),
		Order:          n.Order,
		BankRate:       n.BankRate.String(),
		InsuranceRate:  n.InsuranceRate.String(),
		RealEstateRate: n.RealEstateRate.String(),
		CareerLevel:    n.CareerLevel,
	}
	if n.ParentID != nil {
		pid := string(*n.ParentID)
		dto.ParentID = &pid
	}
	return dto
}

// treeToDTO renders the tree recursively from the root, children in
// display order.
func treeToDTO(tree *engine.HierarchyTree, node *engine.HierarchyNode) NodeDTO {
	dto := nodeToDTO(node)
	for _, child := range tree.Children(node.ID) {
		dto.Children = append(dto.Children, treeToDTO(tree, child))
	}
	return dto
}

type CreateNodeRequest struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ParentID       *string `json:"parent_id"`
	Type           string  `json:"type"`
	Order          int     `json:"order"`
	BankRate       float64 `json:"bank_rate"`
	InsuranceRate  float64 `json:"insurance_rate"`
	RealEstateRate float64 `json:"real_estate_rate"`
	CareerLevel    string  `json:"career_level,omitempty"`
}

type ReparentRequest struct {
	NewParentID string `json:"new_parent_id"`
}

// =============================================================================
// ENTRY DTOs
// =============================================================================

type TipProviderDTO struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

type CreateEntryRequest struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	Category        string          `json:"category"`
	ProvisionAmount float64         `json:"provision_amount"`
	NetRevenue      float64         `json:"net_revenue"`
	VatRevenue      float64         `json:"vat_revenue"`
	GrossRevenue    float64         `json:"gross_revenue"`
	TipProvider     *TipProviderDTO `json:"tip_provider,omitempty"`
	EntryDate       string          `json:"entry_date"` // 2006-01-02
}

type EntryDTO struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	Category        string          `json:"category"`
	ProvisionAmount string          `json:"provision_amount"`
	NetRevenue      string          `json:"net_revenue"`
	VatRevenue      string          `json:"vat_revenue"`
	GrossRevenue    string          `json:"gross_revenue"`
	TipProvider     *TipProviderDTO `json:"tip_provider,omitempty"`
	Status          string          `json:"status"`
	HasSnapshot     bool            `json:"has_snapshot"`
	OwnerRate       *string         `json:"owner_rate_snapshot,omitempty"`
	ManagerRate     *string         `json:"manager_rate_snapshot,omitempty"`
	EntryDate       string          `json:"entry_date"`
	CreatedAt       string          `json:"created_at"`
}

func entryToDTO(e *engine.RevenueEntry) EntryDTO {
	dto := EntryDTO{
		ID:              string(e.ID),
		EmployeeID:      string(e.EmployeeID),
		Category:        string(e.Category),
		ProvisionAmount: e.ProvisionAmount.String(),
		NetRevenue:      e.NetRevenue.String(),
		VatRevenue:      e.VatRevenue.String(),
		GrossRevenue:    e.GrossRevenue.String(),
		Status:          string(e.Status),
		HasSnapshot:     e.HasProvisionSnapshot(),
		EntryDate:       e.EntryDate.Format("2006-01-02"),
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
	if e.TipProvider != nil {
		percent, _ := e.TipProvider.Percent.Value.Float64()
		dto.TipProvider = &TipProviderDTO{
			ID:      e.TipProvider.ID,
			Name:    e.TipProvider.Name,
			Percent: percent,
		}
	}
	if e.OwnerRateSnapshot != nil {
		s := e.OwnerRateSnapshot.String()
		dto.OwnerRate = &s
	}
	if e.ManagerRateSnapshot != nil {
		s := e.ManagerRateSnapshot.String()
		dto.ManagerRate = &s
	}
	return dto
}

type StatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// CASCADE DTOs
// =============================================================================

type ParticipantDTO struct {
	NodeID string `json:"node_id,omitempty"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Rate   string `json:"rate"`
	Amount string `json:"amount"`
}

type CascadeDTO struct {
	EntryID      string           `json:"entry_id"`
	Total        string           `json:"total"`
	Participants []ParticipantDTO `json:"participants"`
}

func cascadeToDTO(entryID engine.EntryID, participants []engine.Participant) CascadeDTO {
	dto := CascadeDTO{
		EntryID: string(entryID),
		Total:   engine.CascadeTotal(participants).Round2().String(),
	}
	for _, p := range participants {
		dto.Participants = append(dto.Participants, ParticipantDTO{
			NodeID: string(p.NodeID),
			Name:   p.Name,
			Role:   string(p.Role),
			Rate:   p.Rate.String(),
			Amount: p.Amount.Round2().String(),
		})
	}
	return dto
}

// =============================================================================
// REPORT DTOs
// =============================================================================

type CategoryTotalDTO struct {
	EntryCount int    `json:"entry_count"`
	Net        string `json:"net"`
	Provision  string `json:"provision"`
}

type SummaryDTO struct {
	EntryCount          int                         `json:"entry_count"`
	TotalNet            string                      `json:"total_net"`
	TotalVat            string                      `json:"total_vat"`
	TotalGross          string                      `json:"total_gross"`
	TotalProvision      string                      `json:"total_provision"`
	TotalProvisionVat   string                      `json:"total_provision_vat"`
	TotalProvisionGross string                      `json:"total_provision_gross"`
	TotalProvisionNet   string                      `json:"total_provision_net"`
	AveragePerEntry     string                      `json:"average_provision_per_entry"`
	EffectiveRate       string                      `json:"effective_provision_rate"`
	Categories          map[string]CategoryTotalDTO `json:"categories"`
}

func summaryToDTO(s engine.ProvisionSummary) SummaryDTO {
	dto := SummaryDTO{
		EntryCount:          s.EntryCount,
		TotalNet:            s.TotalNet.Round2().String(),
		TotalVat:            s.TotalVat.Round2().String(),
		TotalGross:          s.TotalGross.Round2().String(),
		TotalProvision:      s.TotalProvision.Round2().String(),
		TotalProvisionVat:   s.TotalProvisionVat.Round2().String(),
		TotalProvisionGross: s.TotalProvisionGross.Round2().String(),
		TotalProvisionNet:   s.TotalProvisionNet().Round2().String(),
		AveragePerEntry:     s.AverageProvisionPerEntry().Round2().String(),
		EffectiveRate:       s.EffectiveProvisionRate().String(),
		Categories:          make(map[string]CategoryTotalDTO, len(s.Categories)),
	}
	for cat, total := range s.Categories {
		dto.Categories[string(cat)] = CategoryTotalDTO{
			EntryCount: total.EntryCount,
			Net:        total.Net.Round2().String(),
			Provision:  total.Provision.Round2().String(),
		}
	}
	return dto
}

type BillingReportDTO struct {
	EmployeeID      string     `json:"employee_id"`
	EmployeeName    string     `json:"employee_name"`
	From            string     `json:"from,omitempty"`
	To              string     `json:"to,omitempty"`
	Own             SummaryDTO `json:"own"`
	Team            SummaryDTO `json:"team"`
	Referred        SummaryDTO `json:"referred"`
	Total           SummaryDTO `json:"total"`
	ExcludedEntries int        `json:"excluded_entries"`
	FailedEntries   int        `json:"failed_entries"`
	Failures        []string   `json:"failures,omitempty"`
}

type BackfillResponse struct {
	Captured int      `json:"captured"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Failures []string `json:"failures,omitempty"`
}

// =============================================================================
// ERROR RESPONSE
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
