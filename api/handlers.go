/*
handlers.go - HTTP API handlers for the commission attribution engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates every computation to the engine and the
  report builder.

ENDPOINTS:
  Hierarchy:
    GET    /api/hierarchy                 Full tree (nested)
    POST   /api/hierarchy/nodes           Create node
    PUT    /api/hierarchy/nodes/{id}/parent  Reparent node
    DELETE /api/hierarchy/nodes/{id}      Remove node

  Entries:
    GET    /api/entries                   List entries (filters)
    POST   /api/entries                   Create entry (captures snapshot)
    GET    /api/entries/{id}              Entry details
    POST   /api/entries/{id}/status       Lifecycle transition
    GET    /api/entries/{id}/cascade      Live cascade visualization

  Reports:
    GET    /api/reports/employees/{id}    Own/team/referred billing report
    GET    /api/reports/summary           Company-wide period summary

  Admin:
    POST   /api/admin/backfill            One-shot snapshot migration

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown node/entry/participant
  - 409: Illegal status transition
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/provision-engine/engine"
	"github.com/warp/provision-engine/report"
	"github.com/warp/provision-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Config   engine.CategoryConfig
	Calc     *engine.Calculator
	Resolver *engine.SnapshotResolver
	Reports  *report.Builder
}

// NewHandler creates a new handler with the given store and config.
func NewHandler(store *sqlite.Store, config engine.CategoryConfig) *Handler {
	return &Handler{
		Store:    store,
		Config:   config,
		Calc:     engine.NewCalculator(config),
		Resolver: engine.NewSnapshotResolver(config),
		Reports:  report.NewBuilder(config),
	}
}

// loadTree materializes the current tree from the node store.
func (h *Handler) loadTree(r *http.Request) (*engine.HierarchyTree, error) {
	nodes, err := h.Store.ListNodes(r.Context())
	if err != nil {
		return nil, err
	}
	return engine.BuildTree(nodes)
}

// =============================================================================
// HIERARCHY HANDLERS
// =============================================================================

// GetHierarchy returns the full tree, nested from the root.
func (h *Handler) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	tree, err := h.loadTree(r)
	if err != nil {
		writeEngineError(w, "Failed to load hierarchy", err)
		return
	}
	writeJSON(w, http.StatusOK, treeToDTO(tree, tree.Root()))
}

// CreateNode adds a node to the hierarchy.
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	node := &engine.HierarchyNode{
		ID:             engine.NodeID(req.ID),
		Name:           req.Name,
		Type:           engine.NodeType(req.Type),
		Order:          req.Order,
		BankRate:       engine.NewPercent(req.BankRate),
		InsuranceRate:  engine.NewPercent(req.InsuranceRate),
		RealEstateRate: engine.NewPercent(req.RealEstateRate),
		CareerLevel:    req.CareerLevel,
	}
	if req.ParentID != nil {
		pid := engine.NodeID(*req.ParentID)
		node.ParentID = &pid
	}

	// Validate against the current tree before persisting.
	tree, err := h.loadTree(r)
	if err == nil {
		if addErr := tree.AddNode(node); addErr != nil {
			writeEngineError(w, "Invalid node", addErr)
			return
		}
	} else if !errors.Is(err, engine.ErrNoRoot) {
		// An empty store is fine - the first node becomes the root.
		writeEngineError(w, "Failed to load hierarchy", err)
		return
	}

	if err := h.Store.SaveNode(r.Context(), node); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save node", err)
		return
	}
	writeJSON(w, http.StatusCreated, nodeToDTO(node))
}

// ReparentNode moves a node under a new parent.
func (h *Handler) ReparentNode(w http.ResponseWriter, r *http.Request) {
	id := engine.NodeID(chi.URLParam(r, "id"))

	var req ReparentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tree, err := h.loadTree(r)
	if err != nil {
		writeEngineError(w, "Failed to load hierarchy", err)
		return
	}
	if err := tree.Reparent(id, engine.NodeID(req.NewParentID)); err != nil {
		writeEngineError(w, "Cannot reparent node", err)
		return
	}

	node, _ := tree.Lookup(id)
	if err := h.Store.SaveNode(r.Context(), node); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save node", err)
		return
	}
	writeJSON(w, http.StatusOK, nodeToDTO(node))
}

// DeleteNode removes a node; its children reattach to the grandparent.
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := engine.NodeID(chi.URLParam(r, "id"))

	tree, err := h.loadTree(r)
	if err != nil {
		writeEngineError(w, "Failed to load hierarchy", err)
		return
	}
	if err := tree.RemoveNode(id); err != nil {
		writeEngineError(w, "Cannot remove node", err)
		return
	}

	// Persist the reattached children, then drop the node record.
	for _, n := range tree.Nodes() {
		if err := h.Store.SaveNode(r.Context(), n); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save node", err)
			return
		}
	}
	if err := h.Store.DeleteNode(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to delete node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// CreateEntry records a sale. The provision snapshot is captured here,
// from the live tree, exactly once.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "id and employee_id are required", nil)
		return
	}

	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "entry_date must be YYYY-MM-DD", err)
		return
	}

	entry := &engine.RevenueEntry{
		ID:              engine.EntryID(req.ID),
		EmployeeID:      engine.NodeID(req.EmployeeID),
		Category:        engine.CategoryType(req.Category),
		ProvisionAmount: engine.NewMoney(req.ProvisionAmount),
		NetRevenue:      engine.NewMoney(req.NetRevenue),
		VatRevenue:      engine.NewMoney(req.VatRevenue),
		GrossRevenue:    engine.NewMoney(req.GrossRevenue),
		Status:          engine.StatusSubmitted,
		EntryDate:       entryDate,
		CreatedAt:       time.Now().UTC(),
	}
	if req.TipProvider != nil {
		entry.TipProvider = &engine.TipProvider{
			ID:      req.TipProvider.ID,
			Name:    req.TipProvider.Name,
			Percent: engine.NewPercent(req.TipProvider.Percent),
		}
	}

	tree, err := h.loadTree(r)
	if err != nil {
		writeEngineError(w, "Failed to load hierarchy", err)
		return
	}
	if _, err := h.Resolver.Capture(entry, tree, entry.CreatedAt); err != nil {
		writeEngineError(w, "Cannot capture snapshot", err)
		return
	}

	if err := h.Store.SaveEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, entryToDTO(entry))
}

// ListEntries returns entries, optionally filtered.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter := engine.EntryFilter{}
	q := r.URL.Query()
	if v := q.Get("employee_id"); v != "" {
		id := engine.NodeID(v)
		filter.EmployeeID = &id
	}
	if v := q.Get("category"); v != "" {
		cat := engine.CategoryType(v)
		filter.Category = &cat
	}
	if v := q.Get("status"); v != "" {
		status := engine.EntryStatus(v)
		filter.Status = &status
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.To = &t
		}
	}

	entries, err := h.Store.ListEntries(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = entryToDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEntry returns one entry.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))
	entry, err := h.Store.GetEntry(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, entryToDTO(entry))
}

// UpdateEntryStatus applies a lifecycle transition.
func (h *Handler) UpdateEntryStatus(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.UpdateStatus(r.Context(), id, engine.EntryStatus(req.Status)); err != nil {
		writeEngineError(w, "Cannot update status", err)
		return
	}

	entry, err := h.Store.GetEntry(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, entryToDTO(entry))
}

// GetCascade returns the live cascade for an entry. Always computed from
// the current tree - snapshots do not apply here.
func (h *Handler) GetCascade(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))
	entry, err := h.Store.GetEntry(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get entry", err)
		return
	}

	tree, err := h.loadTree(r)
	if err != nil {
		writeEngineError(w, "Failed to load hierarchy", err)
		return
	}

	participants, err := h.Calc.Cascade(entry, tree)
	if err != nil {
		writeEngineError(w, "Cannot compute cascade", err)
		return
	}
	if r.URL.Query().Get("order") == "display" {
		participants = engine.ReverseForDisplay(participants)
	}
	writeJSON(w, http.StatusOK, cascadeToDTO(entry.ID, participants))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetEmployeeReport builds the own/team/referred billing report.
func (h *Handler) GetEmployeeReport(w http.ResponseWriter, r *http.Request) {
	id := engine.NodeID(chi.URLParam(r, "id"))
	from, to := parsePeriod(r)

	tree, err := h.loadTree(r)
	if err != nil {
		writeEngineError(w, "Failed to load hierarchy", err)
		return
	}
	entries, err := h.Store.ListEntries(r.Context(), engine.EntryFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	rep, err := h.Reports.EmployeeReport(id, entries, tree, from, to)
	if err != nil {
		writeEngineError(w, "Cannot build report", err)
		return
	}

	dto := BillingReportDTO{
		EmployeeID:      string(rep.EmployeeID),
		EmployeeName:    rep.EmployeeName,
		Own:             summaryToDTO(rep.Own),
		Team:            summaryToDTO(rep.Team),
		Referred:        summaryToDTO(rep.Referred),
		Total:           summaryToDTO(rep.Total),
		ExcludedEntries: rep.ExcludedEntries,
		FailedEntries:   len(rep.Failed),
	}
	if !from.IsZero() {
		dto.From = from.Format("2006-01-02")
	}
	if !to.IsZero() {
		dto.To = to.Format("2006-01-02")
	}
	for _, f := range rep.Failed {
		dto.Failures = append(dto.Failures, f.Reason)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetSummary returns the company-wide period summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	from, to := parsePeriod(r)

	entries, err := h.Store.ListEntries(r.Context(), engine.EntryFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	ps := h.Reports.Summary(entries, from, to)
	writeJSON(w, http.StatusOK, struct {
		Summary         SummaryDTO `json:"summary"`
		ExcludedEntries int        `json:"excluded_entries"`
	}{
		Summary:         summaryToDTO(ps.Summary),
		ExcludedEntries: ps.ExcludedEntries,
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// BackfillSnapshots runs the one-time snapshot migration over all stored
// entries. Safe to call repeatedly.
func (h *Handler) BackfillSnapshots(w http.ResponseWriter, r *http.Request) {
	tree, err := h.loadTree(r)
	if err != nil {
		writeEngineError(w, "Failed to load hierarchy", err)
		return
	}
	entries, err := h.Store.ListEntries(r.Context(), engine.EntryFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	now := time.Now().UTC()
	result := h.Resolver.BackfillSnapshots(entries, tree, now)

	// Persist the captures. Write-once at the store level too.
	for _, e := range entries {
		if !e.HasProvisionSnapshot() {
			continue
		}
		err := h.Store.SaveSnapshot(r.Context(), e.ID, *e.OwnerRateSnapshot, e.ManagerRateSnapshot, *e.HierarchySnapshot)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to persist snapshot", err)
			return
		}
	}

	resp := BackfillResponse{
		Captured: result.Captured,
		Skipped:  result.Skipped,
		Failed:   len(result.Failed),
	}
	for _, f := range result.Failed {
		resp.Failures = append(resp.Failures, f.Err.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriod(r *http.Request) (from, to time.Time) {
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t
		}
	}
	return from, to
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine error classes to HTTP statuses.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, engine.ErrStatusFinal):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
