package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

// listProjects handles GET /api/projects?status=ACTIVE.
func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	var status *core.ProjectStatus
	if s := r.URL.Query().Get("status"); s != "" {
		ps := core.ProjectStatus(s)
		if !ps.Valid() {
			writeError(w, r, "unknown project status "+s, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		status = &ps
	}
	projects, err := h.svc.ListProjects(r.Context(), companyID(r), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, projects)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string          `json:"name"`
		CustomerName string          `json:"customer_name"`
		Budget       decimal.Decimal `json:"budget"`
		StartDate    string          `json:"start_date"`
		EndDate      string          `json:"end_date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	start, ok := parseOptionalDate(w, r, "start_date", req.StartDate)
	if !ok {
		return
	}
	end, ok := parseOptionalDate(w, r, "end_date", req.EndDate)
	if !ok {
		return
	}
	p, err := h.svc.CreateProject(r.Context(), companyID(r), core.ProjectInput{
		Name:         req.Name,
		CustomerName: req.CustomerName,
		Budget:       req.Budget,
		StartDate:    start,
		EndDate:      end,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, p)
}

// getProject handles GET /api/projects/{id}; {id} may also be a project number.
func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetProject(r.Context(), companyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) updateProjectStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateProjectStatus(r.Context(), companyID(r), id, core.ProjectStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

type phaseRequest struct {
	Name         string          `json:"name"`
	SortOrder    int             `json:"sort_order"`
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	ActualAmount decimal.Decimal `json:"actual_amount"`
	IsCompleted  bool            `json:"is_completed"`
}

func (p phaseRequest) input() core.PhaseInput {
	return core.PhaseInput{
		Name:         p.Name,
		SortOrder:    p.SortOrder,
		BudgetAmount: p.BudgetAmount,
		ActualAmount: p.ActualAmount,
		IsCompleted:  p.IsCompleted,
	}
}

func (h *Handler) addPhase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req phaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	phase, err := h.svc.AddPhase(r.Context(), companyID(r), id, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, phase)
}

func (h *Handler) updatePhase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	phaseID, ok := pathID(w, r, "phaseId")
	if !ok {
		return
	}
	var req phaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	phase, err := h.svc.UpdatePhase(r.Context(), companyID(r), id, phaseID, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, phase)
}

func (h *Handler) listBudgetLines(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.svc.ListBudgetLines(r.Context(), companyID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) addBudgetLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		ProjectPhaseID   *int            `json:"project_phase_id"`
		CostType         string          `json:"cost_type"`
		Description      string          `json:"description"`
		PlannedQuantity  decimal.Decimal `json:"planned_quantity"`
		PlannedUnitPrice decimal.Decimal `json:"planned_unit_price"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	line, err := h.svc.AddBudgetLine(r.Context(), companyID(r), id, core.BudgetLineInput{
		ProjectPhaseID:   req.ProjectPhaseID,
		CostType:         core.CostType(req.CostType),
		Description:      req.Description,
		PlannedQuantity:  req.PlannedQuantity,
		PlannedUnitPrice: req.PlannedUnitPrice,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, line)
}

// ── Cost ledger and controlling ───────────────────────────────────────────────

func (h *Handler) listCostEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.svc.ListCostEntries(r.Context(), companyID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

// recordManualCost handles POST /api/projects/{id}/cost-entries for
// EXTERNAL and OVERHEAD costs.
func (h *Handler) recordManualCost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		ProjectPhaseID *int            `json:"project_phase_id"`
		EntryDate      string          `json:"entry_date"`
		CostType       string          `json:"cost_type"`
		Description    string          `json:"description"`
		Amount         decimal.Decimal `json:"amount"`
		IsDirectCost   *bool           `json:"is_direct_cost"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := parseDate(w, r, "entry_date", req.EntryDate)
	if !ok {
		return
	}
	direct := true
	if req.IsDirectCost != nil {
		direct = *req.IsDirectCost
	}
	e, err := h.svc.RecordManualCost(r.Context(), core.ManualCostInput{
		CompanyID:      companyID(r),
		ProjectID:      id,
		ProjectPhaseID: req.ProjectPhaseID,
		EntryDate:      date,
		CostType:       core.CostType(req.CostType),
		Description:    req.Description,
		Amount:         req.Amount,
		IsDirectCost:   direct,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, e)
}

func (h *Handler) controlling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pc, err := h.svc.GetControlling(r.Context(), companyID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, pc)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.svc.ReconcileProject(r.Context(), companyID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
