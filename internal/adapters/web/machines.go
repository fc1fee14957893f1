package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

func (h *Handler) listMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.svc.ListMachines(r.Context(), companyID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, machines)
}

func (h *Handler) createMachine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code         string          `json:"code"`
		Name         string          `json:"name"`
		HourlyRate   decimal.Decimal `json:"hourly_rate"`
		CostCenterID *int            `json:"cost_center_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.CreateMachine(r.Context(), companyID(r), core.MachineInput{
		Code:         req.Code,
		Name:         req.Name,
		HourlyRate:   req.HourlyRate,
		CostCenterID: req.CostCenterID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, m)
}

func (h *Handler) updateMachineRate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		HourlyRate decimal.Decimal `json:"hourly_rate"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.UpdateMachineRate(r.Context(), companyID(r), id, req.HourlyRate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, m)
}

func (h *Handler) updateMachineStatus(w http.ResponseWriter, r *http.Request) {
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
	m, err := h.svc.UpdateMachineStatus(r.Context(), companyID(r), id, core.MachineStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, m)
}

// bookMachine handles POST /api/machine-bookings.
func (h *Handler) bookMachine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MachineID      int             `json:"machine_id"`
		MachineCode    string          `json:"machine_code"`
		ProjectID      int             `json:"project_id"`
		ProjectNumber  string          `json:"project_number"`
		ProjectPhaseID *int            `json:"project_phase_id"`
		Date           string          `json:"date"`
		DurationHours  decimal.Decimal `json:"duration_hours"`
		Description    string          `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := parseDate(w, r, "date", req.Date)
	if !ok {
		return
	}
	b, err := h.svc.BookMachine(r.Context(), app.BookMachineRequest{
		CompanyID:      companyID(r),
		UserID:         userID(r),
		MachineID:      req.MachineID,
		MachineCode:    req.MachineCode,
		ProjectID:      req.ProjectID,
		ProjectRef:     req.ProjectNumber,
		ProjectPhaseID: req.ProjectPhaseID,
		Date:           date,
		DurationHours:  req.DurationHours,
		Description:    req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, b)
}

func (h *Handler) listMachineBookings(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bookings, err := h.svc.ListMachineBookings(r.Context(), companyID(r), projectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, bookings)
}
