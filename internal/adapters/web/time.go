package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

func (h *Handler) listTimeTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ListTimeTypes(r.Context(), companyID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, types)
}

func (h *Handler) createTimeType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code              string `json:"code"`
		Name              string `json:"name"`
		IsProjectRelevant bool   `json:"is_project_relevant"`
		IsBillable        bool   `json:"is_billable"`
		AffectsCapacity   bool   `json:"affects_capacity"`
		SortOrder         int    `json:"sort_order"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	tt, err := h.svc.CreateTimeType(r.Context(), companyID(r), core.TimeTypeInput{
		Code:              req.Code,
		Name:              req.Name,
		IsProjectRelevant: req.IsProjectRelevant,
		IsBillable:        req.IsBillable,
		AffectsCapacity:   req.AffectsCapacity,
		SortOrder:         req.SortOrder,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, tt)
}

func (h *Handler) seedTimeTypes(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.SeedTimeTypes(r.Context(), companyID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]int{"created": n})
}

type bookTimeRequest struct {
	Date            string           `json:"date"`
	DurationMinutes int              `json:"duration_minutes"`
	TimeTypeID      int              `json:"time_type_id"`
	TimeTypeCode    string           `json:"time_type_code"`
	ProjectID       *int             `json:"project_id"`
	ProjectNumber   string           `json:"project_number"`
	ProjectPhaseID  *int             `json:"project_phase_id"`
	WorkLocation    string           `json:"work_location"`
	BaseHourlyRate  *decimal.Decimal `json:"base_hourly_rate"`
	Surcharges      []string         `json:"surcharges"`
	Description     string           `json:"description"`
}

// bookTime handles POST /api/time-entries.
func (h *Handler) bookTime(w http.ResponseWriter, r *http.Request) {
	var req bookTimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := parseDate(w, r, "date", req.Date)
	if !ok {
		return
	}
	surcharges := make([]core.SurchargeType, len(req.Surcharges))
	for i, s := range req.Surcharges {
		surcharges[i] = core.SurchargeType(s)
	}

	entry, err := h.svc.BookTime(r.Context(), app.BookTimeRequest{
		CompanyID:       companyID(r),
		UserID:          userID(r),
		Date:            date,
		DurationMinutes: req.DurationMinutes,
		TimeTypeID:      req.TimeTypeID,
		TimeTypeCode:    req.TimeTypeCode,
		ProjectID:       req.ProjectID,
		ProjectRef:      req.ProjectNumber,
		ProjectPhaseID:  req.ProjectPhaseID,
		WorkLocation:    core.WorkLocation(req.WorkLocation),
		BaseHourlyRate:  req.BaseHourlyRate,
		Surcharges:      surcharges,
		Description:     req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, entry)
}

func (h *Handler) listTimeEntries(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.svc.ListTimeEntries(r.Context(), companyID(r), projectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entries)
}
