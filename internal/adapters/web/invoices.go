package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID    *int            `json:"project_id"`
		CustomerName string          `json:"customer_name"`
		InvoiceDate  string          `json:"invoice_date"`
		TotalAmount  decimal.Decimal `json:"total_amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := parseDate(w, r, "invoice_date", req.InvoiceDate)
	if !ok {
		return
	}
	inv, err := h.svc.CreateInvoice(r.Context(), companyID(r), core.InvoiceInput{
		ProjectID:    req.ProjectID,
		CustomerName: req.CustomerName,
		InvoiceDate:  date,
		TotalAmount:  req.TotalAmount,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, inv)
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.RegisterPayment(r.Context(), companyID(r), id, req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

func (h *Handler) cancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.svc.CancelInvoice(r.Context(), companyID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}
