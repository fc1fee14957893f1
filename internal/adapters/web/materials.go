package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context(), companyID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code          string          `json:"code"`
		Name          string          `json:"name"`
		Unit          string          `json:"unit"`
		PurchasePrice decimal.Decimal `json:"purchase_price"`
		StockQuantity decimal.Decimal `json:"stock_quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), companyID(r), core.ProductInput{
		Code:          req.Code,
		Name:          req.Name,
		Unit:          req.Unit,
		PurchasePrice: req.PurchasePrice,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, p)
}

// receiveStock handles POST /api/products/{id}/receipts.
func (h *Handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity decimal.Decimal `json:"quantity"`
		UnitCost decimal.Decimal `json:"unit_cost"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.ReceiveStock(r.Context(), companyID(r), id, req.Quantity, req.UnitCost)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// consumeMaterial handles POST /api/material-consumptions.
func (h *Handler) consumeMaterial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID      int             `json:"product_id"`
		ProductCode    string          `json:"product_code"`
		ProjectID      int             `json:"project_id"`
		ProjectNumber  string          `json:"project_number"`
		ProjectPhaseID *int            `json:"project_phase_id"`
		Date           string          `json:"date"`
		Quantity       decimal.Decimal `json:"quantity"`
		ScrapQuantity  decimal.Decimal `json:"scrap_quantity"`
		Description    string          `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := parseDate(w, r, "date", req.Date)
	if !ok {
		return
	}
	c, err := h.svc.ConsumeMaterial(r.Context(), app.ConsumeMaterialRequest{
		CompanyID:      companyID(r),
		UserID:         userID(r),
		ProductID:      req.ProductID,
		ProductCode:    req.ProductCode,
		ProjectID:      req.ProjectID,
		ProjectRef:     req.ProjectNumber,
		ProjectPhaseID: req.ProjectPhaseID,
		Date:           date,
		Quantity:       req.Quantity,
		ScrapQuantity:  req.ScrapQuantity,
		Description:    req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, c)
}

func (h *Handler) listMaterialConsumptions(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	consumptions, err := h.svc.ListMaterialConsumptions(r.Context(), companyID(r), projectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, consumptions)
}
