package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a stock item. PurchasePrice is the weighted average of receipts.
type Product struct {
	ID            int             `json:"id"`
	CompanyID     int             `json:"company_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
}

type ProductInput struct {
	Code          string
	Name          string
	Unit          string
	PurchasePrice decimal.Decimal
	StockQuantity decimal.Decimal
}

// MaterialConsumption snapshots the product's purchase price at booking time.
// ScrapQuantity is recorded for reporting only; it is not costed separately.
type MaterialConsumption struct {
	ID             int             `json:"id"`
	CompanyID      int             `json:"company_id"`
	ProductID      int             `json:"product_id"`
	ProjectID      int             `json:"project_id"`
	ProjectPhaseID *int            `json:"project_phase_id,omitempty"`
	UserID         *int            `json:"user_id,omitempty"`
	Date           time.Time       `json:"date"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	ScrapQuantity  decimal.Decimal `json:"scrap_quantity"`
	Description    string          `json:"description"`
	CostEntryID    int             `json:"cost_entry_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

type MaterialConsumptionInput struct {
	CompanyID      int
	UserID         *int
	ProductID      int
	ProjectID      int
	ProjectPhaseID *int
	Date           time.Time
	Quantity       decimal.Decimal
	ScrapQuantity  decimal.Decimal
	Description    string
}
