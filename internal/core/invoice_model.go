package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceOpen          InvoiceStatus = "OPEN"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
)

// Invoice is a revenue document. Controlling counts TotalAmount of every
// non-cancelled invoice linked to a project, regardless of payment.
type Invoice struct {
	ID           int             `json:"id"`
	CompanyID    int             `json:"company_id"`
	ProjectID    *int            `json:"project_id,omitempty"`
	Number       string          `json:"number"`
	CustomerName string          `json:"customer_name"`
	InvoiceDate  time.Time       `json:"invoice_date"`
	Status       InvoiceStatus   `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

type InvoiceInput struct {
	ProjectID    *int
	CustomerName string
	InvoiceDate  time.Time
	TotalAmount  decimal.Decimal
}
