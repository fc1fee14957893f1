package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InvoiceService issues project invoices and tracks payments against them.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, companyID int, in InvoiceInput) (*Invoice, error)
	GetInvoice(ctx context.Context, companyID, invoiceID int) (*Invoice, error)
	ListProjectInvoices(ctx context.Context, companyID, projectID int) ([]Invoice, error)
	// RegisterPayment adds amount to paid_amount. Overpayment is rejected.
	RegisterPayment(ctx context.Context, companyID, invoiceID int, amount decimal.Decimal) (*Invoice, error)
	// CancelInvoice is only allowed while nothing has been paid.
	CancelInvoice(ctx context.Context, companyID, invoiceID int) (*Invoice, error)
}

type invoiceService struct {
	pool       *pgxpool.Pool
	docService DocumentService
}

func NewInvoiceService(pool *pgxpool.Pool, docService DocumentService) InvoiceService {
	return &invoiceService{pool: pool, docService: docService}
}

const invoiceColumns = `id, company_id, project_id, number, customer_name, invoice_date,
	status, total_amount, paid_amount, created_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	inv := &Invoice{}
	var status string
	if err := row.Scan(&inv.ID, &inv.CompanyID, &inv.ProjectID, &inv.Number, &inv.CustomerName,
		&inv.InvoiceDate, &status, &inv.TotalAmount, &inv.PaidAmount, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.Status = InvoiceStatus(status)
	return inv, nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, companyID int, in InvoiceInput) (*Invoice, error) {
	if !in.TotalAmount.IsPositive() {
		return nil, invalidf("invoice total must be positive")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	customer := strings.TrimSpace(in.CustomerName)
	if in.ProjectID != nil {
		var projectCustomer string
		err := tx.QueryRow(ctx,
			"SELECT customer_name FROM projects WHERE id = $1 AND company_id = $2",
			*in.ProjectID, companyID).Scan(&projectCustomer)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, notFoundf("project %d not found", *in.ProjectID)
			}
			return nil, fmt.Errorf("failed to fetch project: %w", err)
		}
		if customer == "" {
			customer = projectCustomer
		}
	}

	date := dateOrToday(in.InvoiceDate)
	number, err := s.docService.NextNumberTx(ctx, tx, companyID, DocTypeInvoice, date.Year())
	if err != nil {
		return nil, err
	}

	inv, err := scanInvoice(tx.QueryRow(ctx, `
		INSERT INTO invoices (company_id, project_id, number, customer_name, invoice_date, status, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+invoiceColumns,
		companyID, in.ProjectID, number, customer, date, string(InvoiceOpen), in.TotalAmount.Round(2)))
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, companyID, invoiceID int) (*Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1 AND company_id = $2",
		invoiceID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("invoice %d not found", invoiceID)
		}
		return nil, fmt.Errorf("failed to fetch invoice: %w", err)
	}
	return inv, nil
}

func (s *invoiceService) ListProjectInvoices(ctx context.Context, companyID, projectID int) ([]Invoice, error) {
	if err := projectExists(ctx, s.pool, companyID, projectID); err != nil {
		return nil, err
	}
	return listProjectInvoices(ctx, s.pool, companyID, projectID, false)
}

func listProjectInvoices(ctx context.Context, q querier, companyID, projectID int, excludeCancelled bool) ([]Invoice, error) {
	rows, err := q.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE company_id = $1 AND project_id = $2
		  AND (NOT $3 OR status <> 'CANCELLED')
		ORDER BY invoice_date, id
	`, companyID, projectID, excludeCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (s *invoiceService) RegisterPayment(ctx context.Context, companyID, invoiceID int, amount decimal.Decimal) (*Invoice, error) {
	if !amount.IsPositive() {
		return nil, invalidf("payment amount must be positive")
	}
	amount = amount.Round(2)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, err := scanInvoice(tx.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1 AND company_id = $2 FOR UPDATE",
		invoiceID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("invoice %d not found", invoiceID)
		}
		return nil, fmt.Errorf("failed to lock invoice: %w", err)
	}
	if inv.Status == InvoiceCancelled {
		return nil, forbiddenf("invoice %s is cancelled", inv.Number)
	}
	outstanding := inv.TotalAmount.Sub(inv.PaidAmount)
	if amount.GreaterThan(outstanding) {
		return nil, invalidf("payment %s exceeds outstanding amount %s on invoice %s",
			amount.StringFixed(2), outstanding.StringFixed(2), inv.Number)
	}

	status := InvoicePartiallyPaid
	if amount.Equal(outstanding) {
		status = InvoicePaid
	}
	inv, err = scanInvoice(tx.QueryRow(ctx, `
		UPDATE invoices
		SET paid_amount = paid_amount + $1, status = $2
		WHERE id = $3
		RETURNING `+invoiceColumns, amount, string(status), invoiceID))
	if err != nil {
		return nil, fmt.Errorf("failed to register payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inv, nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, companyID, invoiceID int) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, err := scanInvoice(tx.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1 AND company_id = $2 FOR UPDATE",
		invoiceID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("invoice %d not found", invoiceID)
		}
		return nil, fmt.Errorf("failed to lock invoice: %w", err)
	}
	if inv.Status == InvoiceCancelled {
		return inv, nil
	}
	if inv.PaidAmount.IsPositive() {
		return nil, forbiddenf("invoice %s has payments and cannot be cancelled", inv.Number)
	}

	inv, err = scanInvoice(tx.QueryRow(ctx,
		"UPDATE invoices SET status = $1 WHERE id = $2 RETURNING "+invoiceColumns,
		string(InvoiceCancelled), invoiceID))
	if err != nil {
		return nil, fmt.Errorf("failed to cancel invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inv, nil
}
