package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CostLedger appends project cost entries and keeps projects.actual_cost_total
// in step with them. Every write happens inside the caller's transaction or
// one it owns, never partially.
type CostLedger interface {
	// RecordTx appends one entry and increments the project total by the same
	// amount inside tx. The caller has already checked the project is open.
	RecordTx(ctx context.Context, tx pgx.Tx, in CostEntryInput) (*CostEntry, error)
	// RecordManual books EXTERNAL or OVERHEAD cost in its own transaction.
	RecordManual(ctx context.Context, in ManualCostInput) (*CostEntry, error)
	// ListEntries returns a project's ledger, newest first.
	ListEntries(ctx context.Context, companyID, projectID int) ([]CostEntry, error)
	// SumByType groups ledger amounts by cost type for one project.
	SumByType(ctx context.Context, companyID, projectID int) (CostBreakdown, error)
	// Reconcile rewrites actual_cost_total from the ledger when they disagree.
	Reconcile(ctx context.Context, companyID, projectID int) (*ReconcileResult, error)
}

type costLedger struct {
	pool *pgxpool.Pool
}

func NewCostLedger(pool *pgxpool.Pool) CostLedger {
	return &costLedger{pool: pool}
}

func (l *costLedger) RecordTx(ctx context.Context, tx pgx.Tx, in CostEntryInput) (*CostEntry, error) {
	if !in.CostType.Valid() {
		return nil, invalidf("unknown cost type %q", in.CostType)
	}
	if in.Amount.IsNegative() {
		return nil, invalidf("cost amount cannot be negative, got %s", in.Amount.StringFixed(2))
	}
	amount := in.Amount.Round(2)

	e := &CostEntry{
		CompanyID:      in.CompanyID,
		ProjectID:      in.ProjectID,
		ProjectPhaseID: in.ProjectPhaseID,
		EntryDate:      dateOrToday(in.EntryDate),
		CostType:       in.CostType,
		SourceType:     in.SourceType,
		SourceID:       in.SourceID,
		Description:    in.Description,
		Amount:         amount,
		IsDirectCost:   in.IsDirectCost,
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO project_cost_entries
		    (company_id, project_id, project_phase_id, entry_date, cost_type,
		     source_type, source_id, description, amount, is_direct_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, e.CompanyID, e.ProjectID, e.ProjectPhaseID, e.EntryDate, string(e.CostType),
		e.SourceType, e.SourceID, e.Description, amount, e.IsDirectCost,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert cost entry: %w", err)
	}

	// Increment in SQL so concurrent bookings on one project never lose an update.
	tag, err := tx.Exec(ctx, `
		UPDATE projects
		SET actual_cost_total = actual_cost_total + $1
		WHERE id = $2 AND company_id = $3
	`, amount, e.ProjectID, e.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment project cost total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFoundf("project %d not found", e.ProjectID)
	}
	return e, nil
}

func (l *costLedger) RecordManual(ctx context.Context, in ManualCostInput) (*CostEntry, error) {
	if in.CostType != CostExternal && in.CostType != CostOverhead {
		return nil, invalidf("manual cost entries must be EXTERNAL or OVERHEAD, got %q", in.CostType)
	}
	if !in.Amount.IsPositive() {
		return nil, invalidf("amount must be positive")
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockOpenProjectTx(ctx, tx, in.CompanyID, in.ProjectID, in.ProjectPhaseID); err != nil {
		return nil, err
	}

	e, err := l.RecordTx(ctx, tx, CostEntryInput{
		CompanyID:      in.CompanyID,
		ProjectID:      in.ProjectID,
		ProjectPhaseID: in.ProjectPhaseID,
		EntryDate:      in.EntryDate,
		CostType:       in.CostType,
		SourceType:     SourceManual,
		Description:    in.Description,
		Amount:         in.Amount,
		IsDirectCost:   in.IsDirectCost,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return e, nil
}

func (l *costLedger) ListEntries(ctx context.Context, companyID, projectID int) ([]CostEntry, error) {
	if err := projectExists(ctx, l.pool, companyID, projectID); err != nil {
		return nil, err
	}
	rows, err := l.pool.Query(ctx, `
		SELECT id, company_id, project_id, project_phase_id, entry_date, cost_type,
		       source_type, source_id, description, amount, is_direct_cost, created_at
		FROM project_cost_entries
		WHERE company_id = $1 AND project_id = $2
		ORDER BY entry_date DESC, id DESC
	`, companyID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost entries: %w", err)
	}
	defer rows.Close()

	var entries []CostEntry
	for rows.Next() {
		var e CostEntry
		var costType string
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.ProjectID, &e.ProjectPhaseID, &e.EntryDate, &costType,
			&e.SourceType, &e.SourceID, &e.Description, &e.Amount, &e.IsDirectCost, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cost entry: %w", err)
		}
		e.CostType = CostType(costType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *costLedger) SumByType(ctx context.Context, companyID, projectID int) (CostBreakdown, error) {
	return sumCostsByType(ctx, l.pool, companyID, projectID)
}

func sumCostsByType(ctx context.Context, q querier, companyID, projectID int) (CostBreakdown, error) {
	rows, err := q.Query(ctx, `
		SELECT cost_type, COALESCE(SUM(amount), 0)
		FROM project_cost_entries
		WHERE company_id = $1 AND project_id = $2
		GROUP BY cost_type
	`, companyID, projectID)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("failed to sum cost entries: %w", err)
	}
	defer rows.Close()

	var b CostBreakdown
	for rows.Next() {
		var costType string
		var sum decimal.Decimal
		if err := rows.Scan(&costType, &sum); err != nil {
			return CostBreakdown{}, fmt.Errorf("failed to scan cost sum: %w", err)
		}
		b.add(CostType(costType), sum)
	}
	return b, rows.Err()
}

func (l *costLedger) Reconcile(ctx context.Context, companyID, projectID int) (*ReconcileResult, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Locking the project row blocks concurrent bookings until we are done.
	res := &ReconcileResult{ProjectID: projectID}
	err = tx.QueryRow(ctx, `
		SELECT actual_cost_total FROM projects
		WHERE id = $1 AND company_id = $2
		FOR UPDATE
	`, projectID, companyID).Scan(&res.Previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("project %d not found", projectID)
		}
		return nil, fmt.Errorf("failed to lock project: %w", err)
	}

	costs, err := sumCostsByType(ctx, tx, companyID, projectID)
	if err != nil {
		return nil, err
	}
	res.Corrected = costs.Total()

	if !res.Previous.Equal(res.Corrected) {
		if _, err := tx.Exec(ctx, `
			UPDATE projects SET actual_cost_total = $1
			WHERE id = $2 AND company_id = $3
		`, res.Corrected, projectID, companyID); err != nil {
			return nil, fmt.Errorf("failed to rewrite project cost total: %w", err)
		}
		res.Repaired = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return res, nil
}
