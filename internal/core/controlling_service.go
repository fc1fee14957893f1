package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ControllingService computes project KPIs on demand. Nothing is cached.
type ControllingService interface {
	GetProjectControlling(ctx context.Context, companyID, projectID int) (*ProjectControlling, error)
}

type controllingService struct {
	pool *pgxpool.Pool
}

func NewControllingService(pool *pgxpool.Pool) ControllingService {
	return &controllingService{pool: pool}
}

// GetProjectControlling reads the project, its ledger sums, phases and
// invoices from one snapshot so a booking committed mid-read cannot show up
// in the ledger sums without its project total increment.
func (s *controllingService) GetProjectControlling(ctx context.Context, companyID, projectID int) (*ProjectControlling, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanProject(tx.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND company_id = $2
	`, projectID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("project %d not found", projectID)
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	costs, err := sumCostsByType(ctx, tx, companyID, projectID)
	if err != nil {
		return nil, err
	}
	phases, err := listPhases(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	invoices, err := listProjectInvoices(ctx, tx, companyID, projectID, true)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to close read transaction: %w", err)
	}

	out := EvaluateControlling(ControllingInput{
		Project:  *p,
		Phases:   phases,
		Costs:    costs,
		Invoices: invoices,
	})
	return &out, nil
}
