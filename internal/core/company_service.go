package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanyService resolves tenants.
type CompanyService interface {
	GetByCode(ctx context.Context, companyCode string) (*Company, error)
	GetByID(ctx context.Context, companyID int) (*Company, error)
	// GetDefault returns the only company. It fails when there are several.
	GetDefault(ctx context.Context) (*Company, error)
}

type companyService struct {
	pool *pgxpool.Pool
}

func NewCompanyService(pool *pgxpool.Pool) CompanyService {
	return &companyService{pool: pool}
}

func (s *companyService) GetByCode(ctx context.Context, companyCode string) (*Company, error) {
	return s.get(ctx, "company_code = $1", companyCode, fmt.Sprintf("company code %s", companyCode))
}

func (s *companyService) GetByID(ctx context.Context, companyID int) (*Company, error) {
	return s.get(ctx, "id = $1", companyID, fmt.Sprintf("company %d", companyID))
}

func (s *companyService) get(ctx context.Context, where string, arg any, label string) (*Company, error) {
	c := &Company{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, company_code, name, base_currency, created_at FROM companies WHERE "+where, arg,
	).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("%s not found", label)
		}
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}
	return c, nil
}

func (s *companyService) GetDefault(ctx context.Context) (*Company, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM companies").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}
	switch {
	case count == 0:
		return nil, notFoundf("no company found, has the seed run?")
	case count > 1:
		return nil, invalidf("multiple companies found; set COMPANY_CODE (e.g. COMPANY_CODE=1000)")
	}
	c := &Company{}
	if err := s.pool.QueryRow(ctx,
		"SELECT id, company_code, name, base_currency, created_at FROM companies LIMIT 1",
	).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to fetch default company: %w", err)
	}
	return c, nil
}
