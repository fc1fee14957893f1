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

// MaterialService manages products and books material consumption to projects.
type MaterialService interface {
	ListProducts(ctx context.Context, companyID int) ([]Product, error)
	CreateProduct(ctx context.Context, companyID int, in ProductInput) (*Product, error)
	// ReceiveStock adds qty at unitCost and moves the purchase price to the
	// weighted average of old stock and the receipt.
	ReceiveStock(ctx context.Context, companyID, productID int, qty, unitCost decimal.Decimal) (*Product, error)

	// ConsumeMaterial books quantity of a product to a project at the current
	// purchase price and decrements stock. Stock may go negative.
	ConsumeMaterial(ctx context.Context, in MaterialConsumptionInput) (*MaterialConsumption, error)
	ListConsumptions(ctx context.Context, companyID, projectID int) ([]MaterialConsumption, error)
}

type materialService struct {
	pool   *pgxpool.Pool
	ledger CostLedger
}

func NewMaterialService(pool *pgxpool.Pool, ledger CostLedger) MaterialService {
	return &materialService{pool: pool, ledger: ledger}
}

const productColumns = "id, company_id, code, name, unit, purchase_price, stock_quantity, is_active"

func scanProduct(row pgx.Row) (*Product, error) {
	p := &Product{}
	if err := row.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.Unit,
		&p.PurchasePrice, &p.StockQuantity, &p.IsActive); err != nil {
		return nil, err
	}
	return p, nil
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *materialService) ListProducts(ctx context.Context, companyID int) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE company_id = $1 ORDER BY code", companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *materialService) CreateProduct(ctx context.Context, companyID int, in ProductInput) (*Product, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, invalidf("product code and name are required")
	}
	if in.PurchasePrice.IsNegative() {
		return nil, invalidf("purchase price cannot be negative")
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "STK"
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (company_id, code, name, unit, purchase_price, stock_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, code) DO NOTHING
		RETURNING `+productColumns,
		companyID, code, strings.TrimSpace(in.Name), unit, in.PurchasePrice.Round(2), in.StockQuantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalidf("product %s already exists", code)
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (s *materialService) ReceiveStock(ctx context.Context, companyID, productID int, qty, unitCost decimal.Decimal) (*Product, error) {
	if !qty.IsPositive() {
		return nil, invalidf("receive quantity must be positive, got %s", qty)
	}
	if unitCost.IsNegative() {
		return nil, invalidf("unit cost cannot be negative, got %s", unitCost)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanProduct(tx.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE id = $1 AND company_id = $2
		FOR UPDATE
	`, productID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("product %d not found", productID)
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	// Negative stock from earlier consumption is valued at the receipt price.
	oldQty := decimal.Max(p.StockQuantity, decimal.Zero)
	weighted := oldQty.Add(qty)
	newPrice := oldQty.Mul(p.PurchasePrice).Add(qty.Mul(unitCost)).Div(weighted).Round(2)

	updated, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $1, purchase_price = $2
		WHERE id = $3
		RETURNING `+productColumns, qty, newPrice, p.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to update product stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit goods receipt: %w", err)
	}
	return updated, nil
}

// ── Material consumption ──────────────────────────────────────────────────────

func (s *materialService) ConsumeMaterial(ctx context.Context, in MaterialConsumptionInput) (*MaterialConsumption, error) {
	if in.ProductID <= 0 || in.ProjectID <= 0 {
		return nil, invalidf("product and project are required")
	}
	if !in.Quantity.IsPositive() {
		return nil, invalidf("quantity must be positive, got %s", in.Quantity)
	}
	if in.ScrapQuantity.IsNegative() {
		return nil, invalidf("scrap quantity cannot be negative")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanProduct(tx.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE id = $1 AND company_id = $2
		FOR UPDATE
	`, in.ProductID, in.CompanyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("product %d not found", in.ProductID)
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	if _, err := lockOpenProjectTx(ctx, tx, in.CompanyID, in.ProjectID, in.ProjectPhaseID); err != nil {
		return nil, err
	}

	c := &MaterialConsumption{
		CompanyID:      in.CompanyID,
		ProductID:      p.ID,
		ProjectID:      in.ProjectID,
		ProjectPhaseID: in.ProjectPhaseID,
		UserID:         in.UserID,
		Date:           dateOrToday(in.Date),
		Quantity:       in.Quantity,
		UnitPrice:      p.PurchasePrice,
		ScrapQuantity:  in.ScrapQuantity,
		Description:    strings.TrimSpace(in.Description),
	}
	c.TotalCost = c.Quantity.Mul(c.UnitPrice).Round(2)

	err = tx.QueryRow(ctx, `
		INSERT INTO material_consumptions
		    (company_id, product_id, project_id, project_phase_id, user_id, consumption_date,
		     quantity, unit_price, total_cost, scrap_quantity, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`, c.CompanyID, c.ProductID, c.ProjectID, c.ProjectPhaseID, c.UserID, c.Date,
		c.Quantity, c.UnitPrice, c.TotalCost, c.ScrapQuantity, c.Description,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert material consumption: %w", err)
	}

	sourceID := c.ID
	ce, err := s.ledger.RecordTx(ctx, tx, CostEntryInput{
		CompanyID:      c.CompanyID,
		ProjectID:      c.ProjectID,
		ProjectPhaseID: c.ProjectPhaseID,
		EntryDate:      c.Date,
		CostType:       CostMaterial,
		SourceType:     SourceMaterialConsumption,
		SourceID:       &sourceID,
		Description:    fmt.Sprintf("%s %s %s @ %s", p.Code, c.Quantity.String(), p.Unit, c.UnitPrice.StringFixed(2)),
		Amount:         c.TotalCost,
		IsDirectCost:   true,
	})
	if err != nil {
		return nil, err
	}
	c.CostEntryID = ce.ID

	if _, err := tx.Exec(ctx,
		"UPDATE products SET stock_quantity = stock_quantity - $1 WHERE id = $2",
		c.Quantity, p.ID); err != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

func (s *materialService) ListConsumptions(ctx context.Context, companyID, projectID int) ([]MaterialConsumption, error) {
	if err := projectExists(ctx, s.pool, companyID, projectID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.company_id, m.product_id, m.project_id, m.project_phase_id, m.user_id,
		       m.consumption_date, m.quantity, m.unit_price, m.total_cost, m.scrap_quantity,
		       m.description, COALESCE(ce.id, 0), m.created_at
		FROM material_consumptions m
		LEFT JOIN project_cost_entries ce
		       ON ce.source_type = $3 AND ce.source_id = m.id AND ce.company_id = m.company_id
		WHERE m.company_id = $1 AND m.project_id = $2
		ORDER BY m.consumption_date, m.id
	`, companyID, projectID, SourceMaterialConsumption)
	if err != nil {
		return nil, fmt.Errorf("failed to query material consumptions: %w", err)
	}
	defer rows.Close()

	var out []MaterialConsumption
	for rows.Next() {
		var c MaterialConsumption
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.ProductID, &c.ProjectID, &c.ProjectPhaseID, &c.UserID,
			&c.Date, &c.Quantity, &c.UnitPrice, &c.TotalCost, &c.ScrapQuantity,
			&c.Description, &c.CostEntryID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan material consumption: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
