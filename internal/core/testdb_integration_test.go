package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const testCompanyID = 1

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Integration tests truncate every table, so they only run against TEST_DATABASE_URL.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE project_cost_entries, invoices, material_consumptions, products,
		    machine_bookings, machines, time_entry_surcharges, time_entries, time_types,
		    project_budget_lines, project_phases, projects, document_sequences, users, companies
		RESTART IDENTITY CASCADE;

		INSERT INTO companies (id, company_code, name, base_currency) VALUES (1, 'MB01', 'Test Metallbau AG', 'CHF');
	`)
	if err != nil {
		pool.Close()
		t.Fatalf("Failed to seed test database: %v", err)
	}
	return pool
}

// fixture is a seeded company with one active project, the default time
// types, a laser at CHF 120/h and 10 units of flat bar at CHF 12.50.
type fixture struct {
	pool      *pgxpool.Pool
	docs      core.DocumentService
	ledger    core.CostLedger
	time      core.TimeService
	machines  core.MachineService
	materials core.MaterialService
	projects  core.ProjectService
	invoices  core.InvoiceService
	ctl       core.ControllingService

	project   *core.Project
	timeTypes map[string]int
	laser     *core.Machine
	flatBar   *core.Product
}

func newFixture(t *testing.T) *fixture {
	pool := setupTestDB(t)
	t.Cleanup(pool.Close)
	ctx := context.Background()

	f := &fixture{pool: pool, timeTypes: map[string]int{}}
	f.docs = core.NewDocumentService(pool)
	f.ledger = core.NewCostLedger(pool)
	f.time = core.NewTimeService(pool, core.NewResolver(core.DefaultRateTable()), f.ledger)
	f.machines = core.NewMachineService(pool, f.ledger)
	f.materials = core.NewMaterialService(pool, f.ledger)
	f.projects = core.NewProjectService(pool, f.docs)
	f.invoices = core.NewInvoiceService(pool, f.docs)
	f.ctl = core.NewControllingService(pool)

	if _, err := f.time.SeedDefaultTimeTypes(ctx, testCompanyID); err != nil {
		t.Fatalf("seed time types: %v", err)
	}
	types, err := f.time.ListTimeTypes(ctx, testCompanyID)
	if err != nil {
		t.Fatalf("list time types: %v", err)
	}
	for _, tt := range types {
		f.timeTypes[tt.Code] = tt.ID
	}

	f.project, err = f.projects.CreateProject(ctx, testCompanyID, core.ProjectInput{
		Name:         "Balkongeländer Seestrasse",
		CustomerName: "Muster Immobilien AG",
		Budget:       decimal.NewFromInt(10000),
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := f.projects.UpdateStatus(ctx, testCompanyID, f.project.ID, core.ProjectActive); err != nil {
		t.Fatalf("activate project: %v", err)
	}

	f.laser, err = f.machines.CreateMachine(ctx, testCompanyID, core.MachineInput{
		Code: "LASER1", Name: "Laserschneidanlage", HourlyRate: decimal.NewFromInt(120),
	})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}

	f.flatBar, err = f.materials.CreateProduct(ctx, testCompanyID, core.ProductInput{
		Code: "FL-50x5", Name: "Flachstahl 50x5", Unit: "M",
		PurchasePrice: decimal.RequireFromString("12.50"),
		StockQuantity: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return f
}

// assertConserved checks that the project's running total equals its ledger sum.
func (f *fixture) assertConserved(t *testing.T) {
	t.Helper()
	var total, sum decimal.Decimal
	err := f.pool.QueryRow(context.Background(), `
		SELECT p.actual_cost_total, COALESCE((SELECT SUM(amount) FROM project_cost_entries WHERE project_id = p.id), 0)
		FROM projects p WHERE p.id = $1
	`, f.project.ID).Scan(&total, &sum)
	if err != nil {
		t.Fatalf("read totals: %v", err)
	}
	if !total.Equal(sum) {
		t.Errorf("actual_cost_total %s != ledger sum %s", total, sum)
	}
}
