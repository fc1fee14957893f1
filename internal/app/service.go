package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
// Every call is scoped to the companyID it is given.
type ApplicationService interface {
	// LoadDefaultCompany loads the active company. Uses the configured company
	// code if set; otherwise expects exactly one company in the database.
	LoadDefaultCompany(ctx context.Context) (*core.Company, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	// ── Time ──

	ListTimeTypes(ctx context.Context, companyID int) ([]core.TimeType, error)
	CreateTimeType(ctx context.Context, companyID int, in core.TimeTypeInput) (*core.TimeType, error)
	SeedTimeTypes(ctx context.Context, companyID int) (int, error)
	// BookTime books labor. Time type and project may be given by id or by code/number.
	BookTime(ctx context.Context, req BookTimeRequest) (*core.TimeEntry, error)
	ListTimeEntries(ctx context.Context, companyID, projectID int) ([]core.TimeEntry, error)

	// ── Machines ──

	ListMachines(ctx context.Context, companyID int) ([]core.Machine, error)
	CreateMachine(ctx context.Context, companyID int, in core.MachineInput) (*core.Machine, error)
	UpdateMachineRate(ctx context.Context, companyID, machineID int, rate decimal.Decimal) (*core.Machine, error)
	UpdateMachineStatus(ctx context.Context, companyID, machineID int, status core.MachineStatus) (*core.Machine, error)
	BookMachine(ctx context.Context, req BookMachineRequest) (*core.MachineBooking, error)
	ListMachineBookings(ctx context.Context, companyID, projectID int) ([]core.MachineBooking, error)

	// ── Material ──

	ListProducts(ctx context.Context, companyID int) ([]core.Product, error)
	CreateProduct(ctx context.Context, companyID int, in core.ProductInput) (*core.Product, error)
	ReceiveStock(ctx context.Context, companyID, productID int, qty, unitCost decimal.Decimal) (*core.Product, error)
	ConsumeMaterial(ctx context.Context, req ConsumeMaterialRequest) (*core.MaterialConsumption, error)
	ListMaterialConsumptions(ctx context.Context, companyID, projectID int) ([]core.MaterialConsumption, error)

	// ── Projects ──

	ListProjects(ctx context.Context, companyID int, status *core.ProjectStatus) ([]core.Project, error)
	CreateProject(ctx context.Context, companyID int, in core.ProjectInput) (*core.Project, error)
	// GetProject accepts a numeric id or a project number.
	GetProject(ctx context.Context, companyID int, ref string) (*ProjectResult, error)
	UpdateProjectStatus(ctx context.Context, companyID, projectID int, status core.ProjectStatus) (*core.Project, error)
	AddPhase(ctx context.Context, companyID, projectID int, in core.PhaseInput) (*core.ProjectPhase, error)
	UpdatePhase(ctx context.Context, companyID, projectID, phaseID int, in core.PhaseInput) (*core.ProjectPhase, error)
	AddBudgetLine(ctx context.Context, companyID, projectID int, in core.BudgetLineInput) (*core.ProjectBudgetLine, error)
	ListBudgetLines(ctx context.Context, companyID, projectID int) (*BudgetLinesResult, error)

	// ── Cost ledger and controlling ──

	ListCostEntries(ctx context.Context, companyID, projectID int) ([]core.CostEntry, error)
	RecordManualCost(ctx context.Context, in core.ManualCostInput) (*core.CostEntry, error)
	GetControlling(ctx context.Context, companyID, projectID int) (*core.ProjectControlling, error)
	ReconcileProject(ctx context.Context, companyID, projectID int) (*core.ReconcileResult, error)

	// ── Invoices ──

	CreateInvoice(ctx context.Context, companyID int, in core.InvoiceInput) (*core.Invoice, error)
	RegisterPayment(ctx context.Context, companyID, invoiceID int, amount decimal.Decimal) (*core.Invoice, error)
	CancelInvoice(ctx context.Context, companyID, invoiceID int) (*core.Invoice, error)

	// ── Booking assistant ──

	// InterpretBooking turns free text into a draft plus a cost estimate. Nothing is written.
	InterpretBooking(ctx context.Context, companyID int, text string) (*BookingDraftResult, error)
	// BookDraft books a confirmed draft. Must only be called after explicit user approval.
	BookDraft(ctx context.Context, companyID int, userID *int, draft core.BookingDraft) (*core.TimeEntry, error)
}
