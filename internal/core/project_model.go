package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a project.
//
//	PLANNED → ACTIVE ⇄ PAUSED → COMPLETED
//	any non-cancelled status → CANCELLED (terminal)
type ProjectStatus string

const (
	ProjectPlanned   ProjectStatus = "PLANNED"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectPaused    ProjectStatus = "PAUSED"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectCancelled ProjectStatus = "CANCELLED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanned, ProjectActive, ProjectPaused, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// IsClosed reports whether bookings against the project must be rejected.
func (s ProjectStatus) IsClosed() bool {
	return s == ProjectCompleted || s == ProjectCancelled
}

// Project carries a denormalized ActualCostTotal that always equals the sum of
// its cost ledger entries; both are written in the same transaction.
type Project struct {
	ID              int             `json:"id"`
	CompanyID       int             `json:"company_id"`
	Number          string          `json:"number"`
	Name            string          `json:"name"`
	CustomerName    string          `json:"customer_name"`
	Status          ProjectStatus   `json:"status"`
	Budget          decimal.Decimal `json:"budget"`
	ActualCostTotal decimal.Decimal `json:"actual_cost_total"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProjectPhase is an optional subdivision of a project. ActualAmount is
// maintained by whoever updates the phase; cost bookings do not touch it.
type ProjectPhase struct {
	ID           int             `json:"id"`
	ProjectID    int             `json:"project_id"`
	Name         string          `json:"name"`
	SortOrder    int             `json:"sort_order"`
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	ActualAmount decimal.Decimal `json:"actual_amount"`
	IsCompleted  bool            `json:"is_completed"`
}

// ProjectBudgetLine is planning data; controlling only reads actuals.
type ProjectBudgetLine struct {
	ID               int             `json:"id"`
	ProjectID        int             `json:"project_id"`
	ProjectPhaseID   *int            `json:"project_phase_id,omitempty"`
	CostType         CostType        `json:"cost_type"`
	Description      string          `json:"description"`
	PlannedQuantity  decimal.Decimal `json:"planned_quantity"`
	PlannedUnitPrice decimal.Decimal `json:"planned_unit_price"`
	PlannedTotal     decimal.Decimal `json:"planned_total"`
}

// ProjectInput is the payload for CreateProject.
type ProjectInput struct {
	Name         string
	CustomerName string
	Budget       decimal.Decimal
	StartDate    *time.Time
	EndDate      *time.Time
}

// PhaseInput creates a phase or, in UpdatePhase, replaces its mutable fields.
type PhaseInput struct {
	Name         string
	SortOrder    int
	BudgetAmount decimal.Decimal
	ActualAmount decimal.Decimal
	IsCompleted  bool
}

// BudgetLineInput is the payload for AddBudgetLine.
type BudgetLineInput struct {
	ProjectPhaseID   *int
	CostType         CostType
	Description      string
	PlannedQuantity  decimal.Decimal
	PlannedUnitPrice decimal.Decimal
}
