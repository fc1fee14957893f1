package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostEntry is one row of the append-only project cost ledger.
type CostEntry struct {
	ID             int             `json:"id"`
	CompanyID      int             `json:"company_id"`
	ProjectID      int             `json:"project_id"`
	ProjectPhaseID *int            `json:"project_phase_id,omitempty"`
	EntryDate      time.Time       `json:"entry_date"`
	CostType       CostType        `json:"cost_type"`
	SourceType     string          `json:"source_type"`
	SourceID       *int            `json:"source_id,omitempty"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	IsDirectCost   bool            `json:"is_direct_cost"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CostEntryInput is what a booking path hands to the ledger. Amount must
// already be rounded to cents.
type CostEntryInput struct {
	CompanyID      int
	ProjectID      int
	ProjectPhaseID *int
	EntryDate      time.Time
	CostType       CostType
	SourceType     string
	SourceID       *int
	Description    string
	Amount         decimal.Decimal
	IsDirectCost   bool
}

// ManualCostInput books external or overhead cost directly to a project.
type ManualCostInput struct {
	CompanyID      int
	ProjectID      int
	ProjectPhaseID *int
	EntryDate      time.Time
	CostType       CostType
	Description    string
	Amount         decimal.Decimal
	IsDirectCost   bool
}

// CostBreakdown holds ledger sums per cost type.
type CostBreakdown struct {
	Labor    decimal.Decimal `json:"labor"`
	Machine  decimal.Decimal `json:"machine"`
	Material decimal.Decimal `json:"material"`
	External decimal.Decimal `json:"external"`
	Overhead decimal.Decimal `json:"overhead"`
}

// Total is the sum of all five categories.
func (b CostBreakdown) Total() decimal.Decimal {
	return b.Labor.Add(b.Machine).Add(b.Material).Add(b.External).Add(b.Overhead)
}

func (b *CostBreakdown) add(t CostType, amount decimal.Decimal) {
	switch t {
	case CostLabor:
		b.Labor = b.Labor.Add(amount)
	case CostMachine:
		b.Machine = b.Machine.Add(amount)
	case CostMaterial:
		b.Material = b.Material.Add(amount)
	case CostExternal:
		b.External = b.External.Add(amount)
	case CostOverhead:
		b.Overhead = b.Overhead.Add(amount)
	}
}

// ReconcileResult reports a project's running total before and after a
// reconcile. Repaired is false when they already agreed.
type ReconcileResult struct {
	ProjectID int             `json:"project_id"`
	Previous  decimal.Decimal `json:"previous"`
	Corrected decimal.Decimal `json:"corrected"`
	Repaired  bool            `json:"repaired"`
}
