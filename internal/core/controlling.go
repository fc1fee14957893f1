package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StatusColor is the traffic light of a controlling snapshot.
type StatusColor string

const (
	StatusGreen  StatusColor = "green"
	StatusYellow StatusColor = "yellow"
	StatusRed    StatusColor = "red"
)

// Controlling thresholds, in percent.
var (
	budgetRedAbove    = decimal.NewFromInt(110)
	budgetYellowAbove = decimal.NewFromInt(100)
	marginRedBelow    = decimal.NewFromInt(5)
	marginYellowBelow = decimal.NewFromInt(10)
	hundred           = decimal.NewFromInt(100)
	half              = decimal.NewFromFloat(0.5)
)

// PhaseControlling is a phase as stored; it is not recomputed from the ledger.
type PhaseControlling struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	SortOrder    int             `json:"sort_order"`
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	ActualAmount decimal.Decimal `json:"actual_amount"`
	IsCompleted  bool            `json:"is_completed"`
}

// ProjectControlling is the KPI snapshot for one project. Money fields are
// CHF, percentages are plain numbers rounded to one decimal.
type ProjectControlling struct {
	ProjectID     int           `json:"project_id"`
	ProjectNumber string        `json:"project_number"`
	ProjectName   string        `json:"project_name"`
	ProjectStatus ProjectStatus `json:"project_status"`

	Budget        decimal.Decimal `json:"budget"`
	LaborCosts    decimal.Decimal `json:"labor_costs"`
	MachineCosts  decimal.Decimal `json:"machine_costs"`
	MaterialCosts decimal.Decimal `json:"material_costs"`
	ExternalCosts decimal.Decimal `json:"external_costs"`
	OverheadCosts decimal.Decimal `json:"overhead_costs"`

	// ActualCostTotal is summed from the ledger; RecordedCostTotal is the
	// running total stored on the project. They must agree.
	ActualCostTotal      decimal.Decimal `json:"actual_cost_total"`
	RecordedCostTotal    decimal.Decimal `json:"recorded_cost_total"`
	CostTotalsConsistent bool            `json:"cost_totals_consistent"`

	BudgetRemaining   decimal.Decimal `json:"budget_remaining"`
	BudgetUsedPercent float64         `json:"budget_used_percent"`

	RevenueTotal  decimal.Decimal `json:"revenue_total"`
	PaidTotal     decimal.Decimal `json:"paid_total"`
	Margin        decimal.Decimal `json:"margin"`
	MarginPercent float64         `json:"margin_percent"`

	StatusColor StatusColor        `json:"status_color"`
	Warnings    []string           `json:"warnings"`
	Phases      []PhaseControlling `json:"phases"`
}

// ControllingInput is everything EvaluateControlling reads.
type ControllingInput struct {
	Project  Project
	Phases   []ProjectPhase
	Costs    CostBreakdown
	Invoices []Invoice // cancelled invoices are ignored
}

// EvaluateControlling derives budget and margin KPIs. Thresholds compare the
// unrounded percentages; rounding happens only for display.
func EvaluateControlling(in ControllingInput) ProjectControlling {
	p := in.Project
	out := ProjectControlling{
		ProjectID:         p.ID,
		ProjectNumber:     p.Number,
		ProjectName:       p.Name,
		ProjectStatus:     p.Status,
		Budget:            p.Budget,
		LaborCosts:        in.Costs.Labor,
		MachineCosts:      in.Costs.Machine,
		MaterialCosts:     in.Costs.Material,
		ExternalCosts:     in.Costs.External,
		OverheadCosts:     in.Costs.Overhead,
		ActualCostTotal:   in.Costs.Total(),
		RecordedCostTotal: p.ActualCostTotal,
		RevenueTotal:      decimal.Zero,
		PaidTotal:         decimal.Zero,
		StatusColor:       StatusGreen,
		Warnings:          []string{},
		Phases:            make([]PhaseControlling, 0, len(in.Phases)),
	}
	out.CostTotalsConsistent = out.ActualCostTotal.Equal(out.RecordedCostTotal)

	out.BudgetRemaining = p.Budget.Sub(out.ActualCostTotal)
	budgetUsed := decimal.Zero
	if !p.Budget.IsZero() {
		budgetUsed = out.ActualCostTotal.Div(p.Budget).Mul(hundred)
	}

	for _, inv := range in.Invoices {
		if inv.Status == InvoiceCancelled {
			continue
		}
		out.RevenueTotal = out.RevenueTotal.Add(inv.TotalAmount)
		out.PaidTotal = out.PaidTotal.Add(inv.PaidAmount)
	}
	out.Margin = out.RevenueTotal.Sub(out.ActualCostTotal)
	marginPct := decimal.Zero
	if !out.RevenueTotal.IsZero() {
		marginPct = out.Margin.Div(out.RevenueTotal).Mul(hundred)
	}

	switch {
	case budgetUsed.GreaterThan(budgetRedAbove):
		out.StatusColor = StatusRed
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("Budget exceeded by %s%%", roundHalfUp(budgetUsed.Sub(hundred), 0)))
	case budgetUsed.GreaterThan(budgetYellowAbove):
		out.StatusColor = StatusYellow
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("Budget warning: %s%% used", roundHalfUp(budgetUsed, 0)))
	}

	if out.RevenueTotal.IsPositive() {
		switch {
		case marginPct.LessThan(marginRedBelow):
			out.StatusColor = StatusRed
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("Critical margin: %s%%", roundHalfUp(marginPct, 1)))
		case marginPct.LessThan(marginYellowBelow):
			if out.StatusColor == StatusGreen {
				out.StatusColor = StatusYellow
			}
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("Low margin: %s%%", roundHalfUp(marginPct, 1)))
		}
	}

	out.BudgetUsedPercent = roundHalfUp(budgetUsed, 1).InexactFloat64()
	out.MarginPercent = roundHalfUp(marginPct, 1).InexactFloat64()

	for _, ph := range in.Phases {
		out.Phases = append(out.Phases, PhaseControlling{
			ID:           ph.ID,
			Name:         ph.Name,
			SortOrder:    ph.SortOrder,
			BudgetAmount: ph.BudgetAmount,
			ActualAmount: ph.ActualAmount,
			IsCompleted:  ph.IsCompleted,
		})
	}
	return out
}

// roundHalfUp rounds ties towards positive infinity, so -2.5 becomes -2.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}
