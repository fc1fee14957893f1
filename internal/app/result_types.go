package app

import (
	"github.com/shopspring/decimal"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

// UserSession is returned by AuthenticateUser and becomes the JWT payload.
type UserSession struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	CompanyID   int    `json:"company_id"`
	CompanyCode string `json:"company_code"`
	Role        string `json:"role"`
}

// UserResult is returned by GetUser.
type UserResult struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	CompanyCode string `json:"company_code"`
}

// ProjectResult is a project with its phases.
type ProjectResult struct {
	Project *core.Project       `json:"project"`
	Phases  []core.ProjectPhase `json:"phases"`
}

// BudgetLinesResult lists a project's planned cost.
type BudgetLinesResult struct {
	Lines        []core.ProjectBudgetLine `json:"lines"`
	PlannedTotal decimal.Decimal          `json:"planned_total"`
}

// LaborEstimate previews what a draft would cost if booked now.
type LaborEstimate struct {
	RateTableVersion    string          `json:"rate_table_version"`
	BaseHourlyRate      decimal.Decimal `json:"base_hourly_rate"`
	SurchargeTotal      decimal.Decimal `json:"surcharge_total"`
	EffectiveHourlyRate decimal.Decimal `json:"effective_hourly_rate"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	Surcharges          []string        `json:"surcharges"`
}

// BookingDraftResult is returned by InterpretBooking. Estimate is nil for
// clarifications and drafts the resolver rejects; EstimateError says why.
type BookingDraftResult struct {
	Draft         *core.BookingDraft `json:"draft"`
	Estimate      *LaborEstimate     `json:"estimate,omitempty"`
	EstimateError string             `json:"estimate_error,omitempty"`
}
