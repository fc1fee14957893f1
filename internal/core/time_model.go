package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkLocation is where labor was performed.
type WorkLocation string

const (
	LocationWerkstatt WorkLocation = "WERKSTATT"
	LocationBaustelle WorkLocation = "BAUSTELLE"
	LocationBuero     WorkLocation = "BUERO"
)

// TimeType is a per-company catalog entry. Code is unique per company.
type TimeType struct {
	ID                int    `json:"id"`
	CompanyID         int    `json:"company_id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	IsProjectRelevant bool   `json:"is_project_relevant"`
	IsBillable        bool   `json:"is_billable"`
	AffectsCapacity   bool   `json:"affects_capacity"`
	SortOrder         int    `json:"sort_order"`
}

// TimeTypeInput is the payload for CreateTimeType.
type TimeTypeInput struct {
	Code              string
	Name              string
	IsProjectRelevant bool
	IsBillable        bool
	AffectsCapacity   bool
	SortOrder         int
}

// DefaultTimeTypes is the catalog seeded for a new company.
var DefaultTimeTypes = []TimeTypeInput{
	{Code: "PROJEKT", Name: "Projektarbeit", IsProjectRelevant: true, IsBillable: true, AffectsCapacity: true, SortOrder: 10},
	{Code: "MONTAGE", Name: "Montage", IsProjectRelevant: true, IsBillable: true, AffectsCapacity: true, SortOrder: 20},
	{Code: "WERKSTATT", Name: "Werkstatt", IsProjectRelevant: true, IsBillable: true, AffectsCapacity: true, SortOrder: 30},
	{Code: "ADMIN", Name: "Administration", IsProjectRelevant: false, IsBillable: false, AffectsCapacity: true, SortOrder: 40},
	{Code: "WEITERBILDUNG", Name: "Weiterbildung", IsProjectRelevant: false, IsBillable: false, AffectsCapacity: true, SortOrder: 50},
	{Code: "FERIEN", Name: "Ferien", IsProjectRelevant: false, IsBillable: false, AffectsCapacity: false, SortOrder: 60},
	{Code: "KRANKHEIT", Name: "Krankheit", IsProjectRelevant: false, IsBillable: false, AffectsCapacity: false, SortOrder: 70},
}

// TimeEntry is one labor booking, costed at creation and never changed after.
type TimeEntry struct {
	ID                  int                  `json:"id"`
	CompanyID           int                  `json:"company_id"`
	UserID              *int                 `json:"user_id,omitempty"`
	Date                time.Time            `json:"date"`
	DurationMinutes     int                  `json:"duration_minutes"`
	TimeTypeID          int                  `json:"time_type_id"`
	ProjectID           *int                 `json:"project_id,omitempty"`
	ProjectPhaseID      *int                 `json:"project_phase_id,omitempty"`
	WorkLocation        WorkLocation         `json:"work_location"`
	Description         string               `json:"description"`
	BaseHourlyRate      decimal.Decimal      `json:"base_hourly_rate"`
	SurchargeTotal      decimal.Decimal      `json:"surcharge_total"`
	EffectiveHourlyRate decimal.Decimal      `json:"effective_hourly_rate"`
	TotalCost           decimal.Decimal      `json:"total_cost"`
	IsBillable          bool                 `json:"is_billable"`
	RateTableVersion    string               `json:"rate_table_version"`
	Surcharges          []TimeEntrySurcharge `json:"surcharges"`
	CostEntryID         *int                 `json:"cost_entry_id,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
}

// TimeEntrySurcharge is the audit row for one applied surcharge. Percent
// surcharges carry the percent, flat ones the amount for the entry's duration.
type TimeEntrySurcharge struct {
	ID               int              `json:"id"`
	TimeEntryID      int              `json:"time_entry_id"`
	SurchargeType    SurchargeType    `json:"surcharge_type"`
	SurchargePercent *decimal.Decimal `json:"surcharge_percent,omitempty"`
	SurchargeAmount  *decimal.Decimal `json:"surcharge_amount,omitempty"`
}

// TimeBookingInput is a labor booking request.
type TimeBookingInput struct {
	CompanyID       int
	UserID          *int
	Date            time.Time
	DurationMinutes int
	TimeTypeID      int
	ProjectID       *int
	ProjectPhaseID  *int
	WorkLocation    WorkLocation
	BaseHourlyRate  *decimal.Decimal // nil means the rate table default
	Surcharges      []SurchargeType
	Description     string
}
