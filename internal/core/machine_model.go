package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MachineStatus controls whether a machine can be booked.
type MachineStatus string

const (
	MachineActive      MachineStatus = "ACTIVE"
	MachineMaintenance MachineStatus = "MAINTENANCE"
	MachineInactive    MachineStatus = "INACTIVE"
)

func (s MachineStatus) Valid() bool {
	return s == MachineActive || s == MachineMaintenance || s == MachineInactive
}

type Machine struct {
	ID           int             `json:"id"`
	CompanyID    int             `json:"company_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
	Status       MachineStatus   `json:"status"`
	CostCenterID *int            `json:"cost_center_id,omitempty"`
}

type MachineInput struct {
	Code         string
	Name         string
	HourlyRate   decimal.Decimal
	CostCenterID *int
}

// MachineBooking snapshots the machine's hourly rate at booking time.
type MachineBooking struct {
	ID             int             `json:"id"`
	CompanyID      int             `json:"company_id"`
	MachineID      int             `json:"machine_id"`
	ProjectID      int             `json:"project_id"`
	ProjectPhaseID *int            `json:"project_phase_id,omitempty"`
	UserID         *int            `json:"user_id,omitempty"`
	Date           time.Time       `json:"date"`
	DurationHours  decimal.Decimal `json:"duration_hours"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Description    string          `json:"description"`
	CostEntryID    int             `json:"cost_entry_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

type MachineBookingInput struct {
	CompanyID      int
	UserID         *int
	MachineID      int
	ProjectID      int
	ProjectPhaseID *int
	Date           time.Time
	DurationHours  decimal.Decimal
	Description    string
}
