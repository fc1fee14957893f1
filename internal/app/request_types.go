package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

// BookTimeRequest is the input for BookTime. TimeTypeCode is used when
// TimeTypeID is zero; ProjectRef (id or number) when ProjectID is nil.
type BookTimeRequest struct {
	CompanyID       int
	UserID          *int
	Date            time.Time
	DurationMinutes int
	TimeTypeID      int
	TimeTypeCode    string
	ProjectID       *int
	ProjectRef      string
	ProjectPhaseID  *int
	WorkLocation    core.WorkLocation
	BaseHourlyRate  *decimal.Decimal
	Surcharges      []core.SurchargeType
	Description     string
}

// BookMachineRequest is the input for BookMachine. MachineCode is used when
// MachineID is zero; ProjectRef when ProjectID is zero.
type BookMachineRequest struct {
	CompanyID      int
	UserID         *int
	MachineID      int
	MachineCode    string
	ProjectID      int
	ProjectRef     string
	ProjectPhaseID *int
	Date           time.Time
	DurationHours  decimal.Decimal
	Description    string
}

// ConsumeMaterialRequest is the input for ConsumeMaterial. ProductCode is used
// when ProductID is zero; ProjectRef when ProjectID is zero.
type ConsumeMaterialRequest struct {
	CompanyID      int
	UserID         *int
	ProductID      int
	ProductCode    string
	ProjectID      int
	ProjectRef     string
	ProjectPhaseID *int
	Date           time.Time
	Quantity       decimal.Decimal
	ScrapQuantity  decimal.Decimal
	Description    string
}
