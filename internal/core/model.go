package core

import "time"

// Company is the tenant boundary. Every record below belongs to exactly one.
type Company struct {
	ID           int       `json:"id"`
	CompanyCode  string    `json:"company_code"`
	Name         string    `json:"name"`
	BaseCurrency string    `json:"base_currency"`
	CreatedAt    time.Time `json:"created_at"`
}

// CostType classifies a cost ledger entry.
type CostType string

const (
	CostLabor    CostType = "LABOR"
	CostMachine  CostType = "MACHINE"
	CostMaterial CostType = "MATERIAL"
	CostExternal CostType = "EXTERNAL"
	CostOverhead CostType = "OVERHEAD"
)

// CostTypes lists every cost type in reporting order.
var CostTypes = []CostType{CostLabor, CostMachine, CostMaterial, CostExternal, CostOverhead}

func (c CostType) Valid() bool {
	for _, t := range CostTypes {
		if t == c {
			return true
		}
	}
	return false
}

// Source types written to project_cost_entries.source_type.
const (
	SourceTimeEntry           = "TIME_ENTRY"
	SourceMachineBooking      = "MACHINE_BOOKING"
	SourceMaterialConsumption = "MATERIAL_CONSUMPTION"
	SourceManual              = "MANUAL"
)

const dateLayout = "2006-01-02"

// dateOrToday truncates t to a calendar date, defaulting to today.
func dateOrToday(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
