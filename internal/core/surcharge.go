package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SurchargeType identifies a labor surcharge.
type SurchargeType string

const (
	SurchargeMontage  SurchargeType = "MONTAGE"
	SurchargeNacht    SurchargeType = "NACHT"
	SurchargeSamstag  SurchargeType = "SAMSTAG"
	SurchargeSonntag  SurchargeType = "SONNTAG"
	SurchargeFeiertag SurchargeType = "FEIERTAG"
	SurchargeHoehe    SurchargeType = "HOEHE"
	SurchargeSchmutz  SurchargeType = "SCHMUTZ"
)

// SurchargeKind tells how a rule's Value is applied.
type SurchargeKind string

const (
	SurchargePercent SurchargeKind = "percent" // Value percent of the base rate per hour
	SurchargeFlat    SurchargeKind = "flat"    // Value CHF per hour
)

// SurchargeRule is one row of the surcharge table.
type SurchargeRule struct {
	Type  SurchargeType
	Kind  SurchargeKind
	Value decimal.Decimal
}

// RateTable is the versioned labor rate configuration. Rules are kept in
// table order, which is also the order of emitted surcharge details.
// LocationSurcharges names surcharges implied by a work location.
type RateTable struct {
	Version            string
	DefaultHourlyRate  decimal.Decimal
	Rules              []SurchargeRule
	LocationSurcharges map[WorkLocation]SurchargeType
}

// DefaultRateTable returns the standard Swiss Metallbau rates.
func DefaultRateTable() RateTable {
	return RateTable{
		Version:           "2024-01",
		DefaultHourlyRate: decimal.NewFromInt(65),
		Rules: []SurchargeRule{
			{Type: SurchargeMontage, Kind: SurchargePercent, Value: decimal.NewFromInt(15)},
			{Type: SurchargeNacht, Kind: SurchargePercent, Value: decimal.NewFromInt(25)},
			{Type: SurchargeSamstag, Kind: SurchargePercent, Value: decimal.NewFromInt(25)},
			{Type: SurchargeSonntag, Kind: SurchargePercent, Value: decimal.NewFromInt(50)},
			{Type: SurchargeFeiertag, Kind: SurchargePercent, Value: decimal.NewFromInt(100)},
			{Type: SurchargeHoehe, Kind: SurchargeFlat, Value: decimal.NewFromInt(3)},
			{Type: SurchargeSchmutz, Kind: SurchargeFlat, Value: decimal.NewFromInt(2)},
		},
		LocationSurcharges: map[WorkLocation]SurchargeType{
			LocationBaustelle: SurchargeMontage,
		},
	}
}

// Rule returns the rule for t.
func (rt RateTable) Rule(t SurchargeType) (SurchargeRule, bool) {
	for _, r := range rt.Rules {
		if r.Type == t {
			return r, true
		}
	}
	return SurchargeRule{}, false
}

// Validate checks the table is internally consistent.
func (rt RateTable) Validate() error {
	if rt.Version == "" {
		return fmt.Errorf("rate table version is required")
	}
	if rt.DefaultHourlyRate.IsNegative() {
		return fmt.Errorf("default hourly rate cannot be negative")
	}
	seen := make(map[SurchargeType]bool, len(rt.Rules))
	for _, r := range rt.Rules {
		if seen[r.Type] {
			return fmt.Errorf("duplicate surcharge %s", r.Type)
		}
		seen[r.Type] = true
		if r.Kind != SurchargePercent && r.Kind != SurchargeFlat {
			return fmt.Errorf("surcharge %s: unknown kind %q", r.Type, r.Kind)
		}
		if r.Value.IsNegative() {
			return fmt.Errorf("surcharge %s: value cannot be negative", r.Type)
		}
	}
	for loc, t := range rt.LocationSurcharges {
		if !seen[t] {
			return fmt.Errorf("location %s implies unknown surcharge %s", loc, t)
		}
	}
	return nil
}

// LaborRateInput is what the resolver needs from a labor booking.
type LaborRateInput struct {
	DurationMinutes int
	BaseHourlyRate  *decimal.Decimal
	Surcharges      []SurchargeType
	WorkLocation    WorkLocation
}

// SurchargeDetail is the breakdown row for one applied surcharge. Amount is
// always set; Percent only for percent rules.
type SurchargeDetail struct {
	Type    SurchargeType
	Kind    SurchargeKind
	Percent *decimal.Decimal
	Amount  decimal.Decimal
}

// RateResolution is the fully costed labor booking. Values are unrounded;
// callers round once when persisting.
type RateResolution struct {
	RateTableVersion    string
	Hours               decimal.Decimal
	BaseHourlyRate      decimal.Decimal
	SurchargeTotal      decimal.Decimal
	EffectiveHourlyRate decimal.Decimal
	TotalCost           decimal.Decimal
	Details             []SurchargeDetail
}

// Resolver costs labor bookings against a fixed rate table.
type Resolver struct {
	table RateTable
}

// NewResolver returns a resolver for table.
func NewResolver(table RateTable) *Resolver {
	return &Resolver{table: table}
}

// Table returns the rate table in use.
func (r *Resolver) Table() RateTable { return r.table }

var (
	sixty    = decimal.NewFromInt(60)
	sixThous = decimal.NewFromInt(6000)
)

// Resolve computes surcharges, effective rate, and total cost for in.
//
// The applied surcharge set is the union of the explicit list and any
// surcharge implied by the work location, so an explicit MONTAGE on a
// BAUSTELLE booking is applied once.
func (r *Resolver) Resolve(in LaborRateInput) (RateResolution, error) {
	if in.DurationMinutes <= 0 {
		return RateResolution{}, invalidf("duration must be positive, got %d minutes", in.DurationMinutes)
	}

	base := r.table.DefaultHourlyRate
	if in.BaseHourlyRate != nil {
		base = *in.BaseHourlyRate
	}
	if base.IsNegative() {
		return RateResolution{}, invalidf("base hourly rate cannot be negative, got %s", base)
	}

	applied := make(map[SurchargeType]bool, len(in.Surcharges)+1)
	for _, s := range in.Surcharges {
		if _, ok := r.table.Rule(s); !ok {
			return RateResolution{}, invalidf("unknown surcharge type %q", s)
		}
		applied[s] = true
	}
	if implied, ok := r.table.LocationSurcharges[in.WorkLocation]; ok {
		applied[implied] = true
	}

	minutes := decimal.NewFromInt(int64(in.DurationMinutes))
	res := RateResolution{
		RateTableVersion: r.table.Version,
		Hours:            minutes.Div(sixty),
		BaseHourlyRate:   base,
		SurchargeTotal:   decimal.Zero,
	}

	for _, rule := range r.table.Rules {
		if !applied[rule.Type] {
			continue
		}
		d := SurchargeDetail{Type: rule.Type, Kind: rule.Kind}
		switch rule.Kind {
		case SurchargePercent:
			pct := rule.Value
			d.Percent = &pct
			// base × pct/100 × minutes/60, divided once to keep it exact
			d.Amount = base.Mul(pct).Mul(minutes).Div(sixThous)
		case SurchargeFlat:
			d.Amount = rule.Value.Mul(minutes).Div(sixty)
		}
		res.SurchargeTotal = res.SurchargeTotal.Add(d.Amount)
		res.Details = append(res.Details, d)
	}

	baseCost := base.Mul(minutes).Div(sixty)
	res.TotalCost = baseCost.Add(res.SurchargeTotal)
	res.EffectiveHourlyRate = base.Add(res.SurchargeTotal.Mul(sixty).Div(minutes))
	return res, nil
}
