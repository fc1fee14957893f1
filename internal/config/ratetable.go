package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

// rateTableFile is the on-disk shape of a rate table:
//
//	version = "2025-01"
//	default_hourly_rate = "68.00"
//
//	[[surcharge]]
//	type = "MONTAGE"
//	kind = "percent"
//	value = "15"
//
//	[location_surcharges]
//	BAUSTELLE = "MONTAGE"
type rateTableFile struct {
	Version            string            `toml:"version"`
	DefaultHourlyRate  string            `toml:"default_hourly_rate"`
	Surcharges         []surchargeRow    `toml:"surcharge"`
	LocationSurcharges map[string]string `toml:"location_surcharges"`
}

type surchargeRow struct {
	Type  string `toml:"type"`
	Kind  string `toml:"kind"`
	Value string `toml:"value"`
}

// LoadRateTable returns the compiled default table when path is empty,
// otherwise the table decoded from the TOML file at path.
func LoadRateTable(path string) (core.RateTable, error) {
	if path == "" {
		return core.DefaultRateTable(), nil
	}
	var f rateTableFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return core.RateTable{}, fmt.Errorf("failed to read rate table %s: %w", path, err)
	}
	return f.toRateTable()
}

// ParseRateTable decodes a rate table from TOML text.
func ParseRateTable(data string) (core.RateTable, error) {
	var f rateTableFile
	if _, err := toml.Decode(data, &f); err != nil {
		return core.RateTable{}, fmt.Errorf("failed to parse rate table: %w", err)
	}
	return f.toRateTable()
}

func (f rateTableFile) toRateTable() (core.RateTable, error) {
	rate, err := decimal.NewFromString(f.DefaultHourlyRate)
	if err != nil {
		return core.RateTable{}, fmt.Errorf("invalid default_hourly_rate %q", f.DefaultHourlyRate)
	}
	rt := core.RateTable{
		Version:            f.Version,
		DefaultHourlyRate:  rate,
		LocationSurcharges: make(map[core.WorkLocation]core.SurchargeType, len(f.LocationSurcharges)),
	}
	for _, row := range f.Surcharges {
		v, err := decimal.NewFromString(row.Value)
		if err != nil {
			return core.RateTable{}, fmt.Errorf("surcharge %s: invalid value %q", row.Type, row.Value)
		}
		rt.Rules = append(rt.Rules, core.SurchargeRule{
			Type:  core.SurchargeType(strings.ToUpper(row.Type)),
			Kind:  core.SurchargeKind(strings.ToLower(row.Kind)),
			Value: v,
		})
	}
	for loc, t := range f.LocationSurcharges {
		rt.LocationSurcharges[core.WorkLocation(strings.ToUpper(loc))] = core.SurchargeType(strings.ToUpper(t))
	}
	if err := rt.Validate(); err != nil {
		return core.RateTable{}, fmt.Errorf("invalid rate table: %w", err)
	}
	return rt, nil
}
