package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

const sampleTable = `
version = "2025-01"
default_hourly_rate = "70.00"

[[surcharge]]
type = "montage"
kind = "percent"
value = "20"

[[surcharge]]
type = "HOEHE"
kind = "flat"
value = "4"

[location_surcharges]
baustelle = "MONTAGE"
`

func TestLoadRateTable_DefaultWhenPathEmpty(t *testing.T) {
	rt, err := LoadRateTable("")
	require.NoError(t, err)
	assert.Equal(t, "2024-01", rt.Version)
	assert.True(t, rt.DefaultHourlyRate.Equal(decimal.NewFromInt(65)))
	assert.Len(t, rt.Rules, 7)
}

func TestLoadRateTable_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0o600))

	rt, err := LoadRateTable(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-01", rt.Version)
	assert.True(t, rt.DefaultHourlyRate.Equal(decimal.NewFromInt(70)))
	require.Len(t, rt.Rules, 2)
	assert.Equal(t, core.SurchargeMontage, rt.Rules[0].Type)
	assert.Equal(t, core.SurchargePercent, rt.Rules[0].Kind)
	assert.Equal(t, core.SurchargeFlat, rt.Rules[1].Kind)
	assert.Equal(t, core.SurchargeMontage, rt.LocationSurcharges[core.LocationBaustelle])
}

func TestParseRateTable_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad rate": `version = "x"
default_hourly_rate = "abc"`,
		"missing version": `default_hourly_rate = "65"`,
		"unknown kind": `version = "x"
default_hourly_rate = "65"
[[surcharge]]
type = "NACHT"
kind = "weekly"
value = "1"`,
		"location points nowhere": `version = "x"
default_hourly_rate = "65"
[location_surcharges]
BAUSTELLE = "MONTAGE"`,
		"not toml": `version = `,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRateTable(data)
			assert.Error(t, err)
		})
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/metallbau")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "DEBUG", cfg.LogLevel.String())

	assert.Zero(t, cfg.DBMaxConns)

	t.Setenv("DB_MAX_CONNS", "12")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, int32(12), cfg.DBMaxConns)

	t.Setenv("DB_MAX_CONNS", "many")
	_, err = Load()
	assert.Error(t, err)
	t.Setenv("DB_MAX_CONNS", "")

	t.Setenv("LOG_LEVEL", "loud")
	_, err = Load()
	assert.Error(t, err)
}
