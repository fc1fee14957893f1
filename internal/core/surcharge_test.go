package core_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func detailTypes(r core.RateResolution) []core.SurchargeType {
	out := make([]core.SurchargeType, len(r.Details))
	for i, d := range r.Details {
		out[i] = d.Type
	}
	return out
}

func TestResolve_BaustelleSaturday(t *testing.T) {
	r := core.NewResolver(core.DefaultRateTable())

	res, err := r.Resolve(core.LaborRateInput{
		DurationMinutes: 240,
		WorkLocation:    core.LocationBaustelle,
		Surcharges:      []core.SurchargeType{core.SurchargeSamstag},
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-01", res.RateTableVersion)
	assertDec(t, "4", res.Hours)
	assertDec(t, "65", res.BaseHourlyRate)
	assertDec(t, "104", res.SurchargeTotal) // 39 montage + 65 samstag
	assertDec(t, "364", res.TotalCost)
	assertDec(t, "91", res.EffectiveHourlyRate)
	assert.Equal(t, []core.SurchargeType{core.SurchargeMontage, core.SurchargeSamstag}, detailTypes(res))
	require.NotNil(t, res.Details[0].Percent)
	assertDec(t, "15", *res.Details[0].Percent)
	assertDec(t, "39", res.Details[0].Amount)
}

func TestResolve_NoSurcharges(t *testing.T) {
	r := core.NewResolver(core.DefaultRateTable())

	res, err := r.Resolve(core.LaborRateInput{DurationMinutes: 90, WorkLocation: core.LocationWerkstatt})
	require.NoError(t, err)

	assertDec(t, "0", res.SurchargeTotal)
	assertDec(t, "97.5", res.TotalCost)
	assertDec(t, "65", res.EffectiveHourlyRate)
	assert.Empty(t, res.Details)
}

func TestResolve_FlatSurchargeScalesWithDuration(t *testing.T) {
	r := core.NewResolver(core.DefaultRateTable())

	res, err := r.Resolve(core.LaborRateInput{
		DurationMinutes: 90,
		Surcharges:      []core.SurchargeType{core.SurchargeHoehe},
	})
	require.NoError(t, err)

	require.Len(t, res.Details, 1)
	assert.Equal(t, core.SurchargeFlat, res.Details[0].Kind)
	assert.Nil(t, res.Details[0].Percent)
	assertDec(t, "4.5", res.Details[0].Amount)
	assertDec(t, "102", res.TotalCost)
	assertDec(t, "68", res.EffectiveHourlyRate)
}

func TestResolve_ExplicitMontageOnBaustelleAppliesOnce(t *testing.T) {
	r := core.NewResolver(core.DefaultRateTable())

	implied, err := r.Resolve(core.LaborRateInput{DurationMinutes: 60, WorkLocation: core.LocationBaustelle})
	require.NoError(t, err)
	both, err := r.Resolve(core.LaborRateInput{
		DurationMinutes: 60,
		WorkLocation:    core.LocationBaustelle,
		Surcharges:      []core.SurchargeType{core.SurchargeMontage, core.SurchargeMontage},
	})
	require.NoError(t, err)

	assert.Equal(t, []core.SurchargeType{core.SurchargeMontage}, detailTypes(both))
	assertDec(t, implied.TotalCost.String(), both.TotalCost)
	assertDec(t, "74.75", both.TotalCost)
}

func TestResolve_DetailsFollowTableOrder(t *testing.T) {
	r := core.NewResolver(core.DefaultRateTable())

	res, err := r.Resolve(core.LaborRateInput{
		DurationMinutes: 60,
		Surcharges:      []core.SurchargeType{core.SurchargeSchmutz, core.SurchargeFeiertag, core.SurchargeNacht},
	})
	require.NoError(t, err)
	assert.Equal(t, []core.SurchargeType{core.SurchargeNacht, core.SurchargeFeiertag, core.SurchargeSchmutz}, detailTypes(res))
}

func TestResolve_BaseRateOverride(t *testing.T) {
	r := core.NewResolver(core.DefaultRateTable())

	rate := dec("80")
	res, err := r.Resolve(core.LaborRateInput{
		DurationMinutes: 60,
		BaseHourlyRate:  &rate,
		Surcharges:      []core.SurchargeType{core.SurchargeSonntag},
	})
	require.NoError(t, err)
	assertDec(t, "120", res.TotalCost)

	zero := decimal.Zero
	res, err = r.Resolve(core.LaborRateInput{
		DurationMinutes: 60,
		BaseHourlyRate:  &zero,
		Surcharges:      []core.SurchargeType{core.SurchargeSonntag, core.SurchargeSchmutz},
	})
	require.NoError(t, err)
	// percent on a zero base is zero, flat still applies
	assertDec(t, "2", res.TotalCost)
}

func TestResolve_Rejections(t *testing.T) {
	r := core.NewResolver(core.DefaultRateTable())
	negative := dec("-1")

	tests := []struct {
		name string
		in   core.LaborRateInput
	}{
		{"zero minutes", core.LaborRateInput{DurationMinutes: 0}},
		{"negative minutes", core.LaborRateInput{DurationMinutes: -30}},
		{"negative base", core.LaborRateInput{DurationMinutes: 60, BaseHourlyRate: &negative}},
		{"unknown surcharge", core.LaborRateInput{DurationMinutes: 60, Surcharges: []core.SurchargeType{"PAUSE"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestResolve_OneMinuteStaysUnrounded(t *testing.T) {
	r := core.NewResolver(core.DefaultRateTable())

	res, err := r.Resolve(core.LaborRateInput{DurationMinutes: 1, Surcharges: []core.SurchargeType{core.SurchargeNacht}})
	require.NoError(t, err)

	// 65/60 + 65×0.25/60
	assertDec(t, "1.35", res.TotalCost.Round(2))
	assertDec(t, "81.25", res.EffectiveHourlyRate.Round(4))
}

// Every surcharge contributes independently: the total of any combination
// equals the base cost plus each surcharge resolved on its own.
func TestResolve_SurchargesAreAdditive(t *testing.T) {
	table := core.DefaultRateTable()
	r := core.NewResolver(table)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		minutes := 1 + rng.Intn(720)
		rate := decimal.NewFromInt(int64(40 + rng.Intn(80)))
		var picked []core.SurchargeType
		for _, rule := range table.Rules {
			if rng.Intn(2) == 0 {
				picked = append(picked, rule.Type)
			}
		}

		combined, err := r.Resolve(core.LaborRateInput{DurationMinutes: minutes, BaseHourlyRate: &rate, Surcharges: picked})
		require.NoError(t, err)

		plain, err := r.Resolve(core.LaborRateInput{DurationMinutes: minutes, BaseHourlyRate: &rate})
		require.NoError(t, err)
		want := plain.TotalCost
		for _, s := range picked {
			solo, err := r.Resolve(core.LaborRateInput{DurationMinutes: minutes, BaseHourlyRate: &rate, Surcharges: []core.SurchargeType{s}})
			require.NoError(t, err)
			want = want.Add(solo.SurchargeTotal)
		}

		assert.True(t, want.Round(8).Equal(combined.TotalCost.Round(8)),
			"minutes=%d rate=%s surcharges=%v: want %s got %s", minutes, rate, picked, want, combined.TotalCost)
		assert.True(t, combined.TotalCost.GreaterThanOrEqual(plain.TotalCost))
	}
}

func TestRateTable_Validate(t *testing.T) {
	require.NoError(t, core.DefaultRateTable().Validate())

	bad := core.DefaultRateTable()
	bad.LocationSurcharges = map[core.WorkLocation]core.SurchargeType{core.LocationBaustelle: "ZULAGE"}
	assert.Error(t, bad.Validate())

	bad = core.DefaultRateTable()
	bad.Version = ""
	assert.Error(t, bad.Validate())
}
