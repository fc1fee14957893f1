package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func project(budget, recorded string) Project {
	return Project{
		ID:              1,
		Number:          "PRJ-2026-00001",
		Name:            "Treppe Wohnhaus",
		Status:          ProjectActive,
		Budget:          amount(budget),
		ActualCostTotal: amount(recorded),
	}
}

func labor(total string) CostBreakdown {
	return CostBreakdown{Labor: amount(total)}
}

func invoice(total, paid string, status InvoiceStatus) Invoice {
	return Invoice{TotalAmount: amount(total), PaidAmount: amount(paid), Status: status}
}

func TestEvaluateControlling_Budget(t *testing.T) {
	tests := []struct {
		name     string
		cost     string
		color    StatusColor
		warnings []string
		used     float64
	}{
		{"under budget", "8000", StatusGreen, []string{}, 80},
		{"exactly on budget", "10000", StatusGreen, []string{}, 100},
		{"warning band", "10500", StatusYellow, []string{"Budget warning: 105% used"}, 105},
		{"upper edge of warning band", "11000", StatusYellow, []string{"Budget warning: 110% used"}, 110},
		{"exceeded", "11500", StatusRed, []string{"Budget exceeded by 15%"}, 115},
		{"just over red line", "11000.01", StatusRed, []string{"Budget exceeded by 10%"}, 110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := EvaluateControlling(ControllingInput{
				Project: project("10000", tt.cost),
				Costs:   labor(tt.cost),
			})
			assert.Equal(t, tt.color, pc.StatusColor)
			assert.Equal(t, tt.warnings, pc.Warnings)
			assert.Equal(t, tt.used, pc.BudgetUsedPercent)
			assert.True(t, pc.CostTotalsConsistent)
		})
	}
}

func TestEvaluateControlling_Margin(t *testing.T) {
	tests := []struct {
		name    string
		cost    string
		color   StatusColor
		warning string
		margin  float64
	}{
		{"healthy", "8000", StatusGreen, "", 20},
		{"exactly ten percent", "9000", StatusGreen, "", 10},
		{"low", "9200", StatusYellow, "Low margin: 8%", 8},
		{"exactly five percent", "9500", StatusYellow, "Low margin: 5%", 5},
		{"critical", "9600", StatusRed, "Critical margin: 4%", 4},
		{"loss", "12000", StatusRed, "Critical margin: -20%", -20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := EvaluateControlling(ControllingInput{
				Project:  project("0", tt.cost),
				Costs:    labor(tt.cost),
				Invoices: []Invoice{invoice("10000", "0", InvoiceOpen)},
			})
			assert.Equal(t, tt.color, pc.StatusColor)
			assert.Equal(t, tt.margin, pc.MarginPercent)
			if tt.warning == "" {
				assert.Empty(t, pc.Warnings)
			} else {
				assert.Equal(t, []string{tt.warning}, pc.Warnings)
			}
		})
	}
}

func TestEvaluateControlling_BothWarnings(t *testing.T) {
	pc := EvaluateControlling(ControllingInput{
		Project:  project("10000", "10500"),
		Costs:    labor("10500"),
		Invoices: []Invoice{invoice("11000", "0", InvoiceOpen)},
	})

	// 105% used is yellow, 4.5% margin escalates to red
	assert.Equal(t, StatusRed, pc.StatusColor)
	assert.Equal(t, []string{"Budget warning: 105% used", "Critical margin: 4.5%"}, pc.Warnings)

	pc = EvaluateControlling(ControllingInput{
		Project:  project("10000", "11500"),
		Costs:    labor("11500"),
		Invoices: []Invoice{invoice("12500", "0", InvoiceOpen)},
	})
	// a low margin never downgrades red
	assert.Equal(t, StatusRed, pc.StatusColor)
	assert.Equal(t, []string{"Budget exceeded by 15%", "Low margin: 8%"}, pc.Warnings)
}

func TestEvaluateControlling_ZeroGuards(t *testing.T) {
	pc := EvaluateControlling(ControllingInput{
		Project: project("0", "2500"),
		Costs:   labor("2500"),
	})

	assert.Equal(t, StatusGreen, pc.StatusColor)
	assert.Zero(t, pc.BudgetUsedPercent)
	assert.Zero(t, pc.MarginPercent)
	assert.True(t, pc.BudgetRemaining.Equal(amount("-2500")))
	assert.True(t, pc.Margin.Equal(amount("-2500")))
	assert.NotNil(t, pc.Warnings)
	assert.NotNil(t, pc.Phases)
}

func TestEvaluateControlling_CategoriesAndRevenue(t *testing.T) {
	costs := CostBreakdown{
		Labor:    amount("3120.50"),
		Machine:  amount("450.00"),
		Material: amount("1289.35"),
		External: amount("800.00"),
		Overhead: amount("240.15"),
	}
	pc := EvaluateControlling(ControllingInput{
		Project: project("20000", "5900.00"),
		Phases: []ProjectPhase{
			{ID: 1, Name: "Werkstatt", SortOrder: 1, BudgetAmount: amount("12000"), ActualAmount: amount("4000")},
			{ID: 2, Name: "Montage", SortOrder: 2, BudgetAmount: amount("8000"), IsCompleted: true},
		},
		Costs: costs,
		Invoices: []Invoice{
			invoice("8000", "8000", InvoicePaid),
			invoice("6000", "1000", InvoicePartiallyPaid),
			invoice("5000", "0", InvoiceCancelled),
		},
	})

	assert.True(t, pc.ActualCostTotal.Equal(amount("5900.00")))
	assert.True(t, pc.CostTotalsConsistent)
	assert.True(t, pc.RevenueTotal.Equal(amount("14000")), "cancelled invoice excluded")
	assert.True(t, pc.PaidTotal.Equal(amount("9000")))
	assert.True(t, pc.Margin.Equal(amount("8100")))
	assert.Equal(t, 29.5, pc.BudgetUsedPercent)
	assert.Equal(t, 57.9, pc.MarginPercent)
	assert.Equal(t, StatusGreen, pc.StatusColor)

	require.Len(t, pc.Phases, 2)
	assert.Equal(t, "Montage", pc.Phases[1].Name)
	assert.True(t, pc.Phases[0].ActualAmount.Equal(amount("4000")), "phase actuals pass through")
}

func TestEvaluateControlling_DetectsDivergence(t *testing.T) {
	pc := EvaluateControlling(ControllingInput{
		Project: project("10000", "1000.00"),
		Costs:   labor("1250.00"),
	})

	assert.False(t, pc.CostTotalsConsistent)
	assert.True(t, pc.ActualCostTotal.Equal(amount("1250.00")), "ledger sum is authoritative")
	assert.True(t, pc.RecordedCostTotal.Equal(amount("1000.00")))
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"104.5", 0, "105"},
		{"104.49", 0, "104"},
		{"12.25", 1, "12.3"},
		{"12.24", 1, "12.2"},
		{"-2.5", 0, "-2"},
		{"-2.51", 0, "-3"},
		{"7", 1, "7"},
	}
	for _, tt := range tests {
		got := roundHalfUp(amount(tt.in), tt.places)
		assert.True(t, got.Equal(amount(tt.want)), "roundHalfUp(%s, %d) = %s, want %s", tt.in, tt.places, got, tt.want)
	}
}
