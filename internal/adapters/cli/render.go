package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

var (
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorRed    = lipgloss.Color("#fb4934")
	colorDim    = lipgloss.Color("#928374")
	colorHeader = lipgloss.Color("#fe8019")
)

// Renderer formats service results for a terminal. With Color false every
// style is a no-op, so output is safe to pipe.
type Renderer struct {
	green, yellow, red, dim, header, bold lipgloss.Style
}

// NewRenderer returns a renderer, coloured when color is true.
func NewRenderer(color bool) *Renderer {
	plain := lipgloss.NewStyle()
	if !color {
		return &Renderer{plain, plain, plain, plain, plain, plain}
	}
	return &Renderer{
		green:  plain.Foreground(colorGreen),
		yellow: plain.Foreground(colorYellow),
		red:    plain.Foreground(colorRed),
		dim:    plain.Foreground(colorDim),
		header: plain.Foreground(colorHeader).Bold(true),
		bold:   plain.Bold(true),
	}
}

// TrafficLight renders the status colour as "● GREEN" etc.
func (r *Renderer) TrafficLight(c core.StatusColor) string {
	label := "● " + strings.ToUpper(string(c))
	switch c {
	case core.StatusRed:
		return r.red.Render(label)
	case core.StatusYellow:
		return r.yellow.Render(label)
	case core.StatusGreen:
		return r.green.Render(label)
	default:
		return r.dim.Render(label)
	}
}

func (r *Renderer) heading(text string) string {
	upper := strings.ToUpper(text)
	return r.header.Render(upper) + "\n" + r.dim.Render(strings.Repeat("─", len([]rune(upper))))
}

// Controlling renders a project KPI snapshot.
func (r *Renderer) Controlling(pc *core.ProjectControlling) string {
	var b strings.Builder
	b.WriteString(r.heading(fmt.Sprintf("Controlling %s %s", pc.ProjectNumber, pc.ProjectName)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Status      %s   (%s)\n", r.TrafficLight(pc.StatusColor), pc.ProjectStatus)
	fmt.Fprintf(&b, "  Budget      %14s CHF\n", pc.Budget.StringFixed(2))

	rows := []struct {
		label  string
		amount string
	}{
		{"Labor", pc.LaborCosts.StringFixed(2)},
		{"Machine", pc.MachineCosts.StringFixed(2)},
		{"Material", pc.MaterialCosts.StringFixed(2)},
		{"External", pc.ExternalCosts.StringFixed(2)},
		{"Overhead", pc.OverheadCosts.StringFixed(2)},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "  %-11s %14s CHF\n", row.label, row.amount)
	}
	fmt.Fprintf(&b, "  %-11s %14s CHF  %s\n", "Actual", pc.ActualCostTotal.StringFixed(2),
		r.dim.Render(fmt.Sprintf("%.1f%% of budget", pc.BudgetUsedPercent)))
	fmt.Fprintf(&b, "  %-11s %14s CHF\n", "Remaining", pc.BudgetRemaining.StringFixed(2))
	fmt.Fprintf(&b, "  %-11s %14s CHF  %s\n", "Revenue", pc.RevenueTotal.StringFixed(2),
		r.dim.Render("paid "+pc.PaidTotal.StringFixed(2)))
	fmt.Fprintf(&b, "  %-11s %14s CHF  %s\n", "Margin", pc.Margin.StringFixed(2),
		r.dim.Render(fmt.Sprintf("%.1f%%", pc.MarginPercent)))

	if !pc.CostTotalsConsistent {
		fmt.Fprintf(&b, "  %s recorded total %s differs from ledger, run reconcile\n",
			r.red.Render("!"), pc.RecordedCostTotal.StringFixed(2))
	}
	for _, w := range pc.Warnings {
		fmt.Fprintf(&b, "  %s %s\n", r.yellow.Render("⚠"), w)
	}
	if len(pc.Phases) > 0 {
		b.WriteString("\n  " + r.bold.Render("Phases") + "\n")
		for _, ph := range pc.Phases {
			done := ""
			if ph.IsCompleted {
				done = r.dim.Render("done")
			}
			fmt.Fprintf(&b, "  %-24s %12s / %12s  %s\n", ph.Name,
				ph.ActualAmount.StringFixed(2), ph.BudgetAmount.StringFixed(2), done)
		}
	}
	return b.String()
}

// TimeEntry renders a booked labor entry.
func (r *Renderer) TimeEntry(e *core.TimeEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Time entry #%d booked: %d min, %s CHF/h effective, total %s CHF\n",
		e.ID, e.DurationMinutes, e.EffectiveHourlyRate.StringFixed(2), r.bold.Render(e.TotalCost.StringFixed(2)))
	for _, s := range e.Surcharges {
		switch {
		case s.SurchargePercent != nil:
			fmt.Fprintf(&b, "  + %-9s %s%%\n", s.SurchargeType, s.SurchargePercent.String())
		case s.SurchargeAmount != nil:
			fmt.Fprintf(&b, "  + %-9s %s CHF\n", s.SurchargeType, s.SurchargeAmount.StringFixed(2))
		}
	}
	if e.CostEntryID == nil {
		b.WriteString(r.dim.Render("  not project relevant, no project cost recorded") + "\n")
	}
	return b.String()
}

// Draft renders an assistant proposal for confirmation.
func (r *Renderer) Draft(res *app.BookingDraftResult) string {
	d := res.Draft
	var b strings.Builder
	if d.NeedsClarification() {
		fmt.Fprintf(&b, "%s %s\n", r.yellow.Render("?"), d.Clarification)
		return b.String()
	}
	b.WriteString(r.heading("Booking draft") + "\n")
	fmt.Fprintf(&b, "  Time type   %s\n", d.TimeTypeCode)
	project := d.ProjectNumber
	if project == "" {
		project = r.dim.Render("none")
	}
	fmt.Fprintf(&b, "  Project     %s\n", project)
	date := d.Date
	if date == "" {
		date = r.dim.Render("today")
	}
	fmt.Fprintf(&b, "  Date        %s\n", date)
	fmt.Fprintf(&b, "  Duration    %d min\n", d.DurationMinutes)
	fmt.Fprintf(&b, "  Location    %s\n", d.WorkLocation)
	if len(d.Surcharges) > 0 {
		fmt.Fprintf(&b, "  Surcharges  %s\n", strings.Join(d.Surcharges, ", "))
	}
	if d.Description != "" {
		fmt.Fprintf(&b, "  Note        %s\n", d.Description)
	}
	conf := fmt.Sprintf("%.2f", d.Confidence)
	if d.Confidence < 0.6 {
		conf = r.red.Render(conf + " low")
	}
	fmt.Fprintf(&b, "  Confidence  %s\n", conf)
	if d.Reasoning != "" {
		fmt.Fprintf(&b, "  %s\n", r.dim.Render(d.Reasoning))
	}
	switch {
	case res.Estimate != nil:
		fmt.Fprintf(&b, "  Estimate    %s CHF (%s CHF/h, rates %s)\n",
			r.bold.Render(res.Estimate.TotalCost.StringFixed(2)),
			res.Estimate.EffectiveHourlyRate.StringFixed(2), res.Estimate.RateTableVersion)
	case res.EstimateError != "":
		fmt.Fprintf(&b, "  %s %s\n", r.red.Render("!"), res.EstimateError)
	}
	return b.String()
}

// Projects renders a project list.
func (r *Renderer) Projects(projects []core.Project) string {
	if len(projects) == 0 {
		return "No projects found.\n"
	}
	var b strings.Builder
	b.WriteString(r.heading("Projects") + "\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "  %-16s %-30s %-10s %12s / %12s\n", p.Number, p.Name, p.Status,
			p.ActualCostTotal.StringFixed(2), p.Budget.StringFixed(2))
	}
	return b.String()
}
