package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/adapters/cli"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

type stubService struct {
	app.ApplicationService

	texts  []string
	booked []core.BookingDraft
}

// InterpretBooking asks for the project once, then proposes a booking.
func (s *stubService) InterpretBooking(_ context.Context, _ int, text string) (*app.BookingDraftResult, error) {
	s.texts = append(s.texts, text)
	if len(s.texts) == 1 {
		return &app.BookingDraftResult{Draft: &core.BookingDraft{Clarification: "Für welches Projekt?"}}, nil
	}
	return &app.BookingDraftResult{
		Draft: &core.BookingDraft{
			TimeTypeCode:    "MONTAGE",
			ProjectNumber:   "PRJ-2026-00001",
			DurationMinutes: 240,
			WorkLocation:    "BAUSTELLE",
			Confidence:      0.9,
		},
		Estimate: &app.LaborEstimate{RateTableVersion: "2024-01", TotalCost: decimal.RequireFromString("299.00")},
	}, nil
}

func (s *stubService) BookDraft(_ context.Context, _ int, _ *int, d core.BookingDraft) (*core.TimeEntry, error) {
	s.booked = append(s.booked, d)
	cost := 1
	return &core.TimeEntry{ID: 1, DurationMinutes: d.DurationMinutes, TotalCost: decimal.RequireFromString("299.00"), CostEntryID: &cost}, nil
}

func (s *stubService) ListTimeTypes(context.Context, int) ([]core.TimeType, error) {
	return []core.TimeType{{Code: "PROJEKT", Name: "Projektarbeit", IsProjectRelevant: true}}, nil
}

func runSession(t *testing.T, svc *stubService, input string) string {
	t.Helper()
	var out bytes.Buffer
	company := &core.Company{ID: 1, CompanyCode: "MB01", Name: "Metallbau AG", BaseCurrency: "CHF"}
	require.NoError(t, Run(context.Background(), svc, company, strings.NewReader(input), &out, cli.NewRenderer(false)))
	return out.String()
}

func TestAssistant_ClarifiesThenBooksOnApproval(t *testing.T) {
	svc := &stubService{}
	out := runSession(t, svc, "4h Montage Baustelle\nPRJ-2026-00001\ny\n/exit\n")

	require.Len(t, svc.texts, 2)
	assert.Contains(t, svc.texts[1], "User answer: PRJ-2026-00001")
	require.Len(t, svc.booked, 1)
	assert.Equal(t, "MONTAGE", svc.booked[0].TimeTypeCode)
	assert.Contains(t, out, "Für welches Projekt?")
	assert.Contains(t, out, "299.00")
	assert.Contains(t, out, "Goodbye!")
}

func TestAssistant_DeclinedDraftIsNotBooked(t *testing.T) {
	svc := &stubService{}
	out := runSession(t, svc, "4h Montage\nPRJ-2026-00001\nn\n")

	assert.Empty(t, svc.booked)
	assert.Contains(t, out, "Cancelled.")
}

func TestSlashCommandDuringClarificationCancels(t *testing.T) {
	svc := &stubService{}
	out := runSession(t, svc, "4h Montage\n/types\n/exit\n")

	assert.Len(t, svc.texts, 1)
	assert.Empty(t, svc.booked)
	assert.Contains(t, out, "(assistant cancelled)")
	assert.Contains(t, out, "PROJEKT")
}

func TestUnknownSlashCommand(t *testing.T) {
	out := runSession(t, &stubService{}, "/foo\n")
	assert.Contains(t, out, "Unknown command: /foo")
}
