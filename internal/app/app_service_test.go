package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/ai"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

type stubTime struct {
	core.TimeService
	booked []core.TimeBookingInput
}

func (s *stubTime) ListTimeTypes(context.Context, int) ([]core.TimeType, error) {
	return []core.TimeType{
		{ID: 3, Code: "MONTAGE", Name: "Montage", IsProjectRelevant: true},
		{ID: 4, Code: "ADMIN", Name: "Administration"},
	}, nil
}

func (s *stubTime) BookTime(_ context.Context, in core.TimeBookingInput) (*core.TimeEntry, error) {
	s.booked = append(s.booked, in)
	ce := 99
	return &core.TimeEntry{ID: 1, TotalCost: decimal.NewFromInt(364), CostEntryID: &ce}, nil
}

type stubProjects struct {
	core.ProjectService
}

func (stubProjects) GetProjectByNumber(_ context.Context, _ int, number string) (*core.Project, error) {
	if number == "PRJ-2026-00007" {
		return &core.Project{ID: 42, Number: number}, nil
	}
	return nil, core.ErrNotFound
}

func (stubProjects) ListProjects(context.Context, int, *core.ProjectStatus) ([]core.Project, error) {
	return []core.Project{
		{ID: 42, Number: "PRJ-2026-00007", Name: "Treppe", Status: core.ProjectActive},
		{ID: 43, Number: "PRJ-2026-00008", Name: "Tor", Status: core.ProjectCompleted},
	}, nil
}

type stubAgent struct {
	draft   *core.BookingDraft
	context string
}

func (a *stubAgent) InterpretBooking(_ context.Context, _ string, bookingContext string) (*core.BookingDraft, error) {
	a.context = bookingContext
	return a.draft, nil
}

func newTestAppService(agent *stubAgent) (*appService, *stubTime) {
	st := &stubTime{}
	svc := Services{
		Time:     st,
		Projects: stubProjects{},
		Resolver: core.NewResolver(core.DefaultRateTable()),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var interpreter ai.BookingInterpreter
	if agent != nil {
		interpreter = agent
	}
	return NewAppService(svc, interpreter, "MB01", logger).(*appService), st
}

func TestBookTime_ResolvesCodes(t *testing.T) {
	s, st := newTestAppService(nil)

	_, err := s.BookTime(context.Background(), BookTimeRequest{
		CompanyID:       1,
		DurationMinutes: 240,
		TimeTypeCode:    "montage",
		ProjectRef:      "PRJ-2026-00007",
		WorkLocation:    core.LocationBaustelle,
	})
	require.NoError(t, err)
	require.Len(t, st.booked, 1)
	assert.Equal(t, 3, st.booked[0].TimeTypeID)
	require.NotNil(t, st.booked[0].ProjectID)
	assert.Equal(t, 42, *st.booked[0].ProjectID)

	_, err = s.BookTime(context.Background(), BookTimeRequest{CompanyID: 1, TimeTypeCode: "project", ProjectRef: "17"})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Len(t, st.booked, 1)
}

func TestInterpretBooking_WithoutAgent(t *testing.T) {
	s, _ := newTestAppService(nil)
	_, err := s.InterpretBooking(context.Background(), 1, "4h Montage")
	assert.ErrorContains(t, err, "not configured")
}

func TestInterpretBooking_EmptyText(t *testing.T) {
	s, _ := newTestAppService(&stubAgent{})
	_, err := s.InterpretBooking(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestInterpretBooking_EstimatesDraft(t *testing.T) {
	agent := &stubAgent{draft: &core.BookingDraft{
		TimeTypeCode:    "MONTAGE",
		ProjectNumber:   "PRJ-2026-00007",
		DurationMinutes: 240,
		WorkLocation:    "BAUSTELLE",
		Surcharges:      []string{"SAMSTAG"},
		Confidence:      0.9,
	}}
	s, st := newTestAppService(agent)

	res, err := s.InterpretBooking(context.Background(), 1, "4h Montage Baustelle am Samstag, Treppe")
	require.NoError(t, err)
	require.NotNil(t, res.Estimate)
	assert.True(t, res.Estimate.TotalCost.Equal(decimal.NewFromInt(364)))
	assert.Equal(t, []string{"MONTAGE", "SAMSTAG"}, res.Estimate.Surcharges)
	assert.Empty(t, st.booked, "interpreting never books")

	assert.Contains(t, agent.context, "PRJ-2026-00007: Treppe")
	assert.NotContains(t, agent.context, "PRJ-2026-00008", "closed projects are not offered")
	assert.Contains(t, agent.context, "ADMIN: Administration (no project)")
}

func TestInterpretBooking_ClarificationHasNoEstimate(t *testing.T) {
	s, _ := newTestAppService(&stubAgent{draft: &core.BookingDraft{Clarification: "Welches Projekt?"}})

	res, err := s.InterpretBooking(context.Background(), 1, "4h gearbeitet")
	require.NoError(t, err)
	assert.Nil(t, res.Estimate)
	assert.Empty(t, res.EstimateError)
}

func TestInterpretBooking_RejectedEstimate(t *testing.T) {
	s, _ := newTestAppService(&stubAgent{draft: &core.BookingDraft{
		TimeTypeCode: "MONTAGE", DurationMinutes: 60, WorkLocation: "WERKSTATT", Surcharges: []string{"MITTAG"},
	}})

	res, err := s.InterpretBooking(context.Background(), 1, "1h Montage mit Mittagszuschlag")
	require.NoError(t, err)
	assert.Nil(t, res.Estimate)
	assert.Contains(t, res.EstimateError, "MITTAG")
}

func TestBookDraft(t *testing.T) {
	s, st := newTestAppService(nil)
	ctx := context.Background()

	_, err := s.BookDraft(ctx, 1, nil, core.BookingDraft{Clarification: "Wie lange?"})
	assert.True(t, errors.Is(err, core.ErrInvalidRequest))

	_, err = s.BookDraft(ctx, 1, nil, core.BookingDraft{TimeTypeCode: "MONTAGE"})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
	assert.Empty(t, st.booked)

	userID := 5
	_, err = s.BookDraft(ctx, 1, &userID, core.BookingDraft{
		TimeTypeCode:    " montage ",
		ProjectNumber:   "prj-2026-00007",
		Date:            "2026-10-10",
		DurationMinutes: 90,
		WorkLocation:    "baustelle",
		Surcharges:      []string{"samstag", "SAMSTAG"},
	})
	require.NoError(t, err)
	require.Len(t, st.booked, 1)
	in := st.booked[0]
	assert.Equal(t, 3, in.TimeTypeID)
	assert.Equal(t, 42, *in.ProjectID)
	assert.Equal(t, &userID, in.UserID)
	assert.Equal(t, core.LocationBaustelle, in.WorkLocation)
	assert.Equal(t, []core.SurchargeType{core.SurchargeSamstag}, in.Surcharges)
	assert.Equal(t, "2026-10-10", in.Date.Format("2006-01-02"))
}
