package core_test

import (
	"testing"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

func TestBookingDraft_Normalize(t *testing.T) {
	d := core.BookingDraft{
		TimeTypeCode:    " montage ",
		ProjectNumber:   "prj-2026-00001",
		DurationMinutes: 240,
		Surcharges:      []string{"samstag", "SAMSTAG", " ", "hoehe"},
		Confidence:      0.9,
	}
	d.Normalize()

	if d.TimeTypeCode != "MONTAGE" {
		t.Errorf("expected MONTAGE, got %q", d.TimeTypeCode)
	}
	if d.ProjectNumber != "PRJ-2026-00001" {
		t.Errorf("expected upper-cased project number, got %q", d.ProjectNumber)
	}
	if d.WorkLocation != "WERKSTATT" {
		t.Errorf("expected default location WERKSTATT, got %q", d.WorkLocation)
	}
	if len(d.Surcharges) != 2 || d.Surcharges[0] != "SAMSTAG" || d.Surcharges[1] != "HOEHE" {
		t.Errorf("expected [SAMSTAG HOEHE], got %v", d.Surcharges)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("expected valid draft, got %v", err)
	}
}

func TestBookingDraft_Validate(t *testing.T) {
	tests := []struct {
		name      string
		draft     core.BookingDraft
		expectErr bool
	}{
		{
			name:  "Happy path",
			draft: core.BookingDraft{TimeTypeCode: "PROJEKT", DurationMinutes: 90, Date: "2026-03-02", WorkLocation: "BAUSTELLE", Confidence: 0.8},
		},
		{
			name:      "Missing time type",
			draft:     core.BookingDraft{DurationMinutes: 90, WorkLocation: "WERKSTATT"},
			expectErr: true,
		},
		{
			name:      "Zero duration",
			draft:     core.BookingDraft{TimeTypeCode: "PROJEKT", WorkLocation: "WERKSTATT"},
			expectErr: true,
		},
		{
			name:      "Bad date",
			draft:     core.BookingDraft{TimeTypeCode: "PROJEKT", DurationMinutes: 60, Date: "02.03.2026", WorkLocation: "WERKSTATT"},
			expectErr: true,
		},
		{
			name:      "Unknown location",
			draft:     core.BookingDraft{TimeTypeCode: "PROJEKT", DurationMinutes: 60, WorkLocation: "GARTEN"},
			expectErr: true,
		},
		{
			name:      "Confidence out of range",
			draft:     core.BookingDraft{TimeTypeCode: "PROJEKT", DurationMinutes: 60, WorkLocation: "WERKSTATT", Confidence: 1.5},
			expectErr: true,
		},
		{
			name:  "Clarification skips booking checks",
			draft: core.BookingDraft{Clarification: "Which project?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.expectErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
