package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BookingDraft is a labor booking proposed by the booking assistant. It is
// never persisted as is; the caller resolves codes to ids and books only after
// the user confirms. A non-empty Clarification means the assistant could not
// build a booking and asks a question instead.
type BookingDraft struct {
	TimeTypeCode    string   `json:"time_type_code" jsonschema_description:"Code of the time type, e.g. PROJEKT, MONTAGE, WERKSTATT, ADMIN"`
	ProjectNumber   string   `json:"project_number" jsonschema_description:"Project number such as PRJ-2026-00001, empty for non project time"`
	Date            string   `json:"date" jsonschema_description:"Work date as YYYY-MM-DD"`
	DurationMinutes int      `json:"duration_minutes" jsonschema_description:"Duration of the work in minutes"`
	WorkLocation    string   `json:"work_location" jsonschema_description:"WERKSTATT, BAUSTELLE or BUERO"`
	Surcharges      []string `json:"surcharges" jsonschema_description:"Surcharge codes such as NACHT, SAMSTAG, SONNTAG, FEIERTAG, HOEHE, SCHMUTZ"`
	Description     string   `json:"description"`
	Confidence      float64  `json:"confidence" jsonschema_description:"0.0 to 1.0"`
	Reasoning       string   `json:"reasoning"`
	Clarification   string   `json:"clarification" jsonschema_description:"Question for the user when the booking is ambiguous, otherwise empty"`
}

// NeedsClarification reports whether the draft is a question, not a booking.
func (d *BookingDraft) NeedsClarification() bool {
	return strings.TrimSpace(d.Clarification) != ""
}

// Normalize cleans up model output: codes upper-cased, duplicates dropped,
// location defaulted.
func (d *BookingDraft) Normalize() {
	d.TimeTypeCode = strings.ToUpper(strings.TrimSpace(d.TimeTypeCode))
	d.ProjectNumber = strings.ToUpper(strings.TrimSpace(d.ProjectNumber))
	d.Date = strings.TrimSpace(d.Date)
	d.WorkLocation = strings.ToUpper(strings.TrimSpace(d.WorkLocation))
	if d.WorkLocation == "" {
		d.WorkLocation = string(LocationWerkstatt)
	}
	if strings.EqualFold(d.ProjectNumber, "null") {
		d.ProjectNumber = ""
	}

	seen := make(map[string]bool, len(d.Surcharges))
	out := d.Surcharges[:0]
	for _, s := range d.Surcharges {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	d.Surcharges = out
}

// Validate checks the draft is complete enough to be shown for confirmation.
// Referential checks (time type, project) happen when it is booked.
func (d *BookingDraft) Validate() error {
	if d.NeedsClarification() {
		return nil
	}
	if d.TimeTypeCode == "" {
		return errors.New("draft must specify a time type code")
	}
	if d.DurationMinutes <= 0 {
		return fmt.Errorf("draft duration must be positive, got %d minutes", d.DurationMinutes)
	}
	if d.Date != "" {
		if _, err := time.Parse(dateLayout, d.Date); err != nil {
			return fmt.Errorf("invalid draft date %q: %w", d.Date, err)
		}
	}
	switch WorkLocation(d.WorkLocation) {
	case LocationWerkstatt, LocationBaustelle, LocationBuero:
	default:
		return fmt.Errorf("unknown work location %q", d.WorkLocation)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %v", d.Confidence)
	}
	return nil
}

// ParsedDate returns the draft date, or the zero time when none was given.
func (d *BookingDraft) ParsedDate() time.Time {
	t, _ := time.Parse(dateLayout, d.Date)
	return t
}

// SurchargeTypes converts the surcharge codes.
func (d *BookingDraft) SurchargeTypes() []SurchargeType {
	out := make([]SurchargeType, len(d.Surcharges))
	for i, s := range d.Surcharges {
		out[i] = SurchargeType(s)
	}
	return out
}
