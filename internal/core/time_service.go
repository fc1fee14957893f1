package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TimeService owns the time type catalog and the labor booking path.
type TimeService interface {
	ListTimeTypes(ctx context.Context, companyID int) ([]TimeType, error)
	CreateTimeType(ctx context.Context, companyID int, in TimeTypeInput) (*TimeType, error)
	// SeedDefaultTimeTypes inserts DefaultTimeTypes, skipping codes the
	// company already has. Returns how many were created.
	SeedDefaultTimeTypes(ctx context.Context, companyID int) (int, error)

	// BookTime costs a labor booking and persists it. For project relevant
	// time types the entry, its surcharge rows, one LABOR cost entry and the
	// project total increment commit together.
	BookTime(ctx context.Context, in TimeBookingInput) (*TimeEntry, error)
	ListTimeEntries(ctx context.Context, companyID, projectID int) ([]TimeEntry, error)
}

type timeService struct {
	pool     *pgxpool.Pool
	resolver *Resolver
	ledger   CostLedger
}

func NewTimeService(pool *pgxpool.Pool, resolver *Resolver, ledger CostLedger) TimeService {
	return &timeService{pool: pool, resolver: resolver, ledger: ledger}
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (s *timeService) ListTimeTypes(ctx context.Context, companyID int) ([]TimeType, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, name, is_project_relevant, is_billable, affects_capacity, sort_order
		FROM time_types
		WHERE company_id = $1
		ORDER BY sort_order, code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query time types: %w", err)
	}
	defer rows.Close()

	var types []TimeType
	for rows.Next() {
		var tt TimeType
		if err := rows.Scan(&tt.ID, &tt.CompanyID, &tt.Code, &tt.Name,
			&tt.IsProjectRelevant, &tt.IsBillable, &tt.AffectsCapacity, &tt.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan time type: %w", err)
		}
		types = append(types, tt)
	}
	return types, rows.Err()
}

func (s *timeService) CreateTimeType(ctx context.Context, companyID int, in TimeTypeInput) (*TimeType, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, invalidf("time type code is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidf("time type name is required")
	}

	tt := &TimeType{
		CompanyID:         companyID,
		Code:              code,
		Name:              strings.TrimSpace(in.Name),
		IsProjectRelevant: in.IsProjectRelevant,
		IsBillable:        in.IsBillable,
		AffectsCapacity:   in.AffectsCapacity,
		SortOrder:         in.SortOrder,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO time_types (company_id, code, name, is_project_relevant, is_billable, affects_capacity, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id, code) DO NOTHING
		RETURNING id
	`, companyID, tt.Code, tt.Name, tt.IsProjectRelevant, tt.IsBillable, tt.AffectsCapacity, tt.SortOrder).Scan(&tt.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalidf("time type %s already exists", code)
		}
		return nil, fmt.Errorf("failed to insert time type: %w", err)
	}
	return tt, nil
}

func (s *timeService) SeedDefaultTimeTypes(ctx context.Context, companyID int) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	created := 0
	for _, in := range DefaultTimeTypes {
		tag, err := tx.Exec(ctx, `
			INSERT INTO time_types (company_id, code, name, is_project_relevant, is_billable, affects_capacity, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (company_id, code) DO NOTHING
		`, companyID, in.Code, in.Name, in.IsProjectRelevant, in.IsBillable, in.AffectsCapacity, in.SortOrder)
		if err != nil {
			return 0, fmt.Errorf("failed to seed time type %s: %w", in.Code, err)
		}
		created += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// ── Labor booking ─────────────────────────────────────────────────────────────

func (s *timeService) BookTime(ctx context.Context, in TimeBookingInput) (*TimeEntry, error) {
	if in.TimeTypeID <= 0 {
		return nil, invalidf("time type is required")
	}
	if in.ProjectPhaseID != nil && in.ProjectID == nil {
		return nil, invalidf("a project phase requires a project")
	}
	loc := in.WorkLocation
	if loc == "" {
		loc = LocationWerkstatt
	}
	switch loc {
	case LocationWerkstatt, LocationBaustelle, LocationBuero:
	default:
		return nil, invalidf("unknown work location %q", in.WorkLocation)
	}

	// Resolve before touching the database so bad input never opens a transaction.
	res, err := s.resolver.Resolve(LaborRateInput{
		DurationMinutes: in.DurationMinutes,
		BaseHourlyRate:  in.BaseHourlyRate,
		Surcharges:      in.Surcharges,
		WorkLocation:    loc,
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var tt TimeType
	err = tx.QueryRow(ctx, `
		SELECT id, code, is_project_relevant, is_billable
		FROM time_types
		WHERE id = $1 AND company_id = $2
	`, in.TimeTypeID, in.CompanyID).Scan(&tt.ID, &tt.Code, &tt.IsProjectRelevant, &tt.IsBillable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("time type %d not found", in.TimeTypeID)
		}
		return nil, fmt.Errorf("failed to fetch time type: %w", err)
	}

	switch {
	case tt.IsProjectRelevant && in.ProjectID == nil:
		return nil, invalidf("time type %s requires a project", tt.Code)
	case !tt.IsProjectRelevant && in.ProjectID != nil:
		return nil, invalidf("time type %s cannot be booked on a project", tt.Code)
	}

	if in.ProjectID != nil {
		if _, err := lockOpenProjectTx(ctx, tx, in.CompanyID, *in.ProjectID, in.ProjectPhaseID); err != nil {
			return nil, err
		}
	}

	e := &TimeEntry{
		CompanyID:           in.CompanyID,
		UserID:              in.UserID,
		Date:                dateOrToday(in.Date),
		DurationMinutes:     in.DurationMinutes,
		TimeTypeID:          tt.ID,
		ProjectID:           in.ProjectID,
		ProjectPhaseID:      in.ProjectPhaseID,
		WorkLocation:        loc,
		Description:         strings.TrimSpace(in.Description),
		BaseHourlyRate:      res.BaseHourlyRate.Round(2),
		SurchargeTotal:      res.SurchargeTotal.Round(2),
		EffectiveHourlyRate: res.EffectiveHourlyRate.Round(4),
		TotalCost:           res.TotalCost.Round(2),
		IsBillable:          tt.IsBillable,
		RateTableVersion:    res.RateTableVersion,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO time_entries
		    (company_id, user_id, entry_date, duration_minutes, time_type_id, project_id, project_phase_id,
		     work_location, description, base_hourly_rate, surcharge_total, effective_hourly_rate,
		     total_cost, is_billable, rate_table_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`, e.CompanyID, e.UserID, e.Date, e.DurationMinutes, e.TimeTypeID, e.ProjectID, e.ProjectPhaseID,
		string(e.WorkLocation), e.Description, e.BaseHourlyRate, e.SurchargeTotal, e.EffectiveHourlyRate,
		e.TotalCost, e.IsBillable, e.RateTableVersion,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert time entry: %w", err)
	}

	for _, d := range res.Details {
		row := TimeEntrySurcharge{TimeEntryID: e.ID, SurchargeType: d.Type}
		if d.Kind == SurchargePercent {
			row.SurchargePercent = d.Percent
		} else {
			amount := d.Amount.Round(2)
			row.SurchargeAmount = &amount
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO time_entry_surcharges (time_entry_id, surcharge_type, surcharge_percent, surcharge_amount)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, row.TimeEntryID, string(row.SurchargeType), row.SurchargePercent, row.SurchargeAmount).Scan(&row.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert surcharge %s: %w", d.Type, err)
		}
		e.Surcharges = append(e.Surcharges, row)
	}

	// Absence, admin and training time is recorded but never costed to a project.
	if tt.IsProjectRelevant {
		sourceID := e.ID
		ce, err := s.ledger.RecordTx(ctx, tx, CostEntryInput{
			CompanyID:      e.CompanyID,
			ProjectID:      *e.ProjectID,
			ProjectPhaseID: e.ProjectPhaseID,
			EntryDate:      e.Date,
			CostType:       CostLabor,
			SourceType:     SourceTimeEntry,
			SourceID:       &sourceID,
			Description:    laborDescription(tt.Code, e),
			Amount:         e.TotalCost,
			IsDirectCost:   true,
		})
		if err != nil {
			return nil, err
		}
		e.CostEntryID = &ce.ID
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return e, nil
}

func laborDescription(code string, e *TimeEntry) string {
	hours := decimal.NewFromInt(int64(e.DurationMinutes)).Div(sixty).StringFixed(2)
	if e.Description != "" {
		return fmt.Sprintf("%s %sh: %s", code, hours, e.Description)
	}
	return fmt.Sprintf("%s %sh", code, hours)
}

func (s *timeService) ListTimeEntries(ctx context.Context, companyID, projectID int) ([]TimeEntry, error) {
	if err := projectExists(ctx, s.pool, companyID, projectID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, user_id, entry_date, duration_minutes, time_type_id, project_id,
		       project_phase_id, work_location, description, base_hourly_rate, surcharge_total,
		       effective_hourly_rate, total_cost, is_billable, rate_table_version, created_at
		FROM time_entries
		WHERE company_id = $1 AND project_id = $2
		ORDER BY entry_date, id
	`, companyID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	byID := map[int]int{}
	for rows.Next() {
		var e TimeEntry
		var loc string
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.UserID, &e.Date, &e.DurationMinutes, &e.TimeTypeID,
			&e.ProjectID, &e.ProjectPhaseID, &loc, &e.Description, &e.BaseHourlyRate, &e.SurchargeTotal,
			&e.EffectiveHourlyRate, &e.TotalCost, &e.IsBillable, &e.RateTableVersion, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		e.WorkLocation = WorkLocation(loc)
		byID[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	srows, err := s.pool.Query(ctx, `
		SELECT s.id, s.time_entry_id, s.surcharge_type, s.surcharge_percent, s.surcharge_amount
		FROM time_entry_surcharges s
		JOIN time_entries e ON e.id = s.time_entry_id
		WHERE e.company_id = $1 AND e.project_id = $2
		ORDER BY s.id
	`, companyID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query surcharges: %w", err)
	}
	defer srows.Close()

	for srows.Next() {
		var sc TimeEntrySurcharge
		var st string
		if err := srows.Scan(&sc.ID, &sc.TimeEntryID, &st, &sc.SurchargePercent, &sc.SurchargeAmount); err != nil {
			return nil, fmt.Errorf("failed to scan surcharge: %w", err)
		}
		sc.SurchargeType = SurchargeType(st)
		if i, ok := byID[sc.TimeEntryID]; ok {
			entries[i].Surcharges = append(entries[i].Surcharges, sc)
		}
	}
	return entries, srows.Err()
}
