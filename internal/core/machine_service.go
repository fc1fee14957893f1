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

// MachineService manages the machine park and books machine hours to projects.
type MachineService interface {
	ListMachines(ctx context.Context, companyID int) ([]Machine, error)
	CreateMachine(ctx context.Context, companyID int, in MachineInput) (*Machine, error)
	// UpdateRate changes the rate for future bookings; existing bookings keep
	// their snapshot.
	UpdateRate(ctx context.Context, companyID, machineID int, rate decimal.Decimal) (*Machine, error)
	UpdateStatus(ctx context.Context, companyID, machineID int, status MachineStatus) (*Machine, error)

	BookMachine(ctx context.Context, in MachineBookingInput) (*MachineBooking, error)
	ListBookings(ctx context.Context, companyID, projectID int) ([]MachineBooking, error)
}

type machineService struct {
	pool   *pgxpool.Pool
	ledger CostLedger
}

func NewMachineService(pool *pgxpool.Pool, ledger CostLedger) MachineService {
	return &machineService{pool: pool, ledger: ledger}
}

const machineColumns = "id, company_id, code, name, hourly_rate, status, cost_center_id"

func scanMachine(row pgx.Row) (*Machine, error) {
	m := &Machine{}
	var status string
	if err := row.Scan(&m.ID, &m.CompanyID, &m.Code, &m.Name, &m.HourlyRate, &status, &m.CostCenterID); err != nil {
		return nil, err
	}
	m.Status = MachineStatus(status)
	return m, nil
}

func (s *machineService) ListMachines(ctx context.Context, companyID int) ([]Machine, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+machineColumns+" FROM machines WHERE company_id = $1 ORDER BY code", companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query machines: %w", err)
	}
	defer rows.Close()

	var machines []Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		machines = append(machines, *m)
	}
	return machines, rows.Err()
}

func (s *machineService) CreateMachine(ctx context.Context, companyID int, in MachineInput) (*Machine, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, invalidf("machine code and name are required")
	}
	if in.HourlyRate.IsNegative() {
		return nil, invalidf("hourly rate cannot be negative")
	}

	m, err := scanMachine(s.pool.QueryRow(ctx, `
		INSERT INTO machines (company_id, code, name, hourly_rate, status, cost_center_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, code) DO NOTHING
		RETURNING `+machineColumns,
		companyID, code, strings.TrimSpace(in.Name), in.HourlyRate.Round(2), string(MachineActive), in.CostCenterID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalidf("machine %s already exists", code)
		}
		return nil, fmt.Errorf("failed to insert machine: %w", err)
	}
	return m, nil
}

func (s *machineService) UpdateRate(ctx context.Context, companyID, machineID int, rate decimal.Decimal) (*Machine, error) {
	if rate.IsNegative() {
		return nil, invalidf("hourly rate cannot be negative")
	}
	m, err := scanMachine(s.pool.QueryRow(ctx, `
		UPDATE machines SET hourly_rate = $1
		WHERE id = $2 AND company_id = $3
		RETURNING `+machineColumns, rate.Round(2), machineID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("machine %d not found", machineID)
		}
		return nil, fmt.Errorf("failed to update machine rate: %w", err)
	}
	return m, nil
}

func (s *machineService) UpdateStatus(ctx context.Context, companyID, machineID int, status MachineStatus) (*Machine, error) {
	if !status.Valid() {
		return nil, invalidf("unknown machine status %q", status)
	}
	m, err := scanMachine(s.pool.QueryRow(ctx, `
		UPDATE machines SET status = $1
		WHERE id = $2 AND company_id = $3
		RETURNING `+machineColumns, string(status), machineID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("machine %d not found", machineID)
		}
		return nil, fmt.Errorf("failed to update machine status: %w", err)
	}
	return m, nil
}

// ── Machine booking ───────────────────────────────────────────────────────────

func (s *machineService) BookMachine(ctx context.Context, in MachineBookingInput) (*MachineBooking, error) {
	if in.MachineID <= 0 || in.ProjectID <= 0 {
		return nil, invalidf("machine and project are required")
	}
	if !in.DurationHours.IsPositive() {
		return nil, invalidf("duration must be positive, got %s hours", in.DurationHours)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := scanMachine(tx.QueryRow(ctx,
		"SELECT "+machineColumns+" FROM machines WHERE id = $1 AND company_id = $2",
		in.MachineID, in.CompanyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("machine %d not found", in.MachineID)
		}
		return nil, fmt.Errorf("failed to fetch machine: %w", err)
	}
	if m.Status != MachineActive {
		return nil, forbiddenf("machine %s is %s and cannot be booked", m.Code, m.Status)
	}

	if _, err := lockOpenProjectTx(ctx, tx, in.CompanyID, in.ProjectID, in.ProjectPhaseID); err != nil {
		return nil, err
	}

	b := &MachineBooking{
		CompanyID:      in.CompanyID,
		MachineID:      m.ID,
		ProjectID:      in.ProjectID,
		ProjectPhaseID: in.ProjectPhaseID,
		UserID:         in.UserID,
		Date:           dateOrToday(in.Date),
		DurationHours:  in.DurationHours.Round(2),
		HourlyRate:     m.HourlyRate,
		Description:    strings.TrimSpace(in.Description),
	}
	b.TotalCost = b.DurationHours.Mul(b.HourlyRate).Round(2)

	err = tx.QueryRow(ctx, `
		INSERT INTO machine_bookings
		    (company_id, machine_id, project_id, project_phase_id, user_id, booking_date,
		     duration_hours, hourly_rate, total_cost, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, b.CompanyID, b.MachineID, b.ProjectID, b.ProjectPhaseID, b.UserID, b.Date,
		b.DurationHours, b.HourlyRate, b.TotalCost, b.Description,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert machine booking: %w", err)
	}

	sourceID := b.ID
	ce, err := s.ledger.RecordTx(ctx, tx, CostEntryInput{
		CompanyID:      b.CompanyID,
		ProjectID:      b.ProjectID,
		ProjectPhaseID: b.ProjectPhaseID,
		EntryDate:      b.Date,
		CostType:       CostMachine,
		SourceType:     SourceMachineBooking,
		SourceID:       &sourceID,
		Description:    fmt.Sprintf("%s %sh @ %s", m.Code, b.DurationHours.StringFixed(2), b.HourlyRate.StringFixed(2)),
		Amount:         b.TotalCost,
		IsDirectCost:   true,
	})
	if err != nil {
		return nil, err
	}
	b.CostEntryID = ce.ID

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return b, nil
}

func (s *machineService) ListBookings(ctx context.Context, companyID, projectID int) ([]MachineBooking, error) {
	if err := projectExists(ctx, s.pool, companyID, projectID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.company_id, b.machine_id, b.project_id, b.project_phase_id, b.user_id,
		       b.booking_date, b.duration_hours, b.hourly_rate, b.total_cost, b.description,
		       COALESCE(ce.id, 0), b.created_at
		FROM machine_bookings b
		LEFT JOIN project_cost_entries ce
		       ON ce.source_type = $3 AND ce.source_id = b.id AND ce.company_id = b.company_id
		WHERE b.company_id = $1 AND b.project_id = $2
		ORDER BY b.booking_date, b.id
	`, companyID, projectID, SourceMachineBooking)
	if err != nil {
		return nil, fmt.Errorf("failed to query machine bookings: %w", err)
	}
	defer rows.Close()

	var bookings []MachineBooking
	for rows.Next() {
		var b MachineBooking
		if err := rows.Scan(&b.ID, &b.CompanyID, &b.MachineID, &b.ProjectID, &b.ProjectPhaseID, &b.UserID,
			&b.Date, &b.DurationHours, &b.HourlyRate, &b.TotalCost, &b.Description,
			&b.CostEntryID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan machine booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
