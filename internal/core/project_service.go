package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectService manages projects, their phases and budget lines.
type ProjectService interface {
	CreateProject(ctx context.Context, companyID int, in ProjectInput) (*Project, error)
	GetProject(ctx context.Context, companyID, projectID int) (*Project, error)
	GetProjectByNumber(ctx context.Context, companyID int, number string) (*Project, error)
	ListProjects(ctx context.Context, companyID int, status *ProjectStatus) ([]Project, error)
	// UpdateStatus moves a project to status. CANCELLED is terminal.
	UpdateStatus(ctx context.Context, companyID, projectID int, status ProjectStatus) (*Project, error)

	AddPhase(ctx context.Context, companyID, projectID int, in PhaseInput) (*ProjectPhase, error)
	UpdatePhase(ctx context.Context, companyID, projectID, phaseID int, in PhaseInput) (*ProjectPhase, error)
	ListPhases(ctx context.Context, companyID, projectID int) ([]ProjectPhase, error)

	AddBudgetLine(ctx context.Context, companyID, projectID int, in BudgetLineInput) (*ProjectBudgetLine, error)
	ListBudgetLines(ctx context.Context, companyID, projectID int) ([]ProjectBudgetLine, error)
}

type projectService struct {
	pool       *pgxpool.Pool
	docService DocumentService
}

func NewProjectService(pool *pgxpool.Pool, docService DocumentService) ProjectService {
	return &projectService{pool: pool, docService: docService}
}

const projectColumns = `id, company_id, number, name, customer_name, status, budget,
	actual_cost_total, start_date, end_date, created_at`

func scanProject(row pgx.Row) (*Project, error) {
	p := &Project{}
	var status string
	if err := row.Scan(&p.ID, &p.CompanyID, &p.Number, &p.Name, &p.CustomerName, &status, &p.Budget,
		&p.ActualCostTotal, &p.StartDate, &p.EndDate, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Status = ProjectStatus(status)
	return p, nil
}

// ── Booking preconditions ─────────────────────────────────────────────────────

// lockOpenProjectTx locks the project row and checks it accepts bookings.
// A phase, when given, must belong to the project. The row lock orders
// concurrent bookings against the same project behind status changes.
func lockOpenProjectTx(ctx context.Context, tx pgx.Tx, companyID, projectID int, phaseID *int) (*Project, error) {
	p, err := scanProject(tx.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND company_id = $2
		FOR UPDATE
	`, projectID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("project %d not found", projectID)
		}
		return nil, fmt.Errorf("failed to lock project: %w", err)
	}
	if p.Status.IsClosed() {
		return nil, forbiddenf("project %s is %s and accepts no bookings", p.Number, p.Status)
	}

	if phaseID != nil {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM project_phases WHERE id = $1 AND project_id = $2)
		`, *phaseID, projectID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check project phase: %w", err)
		}
		if !exists {
			return nil, notFoundf("phase %d not found on project %s", *phaseID, p.Number)
		}
	}
	return p, nil
}

func projectExists(ctx context.Context, q querier, companyID, projectID int) error {
	var exists bool
	if err := q.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND company_id = $2)",
		projectID, companyID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return notFoundf("project %d not found", projectID)
	}
	return nil
}

// ── Projects ──────────────────────────────────────────────────────────────────

func (s *projectService) CreateProject(ctx context.Context, companyID int, in ProjectInput) (*Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("project name is required")
	}
	if in.Budget.IsNegative() {
		return nil, invalidf("budget cannot be negative")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, invalidf("end date %s is before start date %s",
			in.EndDate.Format(dateLayout), in.StartDate.Format(dateLayout))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	year := dateOrToday(derefTime(in.StartDate)).Year()
	number, err := s.docService.NextNumberTx(ctx, tx, companyID, DocTypeProject, year)
	if err != nil {
		return nil, err
	}

	p, err := scanProject(tx.QueryRow(ctx, `
		INSERT INTO projects (company_id, number, name, customer_name, status, budget, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+projectColumns,
		companyID, number, name, strings.TrimSpace(in.CustomerName), string(ProjectPlanned),
		in.Budget.Round(2), in.StartDate, in.EndDate))
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

func (s *projectService) GetProject(ctx context.Context, companyID, projectID int) (*Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND company_id = $2
	`, projectID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("project %d not found", projectID)
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return p, nil
}

func (s *projectService) GetProjectByNumber(ctx context.Context, companyID int, number string) (*Project, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	p, err := scanProject(s.pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE number = $1 AND company_id = $2
	`, number, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("project %s not found", number)
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return p, nil
}

func (s *projectService) ListProjects(ctx context.Context, companyID int, status *ProjectStatus) ([]Project, error) {
	var statusFilter *string
	if status != nil {
		if !status.Valid() {
			return nil, invalidf("unknown project status %q", *status)
		}
		v := string(*status)
		statusFilter = &v
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE company_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY number
	`, companyID, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *projectService) UpdateStatus(ctx context.Context, companyID, projectID int, status ProjectStatus) (*Project, error) {
	if !status.Valid() {
		return nil, invalidf("unknown project status %q", status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `
		SELECT status FROM projects WHERE id = $1 AND company_id = $2 FOR UPDATE
	`, projectID, companyID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("project %d not found", projectID)
		}
		return nil, fmt.Errorf("failed to lock project: %w", err)
	}
	if ProjectStatus(current) == ProjectCancelled && status != ProjectCancelled {
		return nil, forbiddenf("project %d is cancelled", projectID)
	}

	p, err := scanProject(tx.QueryRow(ctx, `
		UPDATE projects SET status = $1
		WHERE id = $2 AND company_id = $3
		RETURNING `+projectColumns,
		string(status), projectID, companyID))
	if err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

// ── Phases ────────────────────────────────────────────────────────────────────

func validatePhase(in PhaseInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("phase name is required")
	}
	if in.BudgetAmount.IsNegative() || in.ActualAmount.IsNegative() {
		return invalidf("phase amounts cannot be negative")
	}
	return nil
}

func (s *projectService) AddPhase(ctx context.Context, companyID, projectID int, in PhaseInput) (*ProjectPhase, error) {
	if err := validatePhase(in); err != nil {
		return nil, err
	}
	if err := projectExists(ctx, s.pool, companyID, projectID); err != nil {
		return nil, err
	}

	ph := &ProjectPhase{
		ProjectID:    projectID,
		Name:         strings.TrimSpace(in.Name),
		SortOrder:    in.SortOrder,
		BudgetAmount: in.BudgetAmount.Round(2),
		ActualAmount: in.ActualAmount.Round(2),
		IsCompleted:  in.IsCompleted,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO project_phases (project_id, name, sort_order, budget_amount, actual_amount, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, projectID, ph.Name, ph.SortOrder, ph.BudgetAmount, ph.ActualAmount, ph.IsCompleted).Scan(&ph.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert phase: %w", err)
	}
	return ph, nil
}

func (s *projectService) UpdatePhase(ctx context.Context, companyID, projectID, phaseID int, in PhaseInput) (*ProjectPhase, error) {
	if err := validatePhase(in); err != nil {
		return nil, err
	}

	ph := &ProjectPhase{}
	err := s.pool.QueryRow(ctx, `
		UPDATE project_phases ph
		SET name = $1, sort_order = $2, budget_amount = $3, actual_amount = $4, is_completed = $5
		FROM projects p
		WHERE ph.id = $6 AND ph.project_id = $7 AND p.id = ph.project_id AND p.company_id = $8
		RETURNING ph.id, ph.project_id, ph.name, ph.sort_order, ph.budget_amount, ph.actual_amount, ph.is_completed
	`, strings.TrimSpace(in.Name), in.SortOrder, in.BudgetAmount.Round(2), in.ActualAmount.Round(2),
		in.IsCompleted, phaseID, projectID, companyID,
	).Scan(&ph.ID, &ph.ProjectID, &ph.Name, &ph.SortOrder, &ph.BudgetAmount, &ph.ActualAmount, &ph.IsCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("phase %d not found on project %d", phaseID, projectID)
		}
		return nil, fmt.Errorf("failed to update phase: %w", err)
	}
	return ph, nil
}

func (s *projectService) ListPhases(ctx context.Context, companyID, projectID int) ([]ProjectPhase, error) {
	if err := projectExists(ctx, s.pool, companyID, projectID); err != nil {
		return nil, err
	}
	return listPhases(ctx, s.pool, projectID)
}

func listPhases(ctx context.Context, q querier, projectID int) ([]ProjectPhase, error) {
	rows, err := q.Query(ctx, `
		SELECT id, project_id, name, sort_order, budget_amount, actual_amount, is_completed
		FROM project_phases
		WHERE project_id = $1
		ORDER BY sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query phases: %w", err)
	}
	defer rows.Close()

	var phases []ProjectPhase
	for rows.Next() {
		var ph ProjectPhase
		if err := rows.Scan(&ph.ID, &ph.ProjectID, &ph.Name, &ph.SortOrder,
			&ph.BudgetAmount, &ph.ActualAmount, &ph.IsCompleted); err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		phases = append(phases, ph)
	}
	return phases, rows.Err()
}

// ── Budget lines ──────────────────────────────────────────────────────────────

func (s *projectService) AddBudgetLine(ctx context.Context, companyID, projectID int, in BudgetLineInput) (*ProjectBudgetLine, error) {
	if !in.CostType.Valid() {
		return nil, invalidf("unknown cost type %q", in.CostType)
	}
	if in.PlannedQuantity.IsNegative() || in.PlannedUnitPrice.IsNegative() {
		return nil, invalidf("planned quantity and unit price cannot be negative")
	}
	if err := projectExists(ctx, s.pool, companyID, projectID); err != nil {
		return nil, err
	}
	if in.ProjectPhaseID != nil {
		var ok bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM project_phases WHERE id = $1 AND project_id = $2)",
			*in.ProjectPhaseID, projectID).Scan(&ok); err != nil {
			return nil, fmt.Errorf("failed to check phase: %w", err)
		}
		if !ok {
			return nil, notFoundf("phase %d not found on project %d", *in.ProjectPhaseID, projectID)
		}
	}

	bl := &ProjectBudgetLine{
		ProjectID:        projectID,
		ProjectPhaseID:   in.ProjectPhaseID,
		CostType:         in.CostType,
		Description:      strings.TrimSpace(in.Description),
		PlannedQuantity:  in.PlannedQuantity,
		PlannedUnitPrice: in.PlannedUnitPrice.Round(2),
		PlannedTotal:     in.PlannedQuantity.Mul(in.PlannedUnitPrice).Round(2),
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO project_budget_lines
		    (project_id, project_phase_id, cost_type, description, planned_quantity, planned_unit_price, planned_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, projectID, bl.ProjectPhaseID, string(bl.CostType), bl.Description,
		bl.PlannedQuantity, bl.PlannedUnitPrice, bl.PlannedTotal).Scan(&bl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert budget line: %w", err)
	}
	return bl, nil
}

func (s *projectService) ListBudgetLines(ctx context.Context, companyID, projectID int) ([]ProjectBudgetLine, error) {
	if err := projectExists(ctx, s.pool, companyID, projectID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, project_phase_id, cost_type, description,
		       planned_quantity, planned_unit_price, planned_total
		FROM project_budget_lines
		WHERE project_id = $1
		ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget lines: %w", err)
	}
	defer rows.Close()

	var lines []ProjectBudgetLine
	for rows.Next() {
		var bl ProjectBudgetLine
		var costType string
		if err := rows.Scan(&bl.ID, &bl.ProjectID, &bl.ProjectPhaseID, &costType, &bl.Description,
			&bl.PlannedQuantity, &bl.PlannedUnitPrice, &bl.PlannedTotal); err != nil {
			return nil, fmt.Errorf("failed to scan budget line: %w", err)
		}
		bl.CostType = CostType(costType)
		lines = append(lines, bl)
	}
	return lines, rows.Err()
}
