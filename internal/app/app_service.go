package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/ai"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/observability"
)

// Services bundles the core services the application layer orchestrates.
type Services struct {
	Companies   core.CompanyService
	Users       core.UserService
	Time        core.TimeService
	Machines    core.MachineService
	Materials   core.MaterialService
	Projects    core.ProjectService
	Ledger      core.CostLedger
	Controlling core.ControllingService
	Invoices    core.InvoiceService
	Resolver    *core.Resolver
}

// NewServices wires every core service against pool, costing labor with table.
func NewServices(pool *pgxpool.Pool, table core.RateTable) Services {
	docService := core.NewDocumentService(pool)
	ledger := core.NewCostLedger(pool)
	resolver := core.NewResolver(table)
	return Services{
		Companies:   core.NewCompanyService(pool),
		Users:       core.NewUserService(pool),
		Time:        core.NewTimeService(pool, resolver, ledger),
		Machines:    core.NewMachineService(pool, ledger),
		Materials:   core.NewMaterialService(pool, ledger),
		Projects:    core.NewProjectService(pool, docService),
		Ledger:      ledger,
		Controlling: core.NewControllingService(pool),
		Invoices:    core.NewInvoiceService(pool, docService),
		Resolver:    resolver,
	}
}

type appService struct {
	Services
	agent       ai.BookingInterpreter
	companyCode string
	logger      *slog.Logger
	observer    UseCaseObserver
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil, in which case the booking assistant is unavailable.
func NewAppService(svc Services, agent ai.BookingInterpreter, companyCode string, logger *slog.Logger) ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &appService{
		Services:    svc,
		agent:       agent,
		companyCode: companyCode,
		logger:      logger,
		observer:    NewLogUseCaseObserver(logger),
	}
}

// ── Company and users ─────────────────────────────────────────────────────────

func (s *appService) LoadDefaultCompany(ctx context.Context) (*core.Company, error) {
	if s.companyCode != "" {
		return s.Companies.GetByCode(ctx, s.companyCode)
	}
	return s.Companies.GetDefault(ctx)
}

var errBadCredentials = errors.New("invalid username or password")

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	c, err := s.Companies.GetByID(ctx, u.CompanyID)
	if err != nil {
		return nil, err
	}
	return &UserSession{
		UserID:      u.ID,
		Username:    u.Username,
		CompanyID:   u.CompanyID,
		CompanyCode: c.CompanyCode,
		Role:        u.Role,
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	c, err := s.Companies.GetByID(ctx, u.CompanyID)
	if err != nil {
		return nil, err
	}
	return &UserResult{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		CompanyCode: c.CompanyCode,
	}, nil
}

// ── Time ──────────────────────────────────────────────────────────────────────

func (s *appService) ListTimeTypes(ctx context.Context, companyID int) ([]core.TimeType, error) {
	return s.Time.ListTimeTypes(ctx, companyID)
}

func (s *appService) CreateTimeType(ctx context.Context, companyID int, in core.TimeTypeInput) (*core.TimeType, error) {
	return s.Time.CreateTimeType(ctx, companyID, in)
}

func (s *appService) SeedTimeTypes(ctx context.Context, companyID int) (int, error) {
	return s.Time.SeedDefaultTimeTypes(ctx, companyID)
}

func (s *appService) BookTime(ctx context.Context, req BookTimeRequest) (entry *core.TimeEntry, err error) {
	start := time.Now()
	defer func() {
		fields := map[string]any{"company_id": req.CompanyID, "minutes": req.DurationMinutes}
		if entry != nil {
			fields["time_entry_id"] = entry.ID
			fields["total_cost"] = entry.TotalCost.StringFixed(2)
		}
		s.observe(ctx, ucBookTime, start, err, fields)
	}()

	in := core.TimeBookingInput{
		CompanyID:       req.CompanyID,
		UserID:          req.UserID,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		TimeTypeID:      req.TimeTypeID,
		ProjectID:       req.ProjectID,
		ProjectPhaseID:  req.ProjectPhaseID,
		WorkLocation:    req.WorkLocation,
		BaseHourlyRate:  req.BaseHourlyRate,
		Surcharges:      req.Surcharges,
		Description:     req.Description,
	}
	if in.TimeTypeID == 0 && req.TimeTypeCode != "" {
		if in.TimeTypeID, err = s.timeTypeID(ctx, req.CompanyID, req.TimeTypeCode); err != nil {
			return nil, err
		}
	}
	if in.ProjectID == nil && req.ProjectRef != "" {
		id, err := s.projectID(ctx, req.CompanyID, req.ProjectRef)
		if err != nil {
			return nil, err
		}
		in.ProjectID = &id
	}

	entry, err = s.Time.BookTime(ctx, in)
	if err != nil {
		return nil, err
	}
	if entry.CostEntryID != nil {
		observability.BookingsRecorded.WithLabelValues(string(core.CostLabor)).Inc()
	} else {
		observability.UnbookedTime.Inc()
	}
	return entry, nil
}

func (s *appService) ListTimeEntries(ctx context.Context, companyID, projectID int) ([]core.TimeEntry, error) {
	return s.Time.ListTimeEntries(ctx, companyID, projectID)
}

// ── Machines ──────────────────────────────────────────────────────────────────

func (s *appService) ListMachines(ctx context.Context, companyID int) ([]core.Machine, error) {
	return s.Machines.ListMachines(ctx, companyID)
}

func (s *appService) CreateMachine(ctx context.Context, companyID int, in core.MachineInput) (*core.Machine, error) {
	return s.Machines.CreateMachine(ctx, companyID, in)
}

func (s *appService) UpdateMachineRate(ctx context.Context, companyID, machineID int, rate decimal.Decimal) (*core.Machine, error) {
	return s.Machines.UpdateRate(ctx, companyID, machineID, rate)
}

func (s *appService) UpdateMachineStatus(ctx context.Context, companyID, machineID int, status core.MachineStatus) (*core.Machine, error) {
	return s.Machines.UpdateStatus(ctx, companyID, machineID, status)
}

func (s *appService) BookMachine(ctx context.Context, req BookMachineRequest) (b *core.MachineBooking, err error) {
	start := time.Now()
	defer func() {
		fields := map[string]any{"company_id": req.CompanyID, "hours": req.DurationHours.String()}
		if b != nil {
			fields["machine_booking_id"] = b.ID
			fields["total_cost"] = b.TotalCost.StringFixed(2)
		}
		s.observe(ctx, ucBookMachine, start, err, fields)
	}()

	in := core.MachineBookingInput{
		CompanyID:      req.CompanyID,
		UserID:         req.UserID,
		MachineID:      req.MachineID,
		ProjectID:      req.ProjectID,
		ProjectPhaseID: req.ProjectPhaseID,
		Date:           req.Date,
		DurationHours:  req.DurationHours,
		Description:    req.Description,
	}
	if in.MachineID == 0 && req.MachineCode != "" {
		if in.MachineID, err = s.machineID(ctx, req.CompanyID, req.MachineCode); err != nil {
			return nil, err
		}
	}
	if in.ProjectID == 0 && req.ProjectRef != "" {
		if in.ProjectID, err = s.projectID(ctx, req.CompanyID, req.ProjectRef); err != nil {
			return nil, err
		}
	}

	b, err = s.Machines.BookMachine(ctx, in)
	if err != nil {
		return nil, err
	}
	observability.BookingsRecorded.WithLabelValues(string(core.CostMachine)).Inc()
	return b, nil
}

func (s *appService) ListMachineBookings(ctx context.Context, companyID, projectID int) ([]core.MachineBooking, error) {
	return s.Machines.ListBookings(ctx, companyID, projectID)
}

// ── Material ──────────────────────────────────────────────────────────────────

func (s *appService) ListProducts(ctx context.Context, companyID int) ([]core.Product, error) {
	return s.Materials.ListProducts(ctx, companyID)
}

func (s *appService) CreateProduct(ctx context.Context, companyID int, in core.ProductInput) (*core.Product, error) {
	return s.Materials.CreateProduct(ctx, companyID, in)
}

func (s *appService) ReceiveStock(ctx context.Context, companyID, productID int, qty, unitCost decimal.Decimal) (*core.Product, error) {
	return s.Materials.ReceiveStock(ctx, companyID, productID, qty, unitCost)
}

func (s *appService) ConsumeMaterial(ctx context.Context, req ConsumeMaterialRequest) (c *core.MaterialConsumption, err error) {
	start := time.Now()
	defer func() {
		fields := map[string]any{"company_id": req.CompanyID, "quantity": req.Quantity.String()}
		if c != nil {
			fields["material_consumption_id"] = c.ID
			fields["total_cost"] = c.TotalCost.StringFixed(2)
		}
		s.observe(ctx, ucConsumeMaterial, start, err, fields)
	}()

	in := core.MaterialConsumptionInput{
		CompanyID:      req.CompanyID,
		UserID:         req.UserID,
		ProductID:      req.ProductID,
		ProjectID:      req.ProjectID,
		ProjectPhaseID: req.ProjectPhaseID,
		Date:           req.Date,
		Quantity:       req.Quantity,
		ScrapQuantity:  req.ScrapQuantity,
		Description:    req.Description,
	}
	if in.ProductID == 0 && req.ProductCode != "" {
		if in.ProductID, err = s.productID(ctx, req.CompanyID, req.ProductCode); err != nil {
			return nil, err
		}
	}
	if in.ProjectID == 0 && req.ProjectRef != "" {
		if in.ProjectID, err = s.projectID(ctx, req.CompanyID, req.ProjectRef); err != nil {
			return nil, err
		}
	}

	c, err = s.Materials.ConsumeMaterial(ctx, in)
	if err != nil {
		return nil, err
	}
	observability.BookingsRecorded.WithLabelValues(string(core.CostMaterial)).Inc()
	return c, nil
}

func (s *appService) ListMaterialConsumptions(ctx context.Context, companyID, projectID int) ([]core.MaterialConsumption, error) {
	return s.Materials.ListConsumptions(ctx, companyID, projectID)
}

// ── Projects ──────────────────────────────────────────────────────────────────

func (s *appService) ListProjects(ctx context.Context, companyID int, status *core.ProjectStatus) ([]core.Project, error) {
	return s.Projects.ListProjects(ctx, companyID, status)
}

func (s *appService) CreateProject(ctx context.Context, companyID int, in core.ProjectInput) (*core.Project, error) {
	return s.Projects.CreateProject(ctx, companyID, in)
}

func (s *appService) GetProject(ctx context.Context, companyID int, ref string) (*ProjectResult, error) {
	id, err := s.projectID(ctx, companyID, ref)
	if err != nil {
		return nil, err
	}
	p, err := s.Projects.GetProject(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	phases, err := s.Projects.ListPhases(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return &ProjectResult{Project: p, Phases: phases}, nil
}

func (s *appService) UpdateProjectStatus(ctx context.Context, companyID, projectID int, status core.ProjectStatus) (*core.Project, error) {
	return s.Projects.UpdateStatus(ctx, companyID, projectID, status)
}

func (s *appService) AddPhase(ctx context.Context, companyID, projectID int, in core.PhaseInput) (*core.ProjectPhase, error) {
	return s.Projects.AddPhase(ctx, companyID, projectID, in)
}

func (s *appService) UpdatePhase(ctx context.Context, companyID, projectID, phaseID int, in core.PhaseInput) (*core.ProjectPhase, error) {
	return s.Projects.UpdatePhase(ctx, companyID, projectID, phaseID, in)
}

func (s *appService) AddBudgetLine(ctx context.Context, companyID, projectID int, in core.BudgetLineInput) (*core.ProjectBudgetLine, error) {
	return s.Projects.AddBudgetLine(ctx, companyID, projectID, in)
}

func (s *appService) ListBudgetLines(ctx context.Context, companyID, projectID int) (*BudgetLinesResult, error) {
	lines, err := s.Projects.ListBudgetLines(ctx, companyID, projectID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.PlannedTotal)
	}
	return &BudgetLinesResult{Lines: lines, PlannedTotal: total}, nil
}

// ── Cost ledger and controlling ───────────────────────────────────────────────

func (s *appService) ListCostEntries(ctx context.Context, companyID, projectID int) ([]core.CostEntry, error) {
	return s.Ledger.ListEntries(ctx, companyID, projectID)
}

func (s *appService) RecordManualCost(ctx context.Context, in core.ManualCostInput) (e *core.CostEntry, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, ucRecordManualCost, start, err, map[string]any{
			"company_id": in.CompanyID, "project_id": in.ProjectID, "cost_type": string(in.CostType),
		})
	}()

	e, err = s.Ledger.RecordManual(ctx, in)
	if err != nil {
		return nil, err
	}
	observability.BookingsRecorded.WithLabelValues(string(e.CostType)).Inc()
	return e, nil
}

func (s *appService) GetControlling(ctx context.Context, companyID, projectID int) (pc *core.ProjectControlling, err error) {
	start := time.Now()
	defer func() {
		fields := map[string]any{"company_id": companyID, "project_id": projectID}
		if pc != nil {
			fields["status_color"] = string(pc.StatusColor)
		}
		s.observe(ctx, ucControlling, start, err, fields)
	}()

	pc, err = s.Controlling.GetProjectControlling(ctx, companyID, projectID)
	if err != nil {
		return nil, err
	}
	if !pc.CostTotalsConsistent {
		observability.CostTotalDivergences.Inc()
		s.logger.WarnContext(ctx, "project cost total diverges from ledger",
			"project_id", pc.ProjectID,
			"project_number", pc.ProjectNumber,
			"ledger_total", pc.ActualCostTotal.StringFixed(2),
			"recorded_total", pc.RecordedCostTotal.StringFixed(2),
		)
	}
	return pc, nil
}

func (s *appService) ReconcileProject(ctx context.Context, companyID, projectID int) (res *core.ReconcileResult, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, ucReconcile, start, err, map[string]any{"company_id": companyID, "project_id": projectID})
	}()

	res, err = s.Ledger.Reconcile(ctx, companyID, projectID)
	if err != nil {
		return nil, err
	}
	if res.Repaired {
		observability.Reconciliations.WithLabelValues("repaired").Inc()
		s.logger.WarnContext(ctx, "project cost total repaired",
			"project_id", projectID,
			"previous", res.Previous.StringFixed(2),
			"corrected", res.Corrected.StringFixed(2),
		)
	} else {
		observability.Reconciliations.WithLabelValues("clean").Inc()
	}
	return res, nil
}

// ── Invoices ──────────────────────────────────────────────────────────────────

func (s *appService) CreateInvoice(ctx context.Context, companyID int, in core.InvoiceInput) (*core.Invoice, error) {
	return s.Invoices.CreateInvoice(ctx, companyID, in)
}

func (s *appService) RegisterPayment(ctx context.Context, companyID, invoiceID int, amount decimal.Decimal) (*core.Invoice, error) {
	return s.Invoices.RegisterPayment(ctx, companyID, invoiceID, amount)
}

func (s *appService) CancelInvoice(ctx context.Context, companyID, invoiceID int) (*core.Invoice, error) {
	return s.Invoices.CancelInvoice(ctx, companyID, invoiceID)
}

// ── Booking assistant ─────────────────────────────────────────────────────────

func (s *appService) InterpretBooking(ctx context.Context, companyID int, text string) (res *BookingDraftResult, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, ucInterpret, start, err, map[string]any{"company_id": companyID})
	}()

	if s.agent == nil {
		return nil, fmt.Errorf("booking assistant is not configured (OPENAI_API_KEY missing)")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", core.ErrInvalidRequest)
	}

	bookingContext, err := s.bookingContext(ctx, companyID)
	if err != nil {
		return nil, err
	}
	draft, err := s.agent.InterpretBooking(ctx, text, bookingContext)
	if err != nil {
		return nil, err
	}

	res = &BookingDraftResult{Draft: draft}
	if draft.NeedsClarification() {
		return res, nil
	}
	est, err := s.Resolver.Resolve(core.LaborRateInput{
		DurationMinutes: draft.DurationMinutes,
		Surcharges:      draft.SurchargeTypes(),
		WorkLocation:    core.WorkLocation(draft.WorkLocation),
	})
	if err != nil {
		res.EstimateError = err.Error()
		return res, nil
	}
	res.Estimate = newLaborEstimate(est)
	return res, nil
}

func newLaborEstimate(r core.RateResolution) *LaborEstimate {
	e := &LaborEstimate{
		RateTableVersion:    r.RateTableVersion,
		BaseHourlyRate:      r.BaseHourlyRate.Round(2),
		SurchargeTotal:      r.SurchargeTotal.Round(2),
		EffectiveHourlyRate: r.EffectiveHourlyRate.Round(4),
		TotalCost:           r.TotalCost.Round(2),
	}
	for _, d := range r.Details {
		e.Surcharges = append(e.Surcharges, string(d.Type))
	}
	return e
}

func (s *appService) BookDraft(ctx context.Context, companyID int, userID *int, draft core.BookingDraft) (*core.TimeEntry, error) {
	draft.Normalize()
	if draft.NeedsClarification() {
		return nil, fmt.Errorf("%w: draft is a clarification, not a booking", core.ErrInvalidRequest)
	}
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	return s.BookTime(ctx, BookTimeRequest{
		CompanyID:       companyID,
		UserID:          userID,
		Date:            draft.ParsedDate(),
		DurationMinutes: draft.DurationMinutes,
		TimeTypeCode:    draft.TimeTypeCode,
		ProjectRef:      draft.ProjectNumber,
		WorkLocation:    core.WorkLocation(draft.WorkLocation),
		Surcharges:      draft.SurchargeTypes(),
		Description:     draft.Description,
	})
}

// bookingContext describes what the assistant may reference.
func (s *appService) bookingContext(ctx context.Context, companyID int) (string, error) {
	types, err := s.Time.ListTimeTypes(ctx, companyID)
	if err != nil {
		return "", err
	}
	projects, err := s.Projects.ListProjects(ctx, companyID, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today: %s\n\nTime types:\n", time.Now().Format("2006-01-02 (Monday)"))
	for _, t := range types {
		project := "no project"
		if t.IsProjectRelevant {
			project = "needs project"
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", t.Code, t.Name, project)
	}
	b.WriteString("\nOpen projects:\n")
	for _, p := range projects {
		if p.Status.IsClosed() {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s", p.Number, p.Name)
		if p.CustomerName != "" {
			fmt.Fprintf(&b, " (%s)", p.CustomerName)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nSurcharges:\n")
	for _, r := range s.Resolver.Table().Rules {
		fmt.Fprintf(&b, "- %s (%s %s)\n", r.Type, r.Kind, r.Value.String())
	}
	return b.String(), nil
}

// ── private helpers ───────────────────────────────────────────────────────────

// projectID resolves a numeric id or a project number.
func (s *appService) projectID(ctx context.Context, companyID int, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		return id, nil
	}
	p, err := s.Projects.GetProjectByNumber(ctx, companyID, ref)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *appService) timeTypeID(ctx context.Context, companyID int, code string) (int, error) {
	types, err := s.Time.ListTimeTypes(ctx, companyID)
	if err != nil {
		return 0, err
	}
	for _, t := range types {
		if strings.EqualFold(t.Code, strings.TrimSpace(code)) {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: time type %s", core.ErrNotFound, code)
}

func (s *appService) machineID(ctx context.Context, companyID int, code string) (int, error) {
	machines, err := s.Machines.ListMachines(ctx, companyID)
	if err != nil {
		return 0, err
	}
	for _, m := range machines {
		if strings.EqualFold(m.Code, strings.TrimSpace(code)) {
			return m.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: machine %s", core.ErrNotFound, code)
}

func (s *appService) productID(ctx context.Context, companyID int, code string) (int, error) {
	products, err := s.Materials.ListProducts(ctx, companyID)
	if err != nil {
		return 0, err
	}
	for _, p := range products {
		if strings.EqualFold(p.Code, strings.TrimSpace(code)) {
			return p.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: product %s", core.ErrNotFound, code)
}
