package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	logger    *slog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (401 JSON if unauthenticated) ───────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// ── Time ──────────────────────────────────────────────────────────────
		r.Get("/api/time-types", h.listTimeTypes)
		r.With(RequireAdmin).Post("/api/time-types", h.createTimeType)
		r.With(RequireAdmin).Post("/api/time-types/seed", h.seedTimeTypes)
		r.Post("/api/time-entries", h.bookTime)

		// ── Machines ──────────────────────────────────────────────────────────
		r.Get("/api/machines", h.listMachines)
		r.With(RequireAdmin).Post("/api/machines", h.createMachine)
		r.With(RequireAdmin).Patch("/api/machines/{id}/rate", h.updateMachineRate)
		r.With(RequireAdmin).Patch("/api/machines/{id}/status", h.updateMachineStatus)
		r.Post("/api/machine-bookings", h.bookMachine)

		// ── Material ──────────────────────────────────────────────────────────
		r.Get("/api/products", h.listProducts)
		r.With(RequireAdmin).Post("/api/products", h.createProduct)
		r.With(RequireAdmin).Post("/api/products/{id}/receipts", h.receiveStock)
		r.Post("/api/material-consumptions", h.consumeMaterial)

		// ── Projects ──────────────────────────────────────────────────────────
		r.Get("/api/projects", h.listProjects)
		r.With(RequireAdmin).Post("/api/projects", h.createProject)
		r.Route("/api/projects/{id}", func(r chi.Router) {
			r.Get("/", h.getProject)
			r.With(RequireAdmin).Patch("/status", h.updateProjectStatus)
			r.With(RequireAdmin).Post("/phases", h.addPhase)
			r.With(RequireAdmin).Patch("/phases/{phaseId}", h.updatePhase)
			r.Get("/budget-lines", h.listBudgetLines)
			r.With(RequireAdmin).Post("/budget-lines", h.addBudgetLine)
			r.Get("/cost-entries", h.listCostEntries)
			r.Post("/cost-entries", h.recordManualCost)
			r.Get("/controlling", h.controlling)
			r.With(RequireAdmin).Post("/reconcile", h.reconcile)
			r.Get("/time-entries", h.listTimeEntries)
			r.Get("/machine-bookings", h.listMachineBookings)
			r.Get("/material-consumptions", h.listMaterialConsumptions)
		})

		// ── Invoices ──────────────────────────────────────────────────────────
		r.Post("/api/invoices", h.createInvoice)
		r.Post("/api/invoices/{id}/payments", h.registerPayment)
		r.Post("/api/invoices/{id}/cancel", h.cancelInvoice)

		// ── Booking assistant ─────────────────────────────────────────────────
		r.Post("/api/assistant/interpret", h.interpretBooking)
		r.Post("/api/assistant/book", h.bookDraft)
	})

	h.router = r
	return r
}

// health returns service status and the loaded company code.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.LoadDefaultCompany(r.Context())
	companyCode := ""
	if err == nil && company != nil {
		companyCode = company.CompanyCode
	}

	type response struct {
		Status  string `json:"status"`
		Company string `json:"company"`
	}
	writeJSON(w, response{Status: "ok", Company: companyCode})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter, writing 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// parseDate parses an optional YYYY-MM-DD value; empty yields the zero time.
func parseDate(w http.ResponseWriter, r *http.Request, field, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		writeError(w, r, "invalid "+field+": expected YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return time.Time{}, false
	}
	return t, true
}

func parseOptionalDate(w http.ResponseWriter, r *http.Request, field, value string) (*time.Time, bool) {
	t, ok := parseDate(w, r, field, value)
	if !ok || t.IsZero() {
		return nil, ok
	}
	return &t, true
}

// companyID is the caller's tenant.
func companyID(r *http.Request) int {
	return authFromContext(r.Context()).CompanyID
}

// userID is the caller, recorded on bookings.
func userID(r *http.Request) *int {
	id := authFromContext(r.Context()).UserID
	if id == 0 {
		return nil
	}
	return &id
}
