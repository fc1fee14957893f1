package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

const testSecret = "test-secret"

// stubService implements only what the tests call; anything else panics
// through the nil embedded interface and is reported as 500 by Recoverer.
type stubService struct {
	app.ApplicationService

	bookTimeReq  app.BookTimeRequest
	bookTimeErr  error
	controlling  *core.ProjectControlling
	manualCost   core.ManualCostInput
	companyCode  string
	machineCalls int
}

func (s *stubService) LoadDefaultCompany(context.Context) (*core.Company, error) {
	return &core.Company{ID: 1, CompanyCode: s.companyCode}, nil
}

func (s *stubService) BookTime(_ context.Context, req app.BookTimeRequest) (*core.TimeEntry, error) {
	s.bookTimeReq = req
	if s.bookTimeErr != nil {
		return nil, s.bookTimeErr
	}
	return &core.TimeEntry{ID: 7, DurationMinutes: req.DurationMinutes, TotalCost: decimal.RequireFromString("298.99")}, nil
}

func (s *stubService) GetControlling(_ context.Context, companyID, projectID int) (*core.ProjectControlling, error) {
	if s.controlling == nil {
		return nil, fmt.Errorf("%w: project %d", core.ErrNotFound, projectID)
	}
	return s.controlling, nil
}

func (s *stubService) RecordManualCost(_ context.Context, in core.ManualCostInput) (*core.CostEntry, error) {
	s.manualCost = in
	return &core.CostEntry{ID: 3, CostType: in.CostType, Amount: in.Amount}, nil
}

func (s *stubService) CreateMachine(context.Context, int, core.MachineInput) (*core.Machine, error) {
	s.machineCalls++
	return &core.Machine{ID: 1}, nil
}

func newTestServer(t *testing.T, svc *stubService) (*httptest.Server, func(role string) *http.Cookie) {
	t.Helper()
	h := &Handler{jwtSecret: testSecret}
	srv := httptest.NewServer(NewHandler(svc, "", testSecret, nil))
	t.Cleanup(srv.Close)
	cookie := func(role string) *http.Cookie {
		tok, err := h.signToken(5, 1, role, time.Now())
		require.NoError(t, err)
		return &http.Cookie{Name: authCookie, Value: tok}
	}
	return srv, cookie
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, c *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if c != nil {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestHealth_IsPublic(t *testing.T) {
	srv, _ := newTestServer(t, &stubService{companyCode: "MB01"})

	resp := do(t, srv, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status  string `json:"status"`
		Company string `json:"company"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "MB01", body.Company)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	srv, _ := newTestServer(t, &stubService{})

	resp := do(t, srv, http.MethodPost, "/api/time-entries", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/time-entries", `{}`, &http.Cookie{Name: authCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBookTime_PassesTenantAndUserFromToken(t *testing.T) {
	svc := &stubService{}
	srv, cookie := newTestServer(t, svc)

	body := `{"date":"2026-03-14","duration_minutes":240,"time_type_code":"MONTAGE",
		"project_number":"PRJ-2026-00001","work_location":"BAUSTELLE","surcharges":["SAMSTAG"],
		"base_hourly_rate":"70.00"}`
	resp := do(t, srv, http.MethodPost, "/api/time-entries", body, cookie(core.RoleUser))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req := svc.bookTimeReq
	assert.Equal(t, 1, req.CompanyID)
	require.NotNil(t, req.UserID)
	assert.Equal(t, 5, *req.UserID)
	assert.Equal(t, 240, req.DurationMinutes)
	assert.Equal(t, "MONTAGE", req.TimeTypeCode)
	assert.Equal(t, "PRJ-2026-00001", req.ProjectRef)
	assert.Equal(t, core.LocationBaustelle, req.WorkLocation)
	assert.Equal(t, []core.SurchargeType{core.SurchargeSamstag}, req.Surcharges)
	require.NotNil(t, req.BaseHourlyRate)
	assert.True(t, req.BaseHourlyRate.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), req.Date)
}

func TestBookTime_InvalidDate(t *testing.T) {
	svc := &stubService{}
	srv, cookie := newTestServer(t, svc)

	resp := do(t, srv, http.MethodPost, "/api/time-entries", `{"date":"14.03.2026"}`, cookie(core.RoleUser))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Code)
}

func TestServiceErrors_MapByKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("%w: time type X", core.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"invalid", fmt.Errorf("%w: duration must be positive", core.ErrInvalidRequest), http.StatusBadRequest, "BAD_REQUEST"},
		{"forbidden", fmt.Errorf("%w: project is closed", core.ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{"internal", fmt.Errorf("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, cookie := newTestServer(t, &stubService{bookTimeErr: tt.err})
			resp := do(t, srv, http.MethodPost, "/api/time-entries", `{"duration_minutes":60}`, cookie(core.RoleUser))
			assert.Equal(t, tt.status, resp.StatusCode)
			e := decodeError(t, resp)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.RequestID)
			if tt.code == "INTERNAL_ERROR" {
				assert.NotContains(t, e.Error, "connection reset")
			}
		})
	}
}

func TestControlling_ReturnsSnakeCaseKPIs(t *testing.T) {
	svc := &stubService{controlling: &core.ProjectControlling{
		ProjectID:         9,
		Budget:            decimal.NewFromInt(10000),
		ActualCostTotal:   decimal.NewFromInt(11500),
		BudgetUsedPercent: 115,
		StatusColor:       core.StatusRed,
		Warnings:          []string{"Budget exceeded by 15%"},
	}}
	srv, cookie := newTestServer(t, svc)

	resp := do(t, srv, http.MethodGet, "/api/projects/9/controlling", "", cookie(core.RoleUser))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "red", body["status_color"])
	assert.Equal(t, 115.0, body["budget_used_percent"])
	assert.Equal(t, []any{"Budget exceeded by 15%"}, body["warnings"])
}

func TestControlling_UnknownProject(t *testing.T) {
	srv, cookie := newTestServer(t, &stubService{})

	resp := do(t, srv, http.MethodGet, "/api/projects/404/controlling", "", cookie(core.RoleUser))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/projects/abc/controlling", "", cookie(core.RoleUser))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordManualCost_DefaultsToDirectCost(t *testing.T) {
	svc := &stubService{}
	srv, cookie := newTestServer(t, svc)

	resp := do(t, srv, http.MethodPost, "/api/projects/3/cost-entries",
		`{"cost_type":"EXTERNAL","description":"Verzinkerei","amount":"812.40"}`, cookie(core.RoleUser))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, 3, svc.manualCost.ProjectID)
	assert.Equal(t, core.CostExternal, svc.manualCost.CostType)
	assert.True(t, svc.manualCost.IsDirectCost)
	assert.True(t, svc.manualCost.Amount.Equal(decimal.RequireFromString("812.40")))
}

func TestMasterData_RequiresAdmin(t *testing.T) {
	svc := &stubService{}
	srv, cookie := newTestServer(t, svc)

	resp := do(t, srv, http.MethodPost, "/api/machines", `{"code":"LASER1"}`, cookie(core.RoleUser))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, svc.machineCalls)

	resp = do(t, srv, http.MethodPost, "/api/machines", `{"code":"LASER1"}`, cookie(core.RoleAdmin))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, svc.machineCalls)
}

func TestPanicsAreRecovered(t *testing.T) {
	srv, cookie := newTestServer(t, &stubService{})

	// ListMachines is not stubbed; the nil embedded interface panics.
	resp := do(t, srv, http.MethodGet, "/api/machines", "", cookie(core.RoleUser))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Code)
}

func TestRequestBodyLimit(t *testing.T) {
	srv, cookie := newTestServer(t, &stubService{})

	big := `{"description":"` + strings.Repeat("x", 2<<20) + `"}`
	resp := do(t, srv, http.MethodPost, "/api/time-entries", big, cookie(core.RoleUser))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
