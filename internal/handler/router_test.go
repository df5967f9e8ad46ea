package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/handler"
	"github.com/recova/admin-bfa-go/internal/infra/cache"
	"github.com/recova/admin-bfa-go/internal/infra/observability"
	"github.com/recova/admin-bfa-go/internal/port"
	"github.com/recova/admin-bfa-go/internal/service"
	"github.com/recova/admin-bfa-go/internal/session"

	"go.uber.org/zap"
)

// --- stub gateways ---

type stubAuth struct {
	user    *domain.User
	meCalls int
}

func (s *stubAuth) Login(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	if password != "s3cret" {
		return nil, &domain.ErrUnauthorized{Message: "Incorrect username or password"}
	}
	return &domain.TokenResponse{AccessToken: "tok", TokenType: "bearer"}, nil
}

func (s *stubAuth) Me(ctx context.Context, token string) (*domain.User, error) {
	s.meCalls++
	if token != "tok" {
		return nil, &domain.ErrUnauthorized{}
	}
	return s.user, nil
}

type stubClients struct{}

func (stubClients) ListClients(ctx context.Context, token string, f domain.ClientFilter) ([]domain.Client, error) {
	return []domain.Client{{ID: 1, ClientCode: "KCB001", ClientName: "Kenya Commercial Bank", ClientType: "BANK"}}, nil
}
func (stubClients) ListClientsWithStats(ctx context.Context, token string) ([]domain.ClientWithStats, error) {
	return nil, nil
}
func (stubClients) GetClient(ctx context.Context, token string, id int) (*domain.Client, error) {
	return &domain.Client{ID: id}, nil
}
func (stubClients) CreateClient(ctx context.Context, token string, draft *domain.ClientDraft) (*domain.Client, error) {
	return &domain.Client{ID: 2, ClientCode: draft.ClientCode}, nil
}
func (stubClients) UpdateClient(ctx context.Context, token string, id int, draft *domain.ClientDraft) (*domain.Client, error) {
	return &domain.Client{ID: id}, nil
}
func (stubClients) DeleteClient(ctx context.Context, token string, id int, force bool) error {
	return nil
}
func (stubClients) SetClientActive(ctx context.Context, token string, id int, active bool) error {
	return nil
}
func (stubClients) ClientCustomers(ctx context.Context, token string, id, skip, limit int) (*domain.ClientCustomersPage, error) {
	return &domain.ClientCustomersPage{
		Client:         domain.ClientRef{ID: id, ClientCode: "KCB001"},
		Customers:      []domain.Customer{{ID: 1, Name: "A. Mwangi"}},
		TotalCustomers: 1,
		Showing:        1,
		Skip:           skip,
		Limit:          limit,
	}, nil
}
func (stubClients) ClientStatistics(ctx context.Context, token string, id int) (*domain.ClientStatistics, error) {
	return &domain.ClientStatistics{Client: domain.ClientRef{ID: id, ClientCode: "KCB001"}, TotalCustomers: 1}, nil
}

type stubCustomers struct{}

func (stubCustomers) ListCustomers(ctx context.Context, token string, f domain.CustomerFilter) ([]domain.Customer, error) {
	return []domain.Customer{{ID: 1, Name: "A. Mwangi"}}, nil
}
func (stubCustomers) GetCustomer(ctx context.Context, token string, id int) (*domain.Customer, error) {
	return &domain.Customer{ID: id}, nil
}
func (stubCustomers) CustomerStatistics(ctx context.Context, token string) (*domain.CustomerStatistics, error) {
	return &domain.CustomerStatistics{TotalCustomers: 1}, nil
}
func (stubCustomers) CustomerFilterOptions(ctx context.Context, token string) (*domain.FilterOptions, error) {
	return &domain.FilterOptions{Zones: []string{"WEST"}}, nil
}
func (stubCustomers) ExportCustomersCSV(ctx context.Context, token string, f domain.CustomerFilter) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("id,name\n1,A. Mwangi\n")), nil
}

// unauthorizedCustomers answers every list with the core's token rejection.
type unauthorizedCustomers struct {
	stubCustomers
}

func (unauthorizedCustomers) ListCustomers(ctx context.Context, token string, f domain.CustomerFilter) ([]domain.Customer, error) {
	return nil, &domain.ErrUnauthorized{Message: "Could not validate credentials"}
}

type stubImports struct{}

func (stubImports) UploadImport(ctx context.Context, token string, draft *domain.UploadDraft) (*domain.UploadResponse, error) {
	return &domain.UploadResponse{BatchID: 42, FileName: draft.FileName}, nil
}
func (stubImports) ValidateBatch(ctx context.Context, token string, batchID int) error { return nil }
func (stubImports) ProcessBatch(ctx context.Context, token string, batchID int) error  { return nil }
func (stubImports) ListBatches(ctx context.Context, token string) ([]domain.ImportBatch, error) {
	return []domain.ImportBatch{{ID: 42, Status: domain.BatchUploaded}}, nil
}
func (stubImports) BatchStatus(ctx context.Context, token string, batchID int) (*domain.BatchStatusReport, error) {
	return &domain.BatchStatusReport{BatchID: batchID, Status: domain.BatchValidated}, nil
}
func (stubImports) BatchErrors(ctx context.Context, token string, batchID int) (*domain.BatchErrorReport, error) {
	return &domain.BatchErrorReport{BatchID: batchID}, nil
}

type stubTemplates struct{}

func (stubTemplates) DownloadTemplate(ctx context.Context, token, operationType string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("xlsx")), "template.xlsx", nil
}

type stubAbbreviations struct{}

func (stubAbbreviations) ListAbbreviations(ctx context.Context, token string, activeOnly bool) ([]domain.Abbreviation, error) {
	return []domain.Abbreviation{{ID: 1, Abbreviation: "PTP"}}, nil
}
func (stubAbbreviations) CreateAbbreviation(ctx context.Context, token string, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error) {
	return &domain.Abbreviation{ID: 2, Abbreviation: draft.Abbreviation}, nil
}
func (stubAbbreviations) UpdateAbbreviation(ctx context.Context, token string, id int, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error) {
	return &domain.Abbreviation{ID: id}, nil
}
func (stubAbbreviations) DeleteAbbreviation(ctx context.Context, token string, id int) error {
	return nil
}
func (stubAbbreviations) SetAbbreviationActive(ctx context.Context, token string, id int, active bool) error {
	return nil
}

func newTestRouter(role string) http.Handler {
	router, _ := newTestRouterWith(role, stubCustomers{})
	return router
}

func newTestRouterWith(role string, customers port.CustomerGateway) (http.Handler, *stubAuth) {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	auth := &stubAuth{user: &domain.User{ID: 5, Email: "ops@recova.io", Role: domain.Role{Code: role}}}
	sessions := session.NewStore(auth, cache.New[*domain.User](time.Minute), logger)

	svcs := handler.Services{
		Sessions:      sessions,
		Clients:       service.NewClientService(stubClients{}, logger),
		Customers:     service.NewCustomerService(customers, cache.New[*domain.FilterOptions](time.Minute), metrics, logger),
		Imports:       service.NewImportService(stubImports{}, stubTemplates{}, metrics, service.ImportConfig{PollInterval: time.Millisecond, ValidateTimeout: 20 * time.Millisecond}, logger),
		Abbreviations: service.NewAbbreviationService(stubAbbreviations{}, logger),
	}
	return handler.NewRouter(svcs, metrics, logger), auth
}

func doRequest(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(newTestRouter(""), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	rec := doRequest(newTestRouter(""), http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	rec := doRequest(newTestRouter(""), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestLogin_Success(t *testing.T) {
	router := newTestRouter("AGENT")

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"username":"ops@recova.io","password":"s3cret"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var sess domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess.Token != "tok" || sess.User.ID != 5 {
		t.Errorf("unexpected session %+v", sess)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	router := newTestRouter("AGENT")

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"username":"ops@recova.io","password":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Incorrect username or password") {
		t.Errorf("expected server wording in body, got %s", rec.Body.String())
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	router := newTestRouter("AGENT")

	for _, path := range []string{"/v1/customers", "/v1/imports/batches", "/v1/auth/me"} {
		rec := doRequest(router, http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}
}

func TestCustomers_List(t *testing.T) {
	rec := doRequest(newTestRouter("AGENT"), http.MethodGet, "/v1/customers", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "A. Mwangi") {
		t.Errorf("expected customer in body, got %s", rec.Body.String())
	}
}

func TestCustomers_ExportNamesAttachment(t *testing.T) {
	rec := doRequest(newTestRouter("AGENT"), http.MethodGet, "/v1/customers/export/csv", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cd := rec.Header().Get("Content-Disposition")
	want := "customers_export_" + time.Now().Format("2006-01-02") + ".csv"
	if !strings.Contains(cd, want) {
		t.Errorf("expected %q in Content-Disposition, got %q", want, cd)
	}
}

func TestDirectorGate_DeniesAgent(t *testing.T) {
	router := newTestRouter("AGENT")

	for _, path := range []string{"/v1/clients", "/v1/abbreviations"} {
		rec := doRequest(router, http.MethodGet, path, "tok")
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403 for non-director, got %d", path, rec.Code)
		}
	}
}

func TestDirectorGate_AllowsDirector(t *testing.T) {
	router := newTestRouter(domain.RoleDirector)

	rec := doRequest(router, http.MethodGet, "/v1/clients", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for director, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "KCB001") {
		t.Errorf("expected client in body, got %s", rec.Body.String())
	}
}

func TestUpstreamRejection_ClearsCachedSession(t *testing.T) {
	router, auth := newTestRouterWith("AGENT", unauthorizedCustomers{})

	// Warm the profile cache.
	rec := doRequest(router, http.MethodGet, "/v1/auth/me", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 warming the cache, got %d", rec.Code)
	}
	if auth.meCalls != 1 {
		t.Fatalf("expected 1 profile fetch, got %d", auth.meCalls)
	}

	// The core rejects the token on an unrelated resource call.
	rec = doRequest(router, http.MethodGet, "/v1/customers", "tok")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 from rejected token, got %d", rec.Code)
	}

	// The cached profile must be gone: the next /auth/me has to go upstream.
	rec = doRequest(router, http.MethodGet, "/v1/auth/me", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if auth.meCalls != 2 {
		t.Errorf("expected profile refetched after rejection, got %d calls", auth.meCalls)
	}
}

func TestClientDrilldowns_Director(t *testing.T) {
	router := newTestRouter(domain.RoleDirector)

	rec := doRequest(router, http.MethodGet, "/v1/clients/1/customers?skip=0&limit=50", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("customers page: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var page domain.ClientCustomersPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Client.ClientCode != "KCB001" || page.TotalCustomers != 1 || page.Limit != 50 {
		t.Errorf("unexpected page %+v", page)
	}

	rec = doRequest(router, http.MethodGet, "/v1/clients/1/statistics", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("statistics: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "total_customers") {
		t.Errorf("expected statistics payload, got %s", rec.Body.String())
	}
}

func TestImports_ValidatePollsToOutcome(t *testing.T) {
	router := newTestRouter("AGENT")

	// Stub always reports VALIDATED, so the pre-check rejects: the batch is
	// past UPLOADED already.
	req := httptest.NewRequest(http.MethodPost, "/v1/imports/validate/42", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 workflow conflict, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestImports_ProcessValidatedBatch(t *testing.T) {
	router := newTestRouter("AGENT")

	req := httptest.NewRequest(http.MethodPost, "/v1/imports/process/42", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTemplates_Download(t *testing.T) {
	rec := doRequest(newTestRouter("AGENT"), http.MethodGet, "/v1/templates/LOAN/download", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "template.xlsx") {
		t.Errorf("expected attachment name, got %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestTemplates_UnknownOperationType(t *testing.T) {
	rec := doRequest(newTestRouter("AGENT"), http.MethodGet, "/v1/templates/MORTGAGE/download", "tok")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
