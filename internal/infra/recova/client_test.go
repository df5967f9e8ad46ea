package recova_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/infra/observability"
	"github.com/recova/admin-bfa-go/internal/infra/recova"
	"github.com/recova/admin-bfa-go/internal/infra/resilience"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string) *recova.Client {
	c, _ := newTestClientWithMetrics(t, baseURL)
	return c
}

func newTestClientWithMetrics(t *testing.T, baseURL string) (*recova.Client, *observability.Metrics) {
	t.Helper()
	cfg := resilience.Config{
		MaxRetries:     2,
		InitialBackoff: 5 * time.Millisecond,
		MaxConcurrency: 5,
	}
	cb := resilience.NewCircuitBreaker("test")
	metrics := observability.NewMetrics()
	return recova.NewClient(&http.Client{Timeout: 5 * time.Second}, baseURL, cb, cfg, metrics, zap.NewNop()), metrics
}

func TestLogin_SendsFormCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "ops@recova.io" || r.PostForm.Get("password") != "s3cret" {
			t.Errorf("unexpected credentials %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.Login(context.Background(), "ops@recova.io", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken != "tok-123" {
		t.Errorf("expected token tok-123, got %q", resp.AccessToken)
	}
}

func TestLogin_BadCredentialsSurfacesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Login(context.Background(), "ops@recova.io", "wrong")

	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if unauth.Message != "Incorrect username or password" {
		t.Errorf("expected server detail verbatim, got %q", unauth.Message)
	}
}

func TestListCustomers_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(`[{"id":1,"client_name":"A. Mwangi"},{"id":2,"client_name":"B. Otieno"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	customers, err := c.ListCustomers(context.Background(), "tok", domain.CustomerFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(customers))
	}
	if customers[0].Name != "A. Mwangi" {
		t.Errorf("unexpected first customer %+v", customers[0])
	}
}

func TestListCustomers_WrappedObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"customers":[{"id":7,"client_name":"C. Njoroge"}],"total":1}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	customers, err := c.ListCustomers(context.Background(), "tok", domain.CustomerFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(customers) != 1 || customers[0].ID != 7 {
		t.Fatalf("unexpected customers %+v", customers)
	}
}

func TestListCustomers_UnrecognizedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":[{"id":7}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.ListCustomers(context.Background(), "tok", domain.CustomerFilter{})

	var format *domain.ErrFormat
	if !errors.As(err, &format) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestListCustomers_FilterQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	minArrears := 30
	c := newTestClient(t, srv.URL)
	_, err := c.ListCustomers(context.Background(), "tok", domain.CustomerFilter{
		Search:     "mwangi",
		Zone:       "WEST",
		MinArrears: &minArrears,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"search=mwangi", "zone=WEST", "min_arrears=30"} {
		if !containsParam(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestGetClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Client not found"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GetClient(context.Background(), "tok", 99)

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientCustomers_PathAndPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/clients/7/customers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		for _, want := range []string{"skip=20", "limit=50"} {
			if !containsParam(r.URL.RawQuery, want) {
				t.Errorf("query %q missing %q", r.URL.RawQuery, want)
			}
		}
		w.Write([]byte(`{"client":{"id":7,"client_code":"KCB001","client_name":"Kenya Commercial Bank","client_type":"BANK"},"customers":[{"id":1,"client_name":"A. Mwangi"}],"total_customers":120,"showing":1,"skip":20,"limit":50}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	page, err := c.ClientCustomers(context.Background(), "tok", 7, 20, 50)
	if err != nil {
		t.Fatalf("client customers: %v", err)
	}
	if page.Client.ClientCode != "KCB001" || page.TotalCustomers != 120 || len(page.Customers) != 1 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestClientStatistics_Decode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/clients/7/statistics" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"client":{"id":7,"client_code":"KCB001"},"total_customers":120,"arrears_breakdown":{"current":10,"1_30_days":5,"over_90_days":2},"zone_distribution":[{"zone":"WEST","count":40}],"total_outstanding_amount":123456.78,"is_active":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	stats, err := c.ClientStatistics(context.Background(), "tok", 7)
	if err != nil {
		t.Fatalf("client statistics: %v", err)
	}
	if stats.TotalCustomers != 120 || stats.ArrearsBreakdown.Over90Days != 2 {
		t.Errorf("unexpected statistics %+v", stats)
	}
	if len(stats.ZoneDistribution) != 1 || stats.ZoneDistribution[0].Zone != "WEST" {
		t.Errorf("unexpected zone distribution %+v", stats.ZoneDistribution)
	}
}

func TestCreateClient_UpstreamDetailVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Client code KCB001 already exists"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.CreateClient(context.Background(), "tok", &domain.ClientDraft{ClientCode: "KCB001"})

	var upstream *domain.ErrUpstream
	if !errors.As(err, &upstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if upstream.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", upstream.Status)
	}
	if upstream.Detail != "Client code KCB001 already exists" {
		t.Errorf("expected server detail verbatim, got %q", upstream.Detail)
	}
}

func TestGet_RetriesTransportFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			// Kill the connection so the client sees a transport error.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack: %v", err)
			}
			conn.Close()
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.ListBatches(context.Background(), "tok"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestGet_DoesNotRetryAnsweredErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.ListBatches(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for an answered error, got %d", attempts)
	}
}

func TestUploadImport_MultipartFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("bank_name"); got != "Equity Bank" {
			t.Errorf("bank_name = %q", got)
		}
		if got := r.FormValue("operation_type"); got != domain.OpLoan {
			t.Errorf("operation_type = %q", got)
		}
		if got := r.FormValue("import_period"); got != "2026-08" {
			t.Errorf("import_period = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "loans_aug.xlsx" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Write([]byte(`{"message":"uploaded","batch_id":42,"file_name":"loans_aug.xlsx","file_size":4,"next_step":"validate"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.UploadImport(context.Background(), "tok", &domain.UploadDraft{
		FileName:      "loans_aug.xlsx",
		Content:       []byte("data"),
		BankName:      "Equity Bank",
		OperationType: domain.OpLoan,
		ImportPeriod:  "2026-08",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.BatchID != 42 {
		t.Errorf("expected batch 42, got %d", resp.BatchID)
	}
}

func TestDownloadTemplate_KebabPathAndFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/templates/credit-card/download" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="credit_card_template.xlsx"`)
		w.Write([]byte("xlsx-bytes"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	body, name, err := c.DownloadTemplate(context.Background(), "tok", domain.OpCreditCard)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()
	if name != "credit_card_template.xlsx" {
		t.Errorf("expected filename from header, got %q", name)
	}
}

func TestUpstreamErrorsCounted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer srv.Close()

	c, metrics := newTestClientWithMetrics(t, srv.URL)
	if _, err := c.ListBatches(context.Background(), "tok"); err == nil {
		t.Fatal("expected error")
	}

	if got := upstreamErrorCount(t, metrics, "imports"); got != 1 {
		t.Errorf("expected 1 upstream error for imports, got %v", got)
	}
}

func upstreamErrorCount(t *testing.T, metrics *observability.Metrics, resource string) float64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != "bfa_upstream_errors_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "resource" && label.GetValue() == resource {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func containsParam(query, param string) bool {
	for _, part := range strings.Split(query, "&") {
		if part == param {
			return true
		}
	}
	return false
}
