package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

type stubClientGateway struct {
	created    *domain.ClientDraft
	createResp *domain.Client
	createErr  error
	deleted    []int
	forced     bool
	pageSkip   int
	pageLimit  int
}

func (g *stubClientGateway) ListClients(ctx context.Context, token string, f domain.ClientFilter) ([]domain.Client, error) {
	return nil, nil
}

func (g *stubClientGateway) ListClientsWithStats(ctx context.Context, token string) ([]domain.ClientWithStats, error) {
	return nil, nil
}

func (g *stubClientGateway) GetClient(ctx context.Context, token string, id int) (*domain.Client, error) {
	return &domain.Client{ID: id}, nil
}

func (g *stubClientGateway) CreateClient(ctx context.Context, token string, draft *domain.ClientDraft) (*domain.Client, error) {
	g.created = draft
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.createResp, nil
}

func (g *stubClientGateway) UpdateClient(ctx context.Context, token string, id int, draft *domain.ClientDraft) (*domain.Client, error) {
	return &domain.Client{ID: id}, nil
}

func (g *stubClientGateway) DeleteClient(ctx context.Context, token string, id int, force bool) error {
	g.deleted = append(g.deleted, id)
	g.forced = force
	return nil
}

func (g *stubClientGateway) SetClientActive(ctx context.Context, token string, id int, active bool) error {
	return nil
}

func (g *stubClientGateway) ClientCustomers(ctx context.Context, token string, id, skip, limit int) (*domain.ClientCustomersPage, error) {
	g.pageSkip = skip
	g.pageLimit = limit
	return &domain.ClientCustomersPage{Client: domain.ClientRef{ID: id}, Skip: skip, Limit: limit}, nil
}

func (g *stubClientGateway) ClientStatistics(ctx context.Context, token string, id int) (*domain.ClientStatistics, error) {
	return &domain.ClientStatistics{Client: domain.ClientRef{ID: id}, TotalCustomers: 3}, nil
}

func newClientService(gw *stubClientGateway) *service.ClientService {
	return service.NewClientService(gw, zap.NewNop())
}

func TestClientCreate_RequiresCodeNameType(t *testing.T) {
	svc := newClientService(&stubClientGateway{})

	cases := []struct {
		name  string
		draft domain.ClientDraft
		field string
	}{
		{"missing code", domain.ClientDraft{ClientName: "Kenya Commercial Bank", ClientType: "BANK"}, "client_code"},
		{"missing name", domain.ClientDraft{ClientCode: "KCB001", ClientType: "BANK"}, "client_name"},
		{"missing type", domain.ClientDraft{ClientCode: "KCB001", ClientName: "Kenya Commercial Bank"}, "client_type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "tok", &tc.draft)
			var verr *domain.ErrValidation
			if !errors.As(err, &verr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, verr.Field)
			}
		})
	}
}

func TestClientCreate_NormalizesCode(t *testing.T) {
	gw := &stubClientGateway{createResp: &domain.Client{ID: 1, ClientCode: "KCB001"}}
	svc := newClientService(gw)

	_, err := svc.Create(context.Background(), "tok", &domain.ClientDraft{
		ClientCode: " kcb001 ",
		ClientName: "Kenya Commercial Bank",
		ClientType: "bank",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gw.created.ClientCode != "KCB001" {
		t.Errorf("expected normalized code, got %q", gw.created.ClientCode)
	}
	if gw.created.ClientType != domain.ClientTypeBank {
		t.Errorf("expected normalized type, got %q", gw.created.ClientType)
	}
}

func TestClientCreate_RejectsLegacyTypes(t *testing.T) {
	svc := newClientService(&stubClientGateway{})

	_, err := svc.Create(context.Background(), "tok", &domain.ClientDraft{
		ClientCode: "LSE001",
		ClientName: "Old Leasing Co",
		ClientType: "LEASING",
	})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if verr.Field != "client_type" {
		t.Errorf("expected client_type rejection, got %q", verr.Field)
	}
}

func TestClientCreate_UpstreamRejectionPropagates(t *testing.T) {
	gw := &stubClientGateway{
		createErr: &domain.ErrUpstream{Resource: "clients", Op: "create", Status: 400, Detail: "Client code KCB001 already exists"},
	}
	svc := newClientService(gw)

	_, err := svc.Create(context.Background(), "tok", &domain.ClientDraft{
		ClientCode: "KCB001",
		ClientName: "Kenya Commercial Bank",
		ClientType: "BANK",
	})
	if err == nil || err.Error() != "Client code KCB001 already exists" {
		t.Fatalf("expected server detail verbatim, got %v", err)
	}
}

func TestClientCustomers_ClampsPaging(t *testing.T) {
	gw := &stubClientGateway{}
	svc := newClientService(gw)

	if _, err := svc.Customers(context.Background(), "tok", 1, -5, 0); err != nil {
		t.Fatalf("customers: %v", err)
	}
	if gw.pageSkip != 0 || gw.pageLimit != 100 {
		t.Errorf("expected defaults skip=0 limit=100, got skip=%d limit=%d", gw.pageSkip, gw.pageLimit)
	}

	if _, err := svc.Customers(context.Background(), "tok", 1, 20, 900); err != nil {
		t.Fatalf("customers: %v", err)
	}
	if gw.pageSkip != 20 || gw.pageLimit != 100 {
		t.Errorf("expected oversized limit reset, got skip=%d limit=%d", gw.pageSkip, gw.pageLimit)
	}
}

func TestClientStatistics_Passthrough(t *testing.T) {
	svc := newClientService(&stubClientGateway{})

	stats, err := svc.Statistics(context.Background(), "tok", 7)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Client.ID != 7 || stats.TotalCustomers != 3 {
		t.Errorf("unexpected statistics %+v", stats)
	}
}

func TestClientDelete_ForceFlag(t *testing.T) {
	gw := &stubClientGateway{}
	svc := newClientService(gw)

	if err := svc.Delete(context.Background(), "tok", 7, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(gw.deleted) != 1 || gw.deleted[0] != 7 || !gw.forced {
		t.Errorf("expected forced delete of 7, got %v force=%v", gw.deleted, gw.forced)
	}
}
