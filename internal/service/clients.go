// Package service contains the use-case layer of the admin BFA. Services
// validate drafts locally, call the core API gateways, and shape the results
// for the handlers. They never store the bearer token; it flows through from
// the request.
package service

import (
	"context"
	"strings"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("admin-service")

// Client types legacy records may still carry. They are accepted when read
// back from the core but rejected on new drafts.
var legacyClientTypes = map[string]bool{
	"LEASING": true,
	"FINANCE": true,
}

// ClientService manages institution clients. All operations are
// director-only; the role gate lives in the handler middleware and the core
// enforces it again.
type ClientService struct {
	gw     port.ClientGateway
	logger *zap.Logger
}

// NewClientService creates a client service.
func NewClientService(gw port.ClientGateway, logger *zap.Logger) *ClientService {
	return &ClientService{gw: gw, logger: logger}
}

// List fetches clients with server-side filtering.
func (s *ClientService) List(ctx context.Context, token string, f domain.ClientFilter) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.List")
	defer span.End()

	return s.gw.ListClients(ctx, token, f)
}

// ListWithStats fetches the clients-with-statistics projection.
func (s *ClientService) ListWithStats(ctx context.Context, token string) ([]domain.ClientWithStats, error) {
	ctx, span := tracer.Start(ctx, "ClientService.ListWithStats")
	defer span.End()

	return s.gw.ListClientsWithStats(ctx, token)
}

// Get fetches one client.
func (s *ClientService) Get(ctx context.Context, token string, id int) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Get")
	defer span.End()

	return s.gw.GetClient(ctx, token, id)
}

// Create validates the draft locally and submits it. The client code is
// normalized to upper case before submission.
func (s *ClientService) Create(ctx context.Context, token string, draft *domain.ClientDraft) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Create")
	defer span.End()

	if err := validateClientDraft(draft); err != nil {
		return nil, err
	}

	client, err := s.gw.CreateClient(ctx, token, draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("client created",
		zap.Int("client_id", client.ID),
		zap.String("client_code", client.ClientCode),
	)
	return client, nil
}

// Update validates and submits the full modified record. The core applies it
// as-is; concurrent edits resolve last-write-wins.
func (s *ClientService) Update(ctx context.Context, token string, id int, draft *domain.ClientDraft) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Update")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	if err := validateClientDraft(draft); err != nil {
		return nil, err
	}
	return s.gw.UpdateClient(ctx, token, id, draft)
}

// Delete removes a client. With force, the core also removes its customers.
func (s *ClientService) Delete(ctx context.Context, token string, id int, force bool) error {
	ctx, span := tracer.Start(ctx, "ClientService.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id), attribute.Bool("force", force))

	if err := s.gw.DeleteClient(ctx, token, id, force); err != nil {
		return err
	}
	s.logger.Info("client deleted", zap.Int("client_id", id), zap.Bool("force", force))
	return nil
}

// SetActive toggles the active flag.
func (s *ClientService) SetActive(ctx context.Context, token string, id int, active bool) error {
	ctx, span := tracer.Start(ctx, "ClientService.SetActive")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id), attribute.Bool("active", active))

	return s.gw.SetClientActive(ctx, token, id, active)
}

// Customers fetches one page of a client's debtors. The page size is clamped
// to the range the core accepts.
func (s *ClientService) Customers(ctx context.Context, token string, id, skip, limit int) (*domain.ClientCustomersPage, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Customers")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.gw.ClientCustomers(ctx, token, id, skip, limit)
}

// Statistics fetches the per-client portfolio statistics.
func (s *ClientService) Statistics(ctx context.Context, token string, id int) (*domain.ClientStatistics, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Statistics")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	return s.gw.ClientStatistics(ctx, token, id)
}

func validateClientDraft(draft *domain.ClientDraft) error {
	draft.ClientCode = strings.ToUpper(strings.TrimSpace(draft.ClientCode))
	draft.ClientName = strings.TrimSpace(draft.ClientName)
	draft.ClientType = strings.ToUpper(strings.TrimSpace(draft.ClientType))

	if draft.ClientCode == "" {
		return &domain.ErrValidation{Field: "client_code", Message: "required"}
	}
	if draft.ClientName == "" {
		return &domain.ErrValidation{Field: "client_name", Message: "required"}
	}
	switch draft.ClientType {
	case "":
		return &domain.ErrValidation{Field: "client_type", Message: "required"}
	case domain.ClientTypeBank, domain.ClientTypeNBFI, domain.ClientTypeOther:
	default:
		if legacyClientTypes[draft.ClientType] {
			return &domain.ErrValidation{Field: "client_type", Message: "legacy type, read-only"}
		}
		return &domain.ErrValidation{Field: "client_type", Message: "must be BANK, NBFI, or OTHER"}
	}
	return nil
}
