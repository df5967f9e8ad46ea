package recova

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/recova/admin-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- Clients resource (implements port.ClientGateway) ---

// ListClients fetches clients with server-side filtering.
func (c *Client) ListClients(ctx context.Context, token string, f domain.ClientFilter) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Recova.Clients.List")
	defer span.End()

	q := url.Values{}
	q.Set("active_only", strconv.FormatBool(f.ActiveOnly))
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.ClientType != "" {
		q.Set("client_type", f.ClientType)
	}

	body, err := c.get(ctx, "clients", "list", "clients/?"+q.Encode(), token)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Client](body, "clients", "clients", "items")
}

// ListClientsWithStats fetches the clients-with-statistics projection.
func (c *Client) ListClientsWithStats(ctx context.Context, token string) ([]domain.ClientWithStats, error) {
	ctx, span := tracer.Start(ctx, "Recova.Clients.ListWithStats")
	defer span.End()

	body, err := c.get(ctx, "clients", "with-stats", "clients/with-stats", token)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.ClientWithStats](body, "clients", "clients", "items")
}

// GetClient fetches a single client.
func (c *Client) GetClient(ctx context.Context, token string, id int) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Recova.Clients.Get")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	body, err := c.get(ctx, "clients", "get", fmt.Sprintf("clients/%d", id), token)
	if err != nil {
		return nil, err
	}
	var client domain.Client
	if err := json.Unmarshal(body, &client); err != nil {
		return nil, fmt.Errorf("decode client: %w", err)
	}
	return &client, nil
}

// CreateClient submits a new client draft.
func (c *Client) CreateClient(ctx context.Context, token string, draft *domain.ClientDraft) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Recova.Clients.Create")
	defer span.End()

	body, err := c.sendJSON(ctx, "clients", "create", http.MethodPost, "clients/", token, draft)
	if err != nil {
		return nil, err
	}
	var client domain.Client
	if err := json.Unmarshal(body, &client); err != nil {
		return nil, fmt.Errorf("decode client: %w", err)
	}
	return &client, nil
}

// UpdateClient submits the full modified record (last write wins upstream).
func (c *Client) UpdateClient(ctx context.Context, token string, id int, draft *domain.ClientDraft) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Recova.Clients.Update")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	body, err := c.sendJSON(ctx, "clients", "update", http.MethodPut, fmt.Sprintf("clients/%d", id), token, draft)
	if err != nil {
		return nil, err
	}
	var client domain.Client
	if err := json.Unmarshal(body, &client); err != nil {
		return nil, fmt.Errorf("decode client: %w", err)
	}
	return &client, nil
}

// DeleteClient removes a client. force also removes associated customers upstream.
func (c *Client) DeleteClient(ctx context.Context, token string, id int, force bool) error {
	ctx, span := tracer.Start(ctx, "Recova.Clients.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	path := fmt.Sprintf("clients/%d", id)
	if force {
		path += "?force=true"
	}
	_, err := c.send(ctx, "clients", "delete", http.MethodDelete, path, token, "", nil)
	return err
}

// ClientCustomers fetches one page of a client's customers.
func (c *Client) ClientCustomers(ctx context.Context, token string, id, skip, limit int) (*domain.ClientCustomersPage, error) {
	ctx, span := tracer.Start(ctx, "Recova.Clients.Customers")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "clients", "customers", fmt.Sprintf("clients/%d/customers?%s", id, q.Encode()), token)
	if err != nil {
		return nil, err
	}
	var page domain.ClientCustomersPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode client customers: %w", err)
	}
	return &page, nil
}

// ClientStatistics fetches the per-client portfolio statistics.
func (c *Client) ClientStatistics(ctx context.Context, token string, id int) (*domain.ClientStatistics, error) {
	ctx, span := tracer.Start(ctx, "Recova.Clients.Statistics")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id))

	body, err := c.get(ctx, "clients", "statistics", fmt.Sprintf("clients/%d/statistics", id), token)
	if err != nil {
		return nil, err
	}
	var stats domain.ClientStatistics
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("decode client statistics: %w", err)
	}
	return &stats, nil
}

// SetClientActive toggles a client's active flag via the dedicated endpoints.
func (c *Client) SetClientActive(ctx context.Context, token string, id int, active bool) error {
	ctx, span := tracer.Start(ctx, "Recova.Clients.SetActive")
	defer span.End()
	span.SetAttributes(attribute.Int("client.id", id), attribute.Bool("active", active))

	action := "deactivate"
	if active {
		action = "activate"
	}
	_, err := c.send(ctx, "clients", action, http.MethodPost, fmt.Sprintf("clients/%d/%s", id, action), token, "", nil)
	return err
}
