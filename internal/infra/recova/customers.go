package recova

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/recova/admin-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- Customers resource (implements port.CustomerGateway) ---

func customerQuery(f domain.CustomerFilter) url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Zone != "" {
		q.Set("zone", f.Zone)
	}
	if f.Region != "" {
		q.Set("region", f.Region)
	}
	if f.Branch != "" {
		q.Set("branch", f.Branch)
	}
	if f.MinArrears != nil {
		q.Set("min_arrears", strconv.Itoa(*f.MinArrears))
	}
	if f.MaxArrears != nil {
		q.Set("max_arrears", strconv.Itoa(*f.MaxArrears))
	}
	if f.ClientID != nil {
		q.Set("client_id", strconv.Itoa(*f.ClientID))
	}
	return q
}

// ListCustomers fetches the filtered customer list. The core may answer with
// a bare array or a {customers: [...]} wrapper; both normalize to the same
// sequence.
func (c *Client) ListCustomers(ctx context.Context, token string, f domain.CustomerFilter) ([]domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Recova.Customers.List")
	defer span.End()

	path := "customers"
	if q := customerQuery(f); len(q) > 0 {
		path += "?" + q.Encode()
	}
	body, err := c.get(ctx, "customers", "list", path, token)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Customer](body, "customers", "customers", "items")
}

// GetCustomer fetches the full customer detail record.
func (c *Client) GetCustomer(ctx context.Context, token string, id int) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Recova.Customers.Get")
	defer span.End()
	span.SetAttributes(attribute.Int("customer.id", id))

	body, err := c.get(ctx, "customers", "get", fmt.Sprintf("customers/%d", id), token)
	if err != nil {
		return nil, err
	}
	var customer domain.Customer
	if err := json.Unmarshal(body, &customer); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	return &customer, nil
}

// CustomerStatistics fetches the dashboard statistics payload.
func (c *Client) CustomerStatistics(ctx context.Context, token string) (*domain.CustomerStatistics, error) {
	ctx, span := tracer.Start(ctx, "Recova.Customers.Statistics")
	defer span.End()

	body, err := c.get(ctx, "customers", "statistics", "customers/statistics", token)
	if err != nil {
		return nil, err
	}
	var stats domain.CustomerStatistics
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	return &stats, nil
}

// CustomerFilterOptions fetches the distinct zones/regions/branches for dropdowns.
func (c *Client) CustomerFilterOptions(ctx context.Context, token string) (*domain.FilterOptions, error) {
	ctx, span := tracer.Start(ctx, "Recova.Customers.FilterOptions")
	defer span.End()

	body, err := c.get(ctx, "customers", "filters", "customers/filters", token)
	if err != nil {
		return nil, err
	}
	var opts domain.FilterOptions
	if err := json.Unmarshal(body, &opts); err != nil {
		return nil, fmt.Errorf("decode filter options: %w", err)
	}
	return &opts, nil
}

// ExportCustomersCSV streams the filtered CSV export. The caller must close the
// returned reader. No retry: the body is consumed as it arrives.
func (c *Client) ExportCustomersCSV(ctx context.Context, token string, f domain.CustomerFilter) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "Recova.Customers.ExportCSV")
	defer span.End()

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	path := "customers/export/csv"
	if q := customerQuery(f); len(q) > 0 {
		path += "?" + q.Encode()
	}
	reqURL := fmt.Sprintf("%s/api/v1/%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ErrNetwork{Resource: "customers", Op: "export", Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, &domain.ErrUnauthorized{}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &domain.ErrUpstream{Resource: "customers", Op: "export", Status: resp.StatusCode, Detail: parseDetail(body)}
	}
	return resp.Body, nil
}
