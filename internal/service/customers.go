package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/infra/observability"
	"github.com/recova/admin-bfa-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const filterOptionsCacheKey = "customer-filter-options"

// CustomerService serves the read-only debtor views: the filtered list, the
// detail record, the dashboard statistics, and the CSV export.
type CustomerService struct {
	gw      port.CustomerGateway
	filters port.Cache[*domain.FilterOptions]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCustomerService creates a customer service. The filter-option dropdowns
// change only when an import lands, so they are cached.
func NewCustomerService(gw port.CustomerGateway, filters port.Cache[*domain.FilterOptions], metrics *observability.Metrics, logger *zap.Logger) *CustomerService {
	return &CustomerService{gw: gw, filters: filters, metrics: metrics, logger: logger}
}

// List fetches the filtered customer list. An unrecognized list shape
// degrades to an empty list so the view still renders; the caller receives
// the warning alongside.
func (s *CustomerService) List(ctx context.Context, token string, f domain.CustomerFilter) ([]domain.Customer, []string, error) {
	ctx, span := tracer.Start(ctx, "CustomerService.List")
	defer span.End()

	customers, err := s.gw.ListCustomers(ctx, token, f)
	if err != nil {
		var format *domain.ErrFormat
		if errors.As(err, &format) {
			s.logger.Warn("customer list had unexpected shape, rendering empty")
			return []domain.Customer{}, []string{"customer list arrived in an unexpected shape"}, nil
		}
		return nil, nil, err
	}
	return customers, nil, nil
}

// Get fetches the full detail record for one customer.
func (s *CustomerService) Get(ctx context.Context, token string, id int) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "CustomerService.Get")
	defer span.End()

	return s.gw.GetCustomer(ctx, token, id)
}

// Overview fires the three independent fetches of the customer view
// concurrently: the list, the statistics, and the filter dropdowns. The list
// failing fails the overview; a missing statistics or dropdown payload only
// adds a warning, the list renders regardless.
func (s *CustomerService) Overview(ctx context.Context, token string, f domain.CustomerFilter) (*domain.CustomerOverview, error) {
	ctx, span := tracer.Start(ctx, "CustomerService.Overview")
	defer span.End()

	overview := &domain.CustomerOverview{}
	var statsErr, filtersErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customers, warnings, err := s.List(gctx, token, f)
		if err != nil {
			return err
		}
		overview.Customers = customers
		overview.Warnings = append(overview.Warnings, warnings...)
		return nil
	})
	g.Go(func() error {
		overview.Statistics, statsErr = s.gw.CustomerStatistics(gctx, token)
		return unauthorizedOnly(statsErr)
	})
	g.Go(func() error {
		overview.Filters, filtersErr = s.FilterOptions(gctx, token)
		return unauthorizedOnly(filtersErr)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if statsErr != nil {
		s.logger.Warn("statistics fetch failed", zap.Error(statsErr))
		overview.Statistics = nil
		overview.Warnings = append(overview.Warnings, "statistics unavailable")
	}
	if filtersErr != nil {
		s.logger.Warn("filter options fetch failed", zap.Error(filtersErr))
		overview.Filters = nil
		overview.Warnings = append(overview.Warnings, "filter options unavailable")
	}
	return overview, nil
}

// FilterOptions returns the dropdown values, cached per process. The cache is
// shared across tokens: the distinct zones and branches are not
// user-specific.
func (s *CustomerService) FilterOptions(ctx context.Context, token string) (*domain.FilterOptions, error) {
	if opts, ok := s.filters.Get(filterOptionsCacheKey); ok {
		s.metrics.IncrCacheHit("filter-options")
		return opts, nil
	}
	s.metrics.IncrCacheMiss("filter-options")

	opts, err := s.gw.CustomerFilterOptions(ctx, token)
	if err != nil {
		return nil, err
	}
	s.filters.Set(filterOptionsCacheKey, opts)
	return opts, nil
}

// Statistics fetches the dashboard statistics.
func (s *CustomerService) Statistics(ctx context.Context, token string) (*domain.CustomerStatistics, error) {
	ctx, span := tracer.Start(ctx, "CustomerService.Statistics")
	defer span.End()

	return s.gw.CustomerStatistics(ctx, token)
}

// Export streams the filtered CSV export and names the download
// customers_export_<YYYY-MM-DD>.csv from the current date.
func (s *CustomerService) Export(ctx context.Context, token string, f domain.CustomerFilter) (io.ReadCloser, string, error) {
	ctx, span := tracer.Start(ctx, "CustomerService.Export")
	defer span.End()

	body, err := s.gw.ExportCustomersCSV(ctx, token, f)
	if err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("customers_export_%s.csv", time.Now().Format("2006-01-02"))
	return body, name, nil
}

// unauthorizedOnly keeps an auxiliary fetch from failing the whole overview
// unless the token itself was rejected, which must always propagate.
func unauthorizedOnly(err error) error {
	var unauth *domain.ErrUnauthorized
	if errors.As(err, &unauth) {
		return err
	}
	return nil
}
