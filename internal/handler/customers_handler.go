package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/recova/admin-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Customer read handlers for /v1/customers.
// ============================================================

func listCustomersHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers")
		defer span.End()

		customers, warnings, err := svc.List(ctx, TokenFromContext(ctx), parseCustomerFilter(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"customers": customers,
			"warnings":  warnings,
		})
	}
}

func getCustomerHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}")
		defer span.End()

		id, err := urlID(r, "customerId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("customer.id", id))

		customer, err := svc.Get(ctx, TokenFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	}
}

// customerOverviewHandler serves the combined payload the customer view loads
// on activation: list, statistics, and filter dropdowns in one round trip.
func customerOverviewHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/overview")
		defer span.End()

		overview, err := svc.Overview(ctx, TokenFromContext(ctx), parseCustomerFilter(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

func customerStatisticsHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/statistics")
		defer span.End()

		stats, err := svc.Statistics(ctx, TokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func customerFiltersHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/filters")
		defer span.End()

		opts, err := svc.FilterOptions(ctx, TokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, opts)
	}
}

// exportCustomersHandler streams the filtered CSV as an attachment named
// customers_export_<date>.csv.
func exportCustomersHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/export/csv")
		defer span.End()

		body, name, err := svc.Export(ctx, TokenFromContext(ctx), parseCustomerFilter(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		if _, err := io.Copy(w, body); err != nil {
			logger.Warn("csv export stream interrupted", zap.Error(err))
		}
	}
}
