package handler

import (
	"net/http"

	"github.com/recova/admin-bfa-go/internal/infra/observability"
	"github.com/recova/admin-bfa-go/internal/service"
	"github.com/recova/admin-bfa-go/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the use-case layer handed to the router.
type Services struct {
	Sessions      *session.Store
	Clients       *service.ClientService
	Customers     *service.CustomerService
	Imports       *service.ImportService
	Abbreviations *service.AbbreviationService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract defined for the RECOVA admin front end.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(MetricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Authentication
		// POST /v1/auth/login (public)
		// =============================================
		r.Post("/auth/login", authLoginHandler(svcs.Sessions, logger))

		// Everything below requires a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(logger))
			r.Use(UnauthorizedEvictionMiddleware(svcs.Sessions, logger))

			r.Get("/auth/me", authMeHandler(svcs.Sessions, logger))
			r.Post("/auth/logout", authLogoutHandler(svcs.Sessions, logger))

			// =============================================
			// 2. Customers (read-only)
			// =============================================
			r.Get("/customers", listCustomersHandler(svcs.Customers, logger))
			r.Get("/customers/overview", customerOverviewHandler(svcs.Customers, logger))
			r.Get("/customers/statistics", customerStatisticsHandler(svcs.Customers, logger))
			r.Get("/customers/filters", customerFiltersHandler(svcs.Customers, logger))
			r.Get("/customers/export/csv", exportCustomersHandler(svcs.Customers, logger))
			r.Get("/customers/{customerId}", getCustomerHandler(svcs.Customers, logger))

			// =============================================
			// 3. Imports
			// =============================================
			r.Post("/imports/upload", uploadImportHandler(svcs.Imports, logger))
			r.Post("/imports/validate/{batchId}", validateImportHandler(svcs.Imports, logger))
			r.Post("/imports/process/{batchId}", processImportHandler(svcs.Imports, logger))
			r.Get("/imports/batches", listBatchesHandler(svcs.Imports, logger))
			r.Get("/imports/status/{batchId}", batchStatusHandler(svcs.Imports, logger))
			r.Get("/imports/batch/{batchId}/errors", batchErrorsHandler(svcs.Imports, logger))
			r.Get("/templates/{operationType}/download", downloadTemplateHandler(svcs.Imports, logger))

			// =============================================
			// 4. Metrics snapshot
			// =============================================
			r.Get("/metrics/ops", opsMetricsHandler(metrics, logger))

			// =============================================
			// 5. Clients & Abbreviations (director only)
			// =============================================
			r.Group(func(r chi.Router) {
				r.Use(DirectorOnlyMiddleware(svcs.Sessions, logger))

				r.Get("/clients", listClientsHandler(svcs.Clients, logger))
				r.Get("/clients/with-stats", listClientsWithStatsHandler(svcs.Clients, logger))
				r.Post("/clients", createClientHandler(svcs.Clients, logger))
				r.Get("/clients/{clientId}", getClientHandler(svcs.Clients, logger))
				r.Put("/clients/{clientId}", updateClientHandler(svcs.Clients, logger))
				r.Delete("/clients/{clientId}", deleteClientHandler(svcs.Clients, logger))
				r.Post("/clients/{clientId}/activate", setClientActiveHandler(svcs.Clients, true, logger))
				r.Post("/clients/{clientId}/deactivate", setClientActiveHandler(svcs.Clients, false, logger))
				r.Get("/clients/{clientId}/customers", clientCustomersHandler(svcs.Clients, logger))
				r.Get("/clients/{clientId}/statistics", clientStatisticsHandler(svcs.Clients, logger))

				r.Get("/abbreviations", listAbbreviationsHandler(svcs.Abbreviations, logger))
				r.Post("/abbreviations", createAbbreviationHandler(svcs.Abbreviations, logger))
				r.Put("/abbreviations/{abbreviationId}", updateAbbreviationHandler(svcs.Abbreviations, logger))
				r.Delete("/abbreviations/{abbreviationId}", deleteAbbreviationHandler(svcs.Abbreviations, logger))
				r.Post("/abbreviations/{abbreviationId}/activate", setAbbreviationActiveHandler(svcs.Abbreviations, true, logger))
				r.Post("/abbreviations/{abbreviationId}/deactivate", setAbbreviationActiveHandler(svcs.Abbreviations, false, logger))
			})
		})
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func opsMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/ops")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetOpsSnapshot())
	}
}
