package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/recova/admin-bfa-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// urlID parses the {id}-style chi route parameter named name.
func urlID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, &domain.ErrValidation{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

// parseCustomerFilter reads the customer filter query parameters shared by the
// list, the overview, and the CSV export.
func parseCustomerFilter(r *http.Request) domain.CustomerFilter {
	q := r.URL.Query()
	f := domain.CustomerFilter{
		Search: q.Get("search"),
		Zone:   q.Get("zone"),
		Region: q.Get("region"),
		Branch: q.Get("branch"),
	}
	if v := q.Get("min_arrears"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinArrears = &n
		}
	}
	if v := q.Get("max_arrears"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MaxArrears = &n
		}
	}
	if v := q.Get("client_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.ClientID = &n
		}
	}
	return f
}

// handleServiceError maps domain errors to HTTP responses. Upstream rejections
// keep their status and the server's wording so the operator reads exactly
// what the core said.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var notFound *domain.ErrNotFound
	var unauthorized *domain.ErrUnauthorized
	var forbidden *domain.ErrForbidden
	var workflow *domain.ErrWorkflow
	var circuitOpen *domain.ErrCircuitOpen
	var network *domain.ErrNetwork
	var upstream *domain.ErrUpstream
	var format *domain.ErrFormat

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &workflow):
		logger.Warn("workflow conflict",
			zap.Int("batch_id", workflow.BatchID),
			zap.String("have", string(workflow.Have)),
			zap.String("want", string(workflow.Want)),
		)
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &network):
		logger.Error("core api unreachable", zap.Error(err))
		writeError(w, http.StatusBadGateway, "core API unreachable")
	case errors.As(err, &upstream):
		logger.Warn("core api rejection",
			zap.Int("status", upstream.Status),
			zap.String("detail", upstream.Detail),
		)
		status := upstream.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
	case errors.As(err, &format):
		logger.Error("core api response malformed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
