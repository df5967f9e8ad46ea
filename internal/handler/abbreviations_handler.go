package handler

import (
	"encoding/json"
	"net/http"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Abbreviation handlers for /v1/abbreviations (director only).
// ============================================================

func listAbbreviationsHandler(svc *service.AbbreviationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/abbreviations")
		defer span.End()

		activeOnly := r.URL.Query().Get("active_only") == "true"
		abbrs, err := svc.List(ctx, TokenFromContext(ctx), activeOnly)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, abbrs)
	}
}

func createAbbreviationHandler(svc *service.AbbreviationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/abbreviations")
		defer span.End()

		var draft domain.AbbreviationDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		abbr, err := svc.Create(ctx, TokenFromContext(ctx), &draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, abbr)
	}
}

func updateAbbreviationHandler(svc *service.AbbreviationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/abbreviations/{abbreviationId}")
		defer span.End()

		id, err := urlID(r, "abbreviationId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("abbreviation.id", id))

		var draft domain.AbbreviationDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		abbr, err := svc.Update(ctx, TokenFromContext(ctx), id, &draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, abbr)
	}
}

func deleteAbbreviationHandler(svc *service.AbbreviationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/abbreviations/{abbreviationId}")
		defer span.End()

		id, err := urlID(r, "abbreviationId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("abbreviation.id", id))

		if err := svc.Delete(ctx, TokenFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "abbreviation deleted"})
	}
}

func setAbbreviationActiveHandler(svc *service.AbbreviationService, active bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/abbreviations/{abbreviationId}/active")
		defer span.End()

		id, err := urlID(r, "abbreviationId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("abbreviation.id", id), attribute.Bool("active", active))

		if err := svc.SetActive(ctx, TokenFromContext(ctx), id, active); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_active": active})
	}
}
