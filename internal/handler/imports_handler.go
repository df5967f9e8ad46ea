package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxUploadBytes caps a spreadsheet upload at 32 MiB.
const maxUploadBytes = 32 << 20

// ============================================================
// Import workflow handlers for /v1/imports.
// ============================================================

func uploadImportHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/imports/upload")
		defer span.End()

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read file")
			return
		}

		draft := &domain.UploadDraft{
			FileName:      header.Filename,
			Content:       content,
			BankName:      r.FormValue("bank_name"),
			BankCode:      r.FormValue("bank_code"),
			OperationType: r.FormValue("operation_type"),
			ImportPeriod:  r.FormValue("import_period"),
		}
		span.SetAttributes(
			attribute.String("import.file_name", draft.FileName),
			attribute.String("import.operation_type", draft.OperationType),
		)

		resp, err := svc.Upload(ctx, TokenFromContext(ctx), draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// validateImportHandler triggers validation and blocks until the batch
// reaches a terminal status or the poll deadline passes. The response always
// names one of three outcomes; UNKNOWN means keep watching the batch.
func validateImportHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/imports/validate/{batchId}")
		defer span.End()

		id, err := urlID(r, "batchId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("import.batch_id", id))

		result, err := svc.Validate(ctx, TokenFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func processImportHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/imports/process/{batchId}")
		defer span.End()

		id, err := urlID(r, "batchId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("import.batch_id", id))

		report, err := svc.Process(ctx, TokenFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, report)
	}
}

func listBatchesHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/imports/batches")
		defer span.End()

		batches, err := svc.Batches(ctx, TokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, batches)
	}
}

func batchStatusHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/imports/status/{batchId}")
		defer span.End()

		id, err := urlID(r, "batchId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("import.batch_id", id))

		report, err := svc.Status(ctx, TokenFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"report": report,
			"intent": svc.State(id),
		})
	}
}

func batchErrorsHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/imports/batch/{batchId}/errors")
		defer span.End()

		id, err := urlID(r, "batchId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("import.batch_id", id))

		report, err := svc.Errors(ctx, TokenFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// downloadTemplateHandler streams the spreadsheet template for an operation
// type, e.g. GET /v1/templates/CREDIT_CARD/download.
func downloadTemplateHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/templates/{operationType}/download")
		defer span.End()

		operationType := chi.URLParam(r, "operationType")
		span.SetAttributes(attribute.String("template.operation_type", operationType))

		body, name, err := svc.Template(ctx, TokenFromContext(ctx), operationType)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		if _, err := io.Copy(w, body); err != nil {
			logger.Warn("template stream interrupted", zap.Error(err))
		}
	}
}
