package recova

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/recova/admin-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- Imports resource (implements port.ImportGateway) ---

// UploadImport sends the spreadsheet and its metadata as multipart form data.
// Uploads are never retried: the core creates a batch row on receipt.
func (c *Client) UploadImport(ctx context.Context, token string, draft *domain.UploadDraft) (*domain.UploadResponse, error) {
	ctx, span := tracer.Start(ctx, "Recova.Imports.Upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("import.operation_type", draft.OperationType),
		attribute.String("import.file_name", draft.FileName),
	)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", draft.FileName)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(draft.Content); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	fields := map[string]string{
		"bank_name":      draft.BankName,
		"operation_type": draft.OperationType,
		"import_period":  draft.ImportPeriod,
	}
	if draft.BankCode != "" {
		fields["bank_code"] = draft.BankCode
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("build upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	body, err := c.send(ctx, "imports", "upload", http.MethodPost, "imports/upload", token,
		w.FormDataContentType(), buf.Bytes())
	if err != nil {
		return nil, err
	}

	var resp domain.UploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if resp.BatchID == 0 {
		return nil, &domain.ErrFormat{Resource: "imports"}
	}
	return &resp, nil
}

// ValidateBatch asks the core to start validating an uploaded batch. The call
// returns once validation is queued; progress is observed via BatchStatus.
func (c *Client) ValidateBatch(ctx context.Context, token string, batchID int) error {
	ctx, span := tracer.Start(ctx, "Recova.Imports.Validate")
	defer span.End()
	span.SetAttributes(attribute.Int("import.batch_id", batchID))

	_, err := c.send(ctx, "imports", "validate", http.MethodPost,
		fmt.Sprintf("imports/validate/%d", batchID), token, "", nil)
	return err
}

// ProcessBatch asks the core to import a validated batch into the live tables.
func (c *Client) ProcessBatch(ctx context.Context, token string, batchID int) error {
	ctx, span := tracer.Start(ctx, "Recova.Imports.Process")
	defer span.End()
	span.SetAttributes(attribute.Int("import.batch_id", batchID))

	_, err := c.send(ctx, "imports", "process", http.MethodPost,
		fmt.Sprintf("imports/process/%d", batchID), token, "", nil)
	return err
}

// ListBatches fetches the import batch history, newest first upstream.
func (c *Client) ListBatches(ctx context.Context, token string) ([]domain.ImportBatch, error) {
	ctx, span := tracer.Start(ctx, "Recova.Imports.Batches")
	defer span.End()

	body, err := c.get(ctx, "imports", "batches", "imports/batches", token)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.ImportBatch](body, "imports", "batches", "items")
}

// BatchStatus fetches the live status report for one batch.
func (c *Client) BatchStatus(ctx context.Context, token string, batchID int) (*domain.BatchStatusReport, error) {
	ctx, span := tracer.Start(ctx, "Recova.Imports.Status")
	defer span.End()
	span.SetAttributes(attribute.Int("import.batch_id", batchID))

	body, err := c.get(ctx, "imports", "status", fmt.Sprintf("imports/status/%d", batchID), token)
	if err != nil {
		return nil, err
	}
	var report domain.BatchStatusReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode batch status: %w", err)
	}
	return &report, nil
}

// BatchErrors fetches the per-row validation errors recorded for a batch.
func (c *Client) BatchErrors(ctx context.Context, token string, batchID int) (*domain.BatchErrorReport, error) {
	ctx, span := tracer.Start(ctx, "Recova.Imports.Errors")
	defer span.End()
	span.SetAttributes(attribute.Int("import.batch_id", batchID))

	body, err := c.get(ctx, "imports", "errors", fmt.Sprintf("imports/batch/%d/errors", batchID), token)
	if err != nil {
		return nil, err
	}
	var report domain.BatchErrorReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode batch errors: %w", err)
	}
	return &report, nil
}
