package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/infra/observability"
	"github.com/recova/admin-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ImportConfig bounds the validation poll loop.
type ImportConfig struct {
	// PollInterval is the wait between status reads while a batch validates.
	PollInterval time.Duration
	// ValidateTimeout caps one validation poll. A batch still VALIDATING at
	// the deadline yields OutcomeUnknown; the operator re-checks later.
	ValidateTimeout time.Duration
	// AutoValidateDelay is the pause between a successful upload and the
	// automatic validation run. Zero disables auto-validation.
	AutoValidateDelay time.Duration
}

// ImportService drives the spreadsheet import workflow:
// upload, validate, review errors, process. The core owns every batch status
// transition; this service only triggers them, watches the result, and keeps
// a per-batch record of what the operator set in motion.
type ImportService struct {
	gw        port.ImportGateway
	templates port.TemplateGateway
	metrics   *observability.Metrics
	logger    *zap.Logger
	cfg       ImportConfig

	mu      sync.Mutex
	intents map[int]domain.WorkflowState
}

// NewImportService creates an import service.
func NewImportService(gw port.ImportGateway, templates port.TemplateGateway, metrics *observability.Metrics, cfg ImportConfig, logger *zap.Logger) *ImportService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.ValidateTimeout <= 0 {
		cfg.ValidateTimeout = 60 * time.Second
	}
	return &ImportService{
		gw:        gw,
		templates: templates,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		intents:   make(map[int]domain.WorkflowState),
	}
}

// Upload validates the form locally and submits the spreadsheet. A rejected
// draft never reaches the core. On success the batch starts its life as
// UPLOADED upstream and, when auto-validation is configured, a validation
// run starts in the background after a short delay.
func (s *ImportService) Upload(ctx context.Context, token string, draft *domain.UploadDraft) (*domain.UploadResponse, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Upload")
	defer span.End()
	span.SetAttributes(attribute.String("import.operation_type", draft.OperationType))

	if err := validateUploadDraft(draft); err != nil {
		return nil, err
	}

	resp, err := s.gw.UploadImport(ctx, token, draft)
	if err != nil {
		return nil, err
	}

	s.setIntent(resp.BatchID, domain.StateUploaded)
	s.metrics.IncrUpload()
	s.logger.Info("import uploaded",
		zap.Int("batch_id", resp.BatchID),
		zap.String("file_name", resp.FileName),
		zap.String("operation_type", draft.OperationType),
	)

	if s.cfg.AutoValidateDelay > 0 {
		go s.autoValidate(token, resp.BatchID)
	}
	return resp, nil
}

// autoValidate kicks off the validation run the operator would otherwise
// trigger by hand. It runs detached from the upload request; a batch already
// past UPLOADED (someone beat us to it) is not an error worth more than a log
// line.
func (s *ImportService) autoValidate(token string, batchID int) {
	time.Sleep(s.cfg.AutoValidateDelay)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ValidateTimeout+s.cfg.PollInterval)
	defer cancel()

	if _, err := s.Validate(ctx, token, batchID); err != nil {
		s.logger.Warn("auto validation skipped",
			zap.Int("batch_id", batchID),
			zap.Error(err),
		)
	}
}

// Validate triggers validation for an uploaded batch and watches it until the
// core reports a terminal status or the deadline passes. The result is one of
// three outcomes: validated, failed, or unknown when the deadline won. An
// unknown outcome claims nothing; the batch keeps validating upstream and a
// later status read settles it.
func (s *ImportService) Validate(ctx context.Context, token string, batchID int) (*domain.ValidationResult, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Validate")
	defer span.End()
	span.SetAttributes(attribute.Int("import.batch_id", batchID))

	report, err := s.gw.BatchStatus(ctx, token, batchID)
	if err != nil {
		return nil, err
	}
	if report.Status != domain.BatchUploaded {
		return nil, &domain.ErrWorkflow{BatchID: batchID, Have: report.Status, Want: domain.BatchUploaded}
	}

	if err := s.gw.ValidateBatch(ctx, token, batchID); err != nil {
		return nil, err
	}
	s.setIntent(batchID, domain.StateValidating)

	result := &domain.ValidationResult{
		RunID:   uuid.NewString(),
		BatchID: batchID,
	}
	span.SetAttributes(attribute.String("import.run_id", result.RunID))

	deadline := time.Now().Add(s.cfg.ValidateTimeout)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			result.Outcome = domain.OutcomeUnknown
			s.finishValidation(result)
			return result, nil
		case <-ticker.C:
		}

		report, err := s.gw.BatchStatus(ctx, token, batchID)
		if err != nil {
			// The trigger landed; a failed read must not fail the run.
			s.logger.Warn("validation poll read failed",
				zap.Int("batch_id", batchID),
				zap.Error(err),
			)
		} else {
			result.Polls++
			result.Status = report
			if report.Status.Terminal() {
				if report.Status == domain.BatchValidated {
					result.Outcome = domain.OutcomeValidated
				} else {
					result.Outcome = domain.OutcomeFailed
				}
				s.finishValidation(result)
				return result, nil
			}
		}

		if time.Now().After(deadline) {
			result.Outcome = domain.OutcomeUnknown
			s.finishValidation(result)
			return result, nil
		}
	}
}

func (s *ImportService) finishValidation(result *domain.ValidationResult) {
	switch result.Outcome {
	case domain.OutcomeValidated:
		s.setIntent(result.BatchID, domain.StateValidated)
	case domain.OutcomeFailed:
		s.setIntent(result.BatchID, domain.StateValidationFailed)
	default:
		// Still VALIDATING upstream as far as anyone knows.
	}
	s.metrics.IncrValidationOutcome(result.Outcome)
	s.logger.Info("validation run finished",
		zap.String("run_id", result.RunID),
		zap.Int("batch_id", result.BatchID),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("polls", result.Polls),
	)
}

// Process asks the core to import a batch into the live tables. Only a
// VALIDATED batch may be processed; the current status is re-read first so a
// stale view cannot trigger a bad transition.
func (s *ImportService) Process(ctx context.Context, token string, batchID int) (*domain.BatchStatusReport, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Process")
	defer span.End()
	span.SetAttributes(attribute.Int("import.batch_id", batchID))

	report, err := s.gw.BatchStatus(ctx, token, batchID)
	if err != nil {
		return nil, err
	}
	if report.Status != domain.BatchValidated {
		return nil, &domain.ErrWorkflow{BatchID: batchID, Have: report.Status, Want: domain.BatchValidated}
	}

	if err := s.gw.ProcessBatch(ctx, token, batchID); err != nil {
		return nil, err
	}
	s.setIntent(batchID, domain.StateProcessing)
	s.logger.Info("import processing started", zap.Int("batch_id", batchID))

	// Processing runs long; the operator watches it through Status.
	return s.gw.BatchStatus(ctx, token, batchID)
}

// Batches fetches the batch history and reconciles the intent map with the
// statuses the core reports.
func (s *ImportService) Batches(ctx context.Context, token string) ([]domain.ImportBatch, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Batches")
	defer span.End()

	batches, err := s.gw.ListBatches(ctx, token)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		s.reconcile(b.ID, b.Status)
	}
	return batches, nil
}

// Status fetches the live status report for one batch and reconciles intent.
func (s *ImportService) Status(ctx context.Context, token string, batchID int) (*domain.BatchStatusReport, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Status")
	defer span.End()
	span.SetAttributes(attribute.Int("import.batch_id", batchID))

	report, err := s.gw.BatchStatus(ctx, token, batchID)
	if err != nil {
		return nil, err
	}
	s.reconcile(batchID, report.Status)
	return report, nil
}

// Errors fetches the per-row validation errors for a batch.
func (s *ImportService) Errors(ctx context.Context, token string, batchID int) (*domain.BatchErrorReport, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Errors")
	defer span.End()
	span.SetAttributes(attribute.Int("import.batch_id", batchID))

	return s.gw.BatchErrors(ctx, token, batchID)
}

// Template streams the import template spreadsheet for an operation type.
func (s *ImportService) Template(ctx context.Context, token, operationType string) (io.ReadCloser, string, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Template")
	defer span.End()

	operationType = strings.ToUpper(strings.TrimSpace(operationType))
	if !domain.ValidOperationType(operationType) {
		return nil, "", &domain.ErrValidation{Field: "operation_type", Message: "must be one of " + strings.Join(domain.OperationTypes, ", ")}
	}
	return s.templates.DownloadTemplate(ctx, token, operationType)
}

// State reports the operator-intent state recorded for a batch. It describes
// what was set in motion from this process, not the core's truth; unknown
// batches are Idle.
func (s *ImportService) State(batchID int) domain.WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.intents[batchID]; ok {
		return state
	}
	return domain.StateIdle
}

func (s *ImportService) setIntent(batchID int, state domain.WorkflowState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[batchID] = state
}

// reconcile folds a server-reported status into the intent map. The server
// wins every disagreement. A FAILED batch is ambiguous on its own, so the
// previous intent decides whether validation or processing failed.
func (s *ImportService) reconcile(batchID int, status domain.BatchStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch status {
	case domain.BatchUploaded:
		s.intents[batchID] = domain.StateUploaded
	case domain.BatchValidating:
		s.intents[batchID] = domain.StateValidating
	case domain.BatchValidated:
		s.intents[batchID] = domain.StateValidated
	case domain.BatchImporting:
		s.intents[batchID] = domain.StateProcessing
	case domain.BatchCompleted:
		s.intents[batchID] = domain.StateCompleted
	case domain.BatchFailed, domain.BatchRollback:
		if s.intents[batchID] == domain.StateProcessing || s.intents[batchID] == domain.StateCompleted {
			s.intents[batchID] = domain.StateProcessingFailed
		} else {
			s.intents[batchID] = domain.StateValidationFailed
		}
	}
}

func validateUploadDraft(draft *domain.UploadDraft) error {
	draft.BankName = strings.TrimSpace(draft.BankName)
	draft.OperationType = strings.ToUpper(strings.TrimSpace(draft.OperationType))
	draft.ImportPeriod = strings.TrimSpace(draft.ImportPeriod)

	if draft.FileName == "" || len(draft.Content) == 0 {
		return &domain.ErrValidation{Field: "file", Message: "required"}
	}
	if draft.BankName == "" {
		return &domain.ErrValidation{Field: "bank_name", Message: "required"}
	}
	if !domain.ValidOperationType(draft.OperationType) {
		return &domain.ErrValidation{Field: "operation_type", Message: "must be one of " + strings.Join(domain.OperationTypes, ", ")}
	}
	if draft.ImportPeriod == "" {
		return &domain.ErrValidation{Field: "import_period", Message: "required"}
	}
	return nil
}
