package domain

import "time"

// BatchStatus is the server-side status of an import batch. The core owns
// these transitions; the BFA only triggers them and re-reads the result.
type BatchStatus string

const (
	BatchUploaded   BatchStatus = "UPLOADED"
	BatchValidating BatchStatus = "VALIDATING"
	BatchValidated  BatchStatus = "VALIDATED"
	BatchImporting  BatchStatus = "IMPORTING"
	BatchCompleted  BatchStatus = "COMPLETED"
	BatchFailed     BatchStatus = "FAILED"
	BatchRollback   BatchStatus = "ROLLBACK"
)

// Terminal reports whether the status can no longer change without a new
// operator action.
func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchValidated, BatchCompleted, BatchFailed, BatchRollback:
		return true
	}
	return false
}

// Operation types a spreadsheet can carry.
const (
	OpCreditCard = "CREDIT_CARD"
	OpLoan       = "LOAN"
	OpLeasing    = "LEASING"
	OpPayment    = "PAYMENT"
)

// OperationTypes lists the valid upload operation types.
var OperationTypes = []string{OpCreditCard, OpLoan, OpLeasing, OpPayment}

// ValidOperationType reports whether op is an accepted operation type.
func ValidOperationType(op string) bool {
	for _, t := range OperationTypes {
		if t == op {
			return true
		}
	}
	return false
}

// ImportBatch is one uploaded spreadsheet and its derived collection records.
type ImportBatch struct {
	ID              int         `json:"id"`
	BatchName       string      `json:"batch_name"`
	ClientID        int         `json:"client_id,omitempty"`
	BankName        string      `json:"bank_name"`
	BankCode        string      `json:"bank_code,omitempty"`
	OperationType   string      `json:"operation_type"`
	ImportPeriod    string      `json:"import_period"`
	FileName        string      `json:"file_name,omitempty"`
	FileSize        int64       `json:"file_size,omitempty"`
	TotalRecords    int         `json:"total_records"`
	ValidRecords    int         `json:"valid_records,omitempty"`
	InvalidRecords  int         `json:"invalid_records,omitempty"`
	ImportedRecords int         `json:"imported_records,omitempty"`
	Status          BatchStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at,omitempty"`
}

// UploadDraft is the operator's upload form. File content is treated as
// opaque bytes; parsing and validation live in the core.
type UploadDraft struct {
	FileName      string
	Content       []byte
	BankName      string
	BankCode      string
	OperationType string
	ImportPeriod  string
}

// UploadResponse is the core's answer to a successful multipart upload.
type UploadResponse struct {
	Message  string `json:"message"`
	BatchID  int    `json:"batch_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	NextStep string `json:"next_step,omitempty"`
}

// BatchStatusReport is the GET /imports/status/{id} payload.
type BatchStatusReport struct {
	BatchID            int         `json:"batch_id"`
	BatchName          string      `json:"batch_name"`
	Status             BatchStatus `json:"status"`
	ProgressPercentage float64     `json:"progress_percentage"`
	TotalRecords       int         `json:"total_records"`
	ImportedRecords    int         `json:"imported_records"`
	ValidRecords       int         `json:"valid_records"`
	InvalidRecords     int         `json:"invalid_records"`
	StartedAt          *time.Time  `json:"started_at,omitempty"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`
	BankName           string      `json:"bank_name,omitempty"`
	OperationType      string      `json:"operation_type,omitempty"`
	ImportPeriod       string      `json:"import_period,omitempty"`
}

// ImportRowError is one validation error row for a batch.
type ImportRowError struct {
	ID             int    `json:"id"`
	RowNumber      int    `json:"row_number"`
	ColumnName     string `json:"column_name,omitempty"`
	ErrorType      string `json:"error_type"`
	ErrorMessage   string `json:"error_message"`
	OriginalValue  string `json:"original_value,omitempty"`
	SuggestedValue string `json:"suggested_value,omitempty"`
	IsCritical     bool   `json:"is_critical"`
}

// BatchErrorReport is the GET /imports/batch/{id}/errors payload.
type BatchErrorReport struct {
	BatchID        int              `json:"batch_id"`
	BatchName      string           `json:"batch_name"`
	TotalErrors    int              `json:"total_errors"`
	CriticalErrors int              `json:"critical_errors"`
	Errors         []ImportRowError `json:"errors"`
}

// WorkflowState is the client-intent state of the upload workflow. It
// describes what the operator set in motion, not what the core has done;
// the batch record's Status field is the single source of truth.
type WorkflowState string

const (
	StateIdle             WorkflowState = "IDLE"
	StateUploading        WorkflowState = "UPLOADING"
	StateUploaded         WorkflowState = "UPLOADED"
	StateValidating       WorkflowState = "VALIDATING"
	StateValidated        WorkflowState = "VALIDATED"
	StateValidationFailed WorkflowState = "VALIDATION_FAILED"
	StateProcessing       WorkflowState = "PROCESSING"
	StateCompleted        WorkflowState = "COMPLETED"
	StateProcessingFailed WorkflowState = "PROCESSING_FAILED"
)

// ValidationOutcome is the result of the post-upload validation poll.
// OutcomeUnknown means the poll timed out before the batch left VALIDATING:
// neither success nor failure can be claimed.
type ValidationOutcome string

const (
	OutcomeValidated ValidationOutcome = "VALIDATED"
	OutcomeFailed    ValidationOutcome = "FAILED"
	OutcomeUnknown   ValidationOutcome = "UNKNOWN"
)

// ValidationResult summarizes one validation run: the trigger plus the poll
// loop that watched the batch until it reached a terminal status or the
// deadline passed.
type ValidationResult struct {
	RunID   string             `json:"run_id"`
	BatchID int                `json:"batch_id"`
	Outcome ValidationOutcome  `json:"outcome"`
	Status  *BatchStatusReport `json:"status,omitempty"`
	Polls   int                `json:"polls"`
}
