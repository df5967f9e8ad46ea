// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the concrete RECOVA core API client.
//
// Every authenticated call takes the bearer token explicitly instead of
// reading it from ambient state, so gateways stay testable without any
// browser-like storage mechanism behind them.
package port

import (
	"context"
	"io"

	"github.com/recova/admin-bfa-go/internal/domain"
)

// AuthGateway talks to the core's token-issuing endpoints.
type AuthGateway interface {
	// Login exchanges credentials for an access token (form-encoded upstream).
	Login(ctx context.Context, username, password string) (*domain.TokenResponse, error)
	// Me resolves the profile behind a token.
	Me(ctx context.Context, token string) (*domain.User, error)
}

// ClientGateway covers the clients resource (full CRUD, DIRECTOR-gated
// upstream).
type ClientGateway interface {
	ListClients(ctx context.Context, token string, f domain.ClientFilter) ([]domain.Client, error)
	ListClientsWithStats(ctx context.Context, token string) ([]domain.ClientWithStats, error)
	GetClient(ctx context.Context, token string, id int) (*domain.Client, error)
	CreateClient(ctx context.Context, token string, draft *domain.ClientDraft) (*domain.Client, error)
	UpdateClient(ctx context.Context, token string, id int, draft *domain.ClientDraft) (*domain.Client, error)
	DeleteClient(ctx context.Context, token string, id int, force bool) error
	SetClientActive(ctx context.Context, token string, id int, active bool) error
	ClientCustomers(ctx context.Context, token string, id, skip, limit int) (*domain.ClientCustomersPage, error)
	ClientStatistics(ctx context.Context, token string, id int) (*domain.ClientStatistics, error)
}

// CustomerGateway covers the read-only customers resource.
type CustomerGateway interface {
	ListCustomers(ctx context.Context, token string, f domain.CustomerFilter) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, token string, id int) (*domain.Customer, error)
	CustomerStatistics(ctx context.Context, token string) (*domain.CustomerStatistics, error)
	CustomerFilterOptions(ctx context.Context, token string) (*domain.FilterOptions, error)
	// ExportCustomersCSV streams the filtered export; the caller owns the reader.
	ExportCustomersCSV(ctx context.Context, token string, f domain.CustomerFilter) (io.ReadCloser, error)
}

// ImportGateway covers the import-batch lifecycle endpoints.
type ImportGateway interface {
	UploadImport(ctx context.Context, token string, draft *domain.UploadDraft) (*domain.UploadResponse, error)
	ValidateBatch(ctx context.Context, token string, batchID int) error
	ProcessBatch(ctx context.Context, token string, batchID int) error
	ListBatches(ctx context.Context, token string) ([]domain.ImportBatch, error)
	BatchStatus(ctx context.Context, token string, batchID int) (*domain.BatchStatusReport, error)
	BatchErrors(ctx context.Context, token string, batchID int) (*domain.BatchErrorReport, error)
}

// TemplateGateway downloads import spreadsheet templates. The file is opaque
// bytes; the returned name is the upstream's suggested filename.
type TemplateGateway interface {
	DownloadTemplate(ctx context.Context, token, operationType string) (io.ReadCloser, string, error)
}

// AbbreviationGateway covers the remark abbreviations resource.
type AbbreviationGateway interface {
	ListAbbreviations(ctx context.Context, token string, activeOnly bool) ([]domain.Abbreviation, error)
	CreateAbbreviation(ctx context.Context, token string, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error)
	UpdateAbbreviation(ctx context.Context, token string, id int, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error)
	DeleteAbbreviation(ctx context.Context, token string, id int) error
	SetAbbreviationActive(ctx context.Context, token string, id int, active bool) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
