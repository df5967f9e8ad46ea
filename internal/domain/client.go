package domain

import "time"

// Client types accepted by the core API. LEASING and FINANCE still appear on
// records created before the type list was consolidated; they are rendered
// as-is but never offered on create/edit.
const (
	ClientTypeBank  = "BANK"
	ClientTypeNBFI  = "NBFI"
	ClientTypeOther = "OTHER"
)

// Client is a bank or NBFI whose debt portfolio is serviced. Distinct from
// Customer, the debtor.
type Client struct {
	ID                 int       `json:"id"`
	ClientCode         string    `json:"client_code"`
	ClientName         string    `json:"client_name"`
	ClientType         string    `json:"client_type"`
	ContactPerson      string    `json:"contact_person,omitempty"`
	ContactEmail       string    `json:"contact_email,omitempty"`
	ContactPhone       string    `json:"contact_phone,omitempty"`
	Address            string    `json:"address,omitempty"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
	TaxID              string    `json:"tax_id,omitempty"`
	Website            string    `json:"website,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// ClientWithStats is the GET /clients/with-stats projection.
type ClientWithStats struct {
	Client
	CustomerCount    int     `json:"customer_count"`
	ActiveContracts  int     `json:"active_contracts"`
	TotalOutstanding float64 `json:"total_outstanding"`
}

// ClientDraft is the create/update payload. The full draft is always sent;
// the core applies last-write-wins with no optimistic lock.
type ClientDraft struct {
	ClientCode         string `json:"client_code"`
	ClientName         string `json:"client_name"`
	ClientType         string `json:"client_type"`
	ContactPerson      string `json:"contact_person,omitempty"`
	ContactEmail       string `json:"contact_email,omitempty"`
	ContactPhone       string `json:"contact_phone,omitempty"`
	Address            string `json:"address,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	TaxID              string `json:"tax_id,omitempty"`
	Website            string `json:"website,omitempty"`
	IsActive           *bool  `json:"is_active,omitempty"`
}

// ClientFilter is the filter bag for the client list. Empty fields are
// omitted from the query; filtering is entirely server-side.
type ClientFilter struct {
	Search     string
	ClientType string
	ActiveOnly bool
}

// ClientRef is the identity block repeated in the per-client drill-down
// payloads.
type ClientRef struct {
	ID         int    `json:"id"`
	ClientCode string `json:"client_code"`
	ClientName string `json:"client_name"`
	ClientType string `json:"client_type"`
}

// ClientCustomersPage is the GET /clients/{id}/customers payload: one page of
// the client's debtors plus the paging bookkeeping the core reports.
type ClientCustomersPage struct {
	Client         ClientRef  `json:"client"`
	Customers      []Customer `json:"customers"`
	TotalCustomers int        `json:"total_customers"`
	Showing        int        `json:"showing"`
	Skip           int        `json:"skip"`
	Limit          int        `json:"limit"`
}

// ClientStatistics is the GET /clients/{id}/statistics payload, the per-client
// cut of the portfolio dashboard.
type ClientStatistics struct {
	Client                 ClientRef        `json:"client"`
	TotalCustomers         int              `json:"total_customers"`
	ArrearsBreakdown       ArrearsBreakdown `json:"arrears_breakdown"`
	ZoneDistribution       []ZoneCount      `json:"zone_distribution,omitempty"`
	TotalOutstandingAmount float64          `json:"total_outstanding_amount"`
	IsActive               bool             `json:"is_active"`
	CreatedAt              time.Time        `json:"created_at,omitempty"`
}
