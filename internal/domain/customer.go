package domain

// Customer is a debtor record imported from a client's spreadsheet. The admin
// surface never creates or deletes customers; they are viewed and filtered
// only. The core's column naming is kept on the wire: client_name is the
// customer's full name, not the portfolio owner's.
type Customer struct {
	ID             int    `json:"id"`
	ClientID       int    `json:"client_id"`
	ContractNumber string `json:"contract_number"`
	Name           string `json:"client_name"`
	NIC            string `json:"nic"`
	HomeAddress    string `json:"home_address,omitempty"`

	ContactNumber1 string `json:"customer_contact_number_1,omitempty"`
	ContactNumber2 string `json:"customer_contact_number_2,omitempty"`
	ContactNumber3 string `json:"customer_contact_number_3,omitempty"`

	GrantedAmount        float64 `json:"granted_amount,omitempty"`
	FacilityGrantedDate  string  `json:"facility_granted_date,omitempty"`
	FacilityEndDate      string  `json:"facility_end_date,omitempty"`
	MonthlyRentalWithVAT float64 `json:"monthly_rental_payment_with_vat,omitempty"`
	LastPaymentDate      string  `json:"last_payment_date,omitempty"`
	LastPaymentAmount    float64 `json:"last_payment_amount,omitempty"`
	DueDate              string  `json:"due_date,omitempty"`

	Designation          string `json:"designation,omitempty"`
	WorkPlaceName        string `json:"work_place_name,omitempty"`
	WorkPlaceAddress     string `json:"work_place_address,omitempty"`
	WorkPlaceContact1    string `json:"work_place_contact_number_1,omitempty"`
	WorkPlaceContact2    string `json:"work_place_contact_number_2,omitempty"`

	Guarantor1Name     string `json:"guarantor_1_name,omitempty"`
	Guarantor1Address  string `json:"guarantor_1_address,omitempty"`
	Guarantor1NIC      string `json:"guarantor_1_nic,omitempty"`
	Guarantor1Contact1 string `json:"guarantor_1_contact_number_1,omitempty"`
	Guarantor1Contact2 string `json:"guarantor_1_contact_number_2,omitempty"`

	Guarantor2Name     string `json:"guarantor_2_name,omitempty"`
	Guarantor2Address  string `json:"guarantor_2_address,omitempty"`
	Guarantor2NIC      string `json:"guarantor_2_nic,omitempty"`
	Guarantor2Contact1 string `json:"guarantor_2_contact_number_1,omitempty"`
	Guarantor2Contact2 string `json:"guarantor_2_contact_number_2,omitempty"`

	Zone         string `json:"zone,omitempty"`
	Region       string `json:"region,omitempty"`
	BranchName   string `json:"branch_name,omitempty"`
	DistrictName string `json:"district_name,omitempty"`
	PostalTown   string `json:"postal_town,omitempty"`

	DaysInArrears int    `json:"days_in_arrears"`
	Details       string `json:"details,omitempty"`

	ImportBatchID int    `json:"import_batch_id,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// CustomerFilter is the filter bag for the customer list and CSV export.
// All parameters are optional and combined with implicit AND by the core.
type CustomerFilter struct {
	Search     string
	Zone       string
	Region     string
	Branch     string
	MinArrears *int
	MaxArrears *int
	ClientID   *int
}

// IsZero reports whether no filter parameter is set ("Clear Filters" state).
func (f CustomerFilter) IsZero() bool {
	return f.Search == "" && f.Zone == "" && f.Region == "" && f.Branch == "" &&
		f.MinArrears == nil && f.MaxArrears == nil && f.ClientID == nil
}

// ArrearsBreakdown buckets customers by days overdue.
type ArrearsBreakdown struct {
	Current    int `json:"current"`
	Days1To30  int `json:"1_30_days"`
	Days31To60 int `json:"31_60_days"`
	Days61To90 int `json:"61_90_days"`
	Over90Days int `json:"over_90_days"`
}

// ZoneCount is one row of the zone distribution.
type ZoneCount struct {
	Zone  string `json:"zone"`
	Count int    `json:"count"`
}

// CustomerStatistics is the GET /customers/statistics dashboard payload.
type CustomerStatistics struct {
	TotalCustomers         int              `json:"total_customers"`
	ArrearsBreakdown       ArrearsBreakdown `json:"arrears_breakdown"`
	ZoneDistribution       []ZoneCount      `json:"zone_distribution,omitempty"`
	TotalOutstandingAmount float64          `json:"total_outstanding_amount"`
	AverageDaysInArrears   float64          `json:"average_days_in_arrears"`
}

// FilterOptions feeds the filter dropdowns.
type FilterOptions struct {
	Zones    []string `json:"zones"`
	Regions  []string `json:"regions"`
	Branches []string `json:"branches"`
}

// CustomerOverview bundles the three independent fetches a customer view
// fires on activation. Any of the optional parts may be nil when its fetch
// failed; the list renders with what arrived.
type CustomerOverview struct {
	Customers  []Customer          `json:"customers"`
	Statistics *CustomerStatistics `json:"statistics,omitempty"`
	Filters    *FilterOptions      `json:"filter_options,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
}
