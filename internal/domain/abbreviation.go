package domain

import "time"

// AbbreviationMaxLen is the code length limit, enforced client-side before
// the upstream call in addition to the core's own check.
const AbbreviationMaxLen = 10

// Abbreviation is a short code standardizing collection-agent remarks.
// System defaults are immutable and undeletable at the core; the UI disables
// those controls but the core's rejection is still surfaced verbatim if an
// edit slips through.
type Abbreviation struct {
	ID                  int       `json:"id"`
	Abbreviation        string    `json:"abbreviation"`
	Description         string    `json:"description"`
	DetailedDescription string    `json:"detailed_description,omitempty"`
	IsSystemDefault     bool      `json:"is_system_default"`
	UsageCount          int       `json:"usage_count"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
	UpdatedAt           time.Time `json:"updated_at,omitempty"`
}

// AbbreviationDraft is the create/update payload.
type AbbreviationDraft struct {
	Abbreviation        string `json:"abbreviation"`
	Description         string `json:"description"`
	DetailedDescription string `json:"detailed_description,omitempty"`
	IsActive            *bool  `json:"is_active,omitempty"`
}
