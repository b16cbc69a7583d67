package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents an extract run record
type Run struct {
	ID           uuid.UUID  `json:"id"`
	Sources      []string   `json:"sources"`
	LocatorStage string     `json:"locator_stage"`
	Status       string     `json:"status"`
	CompanyCount int        `json:"company_count"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ExtractedCompany is a stored canonical company. Position is the row's index
// in the sorted stage-1 extract.
type ExtractedCompany struct {
	ID          int64           `json:"id"`
	RunID       uuid.UUID       `json:"run_id"`
	Position    int             `json:"position"`
	Name        string          `json:"name"`
	Sector      string          `json:"sector"`
	Website     string          `json:"website"`
	Description string          `json:"description"`
	Raw         json.RawMessage `json:"raw"`
}

// SectorMembership places one projected record in one sector bucket.
// Position is the record's index within its bucket.
type SectorMembership struct {
	Sector      string          `json:"sector"`
	Slug        string          `json:"slug"`
	Position    int             `json:"position"`
	CompanyName string          `json:"company_name"`
	Record      json.RawMessage `json:"record"`
}

// SectorCount is the number of members of a sector in one run.
type SectorCount struct {
	Sector string `json:"sector"`
	Slug   string `json:"slug"`
	Count  int    `json:"count"`
}
