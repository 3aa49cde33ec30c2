package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisReport summarizes duplicate operations found in the store.
// Produced by the duplicate analyzer; purely informational, no mutation.
type AnalysisReport struct {
	TotalOperations   int              `json:"total_operations"`
	TotalDuplicates   int              `json:"total_duplicates"`
	TotalGroups       int              `json:"total_groups"`
	PercentDuplicated float64          `json:"percent_duplicated"`
	DuplicateGroups   []DuplicateGroup `json:"duplicate_groups"`
}

// DuplicateGroup describes one set of operations sharing a name.
type DuplicateGroup struct {
	Name       string          `json:"name"`
	Count      int             `json:"count"`
	Categories []string        `json:"categories"`
	Vendors    []string        `json:"vendors"`
	Types      []string        `json:"types"`
	Members    []MemberSummary `json:"members"`
}

// MemberSummary is the per-record view inside analysis and dedup reports.
type MemberSummary struct {
	ID        uuid.UUID  `json:"id"`
	Category  string     `json:"category,omitempty"`
	Vendor    string     `json:"vendor,omitempty"`
	Type      string     `json:"type,omitempty"`
	Source    string     `json:"source,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// DeduplicationReport is the result of one deduplication run.
// DryRun is always set so a simulated plan can never be mistaken for an
// applied one.
type DeduplicationReport struct {
	DryRun   bool         `json:"dry_run"`
	Strategy string       `json:"strategy"`
	Results  DedupResults `json:"results"`
}

// DedupResults aggregates counts across all processed groups.
// Errors is reported even on otherwise-successful runs so partial failure
// is never silent.
type DedupResults struct {
	Processed int           `json:"processed"`
	Kept      int           `json:"kept"`
	Removed   int           `json:"removed"`
	Errors    int           `json:"errors"`
	Details   []GroupDetail `json:"details"`
}

// GroupDetail records the plan (dry run) or outcome (live run) for one group.
type GroupDetail struct {
	Group          string            `json:"group"`
	Kept           MemberSummary     `json:"kept"`
	Removed        []MemberSummary   `json:"removed"`
	MergedMetadata OperationMetadata `json:"merged_metadata"`
}
