package models

import (
	"time"

	"github.com/google/uuid"
)

// OperationType values for Operation.Type.
const (
	OperationTypeQuery        = "query"
	OperationTypeMutation     = "mutation"
	OperationTypeSubscription = "subscription"
)

// Operation provenance markers for Operation.Source.
const (
	SourceImport    = "import"
	SourceManual    = "manual"
	SourceGenerated = "generated"
)

// Operation represents one API operation definition (a GraphQL query or
// mutation imported from a collection or created manually).
// The name is the logical key and is NOT unique across records: the same
// operation may be imported several times under different categories or
// vendors. The deduplication engine collapses such groups.
// Stored in engine_operations table.
type Operation struct {
	ID          uuid.UUID                     `json:"id"`
	Name        string                        `json:"name"`
	Type        string                        `json:"type"` // 'query', 'mutation', 'subscription'
	Category    string                        `json:"category,omitempty"`
	Vendor      string                        `json:"vendor,omitempty"`
	Description string                        `json:"description,omitempty"`
	Query       string                        `json:"query,omitempty"`
	Variables   map[string]VariableDescriptor `json:"variables,omitempty"`
	Tags        []string                      `json:"tags,omitempty"`
	Required    bool                          `json:"required"`
	Source      string                        `json:"source"` // 'import', 'manual', 'generated'

	// Metadata is written only by the deduplication merge step and preserves
	// everything seen across a duplicate group.
	Metadata *OperationMetadata `json:"metadata,omitempty"`

	// Embedding is the vector computed during enrichment and consumed by
	// semantic search. Not exposed over the API.
	Embedding []float32 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is nil for records that were never modified after creation.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Seq is the read-order sequence number assigned by the repository at
	// fetch time. Survivor selection uses it as the stable tie-break so the
	// outcome never depends on store iteration order. Not persisted.
	Seq int `json:"-"`
}

// EffectiveTime returns the timestamp used for recency comparisons:
// UpdatedAt when present, otherwise CreatedAt. Records missing both
// compare as the zero time (i.e. oldest possible).
func (o *Operation) EffectiveTime() time.Time {
	if o.UpdatedAt != nil && !o.UpdatedAt.IsZero() {
		return *o.UpdatedAt
	}
	return o.CreatedAt
}

// OperationMatch pairs an operation with its semantic search score
// (cosine similarity against the query embedding, higher is closer).
type OperationMatch struct {
	Operation *Operation `json:"operation"`
	Score     float64    `json:"score"`
}

// VariableDescriptor describes a single GraphQL variable of an operation.
type VariableDescriptor struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Example     any    `json:"example,omitempty"`
}

// OperationMetadata holds merge provenance for a deduplicated operation.
type OperationMetadata struct {
	// Categories is the set of all category values seen across the group.
	Categories []string `json:"categories,omitempty"`
	// Vendors is the set of all vendor values seen across the group.
	Vendors []string `json:"vendors,omitempty"`
	// Sources is an ordered list of per-member provenance snapshots,
	// one per group member including the survivor.
	Sources []SourceRecord `json:"sources,omitempty"`
}

// SourceRecord is a provenance snapshot of one duplicate-group member,
// captured before the member is merged away.
type SourceRecord struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category,omitempty"`
	Vendor    string    `json:"vendor,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
