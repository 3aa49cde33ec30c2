package models

import (
	"time"

	"github.com/google/uuid"
)

// Program status values.
const (
	ProgramStatusDraft    = "draft"
	ProgramStatusActive   = "active"
	ProgramStatusArchived = "archived"
)

// Program represents one API integration program definition within a
// customer context: a named bundle of operations against one vendor API.
// Stored in engine_programs table.
type Program struct {
	ID          uuid.UUID `json:"id"`
	ContextID   uuid.UUID `json:"context_id"`
	Name        string    `json:"name"`
	Vendor      string    `json:"vendor,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"` // 'draft', 'active', 'archived'
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
