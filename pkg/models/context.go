package models

import (
	"time"

	"github.com/google/uuid"
)

// Context represents a customer integration context: the environment and
// settings one customer's API programs run under.
// Stored in engine_contexts table.
type Context struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
