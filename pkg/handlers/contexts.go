package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/apperrors"
	"github.com/apimesh/apimesh-engine/pkg/auth"
	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
)

// ContextListResponse for GET /api/contexts
type ContextListResponse struct {
	Contexts []*models.Context `json:"contexts"`
	Total    int               `json:"total"`
}

// ContextRequest for POST and PUT /api/contexts
type ContextRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// ContextsHandler handles customer context HTTP requests.
// Contexts are thin pass-through persistence: the handler validates the
// name and delegates straight to the repository.
type ContextsHandler struct {
	contextRepo repositories.ContextRepository
	logger      *zap.Logger
}

// NewContextsHandler creates a new contexts handler.
func NewContextsHandler(contextRepo repositories.ContextRepository, logger *zap.Logger) *ContextsHandler {
	return &ContextsHandler{
		contextRepo: contextRepo,
		logger:      logger,
	}
}

// RegisterRoutes registers the contexts handler's routes on the given mux.
func (h *ContextsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/contexts", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/contexts", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/contexts/{cid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/contexts/{cid}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/contexts/{cid}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/contexts
func (h *ContextsHandler) List(w http.ResponseWriter, r *http.Request) {
	contexts, err := h.contextRepo.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list contexts", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_contexts_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ContextListResponse{Contexts: contexts, Total: len(contexts)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/contexts
func (h *ContextsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.Name == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "Context name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	c := &models.Context{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	}

	if err := h.contextRepo.Create(r.Context(), c); err != nil {
		h.logger.Error("Failed to create context",
			zap.String("name", req.Name),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "create_context_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: c}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/contexts/{cid}
func (h *ContextsHandler) Get(w http.ResponseWriter, r *http.Request) {
	contextID, ok := ParseContextID(w, r, h.logger)
	if !ok {
		return
	}

	c, err := h.contextRepo.GetByID(r.Context(), contextID)
	if err != nil {
		h.logger.Error("Failed to get context",
			zap.String("context_id", contextID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_context_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if c == nil {
		if err := ErrorResponse(w, http.StatusNotFound, "context_not_found", "Context not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: c}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/contexts/{cid}
func (h *ContextsHandler) Update(w http.ResponseWriter, r *http.Request) {
	contextID, ok := ParseContextID(w, r, h.logger)
	if !ok {
		return
	}

	var req ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.Name == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "Context name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	c := &models.Context{
		ID:          contextID,
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	}

	if err := h.contextRepo.Update(r.Context(), c); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "context_not_found", "Context not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		h.logger.Error("Failed to update context",
			zap.String("context_id", contextID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "update_context_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: c}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/contexts/{cid}
func (h *ContextsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contextID, ok := ParseContextID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.contextRepo.Delete(r.Context(), contextID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "context_not_found", "Context not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		h.logger.Error("Failed to delete context",
			zap.String("context_id", contextID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "delete_context_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
