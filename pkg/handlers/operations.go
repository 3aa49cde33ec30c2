package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/apperrors"
	"github.com/apimesh/apimesh-engine/pkg/auth"
	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
	"github.com/apimesh/apimesh-engine/pkg/services"
)

// maxImportBodySize caps collection uploads at 8 MiB.
const maxImportBodySize = 8 << 20

// OperationListResponse for GET /api/operations
type OperationListResponse struct {
	Operations []*models.Operation `json:"operations"`
	Total      int                 `json:"total"`
}

// SearchResponse for GET /api/operations/search
type SearchResponse struct {
	Matches []*models.OperationMatch `json:"matches"`
	Total   int                      `json:"total"`
}

// CreateOperationRequest for POST /api/operations
type CreateOperationRequest struct {
	Name        string                               `json:"name"`
	Type        string                               `json:"type"`
	Category    string                               `json:"category,omitempty"`
	Vendor      string                               `json:"vendor,omitempty"`
	Description string                               `json:"description,omitempty"`
	Query       string                               `json:"query,omitempty"`
	Variables   map[string]models.VariableDescriptor `json:"variables,omitempty"`
	Tags        []string                             `json:"tags,omitempty"`
	Required    bool                                 `json:"required,omitempty"`
	Source      string                               `json:"source,omitempty"`
}

// OperationsHandler handles operation CRUD, import, and search HTTP requests.
type OperationsHandler struct {
	operationService  services.OperationService
	enrichmentService services.EnrichmentService
	searchService     services.SearchService
	logger            *zap.Logger
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(
	operationService services.OperationService,
	enrichmentService services.EnrichmentService,
	searchService services.SearchService,
	logger *zap.Logger,
) *OperationsHandler {
	return &OperationsHandler{
		operationService:  operationService,
		enrichmentService: enrichmentService,
		searchService:     searchService,
		logger:            logger,
	}
}

// RegisterRoutes registers the operations handler's routes on the given mux.
func (h *OperationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/operations", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/operations", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("POST /api/operations/import", authMiddleware.RequireAuth(h.Import))
	mux.HandleFunc("GET /api/operations/search", authMiddleware.RequireAuth(h.Search))
	mux.HandleFunc("GET /api/operations/{oid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/operations/{oid}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/operations/{oid}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST /api/operations/{oid}/enrich", authMiddleware.RequireAuth(h.Enrich))
}

// List handles GET /api/operations
func (h *OperationsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.OperationFilter{
		Category: r.URL.Query().Get("category"),
		Vendor:   r.URL.Query().Get("vendor"),
		Type:     r.URL.Query().Get("type"),
		Source:   r.URL.Query().Get("source"),
	}

	ops, err := h.operationService.ListOperations(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list operations", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_operations_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := OperationListResponse{
		Operations: ops,
		Total:      len(ops),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/operations
func (h *OperationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	op := &models.Operation{
		Name:        req.Name,
		Type:        req.Type,
		Category:    req.Category,
		Vendor:      req.Vendor,
		Description: req.Description,
		Query:       req.Query,
		Variables:   req.Variables,
		Tags:        req.Tags,
		Required:    req.Required,
		Source:      req.Source,
	}

	if err := h.operationService.CreateOperation(r.Context(), op); err != nil {
		h.logger.Error("Failed to create operation",
			zap.String("name", req.Name),
			zap.Error(err))

		if errors.Is(err, services.ErrInvalidOperation) {
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		if err := ErrorResponse(w, http.StatusInternalServerError, "create_operation_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: op}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/operations/{oid}
func (h *OperationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	operationID, ok := ParseOperationID(w, r, h.logger)
	if !ok {
		return
	}

	op, err := h.operationService.GetOperation(r.Context(), operationID)
	if err != nil {
		h.logger.Error("Failed to get operation",
			zap.String("operation_id", operationID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_operation_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if op == nil {
		if err := ErrorResponse(w, http.StatusNotFound, "operation_not_found", "Operation not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: op}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/operations/{oid}
func (h *OperationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	operationID, ok := ParseOperationID(w, r, h.logger)
	if !ok {
		return
	}

	existing, err := h.operationService.GetOperation(r.Context(), operationID)
	if err != nil {
		h.logger.Error("Failed to get operation",
			zap.String("operation_id", operationID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_operation_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if existing == nil {
		if err := ErrorResponse(w, http.StatusNotFound, "operation_not_found", "Operation not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req CreateOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	existing.Name = req.Name
	existing.Type = req.Type
	existing.Category = req.Category
	existing.Vendor = req.Vendor
	existing.Description = req.Description
	existing.Query = req.Query
	existing.Variables = req.Variables
	existing.Tags = req.Tags
	existing.Required = req.Required
	if req.Source != "" {
		existing.Source = req.Source
	}

	if err := h.operationService.UpdateOperation(r.Context(), existing); err != nil {
		h.logger.Error("Failed to update operation",
			zap.String("operation_id", operationID.String()),
			zap.Error(err))

		if errors.Is(err, services.ErrInvalidOperation) {
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "operation_not_found", "Operation not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		if err := ErrorResponse(w, http.StatusInternalServerError, "update_operation_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: existing}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/operations/{oid}
func (h *OperationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	operationID, ok := ParseOperationID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.operationService.DeleteOperation(r.Context(), operationID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "operation_not_found", "Operation not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		h.logger.Error("Failed to delete operation",
			zap.String("operation_id", operationID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "delete_operation_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Import handles POST /api/operations/import
// Body is a raw Postman collection export; optional ?category= and ?vendor=
// query parameters apply to every imported operation.
func (h *OperationsHandler) Import(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBodySize))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Failed to read request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.operationService.ImportCollection(r.Context(), raw,
		r.URL.Query().Get("category"), r.URL.Query().Get("vendor"))
	if err != nil {
		h.logger.Error("Failed to import collection", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "import_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Search handles GET /api/operations/search
func (h *OperationsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_query", "Query parameter 'q' is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "Limit must be a positive integer"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		limit = n
	}

	matches, err := h.searchService.SearchOperations(r.Context(), query, limit)
	if err != nil {
		if errors.Is(err, services.ErrAINotConfigured) {
			if err := ErrorResponse(w, http.StatusBadRequest, "ai_not_configured", "No AI endpoint is configured"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		h.logger.Error("Semantic search failed",
			zap.String("query", query),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "search_operations_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := SearchResponse{Matches: matches, Total: len(matches)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Enrich handles POST /api/operations/{oid}/enrich
func (h *OperationsHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	operationID, ok := ParseOperationID(w, r, h.logger)
	if !ok {
		return
	}

	op, err := h.enrichmentService.EnrichOperation(r.Context(), operationID)
	if err != nil {
		if errors.Is(err, services.ErrAINotConfigured) {
			if err := ErrorResponse(w, http.StatusBadRequest, "ai_not_configured", "No AI endpoint is configured"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		h.logger.Error("Failed to enrich operation",
			zap.String("operation_id", operationID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "enrich_operation_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: op}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
