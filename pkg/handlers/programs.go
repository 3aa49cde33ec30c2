package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/apperrors"
	"github.com/apimesh/apimesh-engine/pkg/auth"
	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
	"github.com/apimesh/apimesh-engine/pkg/services"
)

// ProgramListResponse for GET /api/contexts/{cid}/programs
type ProgramListResponse struct {
	Programs []*models.Program `json:"programs"`
	Total    int               `json:"total"`
}

// ProgramRequest for POST and PUT program endpoints.
type ProgramRequest struct {
	ContextID   uuid.UUID `json:"context_id"`
	Name        string    `json:"name"`
	Vendor      string    `json:"vendor,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
}

// ProgramsHandler handles API program HTTP requests.
type ProgramsHandler struct {
	programRepo repositories.ProgramRepository
	docsService services.DocsService
	logger      *zap.Logger
}

// NewProgramsHandler creates a new programs handler.
func NewProgramsHandler(
	programRepo repositories.ProgramRepository,
	docsService services.DocsService,
	logger *zap.Logger,
) *ProgramsHandler {
	return &ProgramsHandler{
		programRepo: programRepo,
		docsService: docsService,
		logger:      logger,
	}
}

// RegisterRoutes registers the programs handler's routes on the given mux.
func (h *ProgramsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/contexts/{cid}/programs", authMiddleware.RequireAuth(h.ListByContext))
	mux.HandleFunc("POST /api/programs", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/programs/{pid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/programs/{pid}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/programs/{pid}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/programs/{pid}/docs", authMiddleware.RequireAuth(h.Docs))
}

// ListByContext handles GET /api/contexts/{cid}/programs
func (h *ProgramsHandler) ListByContext(w http.ResponseWriter, r *http.Request) {
	contextID, ok := ParseContextID(w, r, h.logger)
	if !ok {
		return
	}

	programs, err := h.programRepo.GetByContext(r.Context(), contextID)
	if err != nil {
		h.logger.Error("Failed to list programs",
			zap.String("context_id", contextID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_programs_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ProgramListResponse{Programs: programs, Total: len(programs)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/programs
func (h *ProgramsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.Name == "" || req.ContextID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "Program name and context_id are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	p := &models.Program{
		ContextID:   req.ContextID,
		Name:        req.Name,
		Vendor:      req.Vendor,
		Description: req.Description,
		Status:      req.Status,
	}

	if err := h.programRepo.Create(r.Context(), p); err != nil {
		h.logger.Error("Failed to create program",
			zap.String("name", req.Name),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "create_program_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: p}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/programs/{pid}
func (h *ProgramsHandler) Get(w http.ResponseWriter, r *http.Request) {
	programID, ok := ParseProgramID(w, r, h.logger)
	if !ok {
		return
	}

	p, err := h.programRepo.GetByID(r.Context(), programID)
	if err != nil {
		h.logger.Error("Failed to get program",
			zap.String("program_id", programID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "get_program_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if p == nil {
		if err := ErrorResponse(w, http.StatusNotFound, "program_not_found", "Program not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: p}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/programs/{pid}
func (h *ProgramsHandler) Update(w http.ResponseWriter, r *http.Request) {
	programID, ok := ParseProgramID(w, r, h.logger)
	if !ok {
		return
	}

	var req ProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.Name == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "Program name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	p := &models.Program{
		ID:          programID,
		ContextID:   req.ContextID,
		Name:        req.Name,
		Vendor:      req.Vendor,
		Description: req.Description,
		Status:      req.Status,
	}
	if p.Status == "" {
		p.Status = models.ProgramStatusDraft
	}

	if err := h.programRepo.Update(r.Context(), p); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "program_not_found", "Program not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		h.logger.Error("Failed to update program",
			zap.String("program_id", programID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "update_program_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: p}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/programs/{pid}
func (h *ProgramsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	programID, ok := ParseProgramID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.programRepo.Delete(r.Context(), programID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "program_not_found", "Program not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		h.logger.Error("Failed to delete program",
			zap.String("program_id", programID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "delete_program_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Docs handles GET /api/programs/{pid}/docs
// Returns the rendered markdown document for the program.
func (h *ProgramsHandler) Docs(w http.ResponseWriter, r *http.Request) {
	programID, ok := ParseProgramID(w, r, h.logger)
	if !ok {
		return
	}

	doc, err := h.docsService.GenerateProgramDocs(r.Context(), programID)
	if err != nil {
		h.logger.Error("Failed to generate program docs",
			zap.String("program_id", programID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "generate_docs_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
