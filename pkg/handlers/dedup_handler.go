package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/apperrors"
	"github.com/apimesh/apimesh-engine/pkg/auth"
	"github.com/apimesh/apimesh-engine/pkg/services"
)

// DeduplicateRequest for POST /api/operations/deduplicate.
// Strategy defaults to keep-newest; DryRun defaults to false.
type DeduplicateRequest struct {
	Strategy string `json:"strategy,omitempty"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// DedupHandler handles duplicate analysis and deduplication HTTP requests.
type DedupHandler struct {
	analyzer        services.DuplicateAnalyzer
	dedupService    services.DedupService
	defaultStrategy string
	logger          *zap.Logger
}

// NewDedupHandler creates a new dedup handler. defaultStrategy is applied
// to requests that do not name one; empty means keep-newest.
func NewDedupHandler(
	analyzer services.DuplicateAnalyzer,
	dedupService services.DedupService,
	defaultStrategy string,
	logger *zap.Logger,
) *DedupHandler {
	return &DedupHandler{
		analyzer:        analyzer,
		dedupService:    dedupService,
		defaultStrategy: defaultStrategy,
		logger:          logger,
	}
}

// RegisterRoutes registers the dedup handler's routes on the given mux.
func (h *DedupHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/operations/duplicates", authMiddleware.RequireAuth(h.Analyze))
	mux.HandleFunc("POST /api/operations/deduplicate", authMiddleware.RequireAuth(h.Deduplicate))
}

// Analyze handles GET /api/operations/duplicates
func (h *DedupHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	report, err := h.analyzer.Analyze(r.Context())
	if err != nil {
		h.logger.Error("Failed to analyze duplicates", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "analyze_duplicates_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: report}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Deduplicate handles POST /api/operations/deduplicate
func (h *DedupHandler) Deduplicate(w http.ResponseWriter, r *http.Request) {
	var req DeduplicateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
	}

	if req.Strategy == "" {
		req.Strategy = h.defaultStrategy
	}

	report, err := h.dedupService.Deduplicate(r.Context(), req.Strategy, req.DryRun)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidStrategy) {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_strategy", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		h.logger.Error("Deduplication run failed",
			zap.String("strategy", req.Strategy),
			zap.Bool("dry_run", req.DryRun),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "deduplicate_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: report}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
