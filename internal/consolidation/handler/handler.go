package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idhub/internal/consolidation"
	dErrors "idhub/pkg/domain-errors"
	"idhub/pkg/platform/httputil"
	"idhub/pkg/requestcontext"
)

// Service defines the interface for consolidation operations.
type Service interface {
	Consolidate(ctx context.Context, req consolidation.Request) (*consolidation.ConsolidatedProfile, error)
	ResolveConflict(ctx context.Context, conflict consolidation.Conflict, chosenValue, decidedBy, reason string) (consolidation.ConflictDecision, error)
	Decisions(ctx context.Context) ([]consolidation.ConflictDecision, error)
}

// Handler wires consolidation endpoints to the consolidation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a consolidation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts consolidation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identity/consolidate", h.HandleConsolidate)
	r.Post("/identity/conflicts/resolve", h.HandleResolveConflict)
	r.Get("/identity/conflicts/decisions", h.HandleListDecisions)
}

// HandleConsolidate handles POST /identity/consolidate requests.
func (h *Handler) HandleConsolidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ConsolidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.Consolidate(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "consolidation failed",
			"request_id", requestID,
			"agency", requestcontext.Agency(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "consolidation served",
		"request_id", requestID,
		"agency", requestcontext.Agency(ctx),
		"linked_records", len(profile.LinkedRecords),
		"conflicts", len(profile.Conflicts),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// HandleResolveConflict handles POST /identity/conflicts/resolve requests.
func (h *Handler) HandleResolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ResolveConflictRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.ResolveConflict(ctx, req.Conflict, req.ChosenValue, userID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "conflict resolution failed",
			"request_id", requestID,
			"field", req.Conflict.Field,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, decision)
}

// HandleListDecisions handles GET /identity/conflicts/decisions requests.
func (h *Handler) HandleListDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	decisions, err := h.service.Decisions(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"decisions": decisions})
}
