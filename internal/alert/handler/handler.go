package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idhub/internal/alert"
	dErrors "idhub/pkg/domain-errors"
	"idhub/pkg/platform/httputil"
	"idhub/pkg/requestcontext"
)

// Bus defines the interface for alert operations.
type Bus interface {
	Publish(ctx context.Context, a alert.Alert) (*alert.Alert, error)
	Acknowledge(ctx context.Context, id, acknowledgedBy string) (*alert.Alert, error)
	Resolve(ctx context.Context, id, resolvedBy string) (*alert.Alert, error)
	ListFor(ctx context.Context, agency string) ([]alert.Alert, error)
	StatsFor(ctx context.Context, agency string) (*alert.Stats, error)
}

// PublishRequest is the wire shape of an alert publication.
type PublishRequest struct {
	Type           alert.Type        `json:"type"`
	Severity       alert.Severity    `json:"severity"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	TargetAgencies []string          `json:"target_agencies"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Handler wires alert endpoints to the alert bus.
type Handler struct {
	bus    Bus
	logger *slog.Logger
}

// New constructs an alert handler with its dependencies.
func New(bus Bus, logger *slog.Logger) *Handler {
	return &Handler{bus: bus, logger: logger}
}

// Register mounts alert endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/alerts", h.HandlePublish)
	r.Get("/alerts", h.HandleList)
	r.Get("/alerts/stats", h.HandleStats)
	r.Post("/alerts/{alertID}/acknowledge", h.HandleAcknowledge)
	r.Post("/alerts/{alertID}/resolve", h.HandleResolve)
}

// HandlePublish handles POST /alerts requests.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PublishRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	a, err := h.bus.Publish(ctx, alert.Alert{
		Type:           req.Type,
		Severity:       req.Severity,
		Title:          req.Title,
		Message:        req.Message,
		Source:         requestcontext.Agency(ctx),
		TargetAgencies: req.TargetAgencies,
		Metadata:       req.Metadata,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

// HandleList handles GET /alerts requests, scoped to the caller's agency.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agency, ok := h.requireAgency(w, ctx)
	if !ok {
		return
	}

	alerts, err := h.bus.ListFor(ctx, agency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// HandleStats handles GET /alerts/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agency, ok := h.requireAgency(w, ctx)
	if !ok {
		return
	}

	stats, err := h.bus.StatsFor(ctx, agency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleAcknowledge handles POST /alerts/{alertID}/acknowledge requests.
// Acknowledgement is recorded per agency, so each targeted agency confirms
// receipt independently.
func (h *Handler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agency, ok := h.requireAgency(w, ctx)
	if !ok {
		return
	}

	a, err := h.bus.Acknowledge(ctx, chi.URLParam(r, "alertID"), agency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

// HandleResolve handles POST /alerts/{alertID}/resolve requests.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	a, err := h.bus.Resolve(ctx, chi.URLParam(r, "alertID"), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) requireAgency(w http.ResponseWriter, ctx context.Context) (string, bool) {
	agency := requestcontext.Agency(ctx)
	if agency == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "agency context required"))
		return "", false
	}
	return agency, true
}
