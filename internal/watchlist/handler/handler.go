package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"idhub/internal/watchlist"
	dErrors "idhub/pkg/domain-errors"
	"idhub/pkg/platform/httputil"
	"idhub/pkg/requestcontext"
)

// Service defines the interface for watchlist operations.
type Service interface {
	Add(ctx context.Context, e watchlist.Entry) (*watchlist.Entry, error)
	Get(ctx context.Context, id string) (*watchlist.Entry, error)
	IsOnWatchlist(ctx context.Context, nationalID, name string) (bool, []watchlist.Entry, error)
	SeverityOf(ctx context.Context, nationalID, name string) (watchlist.Severity, bool, error)
	Resolve(ctx context.Context, id, resolvedBy, reason string) (bool, error)
	Search(ctx context.Context, q watchlist.SearchQuery) ([]watchlist.Entry, error)
}

// AddRequest is the wire shape of a listing request.
type AddRequest struct {
	Name       string             `json:"name"`
	NationalID string             `json:"national_id,omitempty"`
	Reason     watchlist.Reason   `json:"reason"`
	Severity   watchlist.Severity `json:"severity"`
	Actions    []watchlist.Action `json:"actions"`
	Notes      string             `json:"notes,omitempty"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
}

// ResolveRequest carries the optional resolution reason.
type ResolveRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CheckResponse reports a watchlist lookup.
type CheckResponse struct {
	Listed   bool               `json:"listed"`
	Severity watchlist.Severity `json:"severity,omitempty"`
	Entries  []watchlist.Entry  `json:"entries,omitempty"`
}

// Handler wires watchlist endpoints to the watchlist service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a watchlist handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts watchlist endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/watchlist", h.HandleAdd)
	r.Get("/watchlist", h.HandleSearch)
	r.Get("/watchlist/check", h.HandleCheck)
	r.Get("/watchlist/{entryID}", h.HandleGet)
	r.Post("/watchlist/{entryID}/resolve", h.HandleResolve)
}

// HandleAdd handles POST /watchlist requests.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.Add(ctx, watchlist.Entry{
		Name:       req.Name,
		NationalID: req.NationalID,
		Reason:     req.Reason,
		Severity:   req.Severity,
		Actions:    req.Actions,
		Notes:      req.Notes,
		AddedBy:    userID,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "watchlist add failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

// HandleSearch handles GET /watchlist requests. The reason, severity and
// agency parameters accept comma-separated lists.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()
	q := watchlist.SearchQuery{
		Reasons:    splitParam[watchlist.Reason](params.Get("reason")),
		Severities: splitParam[watchlist.Severity](params.Get("severity")),
		Agencies:   splitParam[string](params.Get("agency")),
		Text:       params.Get("q"),
		ActiveOnly: params.Get("active") == "true",
	}

	entries, err := h.service.Search(ctx, q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func splitParam[T ~string](raw string) []T {
	if raw == "" {
		return nil
	}
	var out []T
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, T(part))
		}
	}
	return out
}

// HandleCheck handles GET /watchlist/check requests.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nationalID := r.URL.Query().Get("national_id")
	name := r.URL.Query().Get("name")
	if nationalID == "" && name == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "national_id or name is required"))
		return
	}

	listed, entries, err := h.service.IsOnWatchlist(ctx, nationalID, name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := CheckResponse{Listed: listed, Entries: entries}
	if listed {
		if severity, ok, err := h.service.SeverityOf(ctx, nationalID, name); err == nil && ok {
			resp.Severity = severity
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /watchlist/{entryID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

// HandleResolve handles POST /watchlist/{entryID}/resolve requests. The body
// is optional; when present it carries the resolution reason.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resolved, err := h.service.Resolve(ctx, chi.URLParam(r, "entryID"), userID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !resolved {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no active entry to resolve"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"resolved": true})
}
