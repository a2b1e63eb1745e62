package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"idhub/internal/alert"
	"idhub/internal/watchlist"
	"idhub/pkg/requestcontext"
)

func newWatchlistRouter(t *testing.T) (chi.Router, *alert.Bus) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	bus := alert.NewBus(alert.NewMemoryStore(), logger, nil)
	svc := watchlist.NewService(watchlist.NewMemoryStore(), bus, logger, nil)

	router := chi.NewRouter()
	New(svc, logger).Register(router)
	return router, bus
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

func asAgencyUser(req *http.Request, agency, userID string) *http.Request {
	ctx := requestcontext.WithAgency(req.Context(), agency)
	ctx = requestcontext.WithUserID(ctx, userID)
	return req.WithContext(ctx)
}

func addEntry(t *testing.T, router chi.Router) watchlist.Entry {
	t.Helper()
	payload := AddRequest{
		Name:       "John Doe",
		NationalID: "NID-31337",
		Reason:     watchlist.ReasonBorderSecurity,
		Severity:   watchlist.SeverityHigh,
		Actions: []watchlist.Action{
			{Type: watchlist.ActionBorderAlert, Agencies: []string{"border_control"}},
		},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/watchlist", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asAgencyUser(req, "nsa", "analyst-3")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var entry watchlist.Entry
	if err := json.NewDecoder(rec.Body).Decode(&entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	return entry
}

func TestAddRequiresAuth(t *testing.T) {
	router, _ := newWatchlistRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/watchlist", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rec.Code)
	}
}

func TestAddAndCheck(t *testing.T) {
	router, bus := newWatchlistRouter(t)
	entry := addEntry(t, router)
	if entry.AddedBy != "analyst-3" {
		t.Fatalf("expected added_by from authenticated user, got %q", entry.AddedBy)
	}
	if entry.AddedByAgency != "nsa" {
		t.Fatalf("expected added_by_agency from token context, got %q", entry.AddedByAgency)
	}

	// The listing produced a broadcast visible to the action agency.
	stats, err := bus.StatsFor(context.Background(), "border_control")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected 1 alert for border_control, got %d", stats.Total)
	}

	checkReq := httptest.NewRequest(http.MethodGet, "/watchlist/check?national_id=NID-31337", nil)
	checkRec := httptest.NewRecorder()
	router.ServeHTTP(checkRec, checkReq)
	if checkRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", checkRec.Code)
	}
	var check CheckResponse
	if err := json.NewDecoder(checkRec.Body).Decode(&check); err != nil {
		t.Fatalf("decode check: %v", err)
	}
	if !check.Listed || check.Severity != watchlist.SeverityHigh || len(check.Entries) != 1 {
		t.Fatalf("unexpected check response: %+v", check)
	}

	missingRec := httptest.NewRecorder()
	router.ServeHTTP(missingRec, httptest.NewRequest(http.MethodGet, "/watchlist/check", nil))
	if missingRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without subject params, got %d", missingRec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router, _ := newWatchlistRouter(t)
	addEntry(t, router)

	req := httptest.NewRequest(http.MethodGet, "/watchlist?agency=border_control&active=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Entries []watchlist.Entry `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp.Entries))
	}

	noneReq := httptest.NewRequest(http.MethodGet, "/watchlist?reason=smuggling", nil)
	noneRec := httptest.NewRecorder()
	router.ServeHTTP(noneRec, noneReq)
	var none struct {
		Entries []watchlist.Entry `json:"entries"`
	}
	if err := json.NewDecoder(noneRec.Body).Decode(&none); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(none.Entries) != 0 {
		t.Fatalf("expected no smuggling entries, got %d", len(none.Entries))
	}
}

func TestResolveEndpoint(t *testing.T) {
	router, _ := newWatchlistRouter(t)
	entry := addEntry(t, router)

	body, _ := json.Marshal(ResolveRequest{Reason: "cleared by tribunal"})
	req := httptest.NewRequest(http.MethodPost, "/watchlist/"+entry.ID+"/resolve", bytes.NewReader(body))
	req = asUser(req, "supervisor-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/watchlist/"+entry.ID, nil))
	var resolved watchlist.Entry
	if err := json.NewDecoder(getRec.Body).Decode(&resolved); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if resolved.ResolvedBy != "supervisor-1" || resolved.ResolvedReason != "cleared by tribunal" {
		t.Fatalf("expected resolution metadata persisted, got %+v", resolved)
	}

	// Second resolution finds nothing active; an empty body is fine.
	againRec := httptest.NewRecorder()
	againReq := httptest.NewRequest(http.MethodPost, "/watchlist/"+entry.ID+"/resolve", nil)
	againReq = asUser(againReq, "supervisor-1")
	router.ServeHTTP(againRec, againReq)
	if againRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat resolve, got %d", againRec.Code)
	}
}
