/**
 * @description
 * HTTP handlers for the collections-service. The run endpoint is the HTTP
 * twin of the cron trigger; pause/resume are called by the main application
 * when a payment claim or dispute is filed; the timeline endpoint serves the
 * audit history for an invoice.
 *
 * @dependencies
 * - encoding/json, net/http, time: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: Business logic and models.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recoup/collections-service/internal/app"
	"github.com/recoup/collections-service/internal/domain"
	"github.com/recoup/collections-service/internal/store"
)

// CollectionsEngine is the slice of the engine the handlers need; tests
// substitute a stub.
type CollectionsEngine interface {
	Run(ctx context.Context) (*domain.RunSummary, error)
	PauseEscalation(ctx context.Context, invoiceID string, reason domain.PauseReason, until *time.Time) (bool, error)
	ResumeEscalation(ctx context.Context, invoiceID string, reason string) error
}

// TimelineReader serves the audit history read path.
type TimelineReader interface {
	ListTimelineEvents(ctx context.Context, invoiceID string, limit int) ([]domain.TimelineEvent, error)
}

// CollectionsHandlers holds the dependencies for the HTTP endpoints.
type CollectionsHandlers struct {
	engine   CollectionsEngine
	timeline TimelineReader
	logger   *slog.Logger
}

// NewCollectionsHandlers creates the handler set.
func NewCollectionsHandlers(engine CollectionsEngine, timeline TimelineReader, logger *slog.Logger) *CollectionsHandlers {
	return &CollectionsHandlers{engine: engine, timeline: timeline, logger: logger}
}

// RunHandler triggers a collections run and returns the summary.
func (h *CollectionsHandlers) RunHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.Run(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrRunInProgress) {
			writeJSONError(w, http.StatusConflict, "a collections run is already in progress")
			return
		}
		h.logger.Error("collections run failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "collections run failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type pauseRequest struct {
	Reason string     `json:"reason"`
	Until  *time.Time `json:"until,omitempty"`
}

// PauseHandler pauses escalation for one invoice.
func (h *CollectionsHandlers) PauseHandler(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")

	var req pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	reason, err := domain.ParsePauseReason(req.Reason)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	paused, err := h.engine.PauseEscalation(r.Context(), invoiceID, reason, req.Until)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "invoice not found")
			return
		}
		h.logger.Error("failed to pause escalation", "invoice_id", invoiceID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to pause escalation")
		return
	}
	if !paused {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "skipped",
			"detail": "pause condition disabled by user settings",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

type resumeRequest struct {
	Reason string `json:"reason"`
}

// ResumeHandler lifts a pause for one invoice.
func (h *CollectionsHandlers) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")

	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.engine.ResumeEscalation(r.Context(), invoiceID, req.Reason); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "invoice not found")
			return
		}
		h.logger.Error("failed to resume escalation", "invoice_id", invoiceID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to resume escalation")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}

// TimelineHandler returns an invoice's audit history, newest first.
func (h *CollectionsHandlers) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			writeJSONError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	events, err := h.timeline.ListTimelineEvents(r.Context(), invoiceID, limit)
	if err != nil {
		h.logger.Error("failed to list timeline events", "invoice_id", invoiceID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list timeline events")
		return
	}
	if events == nil {
		events = []domain.TimelineEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"invoice_id": invoiceID,
		"events":     events,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
