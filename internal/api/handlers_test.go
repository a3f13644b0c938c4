package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/recoup/collections-service/internal/app"
	"github.com/recoup/collections-service/internal/domain"
	"github.com/recoup/collections-service/internal/store"
)

const testAPIKey = "test-internal-key"

type engineStub struct {
	runSummary   *domain.RunSummary
	runErr       error
	pauseErr     error
	pauseSkipped bool
	resumeErr    error

	pausedInvoice  string
	pausedReason   domain.PauseReason
	pausedUntil    *time.Time
	resumedInvoice string
	resumedReason  string
}

func (s *engineStub) Run(ctx context.Context) (*domain.RunSummary, error) {
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.runSummary, nil
}

func (s *engineStub) PauseEscalation(ctx context.Context, invoiceID string, reason domain.PauseReason, until *time.Time) (bool, error) {
	s.pausedInvoice = invoiceID
	s.pausedReason = reason
	s.pausedUntil = until
	if s.pauseErr != nil {
		return false, s.pauseErr
	}
	return !s.pauseSkipped, nil
}

func (s *engineStub) ResumeEscalation(ctx context.Context, invoiceID string, reason string) error {
	s.resumedInvoice = invoiceID
	s.resumedReason = reason
	return s.resumeErr
}

type timelineStub struct {
	events []domain.TimelineEvent
	err    error
	limit  int
}

func (s *timelineStub) ListTimelineEvents(ctx context.Context, invoiceID string, limit int) ([]domain.TimelineEvent, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func newTestRouter(engine *engineStub, timeline *timelineStub) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewCollectionsHandlers(engine, timeline, logger)
	return CollectionsRoutes(h, testAPIKey)
}

func doRequest(t *testing.T, router http.Handler, method, path, body, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		req.Header.Set("X-Internal-API-Key", apiKey)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRunHandler_ReturnsSummary(t *testing.T) {
	engine := &engineStub{runSummary: &domain.RunSummary{
		RunID:          "run1",
		ScannedCount:   3,
		EscalatedCount: 2,
		SkippedCount:   1,
	}}
	router := newTestRouter(engine, &timelineStub{})

	rr := doRequest(t, router, http.MethodPost, "/internal/collections/run", "", testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var summary domain.RunSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.ScannedCount != 3 || summary.EscalatedCount != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunHandler_ConflictWhenRunInProgress(t *testing.T) {
	engine := &engineStub{runErr: app.ErrRunInProgress}
	router := newTestRouter(engine, &timelineStub{})

	rr := doRequest(t, router, http.MethodPost, "/internal/collections/run", "", testAPIKey)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRunHandler_InternalErrorOnFailure(t *testing.T) {
	engine := &engineStub{runErr: errors.New("database unavailable")}
	router := newTestRouter(engine, &timelineStub{})

	rr := doRequest(t, router, http.MethodPost, "/internal/collections/run", "", testAPIKey)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestInternalAuth_RejectsMissingOrWrongKey(t *testing.T) {
	router := newTestRouter(&engineStub{}, &timelineStub{})

	rr := doRequest(t, router, http.MethodPost, "/internal/collections/run", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rr.Code)
	}

	rr = doRequest(t, router, http.MethodPost, "/internal/collections/run", "", "wrong-key")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rr.Code)
	}
}

func TestInternalAuth_HealthCheckIsPublic(t *testing.T) {
	router := newTestRouter(&engineStub{}, &timelineStub{})

	rr := doRequest(t, router, http.MethodGet, "/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected public health check, got %d", rr.Code)
	}
}

func TestPauseHandler_PausesInvoice(t *testing.T) {
	engine := &engineStub{}
	router := newTestRouter(engine, &timelineStub{})

	body := `{"reason": "payment_claim", "until": "2026-09-15T00:00:00Z"}`
	rr := doRequest(t, router, http.MethodPost, "/internal/collections/inv1/pause", body, testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if engine.pausedInvoice != "inv1" || engine.pausedReason != domain.PauseReasonPaymentClaim {
		t.Fatalf("unexpected pause call: invoice %q reason %q", engine.pausedInvoice, engine.pausedReason)
	}
	if engine.pausedUntil == nil {
		t.Fatal("expected until to be forwarded")
	}
}

func TestPauseHandler_ReportsSkippedPause(t *testing.T) {
	engine := &engineStub{pauseSkipped: true}
	router := newTestRouter(engine, &timelineStub{})

	rr := doRequest(t, router, http.MethodPost, "/internal/collections/inv1/pause", `{"reason": "dispute"}`, testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"skipped"`) {
		t.Fatalf("expected skipped status, got %s", rr.Body.String())
	}
}

func TestPauseHandler_RejectsInvalidReason(t *testing.T) {
	router := newTestRouter(&engineStub{}, &timelineStub{})

	rr := doRequest(t, router, http.MethodPost, "/internal/collections/inv1/pause", `{"reason": "vacation"}`, testAPIKey)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown reason, got %d", rr.Code)
	}
}

func TestPauseHandler_RejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(&engineStub{}, &timelineStub{})

	rr := doRequest(t, router, http.MethodPost, "/internal/collections/inv1/pause", `{not json`, testAPIKey)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rr.Code)
	}
}

func TestPauseHandler_UnknownInvoice(t *testing.T) {
	engine := &engineStub{pauseErr: store.ErrNotFound}
	router := newTestRouter(engine, &timelineStub{})

	rr := doRequest(t, router, http.MethodPost, "/internal/collections/missing/pause", `{"reason": "manual"}`, testAPIKey)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestResumeHandler_ResumesInvoice(t *testing.T) {
	engine := &engineStub{}
	router := newTestRouter(engine, &timelineStub{})

	rr := doRequest(t, router, http.MethodPost, "/internal/collections/inv1/resume", `{"reason": "dispute resolved"}`, testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if engine.resumedInvoice != "inv1" || engine.resumedReason != "dispute resolved" {
		t.Fatalf("unexpected resume call: invoice %q reason %q", engine.resumedInvoice, engine.resumedReason)
	}
}

func TestTimelineHandler_ReturnsEvents(t *testing.T) {
	timeline := &timelineStub{events: []domain.TimelineEvent{
		{ID: "evt1", InvoiceID: "inv1", EventType: domain.EventEscalated},
		{ID: "evt2", InvoiceID: "inv1", EventType: domain.EventReminderSent},
	}}
	router := newTestRouter(&engineStub{}, timeline)

	rr := doRequest(t, router, http.MethodGet, "/internal/collections/inv1/timeline?limit=10", "", testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if timeline.limit != 10 {
		t.Fatalf("expected limit 10 to be forwarded, got %d", timeline.limit)
	}

	var resp struct {
		InvoiceID string                 `json:"invoice_id"`
		Events    []domain.TimelineEvent `json:"events"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.InvoiceID != "inv1" || len(resp.Events) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTimelineHandler_RejectsOutOfRangeLimit(t *testing.T) {
	router := newTestRouter(&engineStub{}, &timelineStub{})

	for _, raw := range []string{"0", "-5", "501", "abc"} {
		rr := doRequest(t, router, http.MethodGet, "/internal/collections/inv1/timeline?limit="+raw, "", testAPIKey)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit %q: expected 400, got %d", raw, rr.Code)
		}
	}
}

func TestTimelineHandler_EmptyHistoryIsAnEmptyList(t *testing.T) {
	router := newTestRouter(&engineStub{}, &timelineStub{})

	rr := doRequest(t, router, http.MethodGet, "/internal/collections/inv1/timeline", "", testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"events":[]`) {
		t.Fatalf("expected empty events array, got %s", rr.Body.String())
	}
}
