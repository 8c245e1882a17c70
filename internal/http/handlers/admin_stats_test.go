package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thepaulgroup/lead-assistant/internal/observability/metrics"
)

func TestAdminStatsSummarizesTurnMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewTurnMetrics(reg)
	m.ObserveTurn("web", "ask_name", "advanced", time.Millisecond)
	m.ObserveTurn("sms", "ask_age", "advanced", time.Millisecond)
	m.ObserveTurn("sms", "ask_age", "retry", time.Millisecond)
	m.RecordBooking("web")
	m.RecordBooking("sms")
	m.RecordRecruiting("web")
	m.RecordFailure("crm_sync")

	rec := httptest.NewRecorder()
	NewAdminStatsHandler(reg, nil).Stats(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Turns["advanced"] != 2 || resp.Turns["retry"] != 1 {
		t.Fatalf("unexpected outcomes %v", resp.Turns)
	}
	if resp.TurnsByChannel["sms"] != 2 || resp.TurnsByChannel["web"] != 1 {
		t.Fatalf("unexpected channels %v", resp.TurnsByChannel)
	}
	if resp.Bookings != 2 || resp.RecruitingInquiry != 1 || resp.CollaboratorErrors["crm_sync"] != 1 {
		t.Fatalf("unexpected totals %+v", resp)
	}
}
