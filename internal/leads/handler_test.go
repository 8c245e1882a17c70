package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

func seededHandler(t *testing.T) (*Handler, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	customer := qualification.NewSession("anon_customer", qualification.ChannelWeb, now)
	customer.FullName = "John Doe"
	recruit := qualification.NewSession("+15550002222", qualification.ChannelSMS, now)
	recruit.Stage = qualification.StageRecruitingCompleted
	for _, s := range []*qualification.Session{customer, recruit} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := repo.RecordBooking(ctx, qualification.Booking{SessionID: "anon_customer", TicketNumber: "T-9", BookedAt: now}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return NewHandler(repo, repo, logging.Default()), repo
}

func TestListLeads(t *testing.T) {
	handler, _ := seededHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/leads?limit=10", nil)
	w := httptest.NewRecorder()

	handler.ListLeads(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 || resp.Limit != 10 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestListRecruitingLeads(t *testing.T) {
	handler, _ := seededHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/leads/recruiting", nil)
	w := httptest.NewRecorder()

	handler.ListRecruitingLeads(w, req)

	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Leads[0].ID != "+15550002222" {
		t.Fatalf("expected only the recruiting lead, got %+v", resp)
	}
}

func TestGetLead(t *testing.T) {
	handler, _ := seededHandler(t)
	r := chi.NewRouter()
	r.Get("/admin/leads/{id}", handler.GetLead)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/leads/anon_customer", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var s qualification.Session
	if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.FullName != "John Doe" {
		t.Fatalf("unexpected lead %+v", s)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/leads/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListAppointments(t *testing.T) {
	handler, _ := seededHandler(t)
	w := httptest.NewRecorder()
	handler.ListAppointments(w, httptest.NewRequest(http.MethodGet, "/admin/appointments", nil))

	var resp struct {
		Appointments []Appointment `json:"appointments"`
		Count        int           `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Appointments[0].TicketNumber != "T-9" {
		t.Fatalf("unexpected appointments %+v", resp)
	}
}
