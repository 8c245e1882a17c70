package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// Handler serves the admin views over sessions and appointments.
type Handler struct {
	sessions     SessionRepository
	appointments AppointmentRepository
	logger       *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(sessions SessionRepository, appointments AppointmentRepository, logger *logging.Logger) *Handler {
	if sessions == nil || appointments == nil {
		panic("leads: handler requires session and appointment repositories")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sessions:     sessions,
		appointments: appointments,
		logger:       logger,
	}
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*qualification.Session `json:"leads"`
	Count  int                      `json:"count"`
	Offset int                      `json:"offset"`
	Limit  int                      `json:"limit"`
}

// ListLeads handles GET /admin/leads
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListRecruitingLeads handles GET /admin/leads/recruiting
func (h *Handler) ListRecruitingLeads(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, recruiting bool) {
	filter := ListFilter{Limit: 50, RecruitingOnly: recruiting}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	sessions, err := h.sessions.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "recruiting", recruiting)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:  sessions,
		Count:  len(sessions),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

// GetLead handles GET /admin/leads/{id}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	s, err := h.sessions.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load lead", "error", err)
		http.Error(w, "failed to load lead", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListAppointments handles GET /admin/appointments
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			limit = v
		}
	}
	appts, err := h.appointments.ListAppointments(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appointments": appts,
		"count":        len(appts),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
