package leads

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

// SessionRepository loads and saves qualification sessions.
type SessionRepository interface {
	Load(ctx context.Context, id string) (*qualification.Session, error)
	Save(ctx context.Context, s *qualification.Session) error
	List(ctx context.Context, filter ListFilter) ([]*qualification.Session, error)
}

// AppointmentRepository stores confirmed bookings.
type AppointmentRepository interface {
	RecordBooking(ctx context.Context, b qualification.Booking) error
	ListAppointments(ctx context.Context, limit int) ([]Appointment, error)
}

var (
	_ SessionRepository     = (*InMemoryRepository)(nil)
	_ AppointmentRepository = (*InMemoryRepository)(nil)
)

// InMemoryRepository keeps sessions and appointments in process memory. Sessions are stored
// encoded so callers never share pointers with the repository.
type InMemoryRepository struct {
	mu           sync.RWMutex
	sessions     map[string][]byte
	appointments []Appointment
	tickets      map[string]struct{}
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string][]byte),
		tickets:  make(map[string]struct{}),
	}
}

// Load returns a copy of the stored session.
func (r *InMemoryRepository) Load(ctx context.Context, id string) (*qualification.Session, error) {
	r.mu.RLock()
	data, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return DecodeSession(data)
}

// Save replaces the stored session. Last writer wins.
func (r *InMemoryRepository) Save(ctx context.Context, s *qualification.Session) error {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSessionID
	}
	data, err := EncodeSession(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.sessions[s.ID] = data
	r.mu.Unlock()
	return nil
}

// List returns sessions ordered by most recent activity.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*qualification.Session, error) {
	filter = filter.normalized()

	r.mu.RLock()
	all := make([]*qualification.Session, 0, len(r.sessions))
	for _, data := range r.sessions {
		s, err := DecodeSession(data)
		if err != nil {
			r.mu.RUnlock()
			return nil, err
		}
		if filter.RecruitingOnly && !s.IsRecruitingInquiry() {
			continue
		}
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].LastActiveAt.After(all[j].LastActiveAt)
	})
	if filter.Offset >= len(all) {
		return []*qualification.Session{}, nil
	}
	all = all[filter.Offset:]
	if len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}

// RecordBooking stores an appointment once per ticket.
func (r *InMemoryRepository) RecordBooking(ctx context.Context, b qualification.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[b.TicketNumber]; exists {
		return ErrAppointmentExists
	}
	r.tickets[b.TicketNumber] = struct{}{}
	r.appointments = append(r.appointments, appointmentFromBooking(uuid.NewString(), b))
	return nil
}

// ListAppointments returns the newest appointments first.
func (r *InMemoryRepository) ListAppointments(ctx context.Context, limit int) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Appointment, 0, len(r.appointments))
	for i := len(r.appointments) - 1; i >= 0; i-- {
		out = append(out, r.appointments[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
