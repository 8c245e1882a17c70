package qualification

import (
	"context"
	"time"
)

// FAQ answers a question from the active FAQ dataset. ok is false when nothing is close enough.
type FAQ interface {
	Lookup(ctx context.Context, question string) (answer string, ok bool, err error)
}

// ChatResponder produces a free-text reply for the conversation so far.
type ChatResponder interface {
	Reply(ctx context.Context, history []Message) (string, error)
}

// CRMResult is what the CRM returns for a submitted lead.
type CRMResult struct {
	LeadID string
}

// CRM receives qualified leads.
type CRM interface {
	NotifyLead(ctx context.Context, s *Session) (CRMResult, error)
	SendChatSummary(ctx context.Context, leadID string, history []Message) error
}

// Booking is the appointment confirmed at the end of qualification.
type Booking struct {
	SessionID    string
	Name         string
	Age          int
	State        string
	Slot         string
	TicketNumber string
	BookedAt     time.Time
}

// BookingRecorder persists confirmed appointments.
type BookingRecorder interface {
	RecordBooking(ctx context.Context, b Booking) error
}
