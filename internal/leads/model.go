package leads

import (
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

// Appointment is the booking created when a prospect confirms a slot. It is never updated.
type Appointment struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	State        string    `json:"state"`
	BookingSlot  string    `json:"booking_slot"`
	TicketNumber string    `json:"ticket_number"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

func appointmentFromBooking(id string, b qualification.Booking) Appointment {
	return Appointment{
		ID:           id,
		SessionID:    b.SessionID,
		Name:         b.Name,
		Age:          b.Age,
		State:        b.State,
		BookingSlot:  b.Slot,
		TicketNumber: b.TicketNumber,
		Confirmed:    true,
		CreatedAt:    b.BookedAt.UTC(),
	}
}

// ListFilter narrows admin session listings.
type ListFilter struct {
	RecruitingOnly bool
	Limit          int
	Offset         int
}

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
