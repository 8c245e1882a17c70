package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// SMSSender sends a text message to an operator phone.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// BookingNotifier alerts the agency inbox and, optionally, an agent phone when a lead books.
type BookingNotifier struct {
	email      EmailSender
	alertEmail string
	sms        SMSSender
	alertPhone string
	logger     *logging.Logger
}

type BookingNotifierConfig struct {
	Email      EmailSender
	AlertEmail string
	SMS        SMSSender
	AlertPhone string
	Logger     *logging.Logger
}

func NewBookingNotifier(cfg BookingNotifierConfig) *BookingNotifier {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &BookingNotifier{
		email:      cfg.Email,
		alertEmail: strings.TrimSpace(cfg.AlertEmail),
		sms:        cfg.SMS,
		alertPhone: strings.TrimSpace(cfg.AlertPhone),
		logger:     cfg.Logger,
	}
}

// NotifyBooking sends both alerts that are configured. Errors from each channel are joined.
func (n *BookingNotifier) NotifyBooking(ctx context.Context, s *qualification.Session) error {
	if s == nil {
		return qualification.ErrNilSession
	}
	var errs []error

	if n.email != nil && n.alertEmail != "" {
		err := n.email.Send(ctx, EmailMessage{
			To:      n.alertEmail,
			Subject: bookingSubject(s),
			Body:    bookingBody(s),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("notify: booking email: %w", err))
		}
	}
	if n.sms != nil && n.alertPhone != "" {
		if err := n.sms.SendSMS(ctx, n.alertPhone, bookingSMS(s)); err != nil {
			errs = append(errs, fmt.Errorf("notify: booking sms: %w", err))
		}
	}

	if len(errs) == 0 {
		n.logger.Info("booking alert sent", "ticket", s.TicketNumber)
	}
	return errors.Join(errs...)
}

func bookingSubject(s *qualification.Session) string {
	return fmt.Sprintf("New appointment booked: %s (ticket %s)", displayName(s), s.TicketNumber)
}

func bookingBody(s *qualification.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A new lead booked a call with a licensed agent.\n\n")
	fmt.Fprintf(&b, "Ticket: %s\n", s.TicketNumber)
	fmt.Fprintf(&b, "Name: %s\n", displayName(s))
	if s.Age != nil {
		fmt.Fprintf(&b, "Age: %d\n", *s.Age)
	}
	writeIf(&b, "State", s.StateOfResidence)
	writeIf(&b, "General health", s.GeneralHealth)
	if s.HealthConditions != nil {
		writeIf(&b, "Health conditions", *s.HealthConditions)
	}
	if s.Budget != nil {
		writeIf(&b, "Budget", s.Budget.Formatted)
	}
	writeIf(&b, "Best contact time", s.BestContactTime)
	writeIf(&b, "Appointment", s.SelectedTimeSlot)
	writeIf(&b, "Phone", s.PhoneNumber)
	fmt.Fprintf(&b, "Channel: %s\n", s.Channel)
	return b.String()
}

func bookingSMS(s *qualification.Session) string {
	return fmt.Sprintf("New booking %s: %s, %s", s.TicketNumber, displayName(s), s.SelectedTimeSlot)
}

func displayName(s *qualification.Session) string {
	if name := strings.TrimSpace(s.FullName); name != "" {
		return name
	}
	return "Unknown"
}

func writeIf(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}
