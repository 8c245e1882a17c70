package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

type stubSMS struct {
	to, body string
	err      error
}

func (s *stubSMS) SendSMS(_ context.Context, to, body string) error {
	s.to, s.body = to, body
	return s.err
}

type recordingEmail struct {
	mu   sync.Mutex
	sent []EmailMessage
}

func (r *recordingEmail) Send(_ context.Context, msg EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingEmail) Sent() []EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EmailMessage(nil), r.sent...)
}

func bookedSession() *qualification.Session {
	s := qualification.NewSession("web-1", qualification.ChannelWeb, time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC))
	age := 70
	s.FullName = "John Carter"
	s.Age = &age
	s.StateOfResidence = "Texas"
	s.Budget = &qualification.Budget{Formatted: "$75/month", Amount: 75}
	s.SelectedTimeSlot = "Tuesday, January 07 at 9:00 AM"
	s.TicketNumber = "AB12CD34"
	return s
}

func TestNotifyBookingSendsEmailAndSMS(t *testing.T) {
	email := &recordingEmail{}
	sms := &stubSMS{}
	n := NewBookingNotifier(BookingNotifierConfig{
		Email: email, AlertEmail: "agents@example.com",
		SMS: sms, AlertPhone: "+15550009999",
	})

	if err := n.NotifyBooking(context.Background(), bookedSession()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	sent := email.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sent))
	}
	if !strings.Contains(sent[0].Subject, "AB12CD34") || sent[0].To != "agents@example.com" {
		t.Fatalf("unexpected email %+v", sent[0])
	}
	for _, want := range []string{"Name: John Carter", "Age: 70", "State: Texas", "Budget: $75/month", "Appointment: Tuesday"} {
		if !strings.Contains(sent[0].Body, want) {
			t.Fatalf("email body missing %q:\n%s", want, sent[0].Body)
		}
	}
	if sms.to != "+15550009999" || !strings.Contains(sms.body, "AB12CD34") {
		t.Fatalf("unexpected sms to=%s body=%s", sms.to, sms.body)
	}
}

func TestNotifyBookingSkipsUnconfiguredChannels(t *testing.T) {
	email := &recordingEmail{}
	n := NewBookingNotifier(BookingNotifierConfig{Email: email})
	if err := n.NotifyBooking(context.Background(), bookedSession()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(email.Sent()) != 0 {
		t.Fatalf("expected no email without an alert address")
	}
}

func TestNotifyBookingJoinsErrors(t *testing.T) {
	boom := errors.New("twilio down")
	n := NewBookingNotifier(BookingNotifierConfig{SMS: &stubSMS{err: boom}, AlertPhone: "+15550009999"})
	if err := n.NotifyBooking(context.Background(), bookedSession()); !errors.Is(err, boom) {
		t.Fatalf("expected sms error, got %v", err)
	}
	if err := n.NotifyBooking(context.Background(), nil); !errors.Is(err, qualification.ErrNilSession) {
		t.Fatalf("expected ErrNilSession, got %v", err)
	}
}
