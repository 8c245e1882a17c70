package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/leads"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// SessionStore is the part of the lead repository a turn needs.
type SessionStore interface {
	Load(ctx context.Context, id string) (*qualification.Session, error)
	Save(ctx context.Context, s *qualification.Session) error
}

// SyncPublisher queues a CRM sync for a session whose profile just grew.
type SyncPublisher interface {
	PublishSync(ctx context.Context, sessionID string, stage qualification.Stage) error
}

// BookingNotifier alerts the agency after an appointment is confirmed.
type BookingNotifier interface {
	NotifyBooking(ctx context.Context, s *qualification.Session) error
}

// TurnObserver records turn metrics.
type TurnObserver interface {
	ObserveTurn(channel, stage, outcome string, elapsed time.Duration)
	RecordBooking(channel string)
	RecordRecruiting(channel string)
	RecordFailure(component string)
}

// syncStages are the stages whose arrival means the lead profile gained data worth pushing.
// completed_qualification is absent: the booking turn already posts the lead to the CRM.
var syncStages = map[qualification.Stage]bool{
	qualification.StageAskAge:         true,
	qualification.StageAskState:       true,
	qualification.StageAskContactTime: true,
	qualification.StageConfirmBooking: true,
}

// Request is one inbound user message.
type Request struct {
	SessionID string
	Channel   qualification.Channel
	Text      string
}

// Response is what the transport sends back.
type Response struct {
	Reply        string
	Stage        qualification.Stage
	TicketNumber string
	Booked       bool
	Session      *qualification.Session
}

// Service runs one qualification turn per inbound message and persists the result.
type Service struct {
	sessions    SessionStore
	machine     *qualification.Machine
	transcripts TranscriptRecorder
	publisher   SyncPublisher
	notifier    BookingNotifier
	observer    TurnObserver
	logger      *logging.Logger
	now         func() time.Time
	locks       sessionLocks
}

type ServiceOption func(*Service)

func WithTranscripts(t TranscriptRecorder) ServiceOption {
	return func(s *Service) { s.transcripts = t }
}

func WithSyncPublisher(p SyncPublisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

func WithBookingNotifier(n BookingNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func WithObserver(o TurnObserver) ServiceOption {
	return func(s *Service) { s.observer = o }
}

func WithLogger(l *logging.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(sessions SessionStore, machine *qualification.Machine, opts ...ServiceOption) *Service {
	if sessions == nil {
		panic("conversation: session store cannot be nil")
	}
	if machine == nil {
		panic("conversation: qualification machine cannot be nil")
	}
	s := &Service{
		sessions: sessions,
		machine:  machine,
		logger:   logging.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond loads or creates the session, runs the turn, and saves the session. Turns for the
// same session id are serialized; transcript, sync and alert calls run after the session is
// released.
func (s *Service) Respond(ctx context.Context, req Request) (*Response, error) {
	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		return nil, ErrSessionIDRequired
	}
	start := s.now()

	session, outcome, err := s.runTurn(ctx, id, req, start)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithSession(id, string(session.Channel))
	if outcome.CommitMessage {
		s.appendTranscript(ctx, log, session)
	}
	s.observeOutcome(session.Channel, outcome, start)

	if outcome.CommitMessage && outcome.Advanced && syncStages[outcome.Stage] && s.publisher != nil {
		if err := s.publisher.PublishSync(ctx, id, outcome.Stage); err != nil {
			s.recordFailure("crm_sync")
			log.Warn("crm sync publish failed", "stage", outcome.Stage, "error", err)
		}
	}
	if outcome.Booked && s.notifier != nil {
		if err := s.notifier.NotifyBooking(ctx, session); err != nil {
			s.recordFailure("booking_notify")
			log.Warn("booking notification failed", "ticket", outcome.TicketNumber, "error", err)
		}
	}

	log.Info("turn processed", "stage", outcome.Stage, "advanced", outcome.Advanced, "retry", outcome.Retry())
	return &Response{
		Reply:        outcome.Reply,
		Stage:        outcome.Stage,
		TicketNumber: outcome.TicketNumber,
		Booked:       outcome.Booked,
		Session:      session,
	}, nil
}

// runTurn holds the session lock for load, process and save only. It returns a snapshot of
// the saved session.
func (s *Service) runTurn(ctx context.Context, id string, req Request, start time.Time) (*qualification.Session, qualification.TurnOutcome, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	session, err := s.sessions.Load(ctx, id)
	switch {
	case errors.Is(err, leads.ErrSessionNotFound):
		session = qualification.NewSession(id, req.Channel, start)
	case err != nil:
		s.recordFailure("session_load")
		return nil, qualification.TurnOutcome{}, &TurnError{Err: fmt.Errorf("conversation: load session: %w", err)}
	}

	before := session.Stage
	outcome, err := s.machine.ProcessTurn(ctx, session, req.Text, start)
	if err != nil {
		s.logger.WithSession(id, string(session.Channel)).Error("turn failed", "stage", before, "error", err)
		s.observe(session.Channel, before, "error", start)
		return nil, qualification.TurnOutcome{}, &TurnError{Stage: before, Err: fmt.Errorf("conversation: process turn: %w", err)}
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		s.recordFailure("session_save")
		return nil, qualification.TurnOutcome{}, &TurnError{Stage: before, Err: fmt.Errorf("conversation: save session: %w", err)}
	}
	return session.Clone(), outcome, nil
}

func (s *Service) appendTranscript(ctx context.Context, log *logging.Logger, session *qualification.Session) {
	if s.transcripts == nil || len(session.History) < 2 {
		return
	}
	tail := session.History[len(session.History)-2:]
	if err := s.transcripts.Append(ctx, session.ID, session.Channel, tail...); err != nil {
		s.recordFailure("transcript")
		log.Warn("transcript append failed", "error", err)
	}
}

func (s *Service) observeOutcome(channel qualification.Channel, o qualification.TurnOutcome, start time.Time) {
	result := "answered"
	switch {
	case o.Retry():
		result = "retry"
	case o.Advanced:
		result = "advanced"
	}
	s.observe(channel, o.Stage, result, start)
	if s.observer == nil {
		return
	}
	if o.Booked {
		s.observer.RecordBooking(string(channel))
	}
	if o.RecruitingDetected {
		s.observer.RecordRecruiting(string(channel))
	}
}

func (s *Service) observe(channel qualification.Channel, stage qualification.Stage, result string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveTurn(string(channel), string(stage), result, s.now().Sub(start))
	}
}

func (s *Service) recordFailure(component string) {
	if s.observer != nil {
		s.observer.RecordFailure(component)
	}
}
