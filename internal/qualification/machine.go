package qualification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

const defaultCRMTimeout = 10 * time.Second

// Machine drives a session through the qualification stages. It is stateless between turns
// and safe for concurrent use across different sessions.
type Machine struct {
	faq        FAQ
	chat       ChatResponder
	crm        CRM
	bookings   BookingRecorder
	logger     *logging.Logger
	crmTimeout time.Duration
	newTicket  func() string
}

// Option configures a Machine.
type Option func(*Machine)

// WithFAQ consults f before falling back to general chat.
func WithFAQ(f FAQ) Option {
	return func(m *Machine) { m.faq = f }
}

// WithChat sets the general chat fallback.
func WithChat(c ChatResponder) Option {
	return func(m *Machine) { m.chat = c }
}

// WithCRM submits booked leads to c, bounding each call by timeout.
func WithCRM(c CRM, timeout time.Duration) Option {
	return func(m *Machine) {
		m.crm = c
		if timeout > 0 {
			m.crmTimeout = timeout
		}
	}
}

// WithBookings records confirmed appointments.
func WithBookings(b BookingRecorder) Option {
	return func(m *Machine) { m.bookings = b }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTicketGenerator overrides the ticket used when the CRM does not return a lead id.
func WithTicketGenerator(fn func() string) Option {
	return func(m *Machine) {
		if fn != nil {
			m.newTicket = fn
		}
	}
}

// NewMachine builds a Machine. Every collaborator is optional.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		logger:     logging.Default(),
		crmTimeout: defaultCRMTimeout,
		newTicket:  fallbackTicket,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func fallbackTicket() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// ProcessTurn applies one user message to s and returns the reply. s is updated in place:
// the stage always, the transcript only when the outcome commits.
func (m *Machine) ProcessTurn(ctx context.Context, s *Session, text string, now time.Time) (TurnOutcome, error) {
	if s == nil {
		return TurnOutcome{}, ErrNilSession
	}
	if !s.Stage.Valid() {
		return TurnOutcome{}, fmt.Errorf("%w: %q", ErrUnknownStage, s.Stage)
	}
	text = strings.TrimSpace(text)

	out, crmLeadID, err := m.step(ctx, s, text, now)
	if err != nil {
		return TurnOutcome{}, err
	}
	if s.Channel == ChannelSMS {
		out.Reply = plainText(out.Reply)
	}

	s.Stage = out.Stage
	s.LastActiveAt = now
	if out.CommitMessage {
		s.Commit(text, out.Reply, now)
	}

	if crmLeadID != "" && m.crm != nil {
		m.sendSummary(ctx, s, crmLeadID)
	}
	return out, nil
}

func (m *Machine) step(ctx context.Context, s *Session, text string, now time.Time) (TurnOutcome, string, error) {
	if !s.Stage.IsRecruiting() && DetectRecruitingInquiry(text) {
		m.logger.Info("recruiting inquiry detected", "session_id", s.ID, "from_stage", s.Stage)
		return enterRecruiting(text), "", nil
	}

	switch s.Stage {
	case StageRecruitingInquiry:
		return resolveLicensing(text), "", nil
	case StageRecruitingCompleted:
		return answerIn(StageRecruitingCompleted, RecruitingCompletedText), "", nil
	case StageInitialChat:
		return m.initialChat(ctx, s, text), "", nil
	case StageAskName:
		out, err := m.askName(s, text)
		return out, "", err
	case StageAskAge:
		out, err := m.askAge(s, text)
		return out, "", err
	case StageAskState:
		out, err := m.askState(s, text)
		return out, "", err
	case StageAskHealthConfirm:
		out, err := m.askHealthConfirm(s, text)
		return out, "", err
	case StageAskHealthDetails:
		out, err := m.askHealthDetails(s, text)
		return out, "", err
	case StageAskBudget:
		out, err := m.askBudget(s, text)
		return out, "", err
	case StageAskContactTime:
		out, err := m.askContactTime(s, text, now)
		return out, "", err
	case StageAskTimeSlot:
		out, err := m.askTimeSlot(s, text)
		return out, "", err
	case StageConfirmBooking:
		return m.confirmBooking(ctx, s, text, now)
	case StageCompleted:
		return answerIn(StageCompleted, PromptCompleted), "", nil
	}
	return TurnOutcome{}, "", fmt.Errorf("%w: %q", ErrUnknownStage, s.Stage)
}

func (m *Machine) initialChat(ctx context.Context, s *Session, text string) TurnOutcome {
	lower := strings.ToLower(text)
	if _, ok := greetings[strings.Trim(lower, "!.?, ")]; ok || containsAny(lower, startKeywords) {
		return advanceTo(StageAskName, PromptAskName)
	}

	reply := m.answerFreeText(ctx, s, text)
	if containsAny(strings.ToLower(reply), quoteReadyPhrases) {
		return advanceTo(StageAskName, PromptAskName)
	}
	return answerIn(StageInitialChat, reply)
}

// answerFreeText tries the FAQ dataset, then general chat. It never fails; a chat outage
// yields a fixed apology.
func (m *Machine) answerFreeText(ctx context.Context, s *Session, text string) string {
	if m.faq != nil {
		answer, ok, err := m.faq.Lookup(ctx, text)
		switch {
		case err != nil:
			m.logger.Warn("faq lookup failed", "session_id", s.ID, "error", err)
		case ok:
			return strings.TrimSpace(answer)
		}
	}

	if m.chat == nil {
		return ChatUnavailableReply
	}
	history := make([]Message, 0, len(s.History)+1)
	history = append(history, s.History...)
	history = append(history, Message{Sender: SenderUser, Text: text})

	reply, err := m.chat.Reply(ctx, history)
	if err != nil {
		m.logger.Error("general chat failed", "session_id", s.ID, "error", err)
		return ChatUnavailableReply
	}
	if strings.TrimSpace(reply) == "" {
		return ChatUnavailableReply
	}
	return reply
}

func (m *Machine) askName(s *Session, text string) (TurnOutcome, error) {
	if !ParseName(text) {
		return retryIn(StageAskName, RetryName), nil
	}
	if err := setOnce(&s.FullName, text, "full_name"); err != nil {
		return TurnOutcome{}, err
	}
	return advanceTo(StageAskAge, askAgePrompt(s)), nil
}

func (m *Machine) askAge(s *Session, text string) (TurnOutcome, error) {
	status, age := ParseAge(text)
	switch status {
	case AgeMissing:
		return retryIn(StageAskAge, RetryAgeMissing), nil
	case AgeOutOfRange:
		return retryIn(StageAskAge, RetryAgeRange), nil
	}
	if s.Age != nil {
		return TurnOutcome{}, fmt.Errorf("%w: age", ErrFieldAlreadySet)
	}
	s.Age = &age
	return advanceTo(StageAskState, PromptAskState), nil
}

func (m *Machine) askState(s *Session, text string) (TurnOutcome, error) {
	if text == "" {
		return retryIn(StageAskState, PromptAskState), nil
	}
	if err := setOnce(&s.StateOfResidence, text, "state_of_residence"); err != nil {
		return TurnOutcome{}, err
	}
	return advanceTo(StageAskHealthConfirm, PromptAskHealthConfirm), nil
}

func (m *Machine) askHealthConfirm(s *Session, text string) (TurnOutcome, error) {
	switch ParseYesNo(text) {
	case YesNoYes:
		if err := setOnce(&s.GeneralHealth, "Yes", "general_health"); err != nil {
			return TurnOutcome{}, err
		}
		return advanceTo(StageAskHealthDetails, PromptAskHealthDetails), nil
	case YesNoNo:
		if err := setOnce(&s.GeneralHealth, "No", "general_health"); err != nil {
			return TurnOutcome{}, err
		}
		if err := setHealthConditions(s, "None"); err != nil {
			return TurnOutcome{}, err
		}
		return advanceTo(StageAskBudget, PromptAskBudget), nil
	default:
		return retryIn(StageAskHealthConfirm, RetryHealthConfirm), nil
	}
}

func (m *Machine) askHealthDetails(s *Session, text string) (TurnOutcome, error) {
	if err := setHealthConditions(s, text); err != nil {
		return TurnOutcome{}, err
	}
	return advanceTo(StageAskBudget, PromptAskBudget), nil
}

func (m *Machine) askBudget(s *Session, text string) (TurnOutcome, error) {
	valid, formatted, amount := ParseBudget(text)
	if !valid {
		return retryIn(StageAskBudget, RetryBudget), nil
	}
	if s.Budget != nil {
		return TurnOutcome{}, fmt.Errorf("%w: budget", ErrFieldAlreadySet)
	}
	s.Budget = &Budget{Formatted: formatted, Amount: amount}
	return advanceTo(StageAskContactTime, fmt.Sprintf(promptBudgetNoted, formatted, PromptAskContactTime)), nil
}

func (m *Machine) askContactTime(s *Session, text string, now time.Time) (TurnOutcome, error) {
	if err := setOnce(&s.BestContactTime, text, "best_contact_time"); err != nil {
		return TurnOutcome{}, err
	}
	label, slots := GenerateSlots(text, now)
	s.AvailableSlots = slots
	return advanceTo(StageAskTimeSlot, fmt.Sprintf(promptSlotOffer, label, slotList(slots))), nil
}

func (m *Machine) askTimeSlot(s *Session, text string) (TurnOutcome, error) {
	if len(s.AvailableSlots) == 0 {
		return TurnOutcome{}, ErrMissingSlots
	}
	ok, selected := ParseSlotSelection(text, s.AvailableSlots)
	if !ok {
		return retryIn(StageAskTimeSlot, fmt.Sprintf(retrySlotTemplate, slotList(s.AvailableSlots))), nil
	}
	if err := setOnce(&s.SelectedTimeSlot, selected, "selected_time_slot"); err != nil {
		return TurnOutcome{}, err
	}
	return advanceTo(StageConfirmBooking, fmt.Sprintf(promptConfirmBooking, selected)), nil
}

func (m *Machine) confirmBooking(ctx context.Context, s *Session, text string, now time.Time) (TurnOutcome, string, error) {
	switch ParseYesNo(text) {
	case YesNoYes:
		return m.book(ctx, s, now)
	case YesNoNo:
		// The prospect picks again from the same offer.
		s.SelectedTimeSlot = ""
		return advanceTo(StageAskTimeSlot, fmt.Sprintf(promptReoffer, slotList(s.AvailableSlots))), "", nil
	default:
		return retryIn(StageConfirmBooking, RetryConfirmBooking), "", nil
	}
}

func (m *Machine) book(ctx context.Context, s *Session, now time.Time) (TurnOutcome, string, error) {
	if s.TicketNumber != "" {
		return TurnOutcome{}, "", fmt.Errorf("%w: ticket_number", ErrFieldAlreadySet)
	}

	leadID := m.notifyCRM(ctx, s)
	ticket := leadID
	if ticket == "" {
		ticket = m.newTicket()
	}
	s.TicketNumber = ticket

	if m.bookings != nil {
		booking := Booking{
			SessionID:    s.ID,
			Name:         s.FullName,
			State:        s.StateOfResidence,
			Slot:         s.SelectedTimeSlot,
			TicketNumber: ticket,
			BookedAt:     now,
		}
		if s.Age != nil {
			booking.Age = *s.Age
		}
		if err := m.bookings.RecordBooking(ctx, booking); err != nil {
			m.logger.Error("failed to record appointment", "session_id", s.ID, "ticket", ticket, "error", err)
		}
	}

	out := advanceTo(StageCompleted, fmt.Sprintf(promptBooked, ticket, s.SelectedTimeSlot))
	out.Booked = true
	out.TicketNumber = ticket
	return out, leadID, nil
}

// notifyCRM submits the lead and returns the CRM's lead id, or "" when unavailable.
func (m *Machine) notifyCRM(ctx context.Context, s *Session) string {
	if m.crm == nil {
		return ""
	}
	callCtx, cancel := context.WithTimeout(ctx, m.crmTimeout)
	defer cancel()

	res, err := m.crm.NotifyLead(callCtx, s)
	if err != nil {
		m.logger.Warn("crm notify failed, using local ticket", "session_id", s.ID, "error", err)
		return ""
	}
	return strings.TrimSpace(res.LeadID)
}

func (m *Machine) sendSummary(ctx context.Context, s *Session, leadID string) {
	callCtx, cancel := context.WithTimeout(ctx, m.crmTimeout)
	defer cancel()
	if err := m.crm.SendChatSummary(callCtx, leadID, s.History); err != nil {
		m.logger.Warn("crm chat summary failed", "session_id", s.ID, "lead_id", leadID, "error", err)
	}
}

func setOnce(field *string, value, name string) error {
	if *field != "" {
		return fmt.Errorf("%w: %s", ErrFieldAlreadySet, name)
	}
	*field = value
	return nil
}

func setHealthConditions(s *Session, value string) error {
	if s.HealthConditions != nil {
		return fmt.Errorf("%w: health_conditions", ErrFieldAlreadySet)
	}
	s.HealthConditions = &value
	return nil
}
