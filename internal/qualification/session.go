package qualification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Channel identifies the transport a session arrived on.
type Channel string

const (
	ChannelWeb Channel = "web"
	ChannelSMS Channel = "sms"
)

// Sender identifies who wrote a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one transcript entry.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Budget is the monthly premium budget the prospect is comfortable with.
type Budget struct {
	Formatted string  `json:"formatted"`
	Amount    float64 `json:"amount"`
}

// Session is one prospect's conversation and collected profile.
type Session struct {
	ID               string    `json:"id"`
	Channel          Channel   `json:"channel"`
	Stage            Stage     `json:"stage"`
	FullName         string    `json:"full_name,omitempty"`
	Age              *int      `json:"age,omitempty"`
	StateOfResidence string    `json:"state_of_residence,omitempty"`
	GeneralHealth    string    `json:"general_health,omitempty"`
	HealthConditions *string   `json:"health_conditions,omitempty"`
	Budget           *Budget   `json:"budget,omitempty"`
	BestContactTime  string    `json:"best_contact_time,omitempty"`
	AvailableSlots   []string  `json:"available_slots,omitempty"`
	SelectedTimeSlot string    `json:"selected_time_slot,omitempty"`
	TicketNumber     string    `json:"ticket_number,omitempty"`
	PhoneNumber      string    `json:"phone_number,omitempty"`
	History          []Message `json:"conversation_history"`
	CreatedAt        time.Time `json:"created_at"`
	LastActiveAt     time.Time `json:"last_active_at"`
}

// NewSession starts a conversation at initial_chat.
func NewSession(id string, channel Channel, now time.Time) *Session {
	s := &Session{
		ID:           id,
		Channel:      channel,
		Stage:        StageInitialChat,
		History:      []Message{},
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if channel == ChannelSMS {
		s.PhoneNumber = id
	}
	return s
}

// NewAnonymousID returns an id for a web visitor that did not supply one.
func NewAnonymousID(now time.Time) string {
	return fmt.Sprintf("anon_%d_%s", now.Unix(), uuid.NewString()[:8])
}

// Commit appends the user message and the bot reply to the transcript.
func (s *Session) Commit(userText, botText string, now time.Time) {
	s.History = append(s.History,
		Message{Sender: SenderUser, Text: userText, Timestamp: now},
		Message{Sender: SenderBot, Text: botText, Timestamp: now},
	)
}

// IsRecruitingInquiry reports whether the prospect has asked about joining the sales team.
func (s *Session) IsRecruitingInquiry() bool {
	if s.Stage.IsRecruiting() {
		return true
	}
	for _, msg := range s.History {
		if msg.Sender == SenderUser && DetectRecruitingInquiry(msg.Text) {
			return true
		}
	}
	return false
}

// FirstName returns the first word of FullName, or "there" when no name is known.
func (s *Session) FirstName() string {
	fields := strings.Fields(s.FullName)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

// Clone returns a deep copy so callers can compare before and after a turn.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Age != nil {
		age := *s.Age
		c.Age = &age
	}
	if s.HealthConditions != nil {
		hc := *s.HealthConditions
		c.HealthConditions = &hc
	}
	if s.Budget != nil {
		b := *s.Budget
		c.Budget = &b
	}
	c.AvailableSlots = append([]string(nil), s.AvailableSlots...)
	c.History = append([]Message{}, s.History...)
	return &c
}
