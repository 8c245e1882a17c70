package leads

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

// SchemaVersion is written with every stored session.
//
//	1: flat lead rows imported from the first release (budget as a display string)
//	2: qualification.Session with structured budget and channel
const SchemaVersion = 2

type sessionRecord struct {
	SchemaVersion int `json:"schema_version"`
	*qualification.Session
}

type legacyMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type legacyLead struct {
	ID                  string          `json:"id"`
	QualificationStage  string          `json:"qualification_stage"`
	FullName            string          `json:"full_name"`
	Age                 *int            `json:"age"`
	StateOfResidence    string          `json:"state_of_residence"`
	GeneralHealth       string          `json:"general_health"`
	HealthConditions    *string         `json:"health_conditions"`
	BudgetRange         string          `json:"budget_range"`
	BestContactTime     string          `json:"best_contact_time"`
	AvailableSlots      []string        `json:"available_slots"`
	SelectedTimeSlot    string          `json:"selected_time_slot"`
	TicketNumber        string          `json:"ticket_number"`
	PhoneNumber         string          `json:"phone_number"`
	ConversationHistory []legacyMessage `json:"conversation_history"`
	LastActiveTimestamp time.Time       `json:"last_active_timestamp"`
}

// EncodeSession serializes s with the current schema version.
func EncodeSession(s *qualification.Session) ([]byte, error) {
	data, err := json.Marshal(sessionRecord{SchemaVersion: SchemaVersion, Session: s})
	if err != nil {
		return nil, fmt.Errorf("leads: encode session: %w", err)
	}
	return data, nil
}

// DecodeSession reads any supported schema version and upgrades it to the current layout.
func DecodeSession(data []byte) (*qualification.Session, error) {
	var header struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("leads: decode session header: %w", err)
	}

	switch header.SchemaVersion {
	case 0, 1:
		var legacy legacyLead
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("leads: decode legacy session: %w", err)
		}
		return upgradeLegacy(legacy), nil
	case SchemaVersion:
		rec := sessionRecord{Session: &qualification.Session{}}
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("leads: decode session: %w", err)
		}
		if rec.History == nil {
			rec.History = []qualification.Message{}
		}
		return rec.Session, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, header.SchemaVersion)
	}
}

func upgradeLegacy(l legacyLead) *qualification.Session {
	channel := qualification.ChannelWeb
	if strings.HasPrefix(l.ID, "+") || l.PhoneNumber != "" {
		channel = qualification.ChannelSMS
	}
	stage := qualification.Stage(l.QualificationStage)
	if stage == "" {
		stage = qualification.StageInitialChat
	}

	s := &qualification.Session{
		ID:               l.ID,
		Channel:          channel,
		Stage:            stage,
		FullName:         l.FullName,
		Age:              l.Age,
		StateOfResidence: l.StateOfResidence,
		GeneralHealth:    l.GeneralHealth,
		HealthConditions: l.HealthConditions,
		BestContactTime:  l.BestContactTime,
		AvailableSlots:   l.AvailableSlots,
		SelectedTimeSlot: l.SelectedTimeSlot,
		TicketNumber:     l.TicketNumber,
		PhoneNumber:      l.PhoneNumber,
		History:          make([]qualification.Message, 0, len(l.ConversationHistory)),
		CreatedAt:        l.LastActiveTimestamp,
		LastActiveAt:     l.LastActiveTimestamp,
	}
	if l.BudgetRange != "" {
		_, _, amount := qualification.ParseBudget(l.BudgetRange)
		s.Budget = &qualification.Budget{Formatted: l.BudgetRange, Amount: amount}
	}
	for _, m := range l.ConversationHistory {
		s.History = append(s.History, qualification.Message{
			Sender:    qualification.Sender(m.Sender),
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	return s
}
