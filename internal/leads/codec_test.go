package leads

import (
	"errors"
	"testing"
	"time"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

func TestEncodeDecodeCurrentSchema(t *testing.T) {
	now := time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)
	s := qualification.NewSession("anon_1", qualification.ChannelWeb, now)
	age := 70
	s.Stage = qualification.StageAskBudget
	s.Age = &age
	s.FullName = "Ruth Ward"
	s.Commit("hi", qualification.PromptAskName, now)

	data, err := EncodeSession(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSession(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != s.ID || got.Stage != s.Stage || got.FullName != s.FullName || *got.Age != 70 {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	if len(got.History) != 2 {
		t.Fatalf("expected history preserved, got %d", len(got.History))
	}
}

func TestDecodeUpgradesLegacyLead(t *testing.T) {
	legacy := []byte(`{
		"id": "+15551234567",
		"qualification_stage": "ask_contact_time",
		"full_name": "Ann Lee",
		"age": 66,
		"state_of_residence": "Utah",
		"general_health": "No",
		"health_conditions": "None",
		"budget_range": "$75/month",
		"phone_number": "+15551234567",
		"conversation_history": [{"sender": "user", "text": "hello", "timestamp": "2024-05-01T10:00:00Z"}],
		"last_active_timestamp": "2024-05-01T10:05:00Z"
	}`)

	s, err := DecodeSession(legacy)
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if s.Channel != qualification.ChannelSMS {
		t.Fatalf("expected sms channel, got %s", s.Channel)
	}
	if s.Stage != qualification.StageAskContactTime {
		t.Fatalf("unexpected stage %s", s.Stage)
	}
	if s.Budget == nil || s.Budget.Formatted != "$75/month" || s.Budget.Amount != 75 {
		t.Fatalf("expected parsed budget, got %+v", s.Budget)
	}
	if len(s.History) != 1 || s.History[0].Sender != qualification.SenderUser {
		t.Fatalf("unexpected history %+v", s.History)
	}
}

func TestDecodeRejectsFutureSchema(t *testing.T) {
	_, err := DecodeSession([]byte(`{"schema_version": 99, "id": "x"}`))
	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("expected ErrUnsupportedSchema, got %v", err)
	}
}
