package conversation

import (
	"context"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is a provider-neutral chat turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is one completion call. A negative Temperature leaves the provider default.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// ChatMessagesFromHistory maps session history onto chat roles.
func ChatMessagesFromHistory(history []qualification.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		role := ChatRoleAssistant
		if m.Sender == qualification.SenderUser {
			role = ChatRoleUser
		}
		out = append(out, ChatMessage{Role: role, Content: m.Text})
	}
	return out
}
