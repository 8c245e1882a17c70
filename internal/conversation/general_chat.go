package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/thepaulgroup/lead-assistant/internal/qualification"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

const (
	chatTemperature = 0.7
	chatMaxTokens   = 500
)

var _ qualification.ChatResponder = (*GeneralChat)(nil)

// GeneralChat answers free-form questions with a language model.
type GeneralChat struct {
	llm    LLMClient
	system string
	logger *logging.Logger
}

func NewGeneralChat(llm LLMClient, agentName string, logger *logging.Logger) *GeneralChat {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GeneralChat{llm: llm, system: SystemPrompt(agentName), logger: logger}
}

// Reply sends the system prompt and history to the model. Any failure or empty answer is
// reported as ErrChatUnavailable.
func (g *GeneralChat) Reply(ctx context.Context, history []qualification.Message) (string, error) {
	resp, err := g.llm.Complete(ctx, LLMRequest{
		System:      []string{g.system},
		Messages:    ChatMessagesFromHistory(history),
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		g.logger.Debug("general chat completion failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrChatUnavailable, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply", ErrChatUnavailable)
	}
	return text, nil
}
