package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	openai "github.com/sashabaranov/go-openai"

	appconfig "github.com/thepaulgroup/lead-assistant/internal/config"
	"github.com/thepaulgroup/lead-assistant/internal/conversation"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

// BuildOpenAIClient returns nil when no API key is configured.
func BuildOpenAIClient(cfg *appconfig.Config) *openai.Client {
	if cfg == nil || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil
	}
	return openai.NewClient(cfg.OpenAIAPIKey)
}

// BuildChatLLM picks the general chat model. Configured providers are tried in the order
// OpenAI, Bedrock, Gemini; the first is primary and the second its fallback. A nil client
// means no provider is configured and free-text questions get the static apology.
// The returned closer is never nil.
func BuildChatLLM(ctx context.Context, cfg *appconfig.Config, openaiClient *openai.Client, awsCfg *aws.Config, logger *logging.Logger) (conversation.LLMClient, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var (
		providers []conversation.LLMClient
		names     []string
		closer    = noop
	)
	if openaiClient != nil {
		providers = append(providers, conversation.NewOpenAIClient(openaiClient, cfg.OpenAIModel))
		names = append(names, "openai")
	}
	if strings.TrimSpace(cfg.BedrockModelID) != "" && awsCfg != nil {
		providers = append(providers, conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(*awsCfg), cfg.BedrockModelID))
		names = append(names, "bedrock")
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		providers = append(providers, gemini)
		names = append(names, "gemini")
		closer = func() { _ = gemini.Close() }
	}

	switch len(providers) {
	case 0:
		logger.Warn("no LLM provider configured; general chat disabled")
		return nil, closer, nil
	case 1:
		logger.Info("general chat enabled", "provider", names[0])
		return providers[0], closer, nil
	default:
		logger.Info("general chat enabled", "provider", names[0], "fallback", names[1])
		return conversation.NewFallbackLLMClient(providers[0], providers[1], logger), closer, nil
	}
}
