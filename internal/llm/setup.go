package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Credentials selects which backends a gateway gets. A blank key leaves that
// backend unconfigured.
type Credentials struct {
	OpenAIKey        string
	OpenAIBaseURL    string
	AnthropicKey     string
	AnthropicBaseURL string
	GeminiKey        string
	DefaultModel     string
	Timeout          time.Duration
}

// Configure builds a gateway with one backend per non-blank key
func Configure(ctx context.Context, c Credentials) (*Gateway, error) {
	g := NewGateway(c.DefaultModel)

	if c.OpenAIKey != "" {
		g.Register(ProviderOpenAI, NewOpenAIProvider(c.OpenAIKey, c.OpenAIBaseURL, c.Timeout))
	}
	if c.AnthropicKey != "" {
		g.Register(ProviderAnthropic, NewClaudeProvider(c.AnthropicKey, c.AnthropicBaseURL, c.Timeout))
	}
	if c.GeminiKey != "" {
		gemini, err := NewGeminiProvider(ctx, c.GeminiKey)
		if err != nil {
			return nil, err
		}
		g.Register(ProviderGoogle, gemini)
	}

	var enabled []string
	for name := range g.providers {
		enabled = append(enabled, name)
	}
	if len(enabled) == 0 {
		log.Warn().Msg("No AI provider keys set; analysis and chat will return 503")
	} else {
		log.Info().Strs("providers", enabled).Str("defaultModel", c.DefaultModel).Msg("AI providers configured")
	}

	return g, nil
}
