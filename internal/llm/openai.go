package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider serves gpt-* models through the Chat Completions API
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider builds a client for apiKey. baseURL overrides the public
// endpoint, e.g. for a proxy or a compatible server.
func NewOpenAIProvider(apiKey, baseURL string, timeout time.Duration) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAIProvider) Name() string { return ProviderOpenAI }

func (o *OpenAIProvider) Complete(ctx context.Context, in Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if in.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: in.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: in.Prompt})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       in.Model,
		Messages:    messages,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
