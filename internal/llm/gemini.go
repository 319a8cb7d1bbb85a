package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

var geminiModels = map[string]string{
	"gemini-2.5-pro":   "gemini-2.5-pro",
	"gemini-2.5-flash": "gemini-2.5-flash",
	"gemini-1.5-pro":   "gemini-pro-latest",
}

// contentGenerator is the part of *genai.Models the provider uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider serves gemini-* models through the Gemini API
type GeminiProvider struct {
	models contentGenerator
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiProvider{models: client.Models}, nil
}

func (g *GeminiProvider) Name() string { return ProviderGoogle }

func geminiModel(id string) string {
	if m, ok := geminiModels[strings.ToLower(id)]; ok {
		return m
	}
	return defaultGeminiModel
}

func (g *GeminiProvider) Complete(ctx context.Context, in Request) (string, error) {
	temperature := in.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(in.MaxTokens),
	}
	if in.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: in.System}}}
	}

	resp, err := g.models.GenerateContent(ctx, geminiModel(in.Model), genai.Text(in.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	if resp == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
		// Only the first candidate is requested.
		break
	}
	return sb.String(), nil
}
