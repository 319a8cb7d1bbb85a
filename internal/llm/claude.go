package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com"
	defaultClaudeModel   = "claude-sonnet-4-20250514"
)

var claudeModels = map[string]string{
	"claude-opus-4":    "claude-opus-4-20250514",
	"claude-sonnet-4":  "claude-sonnet-4-20250514",
	"claude-haiku-3.5": "claude-3-5-haiku-20241022",
}

// ClaudeProvider wraps the Anthropic Messages API
type ClaudeProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClaudeProvider(apiKey, baseURL string, timeout time.Duration) *ClaudeProvider {
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	return &ClaudeProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *ClaudeProvider) Name() string { return ProviderAnthropic }

// ── Anthropic API request/response types ──────────────

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// claudeModel maps a short alias onto the dated model name. Full dated names pass
// through; anything else falls back to the default Sonnet model.
func claudeModel(id string) string {
	if m, ok := claudeModels[strings.ToLower(id)]; ok {
		return m
	}
	for _, m := range claudeModels {
		if id == m {
			return m
		}
	}
	return defaultClaudeModel
}

// Complete sends one user message and returns the concatenated text blocks
func (c *ClaudeProvider) Complete(ctx context.Context, in Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("Claude API key not configured")
	}

	reqBody := claudeRequest{
		Model:       claudeModel(in.Model),
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
		System:      in.System,
		Messages: []claudeMessage{
			{Role: "user", Content: in.Prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var claudeResp claudeResponse
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", fmt.Errorf("parsing Claude response: %w", err)
	}

	var sb strings.Builder
	for _, block := range claudeResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
