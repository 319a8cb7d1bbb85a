package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/model"
)

var (
	// ErrNoProviderConfigured means no credential is set for the backend a model id routes to
	ErrNoProviderConfigured = errors.New("no AI provider configured")

	// ErrEmptyResponse means the backend answered with blank text
	ErrEmptyResponse = errors.New("empty response from model")
)

// Provider is one LLM backend behind the gateway
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a provider-neutral completion call
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Profile holds the fixed generation parameters for one kind of call
type Profile struct {
	System      string
	Temperature float32
	MaxTokens   int
}

var (
	AnalysisProfile = Profile{
		System:      analysisSystemPrompt,
		Temperature: 0.1,
		MaxTokens:   3000,
	}

	ChatProfile = Profile{
		System:      chatSystemPrompt,
		Temperature: 0.2,
		MaxTokens:   1200,
	}
)

const analysisSystemPrompt = `You are an HR assistant that compares job descriptions with CVs strictly and directly. You do not give high ratings without real matches. You apply objectivity, neutrality, fairness, non-discrimination and privacy. You never use, infer or mention protected personal data. You evaluate only the skills and competencies relevant to job performance, and you actively avoid bias.`

const chatSystemPrompt = `You are an HR assistant that helps recruiters reason about candidates and roles. Use only job-relevant information, never personal attributes, and keep a neutral, objective tone. You support decisions; a human always makes them.`

// Model id prefixes and the backend each routes to
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

var routes = []struct {
	prefix   string
	provider string
}{
	{"gpt", ProviderOpenAI},
	{"claude", ProviderAnthropic},
	{"gemini", ProviderGoogle},
}

var catalogue = []model.ModelInfo{
	{ID: "gpt-4", Name: "GPT-4", Provider: ProviderOpenAI},
	{ID: "gpt-4o", Name: "GPT-4o", Provider: ProviderOpenAI},
	{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: ProviderOpenAI},
	{ID: "claude-sonnet-4", Name: "Claude Sonnet 4", Provider: ProviderAnthropic},
	{ID: "claude-opus-4", Name: "Claude Opus 4", Provider: ProviderAnthropic},
	{ID: "claude-haiku-3.5", Name: "Claude Haiku 3.5", Provider: ProviderAnthropic},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: ProviderGoogle},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: ProviderGoogle},
	{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: ProviderGoogle},
}

// Gateway routes a model id to the backend that serves it. It holds no state
// that changes after start-up.
type Gateway struct {
	providers    map[string]Provider
	defaultModel string
	profile      Profile
}

func NewGateway(defaultModel string) *Gateway {
	return &Gateway{
		providers:    make(map[string]Provider),
		defaultModel: defaultModel,
		profile:      AnalysisProfile,
	}
}

// Register installs the backend for one of the Provider* names. A nil provider is ignored.
func (g *Gateway) Register(name string, p Provider) {
	if p == nil {
		return
	}
	g.providers[name] = p
}

// WithProfile returns a gateway sharing the same backends but using p for every call
func (g *Gateway) WithProfile(p Profile) *Gateway {
	out := *g
	out.profile = p
	return &out
}

func (g *Gateway) resolve(modelID string) (string, Provider, error) {
	id := strings.TrimSpace(modelID)
	if id == "" {
		id = g.defaultModel
	}
	if len(g.providers) == 0 {
		return id, nil, fmt.Errorf("%w: set at least one of OPENAI_API_KEY, ANTHROPIC_API_KEY or GOOGLE_API_KEY", ErrNoProviderConfigured)
	}

	lower := strings.ToLower(id)
	for _, r := range routes {
		if !strings.HasPrefix(lower, r.prefix) {
			continue
		}
		if p, ok := g.providers[r.provider]; ok {
			return id, p, nil
		}
		return id, nil, fmt.Errorf("%w: %s models need %s credentials", ErrNoProviderConfigured, r.prefix, r.provider)
	}
	return id, nil, fmt.Errorf("%w: unknown model %q", ErrNoProviderConfigured, id)
}

// Available reports whether modelID (or the default model when empty) can be served
func (g *Gateway) Available(modelID string) error {
	_, _, err := g.resolve(modelID)
	return err
}

// Generate sends prompt to the backend for modelID. Provider errors are logged and
// returned unchanged; a blank reply becomes ErrEmptyResponse.
func (g *Gateway) Generate(ctx context.Context, prompt, modelID string) (string, error) {
	id, p, err := g.resolve(modelID)
	if err != nil {
		return "", err
	}

	text, err := p.Complete(ctx, Request{
		Model:       id,
		System:      g.profile.System,
		Prompt:      prompt,
		Temperature: g.profile.Temperature,
		MaxTokens:   g.profile.MaxTokens,
	})
	if err != nil {
		log.Error().Err(err).Str("provider", p.Name()).Str("model", id).Msg("Model call failed")
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", p.Name(), ErrEmptyResponse)
	}
	return text, nil
}

// Models lists the selectable models and whether each can currently be served
func (g *Gateway) Models() []model.ModelInfo {
	out := make([]model.ModelInfo, len(catalogue))
	for i, m := range catalogue {
		m.Available = g.Available(m.ID) == nil
		out[i] = m
	}
	return out
}

// DefaultModel is the model used when a request names none
func (g *Gateway) DefaultModel() string {
	return g.defaultModel
}
