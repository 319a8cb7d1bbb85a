package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	DatabaseURL string

	// Auth
	AuthProvider       string // local or firebase
	JWTSecret          string
	JWTExpire          time.Duration
	FirebaseProjectID  string
	AllowedEmailDomain string
	AllowedDepartments []string
	AdminUsername      string
	AdminEmail         string
	AdminPassword      string

	// Model providers
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ClaudeAPIKey  string
	ClaudeBaseURL string
	GeminiAPIKey  string
	DefaultModel  string
	LLMTimeout    time.Duration

	// Analysis
	MaxPromptTokens     int
	AnalysisConcurrency int
	CandidateTimeout    time.Duration

	// Positions
	PositionsDir string

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from the environment. A .env file, when present,
// fills in variables that are not already set.
func Load() (*Config, error) {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		AuthProvider:        strings.ToLower(getEnv("AUTH_PROVIDER", "local")),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpire:           time.Duration(getEnvInt("JWT_EXPIRE_MINUTES", 480)) * time.Minute,
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		AllowedEmailDomain:  getEnv("ALLOWED_EMAIL_DOMAIN", ""),
		AllowedDepartments:  getEnvList("ALLOWED_DEPARTMENTS", []string{"HR"}),
		AdminUsername:       getEnv("ADMIN_USERNAME", ""),
		AdminEmail:          getEnv("ADMIN_EMAIL", ""),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		ClaudeAPIKey:        getEnv("CLAUDE_API_KEY", getEnv("ANTHROPIC_API_KEY", "")),
		ClaudeBaseURL:       getEnv("CLAUDE_BASE_URL", "https://api.anthropic.com"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
		DefaultModel:        getEnv("DEFAULT_MODEL", "gpt-4"),
		LLMTimeout:          time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		MaxPromptTokens:     getEnvInt("MAX_PROMPT_TOKENS", 7500),
		AnalysisConcurrency: getEnvInt("ANALYSIS_CONCURRENCY", 1),
		CandidateTimeout:    time.Duration(getEnvInt("CANDIDATE_TIMEOUT_SECONDS", 180)) * time.Second,
		PositionsDir:        getEnv("POSITIONS_DIR", "positions"),
		RateLimitRPS:        getEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 0),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AuthProvider {
	case "local":
		if c.JWTSecret == "" {
			if c.Env == "production" {
				return errors.New("JWT_SECRET is required in production")
			}
			c.JWTSecret = "development-only-secret-change-me!"
		}
		if c.Env == "production" && len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
	case "firebase":
	default:
		return fmt.Errorf("AUTH_PROVIDER must be local or firebase, got %q", c.AuthProvider)
	}

	if c.MaxPromptTokens < 1000 {
		return fmt.Errorf("MAX_PROMPT_TOKENS must be at least 1000, got %d", c.MaxPromptTokens)
	}
	if c.AnalysisConcurrency < 1 {
		c.AnalysisConcurrency = 1
	}
	return nil
}

// RequireDatabase reports an error when no database is configured
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty items
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
