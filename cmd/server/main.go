package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/analysis"
	"github.com/yourusername/screening-api/internal/config"
	"github.com/yourusername/screening-api/internal/handler"
	"github.com/yourusername/screening-api/internal/llm"
	"github.com/yourusername/screening-api/internal/middleware"
	"github.com/yourusername/screening-api/internal/model"
	"github.com/yourusername/screening-api/internal/repository"
	"github.com/yourusername/screening-api/internal/service"
)

func main() {
	// ── Logging ──────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// ── Config ───────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("Starting screening API")

	// ── Database ─────────────────────────────────────────
	ctx := context.Background()
	pool, db, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database connected")

	// ── Repositories ─────────────────────────────────────
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	positionRepo := repository.NewPositionRepo(db)

	// ── Services ─────────────────────────────────────────
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpire)
	authService := service.NewAuthService(userRepo, tokens, service.AuthPolicy{
		EmailDomain: cfg.AllowedEmailDomain,
		Departments: cfg.AllowedDepartments,
	})
	if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin account")
	}

	gateway, err := llm.Configure(ctx, llm.Credentials{
		OpenAIKey:        cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		AnthropicKey:     cfg.ClaudeAPIKey,
		AnthropicBaseURL: cfg.ClaudeBaseURL,
		GeminiKey:        cfg.GeminiAPIKey,
		DefaultModel:     cfg.DefaultModel,
		Timeout:          cfg.LLMTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize model providers")
	}

	analyzer := analysis.NewAnalyzer(gateway,
		analysis.WithConcurrency(cfg.AnalysisConcurrency),
		analysis.WithCandidateTimeout(cfg.CandidateTimeout),
		analysis.WithMaxPromptTokens(cfg.MaxPromptTokens),
	)
	chatService := service.NewChatService(gateway.WithProfile(llm.ChatProfile))
	positionService := service.NewPositionService(positionRepo)

	if _, err := os.Stat(cfg.PositionsDir); err == nil {
		imported, err := positionService.ImportDirectory(ctx, cfg.PositionsDir)
		if err != nil {
			log.Error().Err(err).Str("dir", cfg.PositionsDir).Msg("Failed to import positions")
		} else {
			log.Info().Int("count", len(imported)).Str("dir", cfg.PositionsDir).Msg("Positions imported")
		}
	}

	// ── Handlers ─────────────────────────────────────────
	authHandler := handler.NewAuthHandler(authService, tokens.TTL())
	analyzeHandler := handler.NewAnalyzeHandler(analyzer, gateway, positionService)
	extractHandler := handler.NewExtractHandler()
	chatHandler := handler.NewChatHandler(chatService)
	auditHandler := handler.NewAuditHandler(auditRepo)
	positionHandler := handler.NewPositionHandler(positionService)

	// ── Middleware ────────────────────────────────────────
	var verifier middleware.TokenVerifier = tokens
	if cfg.AuthProvider == "firebase" {
		fv, err := middleware.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Firebase auth")
		}
		verifier = fv
	}
	authMiddleware := middleware.NewAuthMiddleware(verifier, authService)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// ── Router ───────────────────────────────────────────
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// ── Public Routes ────────────────────────────────────
	public := r.Group("/api")
	{
		public.GET("/health", handler.Health)
		public.GET("/models", analyzeHandler.Models)
		public.GET("/ethical-principles", analyzeHandler.EthicalPrinciples)
		public.POST("/auth/login", authHandler.Login)
	}

	// ── Authenticated Routes ─────────────────────────────
	api := r.Group("/api", authMiddleware.Authenticate(), rateLimiter.Limit())
	{
		// Accounts
		api.GET("/auth/me", authHandler.Me)
		api.POST("/auth/register", middleware.RequireRole(model.RoleAdmin), authHandler.Register)

		// Screening
		api.POST("/analyze", analyzeHandler.Analyze)
		api.POST("/extract-text", extractHandler.ExtractText)
		api.POST("/chat", chatHandler.Chat)

		// Audit
		api.POST("/audit/actions", auditHandler.RecordAction)
		api.GET("/audit/log", auditHandler.List)
		api.GET("/audit/candidates/:candidateId", auditHandler.CandidateHistory)

		// Positions
		api.GET("/positions", positionHandler.List)
		api.GET("/positions/:id", positionHandler.Get)
		api.POST("/positions", middleware.RequireRole(model.RoleAdmin), positionHandler.Create)
	}

	// ── Server ───────────────────────────────────────────
	// Analyses call the model once per candidate, so writes get a long deadline.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("Screening API server running")

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// requestLogger logs every request with zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= 400 {
			event = log.Warn()
		}
		if status >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("user", middleware.GetUsername(c)).
			Msg(fmt.Sprintf("%s %s", c.Request.Method, path))
	}
}
