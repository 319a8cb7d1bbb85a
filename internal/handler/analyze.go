package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/analysis"
	"github.com/yourusername/screening-api/internal/middleware"
	"github.com/yourusername/screening-api/internal/model"
	"github.com/yourusername/screening-api/internal/service"
)

// minJobDescription is the shortest job description, in characters, worth a model call
const minJobDescription = 30

// Analyzer runs the screening pipeline over a batch of candidates
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) ([]model.AnalysisResult, error)
}

// ModelCatalogue lists the selectable language models
type ModelCatalogue interface {
	Models() []model.ModelInfo
	DefaultModel() string
}

// PositionLookup resolves a stored job description and tracks its usage
type PositionLookup interface {
	Get(ctx context.Context, id string) (*model.Position, error)
	RecordUsage(ctx context.Context, id uuid.UUID, candidates int) error
}

type AnalyzeHandler struct {
	analyzer  Analyzer
	models    ModelCatalogue
	positions PositionLookup
}

func NewAnalyzeHandler(analyzer Analyzer, models ModelCatalogue, positions PositionLookup) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer, models: models, positions: positions}
}

// Analyze handles POST /api/analyze
// Returns one analysis per candidate, in request order
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req model.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	var position *model.Position
	if req.PositionID != "" {
		p, err := h.positions.Get(c.Request.Context(), req.PositionID)
		if errors.Is(err, service.ErrPositionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Position not found"})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("positionId", req.PositionID).Msg("Failed to load position")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load position"})
			return
		}
		position = p
		if strings.TrimSpace(req.JobDescription) == "" {
			req.JobDescription = p.JobDescription
		}
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(req.JobDescription)); n < minJobDescription {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Job description must be at least %d characters", minJobDescription),
		})
		return
	}

	start := time.Now()
	results, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Internal error while analyzing candidates")
		return
	}

	if position != nil {
		if err := h.positions.RecordUsage(c.Request.Context(), position.ID, len(req.Candidates)); err != nil {
			log.Error().Err(err).Str("positionId", position.ID.String()).Msg("Failed to record position usage")
		}
	}

	log.Info().
		Str("username", middleware.GetUsername(c)).
		Int("candidates", len(results)).
		Str("model", req.ModelID).
		Dur("elapsed", time.Since(start)).
		Msg("Batch analyzed")

	c.JSON(http.StatusOK, results)
}

// Models handles GET /api/models
func (h *AnalyzeHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":  h.models.Models(),
		"default": h.models.DefaultModel(),
	})
}

// EthicalPrinciples handles GET /api/ethical-principles
func (h *AnalyzeHandler) EthicalPrinciples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"principles": analysis.Principles()})
}

// Health handles GET /api/health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "screening-api",
		"time":    time.Now().UTC(),
	})
}
