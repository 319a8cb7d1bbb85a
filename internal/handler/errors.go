package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/analysis"
	"github.com/yourusername/screening-api/internal/llm"
)

// respondError maps pipeline errors onto HTTP statuses. Unknown errors are
// logged and hidden behind fallback.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, llm.ErrNoProviderConfigured):
		log.Warn().Err(err).Msg("No model provider available")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
