package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/middleware"
	"github.com/yourusername/screening-api/internal/model"
	"github.com/yourusername/screening-api/internal/service"
)

// PositionCatalogue is the positions service as the handlers use it
type PositionCatalogue interface {
	List(ctx context.Context, f model.PositionFilter) ([]model.Position, error)
	Get(ctx context.Context, id string) (*model.Position, error)
	CreateFromPDF(ctx context.Context, data []byte, in service.NewPosition) (*model.Position, []string, error)
}

type PositionHandler struct {
	positions PositionCatalogue
}

func NewPositionHandler(positions PositionCatalogue) *PositionHandler {
	return &PositionHandler{positions: positions}
}

// List handles GET /api/positions
func (h *PositionHandler) List(c *gin.Context) {
	filter := model.PositionFilter{
		Status:     c.Query("status"),
		Department: c.Query("department"),
		Search:     c.Query("search"),
	}

	positions, err := h.positions.List(c.Request.Context(), filter)
	if errors.Is(err, service.ErrInvalidFilter) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list positions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list positions"})
		return
	}

	if positions == nil {
		positions = []model.Position{}
	}

	c.JSON(http.StatusOK, gin.H{"positions": positions, "count": len(positions)})
}

// Get handles GET /api/positions/:id
func (h *PositionHandler) Get(c *gin.Context) {
	p, err := h.positions.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrPositionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Position not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to get position")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get position"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// Create handles POST /api/positions (admin only)
// Multipart form: file plus optional title, department and location
func (h *PositionHandler) Create(c *gin.Context) {
	data, filename, ok := readPDFUpload(c)
	if !ok {
		return
	}

	p, warnings, err := h.positions.CreateFromPDF(c.Request.Context(), data, service.NewPosition{
		Title:      c.PostForm("title"),
		Department: c.PostForm("department"),
		Location:   c.PostForm("location"),
		Filename:   filename,
		CreatedBy:  middleware.GetUsername(c),
	})
	switch {
	case errors.Is(err, service.ErrNotPDF):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid PDF file"})
		return
	case errors.Is(err, service.ErrNoPositionText):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Very little text was extracted from this PDF"})
		return
	case err != nil:
		log.Error().Err(err).Msg("Failed to create position")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create position"})
		return
	}

	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusCreated, gin.H{"position": p, "warnings": warnings})
}
