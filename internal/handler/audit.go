package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/middleware"
	"github.com/yourusername/screening-api/internal/model"
)

// AuditLog stores and queries recruiter actions
type AuditLog interface {
	Record(ctx context.Context, e *model.AuditEntry) error
	List(ctx context.Context, f model.AuditFilter) ([]model.AuditEntry, error)
}

type AuditHandler struct {
	store AuditLog
}

func NewAuditHandler(store AuditLog) *AuditHandler {
	return &AuditHandler{store: store}
}

// RecordAction handles POST /api/audit/actions
func (h *AuditHandler) RecordAction(c *gin.Context) {
	var req struct {
		CandidateID       string `json:"candidateId" binding:"required"`
		CandidateFilename string `json:"candidateFilename"`
		Action            string `json:"action" binding:"required"`
		Reason            string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CandidateID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidateId and action are required"})
		return
	}
	if !model.ValidAction(req.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be one of interview, rejected, on_hold"})
		return
	}

	entry := &model.AuditEntry{
		CandidateID:       strings.TrimSpace(req.CandidateID),
		CandidateFilename: req.CandidateFilename,
		Action:            req.Action,
		Username:          middleware.GetUsername(c),
		Reason:            strings.TrimSpace(req.Reason),
	}
	if err := h.store.Record(c.Request.Context(), entry); err != nil {
		log.Error().Err(err).Msg("Failed to record audit action")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record action"})
		return
	}

	log.Info().
		Str("username", entry.Username).
		Str("candidateId", entry.CandidateID).
		Str("action", entry.Action).
		Msg("Audit action recorded")

	c.JSON(http.StatusCreated, entry)
}

// List handles GET /api/audit/log
// Non-admin users only see their own entries
func (h *AuditHandler) List(c *gin.Context) {
	filter := model.AuditFilter{
		Username:    c.Query("username"),
		CandidateID: c.Query("candidateId"),
		Action:      c.Query("action"),
	}
	if filter.Action != "" && !model.ValidAction(filter.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action filter"})
		return
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = n
	}

	h.respond(c, filter)
}

// CandidateHistory handles GET /api/audit/candidates/:candidateId
func (h *AuditHandler) CandidateHistory(c *gin.Context) {
	h.respond(c, model.AuditFilter{CandidateID: c.Param("candidateId")})
}

func (h *AuditHandler) respond(c *gin.Context, filter model.AuditFilter) {
	if middleware.GetRole(c) != model.RoleAdmin {
		filter.Username = middleware.GetUsername(c)
	}

	entries, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list audit log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit log"})
		return
	}

	if entries == nil {
		entries = []model.AuditEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}
