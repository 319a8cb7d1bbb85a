package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/screening-api/internal/model"
)

// Assistant answers recruiter chat messages
type Assistant interface {
	Reply(ctx context.Context, message string, history []model.ChatMessage, modelID string) (string, error)
}

type ChatHandler struct {
	assistant Assistant
}

func NewChatHandler(assistant Assistant) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req struct {
		Message     string              `json:"message"`
		ChatHistory []model.ChatMessage `json:"chatHistory" binding:"dive"`
		ModelID     string              `json:"modelId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reply, err := h.assistant.Reply(c.Request.Context(), req.Message, req.ChatHistory, req.ModelID)
	if err != nil {
		respondError(c, err, "Failed to generate the chat reply")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": reply, "modelId": req.ModelID})
}
