package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/middleware"
	"github.com/yourusername/screening-api/internal/model"
	"github.com/yourusername/screening-api/internal/service"
)

// Accounts is the account management the auth endpoints need
type Accounts interface {
	Login(ctx context.Context, username, password string) (string, *model.User, error)
	Register(ctx context.Context, in service.NewUser) (*model.User, error)
}

type AuthHandler struct {
	accounts Accounts
	tokenTTL time.Duration
}

func NewAuthHandler(accounts Accounts, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokenTTL: tokenTTL}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, user, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to log in")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"tokenType":   "bearer",
		"expiresIn":   int(h.tokenTTL.Seconds()),
		"user":        user,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Register handles POST /api/auth/register (admin only)
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.NewUser
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, password, email and department are required"})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	case err != nil:
		log.Error().Err(err).Msg("Failed to register user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	log.Info().Str("username", user.Username).Str("by", middleware.GetUsername(c)).Msg("New user created")
	c.JSON(http.StatusCreated, user)
}
