package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/model"
)

const (
	// ContextKeyUser is the key for the authenticated *model.User in the Gin context
	ContextKeyUser = "user"
	// ContextKeyUsername is the key for the authenticated username in the Gin context
	ContextKeyUsername = "username"
	// ContextKeyRole is the key for the authenticated user's role in the Gin context
	ContextKeyRole = "role"
)

// TokenVerifier turns a bearer token into the identity it carries
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.Principal, error)
}

// UserResolver maps a verified identity onto a local account
type UserResolver interface {
	ResolvePrincipal(ctx context.Context, p *model.Principal) (*model.User, error)
}

// AuthMiddleware validates bearer tokens and injects the account into context
type AuthMiddleware struct {
	verifier TokenVerifier
	users    UserResolver
}

func NewAuthMiddleware(verifier TokenVerifier, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users}
}

// Authenticate is the Gin middleware handler
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing Authorization header",
			})
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid Authorization header format",
			})
			return
		}

		principal, err := am.verifier.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			log.Warn().Err(err).Msg("Failed to verify token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		user, err := am.users.ResolvePrincipal(c.Request.Context(), principal)
		if err != nil {
			log.Warn().Err(err).Str("username", principal.Username).Str("email", principal.Email).Msg("Token does not match an account")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unknown user",
			})
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeyRole, user.Role)

		c.Next()
	}
}

// GetUsername extracts the authenticated username from the Gin context
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetRole extracts the authenticated user's role from the Gin context
func GetRole(c *gin.Context) string {
	return c.GetString(ContextKeyRole)
}

// GetUser returns the authenticated account, or nil outside authenticated routes
func GetUser(c *gin.Context) *model.User {
	v, _ := c.Get(ContextKeyUser)
	u, _ := v.(*model.User)
	return u
}
