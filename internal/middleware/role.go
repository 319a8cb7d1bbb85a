package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RequireRole returns middleware that lets through only users with the given
// role. Returns 403 otherwise.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := GetUsername(c)
		if username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		if GetRole(c) != role {
			log.Warn().Str("username", username).Str("requiredRole", role).Str("path", c.FullPath()).Msg("Role check failed")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":        "forbidden",
				"requiredRole": role,
			})
			return
		}

		c.Next()
	}
}
