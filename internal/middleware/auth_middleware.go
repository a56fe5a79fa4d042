package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/ArowuTest/easyearning-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/exp/slog"
)

// Authenticator resolves a bearer token to the session user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *utils.Claims, error)
}

var _ Authenticator = (*services.AuthService)(nil)

// JWTAuthMiddleware validates the bearer token against the active session and
// sets userID and userRole for downstream handlers.
func JWTAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const bearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer "})
			return
		}

		user, _, err := auth.Authenticate(c.Request.Context(), authHeader[len(bearerSchema):])
		if err != nil {
			slog.Warn("Token rejected", "error", err, "path", c.FullPath())
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			case errors.Is(err, services.ErrSessionReplaced):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session is no longer active"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set("userID", user.ID)
		c.Set("userRole", string(user.Role))
		c.Next()
	}
}

// RequireAdmin rejects requests whose session user is not an administrator.
// Must run after JWTAuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userRole") != string(models.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
