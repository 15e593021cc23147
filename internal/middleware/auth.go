package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hirorogo/fusaikanri/internal/auth"
)

// serviceKey is the gin context key for the authenticated service name.
const serviceKey = "service"

// GetService extracts the authenticated caller's service name from the
// context. Returns empty string if not found.
func GetService(c *gin.Context) string {
	service, _ := c.Value(serviceKey).(string)
	return service
}

// RequireAuth validates the Bearer token on every request and adds the
// caller's service name to the context.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrMissingToken.Error()})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
			return
		}

		claims, err := jwtManager.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
			return
		}

		c.Set(serviceKey, claims.Service)
		c.Next()
	}
}
