package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rolegate.backend/pkg/jwt"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	// OperatorKey is the gin context key for the authenticated operator subject
	OperatorKey = "operator"
)

// Auth validates the bearer token on operator endpoints.
func Auth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		claims, err := jwtService.Validate(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token has expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		c.Set(OperatorKey, claims.Subject)
		c.Next()
	}
}

// GetOperator gets the authenticated operator subject from context
func GetOperator(c *gin.Context) (string, bool) {
	operator, exists := c.Get(OperatorKey)
	if !exists {
		return "", false
	}
	return operator.(string), true
}
