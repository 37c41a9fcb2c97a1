package middleware

import (
	"net/http"
	"strings"

	"stackit/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// AuthMiddleware is a Gin middleware for JWT authentication of API requests
// It rejects the request unless a valid bearer token is present
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing authorization header"})
			c.Abort()
			return
		}
		if !authenticate(c, authService, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through but still rejects a token
// that is present and bad.
func OptionalAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		if !authenticate(c, authService, token) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authService service.AuthService, token string) bool {
	principal, err := authService.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
		c.Abort()
		return false
	}

	// Set user info in context for handlers to use
	c.Set(principalKey, principal)
	c.Set("userID", principal.UserID)
	c.Set("role", principal.Role)
	return true
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter for WebSocket upgrades from browsers.
func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2) // 0 is Bearer, 1 is token
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// GetPrincipal returns the caller set by the auth middlewares.
func GetPrincipal(c *gin.Context) (*service.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*service.Principal)
	return p, ok
}

// UserID returns the caller's id, empty when anonymous.
func UserID(c *gin.Context) string {
	if p, ok := GetPrincipal(c); ok {
		return p.UserID
	}
	return ""
}

// RequireRole checks if the user has one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Role not found in token"})
			c.Abort()
			return
		}

		userRole, ok := roleInterface.(string)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Invalid role format"})
			c.Abort()
			return
		}

		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"success":  false,
			"error":    "Insufficient permissions",
			"required": roles,
			"current":  userRole,
		})
		c.Abort()
	}
}
