package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskdeck/internal/services"
)

// public endpoints that do not require a token
func isPublicPath(path string) bool {
	switch path {
	case "/login", "/register":
		return true
	}
	if strings.HasPrefix(path, "/swagger") || strings.HasPrefix(path, "/healthz") {
		return true
	}
	return false
}

func AuthMiddleware(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims, err := auth.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
