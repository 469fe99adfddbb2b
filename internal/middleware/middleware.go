package middleware

import (
	"net/http"
	"strings"

	"todo-api/internal/auth"
	"todo-api/pkg/apperror"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	UsernameKey = "username"
	UserIDKey   = "userId"
	ClaimsKey   = "claims"
)

// TokenParser validates a bearer token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apperror.Body{
		StatusCode: http.StatusUnauthorized,
		Message:    "Unauthorized",
	})
}

// AuthMiddleware requires a valid bearer token and exposes its username and user id.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if header == "" || !strings.HasPrefix(header, prefix) {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			unauthorized(c)
			return
		}
		claims, err := tokens.Parse(strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			logger.Debug(ctx, "JWT parse failed", "error", err)
			unauthorized(c)
			return
		}
		c.Set(ClaimsKey, claims)
		c.Set(UsernameKey, claims.UniqueName)
		c.Set(UserIDKey, claims.NameID)
		c.Next()
	}
}

// Username returns the caller's username as set by AuthMiddleware.
func Username(c *gin.Context) string {
	return c.GetString(UsernameKey)
}

// CORS allows the web app origin. With no configured origin any caller's origin is echoed.
func CORS(allowedOrigin string) gin.HandlerFunc {
	allowedOrigin = strings.TrimRight(allowedOrigin, "/")
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case origin == "":
		case allowedOrigin == "" || strings.EqualFold(origin, allowedOrigin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
			c.Writer.Header().Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
