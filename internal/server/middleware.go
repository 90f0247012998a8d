package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/auth"
)

const contextUserIDKey = "userID"

// AuthMiddleware rejects requests without a valid bearer token and stores
// the token's user id on the context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := auth.VerifyToken(secret, parts[1])
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		c.Set(contextUserIDKey, claims.UserID)
		c.Next()
	}
}

func userIDFromContext(c *gin.Context) (string, error) {
	raw, ok := c.Get(contextUserIDKey)
	if !ok {
		return "", errors.New("user ID not found in context")
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return "", errors.New("invalid user ID in context")
	}
	return id, nil
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			log.Warn("request", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		log.Info("request", fields...)
	}
}

func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}
