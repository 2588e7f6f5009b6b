package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by RequireBearer.
const (
	ContextUserID   = "userId"
	ContextUsername = "username"
)

// RequireBearer rejects requests without a valid access token in "Authorization: Bearer <token>".
// Missing token is 401, an expired one 401 "Token expired", anything else 403.
func RequireBearer(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abort(c, ErrAuthRequired)
			return
		}
		claims, err := tokens.ParseAccess(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abort(c, ErrTokenExpired)
				return
			}
			abort(c, ErrInvalidToken)
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// UserID returns the id set by RequireBearer.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abort(c *gin.Context, e *Error) {
	c.AbortWithStatusJSON(e.Status, gin.H{"message": e.Message})
}
