package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gophertalk/feed-service/internal/domain/auth/jwt"
	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
)

const userIDKey = "user_id"

// RequireAuth rejects requests without a valid bearer access token and
// stores the verified subject for UserID.
func RequireAuth(v jwt.AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		uid, err := v.VerifyAccess(raw)
		if err != nil {
			msg := "invalid token"
			if customErrors.IsExpiredToken(err) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(userIDKey, uid)
		c.Next()
	}
}

// UserID is the authenticated caller. It is zero outside RequireAuth.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func bearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
