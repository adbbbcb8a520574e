package interceptor

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ledger/internal/repo"
	"ledger/internal/utils"
)

const callerIDKey = "callerID"

// AuthInterceptor guards protected routes: it verifies the bearer token,
// checks it is still the one held in the token store, and resolves the
// caller identity into the request context.
type AuthInterceptor struct {
	tokens repo.TokenStore
	tm     *utils.TokenManager
}

func NewAuthInterceptor(tokens repo.TokenStore, tm *utils.TokenManager) *AuthInterceptor {
	return &AuthInterceptor{tokens: tokens, tm: tm}
}

func (i *AuthInterceptor) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "authorization header missing")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := i.tm.Validate(tokenString)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		stored, err := i.tokens.GetToken(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"message": "store unavailable",
			})
			return
		}
		if stored == "" || stored != tokenString {
			abortUnauthorized(c, "token revoked or expired")
			return
		}

		c.Set(callerIDKey, claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
}

// CallerID returns the authenticated user id resolved by the interceptor.
func CallerID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(callerIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// SetCallerID injects a caller identity directly, for handlers under test.
func SetCallerID(c *gin.Context, userID int64) {
	c.Set(callerIDKey, userID)
}
