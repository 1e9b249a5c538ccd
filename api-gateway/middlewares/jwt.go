package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oemparts/storefront/services/common/auth"
)

// AccessTokenCookie is read when no Authorization header is sent.
const AccessTokenCookie = "access_token"

var identityHeaders = []string{"X-User-ID", "X-User-Role", "X-User-Email"}

// JWTMiddleware resolves the caller from an access token. Identity headers
// sent by clients are always dropped; only the gateway sets them downstream.
// With required=false a missing token passes through as a guest, but a bad
// token is still rejected.
func JWTMiddleware(tokens *auth.TokenValidator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range identityHeaders {
			c.Request.Header.Del(h)
		}

		tokenString := ""
		if header := c.GetHeader("Authorization"); header != "" {
			scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
				return
			}
			tokenString = strings.TrimSpace(token)
		} else if v, err := c.Cookie(AccessTokenCookie); err == nil {
			tokenString = v
		}

		if tokenString == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
				return
			}
			c.Next()
			return
		}

		claims, err := tokens.Parse(tokenString, "access")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(auth.UserContextKey, claims.UserID)
		c.Set(auth.RoleContextKey, claims.Role)
		c.Set(auth.EmailContextKey, claims.Email)
		c.Next()
	}
}
