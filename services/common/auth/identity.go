package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserContextKey  = "userID"
	RoleContextKey  = "role"
	EmailContextKey = "email"
)

// Identity resolves the caller from the gateway-injected X-User-* headers,
// falling back to the gateway cookies and then to a bearer token. When
// required is false anonymous requests pass through with no identity set.
func Identity(validator *TokenValidator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := firstNonEmpty(c.GetHeader("X-User-ID"), cookie(c, "user_id"))
		role := firstNonEmpty(c.GetHeader("X-User-Role"), cookie(c, "user_role"))
		email := firstNonEmpty(c.GetHeader("X-User-Email"), cookie(c, "user_email"))

		if userID == "" && validator != nil {
			if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
				claims, err := validator.Parse(token, "access")
				if err != nil {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
					return
				}
				userID, role, email = claims.UserID, claims.Role, claims.Email
			}
		}

		if userID == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Next()
			return
		}

		c.Set(UserContextKey, userID)
		c.Set(RoleContextKey, role)
		c.Set(EmailContextKey, email)
		c.Next()
	}
}

// GetUserID returns the resolved user id, or "" for anonymous callers.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserContextKey)
}

// AdminOnly must run after Identity.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleContextKey) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func cookie(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
