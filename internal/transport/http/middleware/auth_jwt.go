package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go-user-service/internal/core/auth"
	"go-user-service/internal/core/session"
	resp "go-user-service/internal/transport/http/response"
)

// AuthJWT validates the bearer token, rejects revoked sessions and puts the
// caller's identity into the context. sessions may be nil when no revocation
// store is configured.
func AuthJWT(j *auth.JWTer, sessions *session.Store, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if sessions != nil && claims.ID != "" {
			if revoked, _ := sessions.IsRevoked(c.Request.Context(), claims.ID); revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "token revoked"))
				return
			}
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(http.StatusForbidden, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set("claims", claims)
		c.Set("userId", claims.UID)
		c.Set("role", claims.Role)
		c.Set("tokenId", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("tokenExpiry", claims.ExpiresAt.Time)
		} else {
			c.Set("tokenExpiry", time.Time{})
		}
		c.Next()
	}
}
