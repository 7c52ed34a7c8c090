package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gamegate/internal/config"
	jwtsvc "gamegate/internal/pkg/jwt"
	"gamegate/internal/pkg/response"
)

// AdminAuth protects the mint/list/revoke endpoints. It accepts either the
// static ADMIN_TOKEN credential or a JWT with the admin role issued by
// /admin/login.
func AdminAuth(cfg *config.Config, jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Error(c, http.StatusUnauthorized, "AUTH_INVALID", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])

		if cfg.AdminToken != "" &&
			subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AdminToken)) == 1 {
			c.Set("admin", cfg.AdminUsername)
			c.Next()
			return
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil || claims.Role != "admin" {
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "Invalid admin token")
			c.Abort()
			return
		}

		c.Set("admin", claims.Username)
		c.Next()
	}
}
