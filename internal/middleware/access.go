package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gamegate/internal/modules/entitlement"
	"gamegate/internal/pkg/response"
)

// EntitlementService is the slice of the entitlement module the gate needs.
type EntitlementService interface {
	CheckAccess(ctx context.Context, number string) (*entitlement.AccessView, error)
	ConsumeOneUse(ctx context.Context, number string) (*entitlement.UsageView, error)
}

// AccessGate fronts the forwarding proxy: every request must carry a
// valid, unexpired token. The token travels in the Authorization header,
// or in ?token= for WebSocket upgrades, which cannot set headers.
//
// Requests tagged as gameplay completions (X-Game-Event: completed) also
// burn one game from the quota before being forwarded.
//
// A token swept between two requests comes back as not-found here; that is
// the same outcome as expired, not an error.
func AccessGate(svc EntitlementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Preflight carries no Authorization; the proxy answers it locally.
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		number := gateToken(c)
		if number == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "No access token provided")
			c.Abort()
			return
		}

		view, err := svc.CheckAccess(c.Request.Context(), number)
		if err != nil {
			if errors.Is(err, entitlement.ErrNotFound) || errors.Is(err, entitlement.ErrValidation) {
				response.Error(c, http.StatusUnauthorized, "INVALID_ACCESS", "Invalid or expired access")
			} else {
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check access")
			}
			c.Abort()
			return
		}
		if !view.Valid {
			response.Error(c, http.StatusUnauthorized, "ACCESS_EXPIRED", "Access expired")
			c.Abort()
			return
		}

		if c.GetHeader("X-Game-Event") == "completed" {
			if _, err := svc.ConsumeOneUse(c.Request.Context(), number); err != nil {
				switch {
				case errors.Is(err, entitlement.ErrQuotaExhausted):
					response.Error(c, http.StatusForbidden, "GAME_LIMIT_REACHED", "Game limit reached")
				case errors.Is(err, entitlement.ErrExpired), errors.Is(err, entitlement.ErrNotActivated),
					errors.Is(err, entitlement.ErrNotFound):
					response.Error(c, http.StatusUnauthorized, "INVALID_ACCESS", "Invalid or expired access")
				default:
					response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update game count")
				}
				c.Abort()
				return
			}
		}

		c.Set("utr_number", number)
		c.Set("plan_type", string(view.PlanType))

		c.Next()
	}
}

func gateToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}

	// The query fallback is the gate's own credential; drop it so the
	// proxy never forwards it to the upstream origin.
	q := c.Request.URL.Query()
	token := strings.TrimSpace(q.Get("token"))
	if token != "" {
		q.Del("token")
		c.Request.URL.RawQuery = q.Encode()
	}
	return token
}
