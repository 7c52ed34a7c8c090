package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamegate/internal/config"
)

// CORS covers the service's own API surface (admin panel, payment UI).
// Proxied upstream responses get their permissive headers from the
// forwarder instead.
//
// In development any origin is reflected; in production only the
// configured allow-list passes.
func CORS(cfg *config.Config) gin.HandlerFunc {
	allowedOrigins := map[string]bool{
		"http://localhost:3000": true,
		"http://localhost:5173": true,
		"http://127.0.0.1:3000": true,
		"http://127.0.0.1:5173": true,
	}
	for _, o := range cfg.CORSAllowedOrigins {
		allowedOrigins[o] = true
	}

	strict := cfg.IsProduction()

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" && (!strict || allowedOrigins[origin]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Authorization, Accept, Origin, X-Requested-With, X-Game-Event")
		c.Writer.Header().Set("Access-Control-Allow-Methods",
			"GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
