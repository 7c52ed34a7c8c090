package proxy

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gamegate/internal/pkg/response"
)

type Handler struct {
	forwarder *Forwarder
}

func NewHandler(forwarder *Forwarder) *Handler {
	return &Handler{forwarder: forwarder}
}

// RegisterRoutes mounts the catch-all relay; the group carries the access
// gate middleware and strips the /proxy prefix via the wildcard param.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Any("/*path", h.Relay)
}

func (h *Handler) Relay(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		h.forwarder.Preflight(c.Writer)
		c.Abort()
		return
	}

	path := c.Param("path")

	if websocket.IsWebSocketUpgrade(c.Request) {
		if err := h.forwarder.ForwardWebSocket(c.Writer, c.Request, path); err != nil {
			response.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to reach upstream")
		}
		c.Abort()
		return
	}

	if err := h.forwarder.Forward(c.Writer, c.Request, path); err != nil {
		response.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to reach upstream")
	}
	c.Abort()
}
