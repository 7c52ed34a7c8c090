package admin

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"gamegate/internal/config"
	jwtsvc "gamegate/internal/pkg/jwt"
	"gamegate/internal/pkg/response"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Handler authenticates the operator and issues short-lived admin JWTs.
// The token itself is opaque to the rest of the system: everything behind
// the admin middleware only sees a trusted is-admin decision.
type Handler struct {
	cfg *config.Config
	jwt *jwtsvc.Service
}

func NewHandler(cfg *config.Config, jwt *jwtsvc.Service) *Handler {
	return &Handler{cfg: cfg, jwt: jwt}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/login", h.Login)
}

// RegisterProtectedRoutes mounts endpoints behind the admin middleware.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/verify", h.Verify)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required")
		return
	}

	if !h.credentialsValid(req.Username, req.Password) {
		response.Error(c, http.StatusUnauthorized, "AUTH_INVALID", "Invalid username or password")
		return
	}

	token, err := h.jwt.GenerateToken(req.Username, "admin")
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int((24 * time.Hour).Seconds()),
	})
}

func (h *Handler) Verify(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"admin": c.GetString("admin"),
	})
}

func (h *Handler) credentialsValid(username, password string) bool {
	if h.cfg.AdminPassword == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.AdminUsername)) != 1 {
		return false
	}

	// ADMIN_PASSWORD may hold a bcrypt hash or, for local development, the
	// plain password.
	if strings.HasPrefix(h.cfg.AdminPassword, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPassword), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(h.cfg.AdminPassword)) == 1
}
