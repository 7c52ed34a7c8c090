package entitlement

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gamegate/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the token-holder endpoints.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/check-access", h.CheckAccess)
	rg.POST("/game/start", h.StartGame)
}

// RegisterAdminRoutes mounts the mint/list/revoke endpoints; the group is
// expected to carry the admin auth middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/utr/add", h.Mint)
	rg.GET("/admin/utr/list", h.List)
	rg.POST("/delete-utr", h.Delete)
}

func (h *Handler) Mint(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "number and planType are required")
		return
	}

	view, err := h.service.Mint(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Valid UTR number is required")
		case errors.Is(err, ErrInvalidPlan):
			response.Error(c, http.StatusBadRequest, "INVALID_PLAN", `Invalid plan type. Must be "premium" or "demo"`)
		case errors.Is(err, ErrDuplicate):
			response.Error(c, http.StatusConflict, "UTR_EXISTS", "UTR number already exists")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add UTR")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"utr": view})
}

func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		Status:   c.Query("status"),
		PlanType: c.Query("type"),
	}

	views, err := h.service.ListTokens(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch UTRs")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"utrs": views})
}

func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "UTR number is required")
		return
	}

	err := h.service.Revoke(c.Request.Context(), req.Number)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "UTR number is required")
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "UTR_NOT_FOUND", "UTR not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete UTR")
		}
		return
	}

	response.Message(c, http.StatusOK, "UTR deleted successfully")
}

func (h *Handler) CheckAccess(c *gin.Context) {
	number, ok := bearerToken(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header")
		return
	}

	view, err := h.service.CheckAccess(c.Request.Context(), number)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation):
			response.Error(c, http.StatusUnauthorized, "INVALID_ACCESS", "Invalid or expired access")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check access")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"access": view})
}

func (h *Handler) StartGame(c *gin.Context) {
	number, ok := bearerToken(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "No access token provided")
		return
	}

	usage, err := h.service.ConsumeOneUse(c.Request.Context(), number)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotActivated), errors.Is(err, ErrValidation):
			response.Error(c, http.StatusUnauthorized, "INVALID_ACCESS", "Invalid or expired access")
		case errors.Is(err, ErrExpired):
			response.Error(c, http.StatusForbidden, "ACCESS_EXPIRED", "Access expired")
		case errors.Is(err, ErrQuotaExhausted):
			response.Error(c, http.StatusForbidden, "GAME_LIMIT_REACHED", "Game limit reached")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update game count")
		}
		return
	}

	response.Success(c, http.StatusOK, usage)
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}
