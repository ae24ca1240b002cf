package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadex/server/internal/shared/middleware"
	"github.com/acadex/server/internal/shared/response"
)

// Handler handles HTTP requests for profiles.
type Handler struct {
	service *Service
}

// NewHandler creates a new user handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/me", h.GetProfile)
		users.PUT("/me", h.UpdateProfile)
	}
}

// GetProfile returns the caller's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies a merge update to the caller's profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, ErrEmailAlreadyExists):
		response.Conflict(c, "email already registered")
	case errors.Is(err, ErrTitleReserved):
		response.Forbidden(c, "the Admin title is reserved")
	case errors.Is(err, ErrAvatarTooLarge):
		response.BadRequest(c, "avatar image exceeds the 1 MiB limit")
	case errors.Is(err, ErrAvatarInvalid):
		response.BadRequest(c, "avatar data URI is malformed")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, "")
	default:
		response.InternalError(c, "")
	}
}
