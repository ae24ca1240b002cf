package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acadex/server/internal/shared/response"
)

// AdminHandler handles admin HTTP requests for account management.
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers the admin routes. The router group is
// expected to carry the admin gate already.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin/users")
	{
		admin.GET("", h.ListUsers)
		admin.DELETE("/:id", h.DeleteUser)
	}
}

// ListUsers returns a paginated list of accounts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var filter UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pagination := NewPagination()
	if err := c.ShouldBindQuery(pagination); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	list, err := h.service.ListUsers(c.Request.Context(), &filter, pagination)
	if err != nil {
		response.InternalError(c, "failed to list users")
		return
	}

	c.JSON(http.StatusOK, list)
}

// DeleteUser retires an account: the profile record is soft-deleted
// and refresh tokens revoked.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}
