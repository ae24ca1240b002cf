package project

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/acadex/server/internal/shared/errors"
	"github.com/acadex/server/internal/shared/response"
)

// AdminHandler handles admin-only project HTTP requests.
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new admin project handler.
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers admin project routes. The group is expected
// to carry the admin-gate middleware.
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects")
	{
		projects.GET("", h.ListProjects)
		projects.GET("/export", h.ExportCSV)
		projects.PATCH("/:id", h.UpdateMeta)
		projects.DELETE("/:id", h.DeleteProject)
		projects.PUT("/:id/evaluation", h.SaveEvaluation)
	}
}

// ListProjects handles GET /admin/projects.
func (h *AdminHandler) ListProjects(c *gin.Context) {
	projects, err := h.service.AdminListProjects(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// UpdateMeta handles PATCH /admin/projects/:id.
func (h *AdminHandler) UpdateMeta(c *gin.Context) {
	projectID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateProjectMetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.AdminUpdateProjectMeta(c.Request.Context(), projectID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteProject handles DELETE /admin/projects/:id.
func (h *AdminHandler) DeleteProject(c *gin.Context) {
	projectID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.AdminDeleteProject(c.Request.Context(), projectID); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}

// SaveEvaluation handles PUT /admin/projects/:id/evaluation.
func (h *AdminHandler) SaveEvaluation(c *gin.Context) {
	projectID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req SaveEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.SaveEvaluation(c.Request.Context(), projectID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportCSV handles GET /admin/projects/export.
func (h *AdminHandler) ExportCSV(c *gin.Context) {
	data, err := h.service.ExportCSV(c.Request.Context())
	if err != nil {
		response.FromError(c, apperrors.Internal("export projects", err))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="projects.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
