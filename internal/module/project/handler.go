package project

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acadex/server/internal/shared/middleware"
	"github.com/acadex/server/internal/shared/response"
)

// Handler handles student-facing project HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new project handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterProtectedRoutes registers the authenticated project routes.
func (h *Handler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	router.GET("/notifications", h.GetNotifications)

	projects := router.Group("/projects")
	{
		projects.GET("", h.ListProjects)
		projects.POST("", h.RegisterTeam)

		me := projects.Group("/me")
		{
			me.GET("", h.GetMyTeam)
			me.POST("/accept", h.AcceptInvite)
			me.POST("/decline", h.DeclineInvite)

			me.POST("/tasks", h.CreateTask)
			me.PATCH("/tasks/:id", h.UpdateTask)
			me.PATCH("/tasks/:id/toggle", h.ToggleTask)
			me.DELETE("/tasks/:id", h.DeleteTask)
			me.POST("/tasks/:id/comments", h.AddComment)

			me.PUT("/report", h.SaveReport)
			me.POST("/report/submit", h.SubmitReport)
			me.POST("/files", h.AddFile)
			me.DELETE("/files/:id", h.DeleteFile)
		}
	}
}

// callerFrom builds the caller identity from the request context.
func callerFrom(c *gin.Context) Caller {
	return Caller{
		UserID: middleware.GetUserID(c),
		Email:  middleware.GetEmail(c),
	}
}

// ListProjects handles GET /projects.
func (h *Handler) ListProjects(c *gin.Context) {
	summaries, err := h.service.ListProjects(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": summaries})
}

// GetMyTeam handles GET /projects/me.
func (h *Handler) GetMyTeam(c *gin.Context) {
	resp, err := h.service.GetMyTeam(c.Request.Context(), middleware.GetUserID(c), middleware.GetEmail(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterTeam handles POST /projects.
func (h *Handler) RegisterTeam(c *gin.Context) {
	var req RegisterTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.RegisterTeam(c.Request.Context(), callerFrom(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AcceptInvite handles POST /projects/me/accept.
func (h *Handler) AcceptInvite(c *gin.Context) {
	resp, err := h.service.AcceptInvite(c.Request.Context(), callerFrom(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeclineInvite handles POST /projects/me/decline.
func (h *Handler) DeclineInvite(c *gin.Context) {
	if err := h.service.DeclineInvite(c.Request.Context(), callerFrom(c)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invitation declined"})
}

// CreateTask handles POST /projects/me/tasks.
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), callerFrom(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PATCH /projects/me/tasks/:id.
func (h *Handler) UpdateTask(c *gin.Context) {
	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.UpdateTask(c.Request.Context(), callerFrom(c), taskID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ToggleTask handles PATCH /projects/me/tasks/:id/toggle.
func (h *Handler) ToggleTask(c *gin.Context) {
	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.service.ToggleTask(c.Request.Context(), callerFrom(c), taskID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /projects/me/tasks/:id.
func (h *Handler) DeleteTask(c *gin.Context) {
	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), callerFrom(c), taskID); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

// AddComment handles POST /projects/me/tasks/:id/comments.
func (h *Handler) AddComment(c *gin.Context) {
	taskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), callerFrom(c), taskID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// SaveReport handles PUT /projects/me/report.
func (h *Handler) SaveReport(c *gin.Context) {
	var req SaveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.SaveReport(c.Request.Context(), callerFrom(c), &req); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "report saved"})
}

// SubmitReport handles POST /projects/me/report/submit.
func (h *Handler) SubmitReport(c *gin.Context) {
	var req SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.SubmitReport(c.Request.Context(), callerFrom(c), &req); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "report submitted"})
}

// AddFile handles POST /projects/me/files.
func (h *Handler) AddFile(c *gin.Context) {
	var req AddFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	file, err := h.service.AddFile(c.Request.Context(), callerFrom(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

// DeleteFile handles DELETE /projects/me/files/:id.
func (h *Handler) DeleteFile(c *gin.Context) {
	fileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteFile(c.Request.Context(), callerFrom(c), fileID); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

// GetNotifications handles GET /notifications.
func (h *Handler) GetNotifications(c *gin.Context) {
	items, err := h.service.GetNotifications(c.Request.Context(), middleware.GetUserID(c), middleware.GetEmail(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoTeam),
		errors.Is(err, ErrProjectNotFound),
		errors.Is(err, ErrTaskNotFound),
		errors.Is(err, ErrFileNotFound),
		errors.Is(err, ErrMemberNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrNotLead),
		errors.Is(err, ErrNotTaskAssignee):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrNameTaken),
		errors.Is(err, ErrAlreadyInTeam),
		errors.Is(err, ErrAlreadySubmitted):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrGuestCannotCreate),
		errors.Is(err, ErrNoInvitedMembers),
		errors.Is(err, ErrNoPendingInvite),
		errors.Is(err, ErrProjectInactive),
		errors.Is(err, ErrReportLocked),
		errors.Is(err, ErrConfirmRequired),
		errors.Is(err, ErrAssigneeNotFound),
		errors.Is(err, ErrInvalidEvaluation),
		errors.Is(err, ErrFeedbackTooShort),
		errors.Is(err, ErrBreakdownOutOfRange):
		response.BadRequest(c, err.Error())
	default:
		response.FromError(c, err)
	}
}
