package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/acadex/server/internal/shared/errors"
	"github.com/acadex/server/internal/shared/middleware"
	"github.com/acadex/server/internal/shared/response"
)

// Handler handles authentication HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the public auth routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/guest", h.GuestLogin)
		auth.POST("/oauth/login", h.OAuthLogin)
		auth.POST("/oauth/callback", h.OAuthCallback)
		auth.POST("/refresh", h.Refresh)
	}
}

// RegisterProtectedRoutes registers auth routes that require a token.
func (h *Handler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/logout", h.Logout)
	}
}

// loginResult is the payload returned by every sign-in operation.
type loginResult struct {
	Tokens *TokenPair `json:"tokens"`
	UserID string     `json:"user_id"`
	Name   string     `json:"name"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tokens, u, err := h.service.Register(c.Request.Context(), &req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, loginResult{Tokens: tokens, UserID: u.ID.String(), Name: u.Name})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tokens, u, err := h.service.Login(c.Request.Context(), &req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResult{Tokens: tokens, UserID: u.ID.String(), Name: u.Name})
}

// GuestLogin handles POST /auth/guest.
func (h *Handler) GuestLogin(c *gin.Context) {
	tokens, u, err := h.service.GuestLogin(c.Request.Context(), c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, loginResult{Tokens: tokens, UserID: u.ID.String(), Name: u.Name})
}

// OAuthLogin handles POST /auth/oauth/login.
func (h *Handler) OAuthLogin(c *gin.Context) {
	var req OAuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.InitiateOAuth(c.Request.Context(), req.Provider)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// OAuthCallback handles POST /auth/oauth/callback.
func (h *Handler) OAuthCallback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tokens, u, err := h.service.CompleteOAuth(c.Request.Context(), &req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResult{Tokens: tokens, UserID: u.ID.String(), Name: u.Name})
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tokens, err := h.service.RefreshTokens(c.Request.Context(), req.RefreshToken, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmailTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrGuestHasNoPassword):
		response.Unauthorized(c, ErrInvalidCredentials.Error())
	case errors.Is(err, ErrTooManyAttempts):
		response.FromError(c, apperrors.RateLimited(err.Error()))
	case errors.Is(err, ErrInvalidOAuthProvider), errors.Is(err, ErrInvalidOAuthState), errors.Is(err, ErrInvalidOAuthCode):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrOAuthFailed):
		response.FromError(c, apperrors.NewAppError("OAUTH_FAILED", err.Error(), http.StatusBadGateway, err))
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken), errors.Is(err, ErrRevokedToken):
		response.Unauthorized(c, err.Error())
	default:
		response.FromError(c, err)
	}
}
