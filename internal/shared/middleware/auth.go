package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acadex/server/internal/shared/config"
	"github.com/acadex/server/internal/shared/response"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for user ID.
	UserIDKey = "user_id"
	// EmailKey is the context key for email.
	EmailKey = "email"
	// IsGuestKey is the context key for the guest flag.
	IsGuestKey = "is_guest"
)

// Claims is the authenticated identity extracted from an access token.
type Claims struct {
	UserID  uuid.UUID
	Email   string
	IsGuest bool
}

// TokenValidator validates an access token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

// ValidatorFunc adapts a function to the TokenValidator interface.
type ValidatorFunc func(token string) (*Claims, error)

// ValidateToken implements TokenValidator.
func (f ValidatorFunc) ValidateToken(token string) (*Claims, error) {
	return f(token)
}

// Auth returns a middleware that validates bearer tokens. On success it
// sets user_id, email and is_guest in the context. If optional is true,
// missing or invalid tokens do not abort the request.
func Auth(validator TokenValidator, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			if !optional {
				abortUnauthorized(c, "UNAUTHORIZED", "Authorization header required")
				return
			}
			c.Next()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			if !optional {
				abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
				return
			}
			c.Next()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(IsGuestKey, claims.IsGuest)

		c.Next()
	}
}

// RequireAuth returns a middleware that requires a valid access token.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return Auth(validator, false)
}

// OptionalAuth returns a middleware that optionally validates tokens.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return Auth(validator, true)
}

// RequireAdmin returns a middleware that allows only accounts whose
// email appears on the configured admin allow-list. It must run after
// RequireAuth.
func RequireAdmin(authCfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := GetEmail(c)
		if email == "" || !authCfg.IsAdminEmail(email) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorResponse{
				Error: "admin access required",
				Code:  "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}
	return ""
}

// GetUserID returns the user ID from context, or uuid.Nil.
func GetUserID(c *gin.Context) uuid.UUID {
	if val, exists := c.Get(UserIDKey); exists {
		if userID, ok := val.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}

// GetEmail returns the email from context, or an empty string.
func GetEmail(c *gin.Context) string {
	if val, exists := c.Get(EmailKey); exists {
		if email, ok := val.(string); ok {
			return email
		}
	}
	return ""
}

// IsGuest reports whether the authenticated account is a guest session.
func IsGuest(c *gin.Context) bool {
	if val, exists := c.Get(IsGuestKey); exists {
		if guest, ok := val.(bool); ok {
			return guest
		}
	}
	return false
}

// IsAuthenticated returns true if the user is authenticated.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != uuid.Nil
}
