package auth

import "errors"

// Auth module errors.
var (
	// Credential errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrGuestHasNoPassword = errors.New("guest accounts cannot sign in with a password")
	ErrTooManyAttempts    = errors.New("too many login attempts")

	// Token errors
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrRevokedToken       = errors.New("token has been revoked")
	ErrTokenNotFound      = errors.New("refresh token not found")
	ErrInvalidTokenClaims = errors.New("invalid token claims")

	// OAuth errors
	ErrInvalidOAuthProvider = errors.New("invalid OAuth provider")
	ErrInvalidOAuthCode     = errors.New("invalid OAuth code")
	ErrInvalidOAuthState    = errors.New("invalid OAuth state")
	ErrOAuthFailed          = errors.New("OAuth authentication failed")
)
