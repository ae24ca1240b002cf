package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/acadex/server/internal/module/auth/oauth"
	"github.com/acadex/server/internal/module/user"
	"github.com/acadex/server/internal/shared/metrics"
)

// UserStore is the slice of the user repository the auth flows need.
// Satisfied by user.Repository.
type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByOAuth(ctx context.Context, provider, oauthID string) (*user.User, error)
	Update(ctx context.Context, u *user.User) error
}

// RateLimiter throttles password login attempts.
type RateLimiter interface {
	Allow(ctx context.Context, email, ip string) (bool, error)
	Reset(ctx context.Context, email, ip string) error
}

// Service provides authentication operations.
type Service struct {
	users      UserStore
	tokens     RefreshTokenRepository
	jwt        *JWTManager
	oauth      oauth.Providers
	stateStore StateStore
	limiter    RateLimiter
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewService creates a new auth service.
func NewService(
	users UserStore,
	tokens RefreshTokenRepository,
	jwtManager *JWTManager,
	providers oauth.Providers,
	stateStore StateStore,
	limiter RateLimiter,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		jwt:        jwtManager,
		oauth:      providers,
		stateStore: stateStore,
		limiter:    limiter,
		metrics:    m,
		logger:     logger,
	}
}

// --- Email/password operations ---

// Register creates an account with email and password and signs it in.
func (s *Service) Register(ctx context.Context, req *RegisterRequest, userAgent, ipAddress string) (*TokenPair, *user.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)

	id := uuid.New()
	u := &user.User{
		ID:           id,
		Email:        &email,
		Name:         user.ResolveDisplayName(req.Name, id, email, false),
		Title:        user.DefaultTitle,
		PasswordHash: &hashStr,
	}

	if err := s.users.Create(ctx, u); err != nil {
		// The unique index closes the pre-check race.
		if isUniqueViolation(err) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.generateTokenPair(ctx, u, userAgent, ipAddress)
	if err != nil {
		return nil, nil, err
	}

	s.recordAuthEvent("register", "password")
	return tokens, u, nil
}

// Login signs in with email and password. Attempts are rate-limited
// per email+IP, and all credential failures collapse into the same
// friendly error.
func (s *Service) Login(ctx context.Context, req *LoginRequest, userAgent, ipAddress string) (*TokenPair, *user.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	allowed, err := s.limiter.Allow(ctx, email, ipAddress)
	if err != nil {
		// Fail open: a Redis outage should not lock everyone out.
		s.logger.Warn("login rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		s.recordAuthEvent("login_throttled", "password")
		return nil, nil, ErrTooManyAttempts
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.recordAuthEvent("login_failed", "password")
		return nil, nil, ErrInvalidCredentials
	}

	if u.PasswordHash == nil {
		s.recordAuthEvent("login_failed", "password")
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(req.Password)); err != nil {
		s.recordAuthEvent("login_failed", "password")
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, email, ipAddress); err != nil {
		s.logger.Warn("reset login attempts", zap.Error(err))
	}

	tokens, err := s.generateTokenPair(ctx, u, userAgent, ipAddress)
	if err != nil {
		return nil, nil, err
	}

	s.recordAuthEvent("login_success", "password")
	return tokens, u, nil
}

// GuestLogin creates a throwaway guest account and signs it in. Guests
// have no email and are named after the first characters of their ID.
func (s *Service) GuestLogin(ctx context.Context, userAgent, ipAddress string) (*TokenPair, *user.User, error) {
	id := uuid.New()
	u := &user.User{
		ID:      id,
		Name:    user.GuestName(id),
		Title:   user.DefaultTitle,
		IsGuest: true,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, nil, fmt.Errorf("create guest: %w", err)
	}

	tokens, err := s.generateTokenPair(ctx, u, userAgent, ipAddress)
	if err != nil {
		return nil, nil, err
	}

	s.recordAuthEvent("login_success", "guest")
	return tokens, u, nil
}

// --- OAuth operations ---

// InitiateOAuth starts the OAuth login flow.
func (s *Service) InitiateOAuth(ctx context.Context, provider OAuthProvider) (*OAuthLoginResponse, error) {
	if !provider.IsValid() {
		return nil, ErrInvalidOAuthProvider
	}

	oauthProvider, err := s.oauth.Get(provider.String())
	if err != nil {
		return nil, ErrInvalidOAuthProvider
	}

	state, err := generateRandomString(32)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	if err := s.stateStore.Set(ctx, state, provider.String()); err != nil {
		return nil, fmt.Errorf("store state: %w", err)
	}

	return &OAuthLoginResponse{
		AuthURL: oauthProvider.AuthURL(state),
		State:   state,
	}, nil
}

// CompleteOAuth completes the OAuth login flow and signs the account in.
func (s *Service) CompleteOAuth(ctx context.Context, req *CallbackRequest, userAgent, ipAddress string) (*TokenPair, *user.User, error) {
	storedProvider, err := s.stateStore.Get(ctx, req.State)
	if err != nil {
		return nil, nil, ErrInvalidOAuthState
	}
	defer s.stateStore.Delete(ctx, req.State)

	if storedProvider != req.Provider.String() {
		return nil, nil, ErrInvalidOAuthState
	}

	oauthProvider, err := s.oauth.Get(req.Provider.String())
	if err != nil {
		return nil, nil, ErrInvalidOAuthProvider
	}

	token, err := oauthProvider.Exchange(ctx, req.Code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidOAuthCode, err)
	}

	identity, err := oauthProvider.Identity(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrOAuthFailed, err)
	}

	u, err := s.findOrCreateOAuthUser(ctx, req.Provider, identity)
	if err != nil {
		return nil, nil, fmt.Errorf("find or create user: %w", err)
	}

	tokens, err := s.generateTokenPair(ctx, u, userAgent, ipAddress)
	if err != nil {
		return nil, nil, err
	}

	s.recordAuthEvent("login_success", req.Provider.String())
	return tokens, u, nil
}

// findOrCreateOAuthUser resolves an OAuth identity to an account:
// by provider identity first, then by email (linking the provider to
// an existing password account), creating a fresh account otherwise.
func (s *Service) findOrCreateOAuthUser(ctx context.Context, provider OAuthProvider, info *oauth.Identity) (*user.User, error) {
	u, err := s.users.GetByOAuth(ctx, provider.String(), info.ID)
	if err == nil {
		updated := false
		if info.Name != "" && u.Name != info.Name {
			u.Name = info.Name
			updated = true
		}
		if u.PhotoURL == "" && info.AvatarURL != "" {
			u.PhotoURL = info.AvatarURL
			updated = true
		}
		if updated {
			if err := s.users.Update(ctx, u); err != nil {
				return nil, fmt.Errorf("update user: %w", err)
			}
		}
		return u, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("get user by oauth: %w", err)
	}

	email := strings.ToLower(info.Email)
	providerName := provider.String()
	oauthID := info.ID

	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		existing.OAuthProvider = &providerName
		existing.OAuthID = &oauthID
		if existing.PhotoURL == "" && info.AvatarURL != "" {
			existing.PhotoURL = info.AvatarURL
		}
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("link oauth identity: %w", err)
		}
		return existing, nil
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	id := uuid.New()
	u = &user.User{
		ID:            id,
		Email:         &email,
		Name:          user.ResolveDisplayName(info.Name, id, email, false),
		Title:         user.DefaultTitle,
		PhotoURL:      info.AvatarURL,
		OAuthProvider: &providerName,
		OAuthID:       &oauthID,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// --- Token operations ---

// RefreshTokens rotates a refresh token into a new token pair.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string, userAgent, ipAddress string) (*TokenPair, error) {
	tokenHash := s.jwt.HashRefreshToken(refreshToken)

	storedToken, err := s.tokens.GetByHash(ctx, tokenHash)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !storedToken.IsValid() {
		if storedToken.IsExpired() {
			return nil, ErrExpiredToken
		}
		return nil, ErrRevokedToken
	}

	if err := s.tokens.Revoke(ctx, storedToken.ID); err != nil {
		return nil, fmt.Errorf("revoke old token: %w", err)
	}

	u, err := s.users.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	s.recordAuthEvent("token_refresh", "")
	return s.generateTokenPair(ctx, u, userAgent, ipAddress)
}

// Logout revokes all refresh tokens for the user. Server-side state is
// keyed by the subject, so nothing else needs clearing.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	s.recordAuthEvent("logout", "")
	return nil
}

// ValidateAccessToken validates an access token and returns the claims.
func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	return s.jwt.ValidateAccessToken(token)
}

// generateTokenPair generates a new access/refresh token pair.
func (s *Service) generateTokenPair(ctx context.Context, u *user.User, userAgent, ipAddress string) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwt.GenerateAccessToken(u.ID, u.EmailOrEmpty(), u.IsGuest)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	rawRefreshToken, tokenHash, refreshExpiresAt, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	record := &RefreshToken{
		ID:        uuid.New(),
		UserID:    u.ID,
		TokenHash: tokenHash,
		ExpiresAt: refreshExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.GetAccessTokenExpiry().Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) recordAuthEvent(event, provider string) {
	if s.metrics != nil {
		s.metrics.RecordAuthEvent(event, provider)
	}
}

// isUniqueViolation reports whether the error is a Postgres unique
// constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// generateRandomString generates a cryptographically secure random string.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
