package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acadex/server/internal/shared/config"
)

// TokenRevoker revokes all refresh tokens for an account. Implemented
// by the auth module's refresh token repository.
type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// Service provides profile and account administration operations.
type Service struct {
	repo    Repository
	tokens  TokenRevoker
	authCfg *config.AuthConfig
	logger  *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, tokens TokenRevoker, authCfg *config.AuthConfig, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		tokens:  tokens,
		authCfg: authCfg,
		logger:  logger,
	}
}

// IsAdmin reports whether the email is on the admin allow-list. Admin
// standing is computed, never stored.
func (s *Service) IsAdmin(email string) bool {
	return s.authCfg.IsAdminEmail(email)
}

// GetProfile returns the caller's profile, applying defaults to records
// that have never been edited and sanitizing a reserved title that the
// account is not entitled to.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.Title == "" {
		u.Title = DefaultTitle
		if err := s.repo.Update(ctx, u); err != nil {
			// The caller still gets defaults; persisting them is best effort.
			s.logger.Warn("persist profile defaults",
				zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	isAdmin := s.IsAdmin(u.EmailOrEmpty())
	if u.Title == AdminTitle && !isAdmin {
		u.Title = DefaultTitle
	}

	return u.ToProfileResponse(isAdmin), nil
}

// UpdateProfile applies a merge update to the caller's profile. The
// reserved Admin title and oversized or malformed avatars are rejected
// before anything is written.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*ProfileResponse, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	isAdmin := s.IsAdmin(u.EmailOrEmpty())

	if req.Title != nil && *req.Title == AdminTitle && !isAdmin {
		return nil, ErrTitleReserved
	}
	if req.PhotoURL != nil {
		if err := ValidateAvatar(*req.PhotoURL); err != nil {
			return nil, err
		}
	}

	if req.Name != nil && *req.Name != "" {
		u.Name = *req.Name
	}
	if req.Title != nil {
		u.Title = *req.Title
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.PhotoURL != nil {
		u.PhotoURL = *req.PhotoURL
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return u.ToProfileResponse(isAdmin), nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// --- Admin operations ---

// ListUsers returns a paginated user listing for the admin console.
func (s *Service) ListUsers(ctx context.Context, filter *UserFilter, pagination *Pagination) (*UserListResponse, error) {
	users, total, err := s.repo.List(ctx, filter, pagination)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	responses := make([]*ProfileResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToProfileResponse(s.IsAdmin(u.EmailOrEmpty())))
	}

	totalPages := int((total + int64(pagination.PageSize) - 1) / int64(pagination.PageSize))
	return &UserListResponse{
		Users:      responses,
		Total:      total,
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalPages: totalPages,
	}, nil
}

// DeleteUser soft-deletes the profile record and revokes the account's
// refresh tokens. The underlying credential is retired, not erased;
// outstanding access tokens expire naturally.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
		s.logger.Warn("revoke tokens for deleted user",
			zap.String("user_id", id.String()), zap.Error(err))
	}

	return nil
}
