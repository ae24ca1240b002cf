package user

import (
	"time"

	"github.com/google/uuid"
)

// UpdateProfileRequest represents a profile update. Merge semantics:
// only fields that are present change.
type UpdateProfileRequest struct {
	Name     *string `json:"display_name,omitempty"`
	Title    *string `json:"title,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	PhotoURL *string `json:"photo_url,omitempty"`
}

// UserFilter represents filters for listing users.
type UserFilter struct {
	Email   *string `form:"email"`
	IsGuest *bool   `form:"is_guest"`
}

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int `form:"page" binding:"min=1"`
	PageSize int `form:"page_size" binding:"min=1,max=100"`
}

// NewPagination creates pagination with defaults.
func NewPagination() *Pagination {
	return &Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Offset returns the offset for database queries.
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ProfileResponse represents a user profile in API responses.
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"display_name"`
	Title     string    `json:"title"`
	Bio       string    `json:"bio"`
	PhotoURL  string    `json:"photo_url"`
	Provider  string    `json:"provider"`
	IsGuest   bool      `json:"is_guest"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// ToProfileResponse converts a User to ProfileResponse. isAdmin comes
// from the configured allow-list, never from the record.
func (u *User) ToProfileResponse(isAdmin bool) *ProfileResponse {
	provider := "email"
	if u.IsGuest {
		provider = "guest"
	} else if u.OAuthProvider != nil {
		provider = *u.OAuthProvider
	}
	return &ProfileResponse{
		ID:        u.ID,
		Email:     u.EmailOrEmpty(),
		Name:      u.Name,
		Title:     u.Title,
		Bio:       u.Bio,
		PhotoURL:  u.PhotoURL,
		Provider:  provider,
		IsGuest:   u.IsGuest,
		IsAdmin:   isAdmin,
		CreatedAt: u.CreatedAt,
	}
}

// UserListResponse represents a paginated list of users.
type UserListResponse struct {
	Users      []*ProfileResponse `json:"users"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}
