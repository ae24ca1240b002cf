package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default profile values applied when a profile has never been edited.
const (
	DefaultTitle = "Student"
	AdminTitle   = "Admin"
)

// User is the single source of truth for an account: credentials,
// provider identity and profile fields live on one record.
type User struct {
	ID    uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email *string   `json:"email,omitempty" gorm:"uniqueIndex"` // nil for guest accounts
	Name  string    `json:"display_name" gorm:"column:display_name;not null"`

	// Profile
	Title    string `json:"title" gorm:"default:Student"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url" gorm:"column:photo_url"` // data URI or plain URL

	// Authentication
	PasswordHash  *string `json:"-" gorm:"column:password_hash"`
	OAuthProvider *string `json:"oauth_provider,omitempty" gorm:"column:oauth_provider"`
	OAuthID       *string `json:"-" gorm:"column:oauth_id"`
	IsGuest       bool    `json:"is_guest" gorm:"column:is_guest;default:false"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-" gorm:"index"` // soft delete
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}

// EmailOrEmpty returns the account email, or "" for guests.
func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// HasEmail reports whether the account carries an email address.
func (u *User) HasEmail() bool {
	return u.Email != nil && *u.Email != ""
}

// IsOAuthUser returns true if the user registered via an OAuth provider.
func (u *User) IsOAuthUser() bool {
	return u.OAuthProvider != nil && *u.OAuthProvider != ""
}

// GuestName derives the display name for a guest account from its ID.
func GuestName(id uuid.UUID) string {
	return "Guest_" + id.String()[:4]
}

// ResolveDisplayName picks a display name in priority order: the
// provider-supplied name, the guest naming rule, then the email local
// part.
func ResolveDisplayName(providerName string, id uuid.UUID, email string, isGuest bool) string {
	if providerName != "" {
		return providerName
	}
	if isGuest {
		return GuestName(id)
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
