package oauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoAPI = "https://www.googleapis.com/oauth2/v2/userinfo"

var defaultGoogleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GoogleProvider signs students in with a Google account. Only accounts
// with a verified email are accepted, since the email is the identity
// projects invite by.
type GoogleProvider struct {
	base
}

// NewGoogleProvider creates the Google provider.
func NewGoogleProvider(cfg *Config) *GoogleProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultGoogleScopes
	}
	return &GoogleProvider{base{config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}}}
}

func (p *GoogleProvider) Name() string { return "google" }

// Identity resolves the Google account behind the token.
func (p *GoogleProvider) Identity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	var account struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := p.fetchJSON(ctx, token, googleUserInfoAPI, &account); err != nil {
		return nil, fmt.Errorf("google user info: %w", err)
	}
	if !account.VerifiedEmail {
		return nil, errors.New("google account email not verified")
	}

	return &Identity{
		ID:        account.ID,
		Email:     account.Email,
		Name:      account.Name,
		AvatarURL: account.Picture,
	}, nil
}
