package oauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	githubUserAPI   = "https://api.github.com/user"
	githubEmailsAPI = "https://api.github.com/user/emails"
)

var defaultGitHubScopes = []string{"read:user", "user:email"}

// GitHubProvider signs students in with a GitHub account. GitHub lets
// accounts hide their email from the profile API, so the emails
// endpoint is consulted as a fallback; an identity without any verified
// email is rejected.
type GitHubProvider struct {
	base
}

// NewGitHubProvider creates the GitHub provider.
func NewGitHubProvider(cfg *Config) *GitHubProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultGitHubScopes
	}
	return &GitHubProvider{base{config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint:     github.Endpoint,
	}}}
}

func (p *GitHubProvider) Name() string { return "github" }

// Identity resolves the GitHub account behind the token.
func (p *GitHubProvider) Identity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	var account struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := p.fetchJSON(ctx, token, githubUserAPI, &account); err != nil {
		return nil, fmt.Errorf("github user info: %w", err)
	}

	email := account.Email
	if email == "" {
		var err error
		email, err = p.verifiedEmail(ctx, token)
		if err != nil {
			return nil, err
		}
	}

	// Accounts without a display name fall back to the login handle.
	name := account.Name
	if name == "" {
		name = account.Login
	}

	return &Identity{
		ID:        strconv.FormatInt(account.ID, 10),
		Email:     email,
		Name:      name,
		AvatarURL: account.AvatarURL,
	}, nil
}

// verifiedEmail picks the account's primary verified email, falling
// back to any verified one.
func (p *GitHubProvider) verifiedEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.fetchJSON(ctx, token, githubEmailsAPI, &emails); err != nil {
		return "", fmt.Errorf("github emails: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}
	return "", errors.New("github account has no verified email")
}
