// Package oauth implements the sign-in-with-provider flows. The service
// supports a fixed set of providers (Google and GitHub); each one wraps
// an oauth2.Config and knows how to turn an exchanged token into the
// identity of the student signing in.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Identity is the subject a provider vouches for after a successful
// code exchange.
type Identity struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

// Provider is one configured sign-in backend.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Identity(ctx context.Context, token *oauth2.Token) (*Identity, error)
}

// Config holds one provider's client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// base carries the oauth2 plumbing every provider shares; concrete
// providers add only their name and identity lookup.
type base struct {
	config *oauth2.Config
}

func (b *base) AuthURL(state string) string {
	return b.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (b *base) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := b.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}

// fetchJSON performs an authorized GET against a provider API and
// decodes the JSON body into out.
func (b *base) fetchJSON(ctx context.Context, token *oauth2.Token, url string, out any) error {
	resp, err := b.config.Client(ctx, token).Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
