package oauth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviders(t *testing.T) {
	google := &Config{ClientID: "g-id", ClientSecret: "g-secret", RedirectURL: "https://acadex.edu/cb"}
	github := &Config{ClientID: "h-id", ClientSecret: "h-secret", RedirectURL: "https://acadex.edu/cb"}

	t.Run("both configured", func(t *testing.T) {
		providers := NewProviders(google, github)
		require.Len(t, providers, 2)

		p, err := providers.Get("google")
		require.NoError(t, err)
		assert.Equal(t, "google", p.Name())

		p, err = providers.Get("github")
		require.NoError(t, err)
		assert.Equal(t, "github", p.Name())
	})

	t.Run("nil config leaves provider out", func(t *testing.T) {
		providers := NewProviders(google, nil)
		require.Len(t, providers, 1)

		_, err := providers.Get("github")
		assert.Error(t, err)
	})

	t.Run("unknown name", func(t *testing.T) {
		providers := NewProviders(google, github)
		_, err := providers.Get("gitlab")
		assert.Error(t, err)
	})
}

func TestAuthURL(t *testing.T) {
	p := NewGoogleProvider(&Config{
		ClientID:     "g-id",
		ClientSecret: "g-secret",
		RedirectURL:  "https://acadex.edu/cb",
	})

	raw := p.AuthURL("state-123")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "g-id", q.Get("client_id"))
	assert.Equal(t, "https://acadex.edu/cb", q.Get("redirect_uri"))
}

func TestDefaultScopes(t *testing.T) {
	google := NewGoogleProvider(&Config{ClientID: "g-id"})
	assert.Contains(t, google.AuthURL("s"), "userinfo.email")

	github := NewGitHubProvider(&Config{ClientID: "h-id"})
	assert.Contains(t, github.AuthURL("s"), "user%3Aemail")

	custom := NewGoogleProvider(&Config{ClientID: "g-id", Scopes: []string{"openid"}})
	q, err := url.Parse(custom.AuthURL("s"))
	require.NoError(t, err)
	assert.Equal(t, "openid", q.Query().Get("scope"))
}
