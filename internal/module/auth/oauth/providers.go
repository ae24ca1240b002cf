package oauth

import "fmt"

// Providers is the set of configured sign-in backends keyed by provider
// name. The set is assembled once at startup and read-only afterwards.
type Providers map[string]Provider

// NewProviders builds the provider set from configuration. A nil config
// leaves that provider out, so deployments can enable each one
// independently.
func NewProviders(google, github *Config) Providers {
	providers := make(Providers, 2)
	if google != nil {
		p := NewGoogleProvider(google)
		providers[p.Name()] = p
	}
	if github != nil {
		p := NewGitHubProvider(github)
		providers[p.Name()] = p
	}
	return providers
}

// Get returns the named provider. Unknown names and providers that were
// not configured are indistinguishable to the caller.
func (p Providers) Get(name string) (Provider, error) {
	provider, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("oauth provider not configured: %s", name)
	}
	return provider, nil
}
