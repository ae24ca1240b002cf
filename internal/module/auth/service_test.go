package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/acadex/server/internal/module/auth/oauth"
	"github.com/acadex/server/internal/module/user"
)

// --- mocks ---

type mockUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]*user.User)}
}

func (m *mockUserStore) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Email != nil {
		for _, existing := range m.users {
			if existing.Email != nil && *existing.Email == *u.Email {
				return fmt.Errorf("duplicate key value violates unique constraint (SQLSTATE 23505)")
			}
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email != nil && strings.EqualFold(*u.Email, email) {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserStore) GetByOAuth(_ context.Context, provider, oauthID string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.OAuthProvider != nil && *u.OAuthProvider == provider &&
			u.OAuthID != nil && *u.OAuthID == oauthID {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserStore) Update(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return user.ErrUserNotFound
	}
	m.users[u.ID] = u
	return nil
}

type mockTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*RefreshToken
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[uuid.UUID]*RefreshToken)}
}

func (m *mockTokenRepo) Create(_ context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	m.tokens[token.ID] = token
	return nil
}

func (m *mockTokenRepo) GetByHash(_ context.Context, tokenHash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash {
			return t, nil
		}
	}
	return nil, ErrTokenNotFound
}

func (m *mockTokenRepo) Revoke(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return ErrTokenNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *mockTokenRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

func (m *mockTokenRepo) activeCount(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID && t.IsValid() {
			n++
		}
	}
	return n
}

type stubLimiter struct {
	allowed bool
	err     error
	resets  int
}

func (l *stubLimiter) Allow(_ context.Context, _, _ string) (bool, error) {
	return l.allowed, l.err
}

func (l *stubLimiter) Reset(_ context.Context, _, _ string) error {
	l.resets++
	return nil
}

type fakeOAuthProvider struct {
	name        string
	identity    *oauth.Identity
	exchangeErr error
}

func (p *fakeOAuthProvider) Name() string { return p.name }

func (p *fakeOAuthProvider) AuthURL(state string) string {
	return "https://example.com/authorize?state=" + state
}

func (p *fakeOAuthProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "fake-access-" + code}, nil
}

func (p *fakeOAuthProvider) Identity(_ context.Context, _ *oauth2.Token) (*oauth.Identity, error) {
	if p.identity == nil {
		return nil, errors.New("no identity")
	}
	return p.identity, nil
}

// --- fixture ---

type serviceFixture struct {
	service   *Service
	users     *mockUserStore
	tokens    *mockTokenRepo
	limiter   *stubLimiter
	providers oauth.Providers
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	users := newMockUserStore()
	tokens := newMockTokenRepo()
	limiter := &stubLimiter{allowed: true}
	providers := oauth.Providers{}
	svc := NewService(
		users,
		tokens,
		newTestJWTManager(15*time.Minute),
		providers,
		NewMemoryStateStore(10*time.Minute),
		limiter,
		nil,
		zap.NewNop(),
	)
	return &serviceFixture{service: svc, users: users, tokens: tokens, limiter: limiter, providers: providers}
}

func (f *serviceFixture) addProvider(p *fakeOAuthProvider) {
	f.providers[p.name] = p
}

func (f *serviceFixture) seedPasswordUser(t *testing.T, email, password string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)
	u := &user.User{
		ID:           uuid.New(),
		Email:        &email,
		Name:         "Seeded User",
		Title:        user.DefaultTitle,
		PasswordHash: &hashStr,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

// --- tests ---

func TestService_Register(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tokens, u, err := f.service.Register(ctx, &RegisterRequest{
		Email:    "Ada@Example.EDU",
		Password: "correct-horse",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)

	require.NotNil(t, u.Email)
	assert.Equal(t, "ada@example.edu", *u.Email, "email is normalized to lower case")
	assert.Equal(t, "ada", u.Name, "name falls back to the email local part")
	assert.NotNil(t, u.PasswordHash)
	assert.False(t, u.IsGuest)

	// The access token carries the new identity.
	claims, err := f.service.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestService_RegisterWithName(t *testing.T) {
	f := newServiceFixture(t)

	_, u, err := f.service.Register(context.Background(), &RegisterRequest{
		Email:    "ada@example.edu",
		Password: "correct-horse",
		Name:     "Ada Lovelace",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", u.Name)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	f.seedPasswordUser(t, "ada@example.edu", "correct-horse")

	_, _, err := f.service.Register(context.Background(), &RegisterRequest{
		Email:    "ADA@example.edu",
		Password: "another-pass",
	}, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_Login(t *testing.T) {
	f := newServiceFixture(t)
	seeded := f.seedPasswordUser(t, "ada@example.edu", "correct-horse")

	tokens, u, err := f.service.Login(context.Background(), &LoginRequest{
		Email:    "ada@example.edu",
		Password: "correct-horse",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, u.ID)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, 1, f.limiter.resets, "successful login clears the attempt counter")
}

func TestService_LoginFailures(t *testing.T) {
	f := newServiceFixture(t)
	f.seedPasswordUser(t, "ada@example.edu", "correct-horse")

	oauthOnly := "oauth-only@example.edu"
	provider := "github"
	oid := "42"
	require.NoError(t, f.users.Create(context.Background(), &user.User{
		ID:            uuid.New(),
		Email:         &oauthOnly,
		Name:          "OAuth Only",
		OAuthProvider: &provider,
		OAuthID:       &oid,
	}))

	tests := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "ada@example.edu", "wrong"},
		{"unknown email", "nobody@example.edu", "correct-horse"},
		{"account without password", "oauth-only@example.edu", "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.service.Login(context.Background(), &LoginRequest{
				Email:    tt.email,
				Password: tt.pass,
			}, "test-agent", "127.0.0.1")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestService_LoginRateLimited(t *testing.T) {
	f := newServiceFixture(t)
	f.seedPasswordUser(t, "ada@example.edu", "correct-horse")
	f.limiter.allowed = false

	_, _, err := f.service.Login(context.Background(), &LoginRequest{
		Email:    "ada@example.edu",
		Password: "correct-horse",
	}, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestService_LoginLimiterUnavailable(t *testing.T) {
	// A broken limiter backend must not block logins.
	f := newServiceFixture(t)
	f.seedPasswordUser(t, "ada@example.edu", "correct-horse")
	f.limiter.allowed = false
	f.limiter.err = errors.New("redis down")

	_, _, err := f.service.Login(context.Background(), &LoginRequest{
		Email:    "ada@example.edu",
		Password: "correct-horse",
	}, "test-agent", "127.0.0.1")
	assert.NoError(t, err)
}

func TestService_GuestLogin(t *testing.T) {
	f := newServiceFixture(t)

	tokens, u, err := f.service.GuestLogin(context.Background(), "test-agent", "127.0.0.1")
	require.NoError(t, err)

	assert.True(t, u.IsGuest)
	assert.Nil(t, u.Email)
	assert.Equal(t, user.GuestName(u.ID), u.Name)
	assert.True(t, strings.HasPrefix(u.Name, "Guest_"))

	claims, err := f.service.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsGuest)
}

func TestService_InitiateOAuth(t *testing.T) {
	f := newServiceFixture(t)
	f.addProvider(&fakeOAuthProvider{name: "github"})

	resp, err := f.service.InitiateOAuth(context.Background(), OAuthProviderGitHub)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.State)
	assert.Contains(t, resp.AuthURL, resp.State)

	_, err = f.service.InitiateOAuth(context.Background(), OAuthProvider("gitlab"))
	assert.ErrorIs(t, err, ErrInvalidOAuthProvider)

	// Valid provider name but not configured.
	_, err = f.service.InitiateOAuth(context.Background(), OAuthProviderGoogle)
	assert.ErrorIs(t, err, ErrInvalidOAuthProvider)
}

func TestService_CompleteOAuth_NewUser(t *testing.T) {
	f := newServiceFixture(t)
	f.addProvider(&fakeOAuthProvider{
		name: "github",
		identity: &oauth.Identity{
			ID:        "42",
			Email:     "Ada@Example.EDU",
			Name:      "Ada Lovelace",
			AvatarURL: "https://avatars.example.com/ada.png",
		},
	})

	resp, err := f.service.InitiateOAuth(context.Background(), OAuthProviderGitHub)
	require.NoError(t, err)

	tokens, u, err := f.service.CompleteOAuth(context.Background(), &CallbackRequest{
		Provider: OAuthProviderGitHub,
		Code:     "auth-code",
		State:    resp.State,
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, "Ada Lovelace", u.Name)
	require.NotNil(t, u.Email)
	assert.Equal(t, "ada@example.edu", *u.Email)
	require.NotNil(t, u.OAuthProvider)
	assert.Equal(t, "github", *u.OAuthProvider)
	assert.Equal(t, "https://avatars.example.com/ada.png", u.PhotoURL)
}

func TestService_CompleteOAuth_LinksExistingAccount(t *testing.T) {
	f := newServiceFixture(t)
	seeded := f.seedPasswordUser(t, "ada@example.edu", "correct-horse")
	f.addProvider(&fakeOAuthProvider{
		name:     "google",
		identity: &oauth.Identity{ID: "g-7", Email: "ada@example.edu", Name: "Ada"},
	})

	resp, err := f.service.InitiateOAuth(context.Background(), OAuthProviderGoogle)
	require.NoError(t, err)

	_, u, err := f.service.CompleteOAuth(context.Background(), &CallbackRequest{
		Provider: OAuthProviderGoogle,
		Code:     "auth-code",
		State:    resp.State,
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, seeded.ID, u.ID, "links to the existing account instead of creating a new one")
	require.NotNil(t, u.OAuthProvider)
	assert.Equal(t, "google", *u.OAuthProvider)
	assert.NotNil(t, u.PasswordHash, "password login remains available")
}

func TestService_CompleteOAuth_StateChecks(t *testing.T) {
	f := newServiceFixture(t)
	f.addProvider(&fakeOAuthProvider{
		name:     "github",
		identity: &oauth.Identity{ID: "42", Email: "ada@example.edu"},
	})
	f.addProvider(&fakeOAuthProvider{
		name:     "google",
		identity: &oauth.Identity{ID: "g-7", Email: "ada@example.edu"},
	})

	_, _, err := f.service.CompleteOAuth(context.Background(), &CallbackRequest{
		Provider: OAuthProviderGitHub,
		Code:     "auth-code",
		State:    "never-issued",
	}, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidOAuthState)

	// State issued for one provider cannot complete another's flow.
	resp, err := f.service.InitiateOAuth(context.Background(), OAuthProviderGitHub)
	require.NoError(t, err)
	_, _, err = f.service.CompleteOAuth(context.Background(), &CallbackRequest{
		Provider: OAuthProviderGoogle,
		Code:     "auth-code",
		State:    resp.State,
	}, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidOAuthState)

	// States are single-use.
	resp, err = f.service.InitiateOAuth(context.Background(), OAuthProviderGitHub)
	require.NoError(t, err)
	_, _, err = f.service.CompleteOAuth(context.Background(), &CallbackRequest{
		Provider: OAuthProviderGitHub, Code: "auth-code", State: resp.State,
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	_, _, err = f.service.CompleteOAuth(context.Background(), &CallbackRequest{
		Provider: OAuthProviderGitHub, Code: "auth-code", State: resp.State,
	}, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidOAuthState)
}

func TestService_CompleteOAuth_ExchangeFails(t *testing.T) {
	f := newServiceFixture(t)
	f.addProvider(&fakeOAuthProvider{
		name:        "github",
		exchangeErr: errors.New("code already redeemed"),
	})

	resp, err := f.service.InitiateOAuth(context.Background(), OAuthProviderGitHub)
	require.NoError(t, err)

	_, _, err = f.service.CompleteOAuth(context.Background(), &CallbackRequest{
		Provider: OAuthProviderGitHub,
		Code:     "bad-code",
		State:    resp.State,
	}, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidOAuthCode)
}

func TestService_RefreshTokens(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tokens, u, err := f.service.Register(ctx, &RegisterRequest{
		Email:    "ada@example.edu",
		Password: "correct-horse",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	refreshed, err := f.service.RefreshTokens(ctx, tokens.RefreshToken, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken, "refresh tokens rotate")

	// The old refresh token is dead after rotation.
	_, err = f.service.RefreshTokens(ctx, tokens.RefreshToken, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrRevokedToken)

	assert.Equal(t, 1, f.tokens.activeCount(u.ID))
}

func TestService_RefreshTokens_Invalid(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.RefreshTokens(context.Background(), "never-issued", "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RefreshTokens_Expired(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	u := f.seedPasswordUser(t, "ada@example.edu", "correct-horse")
	raw := "expired-raw-token"
	require.NoError(t, f.tokens.Create(ctx, &RefreshToken{
		UserID:    u.ID,
		TokenHash: newTestJWTManager(time.Minute).HashRefreshToken(raw),
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := f.service.RefreshTokens(ctx, raw, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestService_Logout(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tokens, u, err := f.service.Register(ctx, &RegisterRequest{
		Email:    "ada@example.edu",
		Password: "correct-horse",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, 1, f.tokens.activeCount(u.ID))

	require.NoError(t, f.service.Logout(ctx, u.ID))
	assert.Equal(t, 0, f.tokens.activeCount(u.ID))

	_, err = f.service.RefreshTokens(ctx, tokens.RefreshToken, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrRevokedToken)
}
