package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/keycloak"
	"mngkeeper/internal/session"
	"mngkeeper/internal/token"
	dErrors "mngkeeper/pkg/domain-errors"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type fakeDomains struct {
	domain *models.Domain
}

func (f *fakeDomains) GetDomainByName(_ context.Context, name string) (*models.Domain, error) {
	if f.domain == nil || f.domain.Name != name {
		return nil, dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	return f.domain, nil
}

func (f *fakeDomains) GetDomainByRealm(_ context.Context, realm string) (*models.Domain, error) {
	if f.domain == nil || f.domain.RealmName != realm {
		return nil, dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	return f.domain, nil
}

type fakeTokens struct {
	accessToken string
	adminUsers  map[string]bool
	tokenErr    error
	revoked     []string
	refreshed   []string
}

func (f *fakeTokens) GetToken(_ context.Context, _, _, _ string) (*keycloak.Token, error) {
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return &keycloak.Token{AccessToken: f.accessToken, RefreshToken: "rt-1", ExpiresIn: 300}, nil
}

func (f *fakeTokens) RefreshToken(_ context.Context, _, refreshToken string) (*keycloak.Token, error) {
	f.refreshed = append(f.refreshed, refreshToken)
	return &keycloak.Token{AccessToken: f.accessToken, RefreshToken: "rt-2", ExpiresIn: 300}, nil
}

func (f *fakeTokens) RevokeToken(_ context.Context, _, refreshToken string) error {
	f.revoked = append(f.revoked, refreshToken)
	return nil
}

func (f *fakeTokens) IsUserInGroup(_ context.Context, _, username, _ string) (bool, error) {
	return f.adminUsers[username], nil
}

func buildToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}

func activeDomain() *models.Domain {
	return &models.Domain{
		ID:        "dom-1",
		Name:      "Acme Corp",
		Status:    models.StatusActive,
		RealmName: "acme_corp",
	}
}

func newTestService(t *testing.T, domain *models.Domain, tokens *fakeTokens) (*Service, *session.Store) {
	t.Helper()
	sessions := session.NewStore(session.NewMemoryCache())
	return NewService(&fakeDomains{domain: domain}, tokens, sessions), sessions
}

func TestLogin(t *testing.T) {
	raw := buildToken(t, map[string]any{
		"sub":                "kc-u-1",
		"preferred_username": "alice",
		"email":              "alice@acme.test",
	})
	tokens := &fakeTokens{accessToken: raw, adminUsers: map[string]bool{"alice": true}}
	svc, sessions := newTestService(t, activeDomain(), tokens)

	result, err := svc.Login(context.Background(), LoginCommand{
		Domain:    "Acme Corp",
		Username:  "alice",
		Password:  "pw",
		UserAgent: chromeUA,
	})
	require.NoError(t, err)

	assert.Equal(t, "rt-1", result.RefreshToken)
	assert.Equal(t, 300, result.ExpiresIn)
	assert.True(t, result.IsAdmin)
	assert.NotEmpty(t, result.SessionID)

	// The returned token carries the injected domain claims.
	claims, err := token.Parse(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "dom-1", claims.DomainID)
	assert.Equal(t, "Acme Corp", claims.DomainName)
	assert.Equal(t, "acme_corp", claims.DomainRealm)
	assert.True(t, claims.IsAdmin)

	data, err := sessions.Get(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "kc-u-1", data.UserID)
	assert.Equal(t, "dom-1", data.DomainID)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, []string{"admins"}, data.Roles)
	assert.Contains(t, data.Claims["device"], "Chrome")
}

func TestLoginQualifiedUsername(t *testing.T) {
	raw := buildToken(t, map[string]any{"sub": "kc-u-1"})
	tokens := &fakeTokens{accessToken: raw}
	svc, _ := newTestService(t, activeDomain(), tokens)

	result, err := svc.Login(context.Background(), LoginCommand{
		Username: "acme_corp/alice",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.False(t, result.IsAdmin)
}

func TestLoginUnknownDomainHidesExistence(t *testing.T) {
	svc, _ := newTestService(t, activeDomain(), &fakeTokens{})

	_, err := svc.Login(context.Background(), LoginCommand{
		Domain:   "No Such Corp",
		Username: "alice",
		Password: "pw",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestLoginSuspendedDomainRejected(t *testing.T) {
	suspended := activeDomain()
	suspended.Status = models.StatusSuspended
	svc, _ := newTestService(t, suspended, &fakeTokens{})

	_, err := svc.Login(context.Background(), LoginCommand{
		Domain:   "Acme Corp",
		Username: "alice",
		Password: "pw",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestLoginBadCredentials(t *testing.T) {
	tokens := &fakeTokens{tokenErr: dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")}
	svc, _ := newTestService(t, activeDomain(), tokens)

	_, err := svc.Login(context.Background(), LoginCommand{
		Domain:   "Acme Corp",
		Username: "alice",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestLoginSurvivesUnenrichableToken(t *testing.T) {
	// The provider hands back something that is not a JWT; login still
	// succeeds with the raw token.
	tokens := &fakeTokens{accessToken: "opaque-token"}
	svc, _ := newTestService(t, activeDomain(), tokens)

	result, err := svc.Login(context.Background(), LoginCommand{
		Domain:   "Acme Corp",
		Username: "alice",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", result.AccessToken)
}

func TestRefresh(t *testing.T) {
	// The provider issues bare tokens; domain claims only exist after
	// enrichment here, so admin standing must come from the realm.
	raw := buildToken(t, map[string]any{"sub": "kc-u-1", "preferred_username": "alice"})
	tokens := &fakeTokens{accessToken: raw, adminUsers: map[string]bool{"alice": true}}
	svc, sessions := newTestService(t, activeDomain(), tokens)

	sessionID, err := sessions.Create(context.Background(), &session.Data{UserID: "kc-u-1"}, 0)
	require.NoError(t, err)

	result, err := svc.Refresh(context.Background(), RefreshCommand{
		Domain:       "Acme Corp",
		RefreshToken: "rt-1",
		SessionID:    sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rt-1"}, tokens.refreshed)
	assert.Equal(t, "rt-2", result.RefreshToken)
	assert.True(t, result.IsAdmin)

	claims, err := token.Parse(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "dom-1", claims.DomainID)
	assert.True(t, claims.IsAdmin)
}

func TestRefreshNonAdminStaysNonAdmin(t *testing.T) {
	raw := buildToken(t, map[string]any{"sub": "kc-u-2", "preferred_username": "bob"})
	tokens := &fakeTokens{accessToken: raw}
	svc, _ := newTestService(t, activeDomain(), tokens)

	result, err := svc.Refresh(context.Background(), RefreshCommand{
		Domain:       "Acme Corp",
		RefreshToken: "rt-1",
	})
	require.NoError(t, err)
	assert.False(t, result.IsAdmin)

	claims, err := token.Parse(result.AccessToken)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin)
}

func TestLogout(t *testing.T) {
	tokens := &fakeTokens{accessToken: "x"}
	svc, sessions := newTestService(t, activeDomain(), tokens)

	sessionID, err := sessions.Create(context.Background(), &session.Data{UserID: "kc-u-1"}, 0)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), LogoutCommand{
		Domain:       "Acme Corp",
		RefreshToken: "rt-1",
		SessionID:    sessionID,
	}))
	assert.Equal(t, []string{"rt-1"}, tokens.revoked)

	_, err = sessions.Get(context.Background(), sessionID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestActiveSessionsAndInvalidateAll(t *testing.T) {
	svc, sessions := newTestService(t, activeDomain(), &fakeTokens{})
	ctx := context.Background()

	first, err := sessions.Create(ctx, &session.Data{UserID: "kc-u-1"}, 0)
	require.NoError(t, err)
	second, err := sessions.Create(ctx, &session.Data{UserID: "kc-u-1"}, 0)
	require.NoError(t, err)

	ids, err := svc.ActiveSessions(ctx, "kc-u-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first, second}, ids)

	require.NoError(t, svc.InvalidateAllSessions(ctx, "kc-u-1"))

	ids, err = svc.ActiveSessions(ctx, "kc-u-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
