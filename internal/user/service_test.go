package user

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/events"
	"mngkeeper/internal/keycloak"
	dErrors "mngkeeper/pkg/domain-errors"
)

type fakeDomains struct {
	domain *models.Domain
}

func (f *fakeDomains) GetDomain(_ context.Context, id string) (*models.Domain, error) {
	if f.domain == nil || f.domain.ID != id {
		return nil, dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	return f.domain, nil
}

type fakeIDP struct {
	created []keycloak.User
	deleted []string
	nextID  int
}

func (f *fakeIDP) CreateUser(_ context.Context, _ string, user keycloak.User) (string, error) {
	f.created = append(f.created, user)
	f.nextID++
	return "kc-u-" + string(rune('0'+f.nextID)), nil
}

func (f *fakeIDP) DeleteUser(_ context.Context, realm, userID string) error {
	f.deleted = append(f.deleted, realm+"/"+userID)
	return nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturedEvents) Notify(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *capturedEvents) types() []events.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Type, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func activeDomain() *models.Domain {
	return &models.Domain{
		ID:        "dom-1",
		Name:      "Acme Corp",
		Status:    models.StatusActive,
		RealmName: "acme_corp",
		Settings:  models.Settings{MaxUsers: 3, MaxAssets: 100, MessagingEnabled: true},
	}
}

func newTestService(t *testing.T, domain *models.Domain) (*Service, *fakeIDP, *capturedEvents) {
	t.Helper()
	idp := &fakeIDP{}
	captured := &capturedEvents{}
	return NewService(NewMemoryStore(), &fakeDomains{domain: domain}, idp, captured), idp, captured
}

func validCreate(username string) CreateCommand {
	return CreateCommand{
		Username:  username,
		Email:     username + "@acme.test",
		Password:  "correct-horse",
		FirstName: "Test",
		LastName:  "User",
	}
}

func TestCreateUser(t *testing.T) {
	svc, idp, captured := newTestService(t, activeDomain())
	ctx := context.Background()

	u, err := svc.Create(ctx, "dom-1", validCreate("alice"))
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEmpty(t, u.KeycloakUserID)
	assert.True(t, u.Enabled)

	require.Len(t, idp.created, 1)
	assert.Equal(t, "alice", idp.created[0].Username)
	require.Len(t, idp.created[0].Credentials, 1)
	assert.Equal(t, "password", idp.created[0].Credentials[0].Type)

	assert.Equal(t, []events.Type{events.TypeUserCreated}, captured.types())
}

func TestCreateUserReservedSuffix(t *testing.T) {
	svc, _, _ := newTestService(t, activeDomain())

	_, err := svc.Create(context.Background(), "dom-1", validCreate("acme_admin"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCreateUserInactiveDomain(t *testing.T) {
	suspended := activeDomain()
	suspended.Status = models.StatusSuspended
	svc, _, _ := newTestService(t, suspended)

	_, err := svc.Create(context.Background(), "dom-1", validCreate("alice"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestCreateUserLimitEnforced(t *testing.T) {
	svc, _, _ := newTestService(t, activeDomain()) // MaxUsers: 3
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := svc.Create(ctx, "dom-1", validCreate(name))
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, "dom-1", validCreate("dave"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCreateUserDuplicateCleansUpRealm(t *testing.T) {
	svc, idp, _ := newTestService(t, activeDomain())
	ctx := context.Background()

	_, err := svc.Create(ctx, "dom-1", validCreate("alice"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, "dom-1", validCreate("alice"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	require.Len(t, idp.deleted, 1)
}

func TestUpdateUser(t *testing.T) {
	svc, _, captured := newTestService(t, activeDomain())
	ctx := context.Background()

	u, err := svc.Create(ctx, "dom-1", validCreate("alice"))
	require.NoError(t, err)

	disabled := false
	updated, err := svc.Update(ctx, "dom-1", u.ID, UpdateCommand{
		Email:     "alice@new.test",
		FirstName: "Alice",
		Enabled:   &disabled,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@new.test", updated.Email)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.False(t, updated.Enabled)
	assert.Contains(t, captured.types(), events.TypeUserUpdated)
}

func TestProtectedAdminCannotBeDisabledOrDeleted(t *testing.T) {
	svc, _, _ := newTestService(t, activeDomain())
	ctx := context.Background()

	admin := &User{
		ID:             "u-admin",
		DomainID:       "dom-1",
		Username:       "Acme Corp_admin",
		Email:          "admin@acme.test",
		Enabled:        true,
		KeycloakUserID: "kc-admin",
	}
	require.NoError(t, svc.store.Create(ctx, admin))

	disabled := false
	_, err := svc.Update(ctx, "dom-1", "u-admin", UpdateCommand{Email: admin.Email, Enabled: &disabled})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	err = svc.Delete(ctx, "dom-1", "u-admin")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestDeleteUser(t *testing.T) {
	svc, idp, captured := newTestService(t, activeDomain())
	ctx := context.Background()

	u, err := svc.Create(ctx, "dom-1", validCreate("alice"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "dom-1", u.ID))
	require.Len(t, idp.deleted, 1)
	assert.Contains(t, captured.types(), events.TypeUserDeleted)

	_, err = svc.Get(ctx, "dom-1", u.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// The username is reusable after deletion.
	_, err = svc.Create(ctx, "dom-1", validCreate("alice"))
	require.NoError(t, err)
}

func TestKeycloakUserID(t *testing.T) {
	svc, _, _ := newTestService(t, activeDomain())
	ctx := context.Background()

	u, err := svc.Create(ctx, "dom-1", validCreate("alice"))
	require.NoError(t, err)

	id, err := svc.KeycloakUserID(ctx, "dom-1", u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.KeycloakUserID, id)

	_, err = svc.KeycloakUserID(ctx, "dom-1", "ghost")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestIsProtected(t *testing.T) {
	assert.True(t, IsProtected("Acme Corp_admin"))
	assert.True(t, IsProtected("x_admin"))
	assert.False(t, IsProtected("admin"))
	assert.False(t, IsProtected("alice"))
}
