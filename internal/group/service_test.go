package group

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/events"
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

type fakeUsers struct {
	ids map[string]string
}

func (f *fakeUsers) KeycloakUserID(_ context.Context, _, userID string) (string, error) {
	id, ok := f.ids[userID]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return id, nil
}

type fakeIDP struct {
	created   []string
	deleted   []string
	added     []string
	removed   []string
	createErr error
}

func (f *fakeIDP) CreateGroup(_ context.Context, realm, name string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, realm+"/"+name)
	return "kc-" + name, nil
}

func (f *fakeIDP) DeleteGroup(_ context.Context, realm, groupID string) error {
	f.deleted = append(f.deleted, realm+"/"+groupID)
	return nil
}

func (f *fakeIDP) AddUserToGroup(_ context.Context, realm, userID, groupName string) error {
	f.added = append(f.added, realm+"/"+userID+"/"+groupName)
	return nil
}

func (f *fakeIDP) RemoveUserFromGroup(_ context.Context, realm, userID, groupName string) error {
	f.removed = append(f.removed, realm+"/"+userID+"/"+groupName)
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

func newTestService(t *testing.T) (*Service, *fakeIDP, *capturedEvents) {
	t.Helper()
	idp := &fakeIDP{}
	captured := &capturedEvents{}
	domains := &fakeDomains{domain: &models.Domain{
		ID:        "dom-1",
		Name:      "Acme Corp",
		Status:    models.StatusActive,
		RealmName: "acme_corp",
	}}
	users := &fakeUsers{ids: map[string]string{"u-1": "kc-u-1"}}
	return NewService(NewMemoryStore(), domains, users, idp, captured), idp, captured
}

func TestCreateGroup(t *testing.T) {
	svc, idp, captured := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "dom-1", CreateCommand{Name: "engineering", Description: "eng team"})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "kc-engineering", g.KeycloakGroupID)
	assert.Equal(t, []string{"acme_corp/engineering"}, idp.created)
	assert.Equal(t, []events.Type{events.TypeGroupCreated}, captured.types())
}

func TestCreateGroupRejectsSystemNames(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, name := range []string{"admins", "managers", "guests", "ADMINS"} {
		_, err := svc.Create(context.Background(), "dom-1", CreateCommand{Name: name})
		require.Error(t, err, name)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), name)
	}
}

func TestCreateGroupDuplicateNameCleansUpRealm(t *testing.T) {
	svc, idp, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "dom-1", CreateCommand{Name: "engineering"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "dom-1", CreateCommand{Name: "engineering"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	// The second realm group was rolled back.
	assert.Contains(t, idp.deleted, "acme_corp/kc-engineering")
}

func TestUpdateGroupRename(t *testing.T) {
	svc, _, captured := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "dom-1", CreateCommand{Name: "engineering"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "dom-1", g.ID, UpdateCommand{Name: "platform", Description: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "platform", updated.Name)
	assert.Equal(t, "renamed", updated.Description)
	assert.Contains(t, captured.types(), events.TypeGroupUpdated)

	_, err = svc.GetByName(ctx, "dom-1", "engineering")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSystemGroupCannotBeRenamedOrDeleted(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	admins := &Group{ID: "g-admins", DomainID: "dom-1", Name: "admins", KeycloakGroupID: "kc-admins"}
	require.NoError(t, svc.store.Create(ctx, admins))

	_, err := svc.Update(ctx, "dom-1", "g-admins", UpdateCommand{Name: "superadmins"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	err = svc.Delete(ctx, "dom-1", "g-admins")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	// Description-only changes are allowed.
	updated, err := svc.Update(ctx, "dom-1", "g-admins", UpdateCommand{Name: "admins", Description: "domain admins"})
	require.NoError(t, err)
	assert.Equal(t, "domain admins", updated.Description)
}

func TestDeleteGroup(t *testing.T) {
	svc, idp, captured := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "dom-1", CreateCommand{Name: "engineering"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "dom-1", g.ID))
	assert.Contains(t, idp.deleted, "acme_corp/kc-engineering")
	assert.Contains(t, captured.types(), events.TypeGroupDeleted)

	_, err = svc.Get(ctx, "dom-1", g.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestAddAndRemoveUser(t *testing.T) {
	svc, idp, captured := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "dom-1", CreateCommand{Name: "engineering"})
	require.NoError(t, err)

	require.NoError(t, svc.AddUser(ctx, "dom-1", g.ID, "u-1"))
	assert.Equal(t, []string{"acme_corp/kc-u-1/engineering"}, idp.added)

	got, err := svc.Get(ctx, "dom-1", g.ID)
	require.NoError(t, err)
	assert.True(t, got.HasMember("u-1"))

	// Adding again is a no-op: no second realm call, no second event.
	require.NoError(t, svc.AddUser(ctx, "dom-1", g.ID, "u-1"))
	assert.Len(t, idp.added, 1)

	require.NoError(t, svc.RemoveUser(ctx, "dom-1", g.ID, "u-1"))
	assert.Equal(t, []string{"acme_corp/kc-u-1/engineering"}, idp.removed)

	got, err = svc.Get(ctx, "dom-1", g.ID)
	require.NoError(t, err)
	assert.False(t, got.HasMember("u-1"))

	// Removing a non-member is a no-op.
	require.NoError(t, svc.RemoveUser(ctx, "dom-1", g.ID, "u-1"))
	assert.Len(t, idp.removed, 1)

	types := captured.types()
	assert.Contains(t, types, events.TypeUserAddedToGroup)
	assert.Contains(t, types, events.TypeUserRemovedFromGroup)
}

func TestAddUserUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "dom-1", CreateCommand{Name: "engineering"})
	require.NoError(t, err)

	err = svc.AddUser(ctx, "dom-1", g.ID, "ghost")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
