package group

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/events"
	dErrors "mngkeeper/pkg/domain-errors"
)

// DomainDirectory resolves domain records; the group's realm comes from its
// domain.
type DomainDirectory interface {
	GetDomain(ctx context.Context, id string) (*models.Domain, error)
}

// UserDirectory resolves a user record to its identity provider id.
type UserDirectory interface {
	KeycloakUserID(ctx context.Context, domainID, userID string) (string, error)
}

// IdentityProvider is the slice of the identity provider admin API the group
// service needs.
type IdentityProvider interface {
	CreateGroup(ctx context.Context, realmName, groupName string) (string, error)
	DeleteGroup(ctx context.Context, realmName, groupID string) error
	AddUserToGroup(ctx context.Context, realmName, userID, groupName string) error
	RemoveUserFromGroup(ctx context.Context, realmName, userID, groupName string) error
}

// Notifier publishes group events without blocking the caller.
type Notifier interface {
	Notify(event events.Event)
}

// Service manages tenant groups and their memberships, keeping the document
// store and the identity provider realm in step.
type Service struct {
	store    Store
	domains  DomainDirectory
	users    UserDirectory
	idp      IdentityProvider
	notifier Notifier
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates the group service.
func NewService(store Store, domains DomainDirectory, users UserDirectory, idp IdentityProvider, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		domains:  domains,
		users:    users,
		idp:      idp,
		notifier: notifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCommand carries the input for creating a group.
type CreateCommand struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// Create adds a group to the domain, in the document store and in the
// domain's realm.
func (s *Service) Create(ctx context.Context, domainID string, cmd CreateCommand) (*Group, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "group name is required")
	}
	if IsSystem(name) {
		return nil, dErrors.New(dErrors.CodeConflict, "group name is reserved")
	}

	domain, err := s.domains.GetDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	g := &Group{
		ID:          uuid.NewString(),
		DomainID:    domainID,
		Name:        name,
		Description: cmd.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	kcID, err := s.idp.CreateGroup(ctx, domain.RealmName, name)
	if err != nil {
		return nil, err
	}
	g.KeycloakGroupID = kcID

	if err := s.store.Create(ctx, g); err != nil {
		// The realm group is orphaned otherwise.
		if delErr := s.idp.DeleteGroup(ctx, domain.RealmName, kcID); delErr != nil {
			s.logger.Error("failed to remove realm group after store conflict",
				"domain_id", domainID, "group", name, "error", delErr)
		}
		return nil, err
	}

	s.notifier.Notify(events.New(ctx, events.TypeGroupCreated, domainID, events.GroupPayload{
		GroupID: g.ID,
		Name:    g.Name,
	}))
	return g, nil
}

// UpdateCommand carries the input for updating a group.
type UpdateCommand struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// Update renames a group or changes its description. System groups accept
// description changes only.
func (s *Service) Update(ctx context.Context, domainID, id string, cmd UpdateCommand) (*Group, error) {
	g, err := s.store.GetByID(ctx, domainID, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "group name is required")
	}
	if name != g.Name {
		if IsSystem(g.Name) {
			return nil, dErrors.New(dErrors.CodeForbidden, "system groups cannot be renamed")
		}
		if IsSystem(name) {
			return nil, dErrors.New(dErrors.CodeConflict, "group name is reserved")
		}
		g.Name = name
	}
	g.Description = cmd.Description
	g.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, g); err != nil {
		return nil, err
	}

	s.notifier.Notify(events.New(ctx, events.TypeGroupUpdated, domainID, events.GroupPayload{
		GroupID: g.ID,
		Name:    g.Name,
	}))
	return g, nil
}

// Delete removes a group from the document store and the realm. System
// groups cannot be deleted.
func (s *Service) Delete(ctx context.Context, domainID, id string) error {
	g, err := s.store.GetByID(ctx, domainID, id)
	if err != nil {
		return err
	}
	if IsSystem(g.Name) {
		return dErrors.New(dErrors.CodeForbidden, "system groups cannot be deleted")
	}

	domain, err := s.domains.GetDomain(ctx, domainID)
	if err != nil {
		return err
	}

	if g.KeycloakGroupID != "" {
		if err := s.idp.DeleteGroup(ctx, domain.RealmName, g.KeycloakGroupID); err != nil {
			if !dErrors.HasCode(err, dErrors.CodeNotFound) {
				return err
			}
			// Already gone in the realm; the record still goes.
		}
	}

	if err := s.store.Delete(ctx, domainID, id); err != nil {
		return err
	}

	s.notifier.Notify(events.New(ctx, events.TypeGroupDeleted, domainID, events.GroupPayload{
		GroupID: g.ID,
		Name:    g.Name,
	}))
	return nil
}

// Get returns the group with the given id.
func (s *Service) Get(ctx context.Context, domainID, id string) (*Group, error) {
	return s.store.GetByID(ctx, domainID, id)
}

// GetByName returns the group with the given name.
func (s *Service) GetByName(ctx context.Context, domainID, name string) (*Group, error) {
	return s.store.GetByName(ctx, domainID, name)
}

// List returns the domain's groups.
func (s *Service) List(ctx context.Context, domainID string) ([]*Group, error) {
	return s.store.ListByDomain(ctx, domainID)
}

// AddUser puts the user into the group, in the record and in the realm.
// Adding a user twice is a no-op.
func (s *Service) AddUser(ctx context.Context, domainID, groupID, userID string) error {
	g, err := s.store.GetByID(ctx, domainID, groupID)
	if err != nil {
		return err
	}
	if g.HasMember(userID) {
		return nil
	}

	domain, err := s.domains.GetDomain(ctx, domainID)
	if err != nil {
		return err
	}
	kcUserID, err := s.users.KeycloakUserID(ctx, domainID, userID)
	if err != nil {
		return err
	}
	if err := s.idp.AddUserToGroup(ctx, domain.RealmName, kcUserID, g.Name); err != nil {
		return err
	}

	g.AddMember(userID)
	g.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, g); err != nil {
		return err
	}

	s.notifier.Notify(events.New(ctx, events.TypeUserAddedToGroup, domainID, events.MembershipPayload{
		UserID:  userID,
		GroupID: g.ID,
		Group:   g.Name,
	}))
	return nil
}

// RemoveUser takes the user out of the group. Removing a non-member is a
// no-op.
func (s *Service) RemoveUser(ctx context.Context, domainID, groupID, userID string) error {
	g, err := s.store.GetByID(ctx, domainID, groupID)
	if err != nil {
		return err
	}
	if !g.HasMember(userID) {
		return nil
	}

	domain, err := s.domains.GetDomain(ctx, domainID)
	if err != nil {
		return err
	}
	kcUserID, err := s.users.KeycloakUserID(ctx, domainID, userID)
	if err != nil {
		return err
	}
	if err := s.idp.RemoveUserFromGroup(ctx, domain.RealmName, kcUserID, g.Name); err != nil {
		return err
	}

	g.RemoveMember(userID)
	g.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, g); err != nil {
		return err
	}

	s.notifier.Notify(events.New(ctx, events.TypeUserRemovedFromGroup, domainID, events.MembershipPayload{
		UserID:  userID,
		GroupID: g.ID,
		Group:   g.Name,
	}))
	return nil
}
