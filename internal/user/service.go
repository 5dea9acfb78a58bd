package user

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/events"
	"mngkeeper/internal/keycloak"
	dErrors "mngkeeper/pkg/domain-errors"
)

// DomainDirectory resolves domain records.
type DomainDirectory interface {
	GetDomain(ctx context.Context, id string) (*models.Domain, error)
}

// IdentityProvider is the slice of the identity provider admin API the user
// service needs.
type IdentityProvider interface {
	CreateUser(ctx context.Context, realmName string, user keycloak.User) (string, error)
	DeleteUser(ctx context.Context, realmName, userID string) error
}

// Notifier publishes user events without blocking the caller.
type Notifier interface {
	Notify(event events.Event)
}

// Service manages tenant users, keeping the document store and the identity
// provider realm in step and enforcing the domain's user limit.
type Service struct {
	store    Store
	domains  DomainDirectory
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

// NewService creates the user service.
func NewService(store Store, domains DomainDirectory, idp IdentityProvider, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		domains:  domains,
		idp:      idp,
		notifier: notifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCommand carries the input for creating a user.
type CreateCommand struct {
	Username  string `json:"username" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName,omitempty" validate:"max=100"`
	LastName  string `json:"lastName,omitempty" validate:"max=100"`
}

// Create adds a user to the domain, in the document store and in the
// domain's realm. The domain must be active and under its user limit.
func (s *Service) Create(ctx context.Context, domainID string, cmd CreateCommand) (*User, error) {
	username := strings.TrimSpace(cmd.Username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if IsProtected(username) {
		return nil, dErrors.New(dErrors.CodeConflict, "username suffix is reserved for domain admins")
	}

	domain, err := s.domains.GetDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if domain.Status != models.StatusActive {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "domain is not active")
	}

	count, err := s.store.CountByDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if domain.Settings.MaxUsers > 0 && count >= domain.Settings.MaxUsers {
		return nil, dErrors.New(dErrors.CodeConflict, "domain user limit reached")
	}

	now := time.Now().UTC()
	u := &User{
		ID:        uuid.NewString(),
		DomainID:  domainID,
		Username:  username,
		Email:     cmd.Email,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	kcID, err := s.idp.CreateUser(ctx, domain.RealmName, keycloak.User{
		Username:  username,
		Email:     cmd.Email,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Enabled:   true,
		Credentials: []keycloak.Credential{
			{Type: "password", Value: cmd.Password, Temporary: false},
		},
	})
	if err != nil {
		return nil, err
	}
	u.KeycloakUserID = kcID

	if err := s.store.Create(ctx, u); err != nil {
		// The realm account is orphaned otherwise.
		if delErr := s.idp.DeleteUser(ctx, domain.RealmName, kcID); delErr != nil {
			s.logger.Error("failed to remove realm user after store conflict",
				"domain_id", domainID, "username", username, "error", delErr)
		}
		return nil, err
	}

	s.notifier.Notify(events.New(ctx, events.TypeUserCreated, domainID, events.UserPayload{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	}))
	return u, nil
}

// UpdateCommand carries the input for updating a user.
type UpdateCommand struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName,omitempty" validate:"max=100"`
	LastName  string `json:"lastName,omitempty" validate:"max=100"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

// Update changes a user's profile. Protected admin accounts cannot be
// disabled.
func (s *Service) Update(ctx context.Context, domainID, id string, cmd UpdateCommand) (*User, error) {
	u, err := s.store.GetByID(ctx, domainID, id)
	if err != nil {
		return nil, err
	}

	if cmd.Enabled != nil {
		if !*cmd.Enabled && IsProtected(u.Username) {
			return nil, dErrors.New(dErrors.CodeForbidden, "domain admin accounts cannot be disabled")
		}
		u.Enabled = *cmd.Enabled
	}
	u.Email = cmd.Email
	u.FirstName = cmd.FirstName
	u.LastName = cmd.LastName
	u.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}

	s.notifier.Notify(events.New(ctx, events.TypeUserUpdated, domainID, events.UserPayload{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	}))
	return u, nil
}

// Delete removes a user from the document store and the realm. Protected
// admin accounts cannot be deleted.
func (s *Service) Delete(ctx context.Context, domainID, id string) error {
	u, err := s.store.GetByID(ctx, domainID, id)
	if err != nil {
		return err
	}
	if IsProtected(u.Username) {
		return dErrors.New(dErrors.CodeForbidden, "domain admin accounts cannot be deleted")
	}

	domain, err := s.domains.GetDomain(ctx, domainID)
	if err != nil {
		return err
	}

	if u.KeycloakUserID != "" {
		if err := s.idp.DeleteUser(ctx, domain.RealmName, u.KeycloakUserID); err != nil {
			if !dErrors.HasCode(err, dErrors.CodeNotFound) {
				return err
			}
		}
	}

	if err := s.store.Delete(ctx, domainID, id); err != nil {
		return err
	}

	s.notifier.Notify(events.New(ctx, events.TypeUserDeleted, domainID, events.UserPayload{
		UserID:   u.ID,
		Username: u.Username,
	}))
	return nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, domainID, id string) (*User, error) {
	return s.store.GetByID(ctx, domainID, id)
}

// GetByUsername returns the user with the given username.
func (s *Service) GetByUsername(ctx context.Context, domainID, username string) (*User, error) {
	return s.store.GetByUsername(ctx, domainID, username)
}

// List returns the domain's users.
func (s *Service) List(ctx context.Context, domainID string) ([]*User, error) {
	return s.store.ListByDomain(ctx, domainID)
}

// KeycloakUserID resolves a user record to its identity provider id. The
// group service uses it when syncing memberships.
func (s *Service) KeycloakUserID(ctx context.Context, domainID, id string) (string, error) {
	u, err := s.store.GetByID(ctx, domainID, id)
	if err != nil {
		return "", err
	}
	if u.KeycloakUserID == "" {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "user has no identity provider account")
	}
	return u.KeycloakUserID, nil
}
