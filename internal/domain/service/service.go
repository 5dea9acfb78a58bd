// Package service implements domain provisioning and lifecycle management.
// Provisioning spans four backends (document store, tenant database, identity
// provider, event broker) and runs as a compensating sequence: a failed step
// unwinds the side effects of the steps before it.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mngkeeper/internal/domain/metrics"
	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/domain/store"
	"mngkeeper/internal/events"
	"mngkeeper/internal/keycloak"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mocks.go -package=mocks

// Store persists domain records.
type Store interface {
	CreateIfNameAvailable(ctx context.Context, domain *models.Domain) error
	GetByID(ctx context.Context, id string) (*models.Domain, error)
	GetByName(ctx context.Context, name string) (*models.Domain, error)
	GetByRealm(ctx context.Context, realmName string) (*models.Domain, error)
	List(ctx context.Context, filter store.ListFilter) ([]*models.Domain, error)
	Update(ctx context.Context, domain *models.Domain) error
	Delete(ctx context.Context, id string) error
}

// IdentityProvider is the slice of the identity provider admin API that
// provisioning needs.
type IdentityProvider interface {
	CreateRealm(ctx context.Context, realmName string) error
	DeleteRealm(ctx context.Context, realmName string) error
	CreateGroup(ctx context.Context, realmName, groupName string) (string, error)
	CreateUser(ctx context.Context, realmName string, user keycloak.User) (string, error)
	AddUserToGroup(ctx context.Context, realmName, userID, groupName string) error
}

// DatabaseProvisioner creates and drops per-tenant databases.
type DatabaseProvisioner interface {
	CreateTenantDatabase(ctx context.Context, name string) error
	DropTenantDatabase(ctx context.Context, name string) error
}

// Notifier publishes domain events without blocking the caller.
type Notifier interface {
	Notify(event events.Event)
}

// Service orchestrates domain provisioning and lifecycle transitions.
type Service struct {
	store    Store
	idp      IdentityProvider
	db       DatabaseProvisioner
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics bundle.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates the domain service.
func NewService(store Store, idp IdentityProvider, db DatabaseProvisioner, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		idp:      idp,
		db:       db,
		notifier: notifier,
		logger:   slog.Default(),
		tracer:   otel.Tracer("mngkeeper/domain"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
