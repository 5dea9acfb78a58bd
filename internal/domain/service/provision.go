package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/events"
	"mngkeeper/internal/keycloak"
	dErrors "mngkeeper/pkg/domain-errors"
)

// defaultGroups are created in every tenant realm. The first entry is the
// group the domain admin joins.
var defaultGroups = []string{"admins", "managers", "guests"}

// CreateDomainCommand carries the caller's input for provisioning a domain.
type CreateDomainCommand struct {
	Name          string           `json:"name" validate:"required,max=100"`
	DisplayName   string           `json:"displayName,omitempty" validate:"max=100"`
	Description   string           `json:"description,omitempty" validate:"max=500"`
	AdminEmail    string           `json:"adminEmail" validate:"required,email"`
	AdminPassword string           `json:"adminPassword" validate:"required,min=8"`
	Settings      *models.Settings `json:"settings,omitempty"`
	CreatedBy     string           `json:"-"`
}

// compensation is one recorded undo action for a completed provisioning step.
type compensation struct {
	step string
	undo func(ctx context.Context) error
}

// CreateDomain provisions a tenant end to end: document record, tenant
// database, identity provider realm with groups and an admin user, and an
// activation event. A failed step unwinds every completed side effect in
// reverse order and removes the pending record, so a failed create leaves no
// trace and the name stays available.
func (s *Service) CreateDomain(ctx context.Context, cmd CreateDomainCommand) (*models.Domain, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "domain.create")
	defer span.End()

	settings := models.DefaultSettings()
	if cmd.Settings != nil {
		settings = *cmd.Settings
	}
	displayName := cmd.DisplayName
	if displayName == "" {
		displayName = cmd.Name
	}

	domain := &models.Domain{
		ID:           uuid.NewString(),
		Name:         cmd.Name,
		DisplayName:  displayName,
		Description:  cmd.Description,
		Status:       models.StatusPending,
		RealmName:    models.Normalize(cmd.Name),
		DatabaseName: models.DatabaseNameFor(cmd.Name),
		Settings:     settings,
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    cmd.CreatedBy,
	}
	if err := domain.Validate(); err != nil {
		return nil, err
	}

	var undos []compensation
	fail := func(step string, err error) (*models.Domain, error) {
		s.countFailure(step)
		s.logger.Error("domain provisioning step failed",
			"domain", domain.Name, "step", step, "error", err)
		s.compensate(domain, undos)
		return nil, err
	}

	// Step 1: claim the name with a pending record. The store's uniqueness
	// rule makes this the only gate concurrent creates can pass one at a
	// time.
	if err := s.runStep(ctx, "persist_pending", func(ctx context.Context) error {
		return s.store.CreateIfNameAvailable(ctx, domain)
	}); err != nil {
		s.countFailure("persist_pending")
		return nil, err
	}
	undos = append(undos, compensation{"persist_pending", func(ctx context.Context) error {
		return s.store.Delete(ctx, domain.ID)
	}})

	// Step 2: tenant database with its baseline collections.
	if err := s.runStep(ctx, "create_database", func(ctx context.Context) error {
		return s.db.CreateTenantDatabase(ctx, domain.DatabaseName)
	}); err != nil {
		return fail("create_database", err)
	}
	undos = append(undos, compensation{"create_database", func(ctx context.Context) error {
		return s.db.DropTenantDatabase(ctx, domain.DatabaseName)
	}})

	// Step 3: identity provider realm. Deleting the realm later also removes
	// its groups and users, so one undo covers steps 3 through 5.
	if err := s.runStep(ctx, "create_realm", func(ctx context.Context) error {
		return s.idp.CreateRealm(ctx, domain.RealmName)
	}); err != nil {
		return fail("create_realm", err)
	}
	undos = append(undos, compensation{"create_realm", func(ctx context.Context) error {
		return s.idp.DeleteRealm(ctx, domain.RealmName)
	}})

	// Step 4: default groups.
	if err := s.runStep(ctx, "create_groups", func(ctx context.Context) error {
		for _, group := range defaultGroups {
			if _, err := s.idp.CreateGroup(ctx, domain.RealmName, group); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fail("create_groups", err)
	}

	// Step 5: domain admin user, member of the admins group.
	adminUsername := domain.Name + "_admin"
	if err := s.runStep(ctx, "create_admin_user", func(ctx context.Context) error {
		userID, err := s.idp.CreateUser(ctx, domain.RealmName, keycloak.User{
			Username: adminUsername,
			Email:    cmd.AdminEmail,
			Enabled:  true,
			Credentials: []keycloak.Credential{
				{Type: "password", Value: cmd.AdminPassword, Temporary: false},
			},
		})
		if err != nil {
			return err
		}
		domain.AdminUserID = userID
		return s.idp.AddUserToGroup(ctx, domain.RealmName, userID, defaultGroups[0])
	}); err != nil {
		return fail("create_admin_user", err)
	}

	// Step 6: flip the record to active.
	if err := s.runStep(ctx, "activate", func(ctx context.Context) error {
		if err := domain.Transition(models.StatusActive, cmd.CreatedBy); err != nil {
			return err
		}
		return s.store.Update(ctx, domain)
	}); err != nil {
		return fail("activate", err)
	}

	s.notifier.Notify(events.New(ctx, events.TypeDomainCreated, domain.ID, events.DomainCreatedPayload{
		DomainName:   domain.Name,
		RealmName:    domain.RealmName,
		DatabaseName: domain.DatabaseName,
		AdminUserID:  domain.AdminUserID,
	}))

	s.countProvisioned(time.Since(started))
	s.logger.Info("domain provisioned",
		"domain_id", domain.ID,
		"domain", domain.Name,
		"realm", domain.RealmName,
		"database", domain.DatabaseName,
	)
	return domain, nil
}

// runStep executes one provisioning step under its own span.
func (s *Service) runStep(ctx context.Context, step string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "domain.create."+step)
	defer span.End()
	return fn(ctx)
}

// compensate unwinds completed steps in reverse order. Undo failures are
// logged and skipped; a later cleanup has to pick up what could not be
// unwound here.
func (s *Service) compensate(domain *models.Domain, undos []compensation) {
	s.countCompensation()
	// The request context may already be cancelled; compensation gets its
	// own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := len(undos) - 1; i >= 0; i-- {
		if err := undos[i].undo(ctx); err != nil {
			s.logger.Error("compensation step failed",
				"domain", domain.Name, "step", undos[i].step, "error", err)
		}
	}
}

// DeleteDomain deprovisions a tenant: the realm and tenant database are
// removed and the record is marked deleted. Backend removal failures are
// logged and the teardown continues, so a half-reachable backend cannot wedge
// the domain in a live state.
func (s *Service) DeleteDomain(ctx context.Context, id, deletedBy string) error {
	ctx, span := s.tracer.Start(ctx, "domain.delete")
	defer span.End()

	domain, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if domain.Status == models.StatusDeleted {
		return dErrors.New(dErrors.CodeConflict, "domain already deleted")
	}

	if err := s.idp.DeleteRealm(ctx, domain.RealmName); err != nil {
		s.logger.Error("failed to delete realm during deprovisioning",
			"domain_id", domain.ID, "realm", domain.RealmName, "error", err)
	}
	if err := s.db.DropTenantDatabase(ctx, domain.DatabaseName); err != nil {
		s.logger.Error("failed to drop tenant database during deprovisioning",
			"domain_id", domain.ID, "database", domain.DatabaseName, "error", err)
	}

	if err := domain.Transition(models.StatusDeleted, deletedBy); err != nil {
		return err
	}
	if err := s.store.Update(ctx, domain); err != nil {
		return err
	}

	s.countDeprovisioned()
	s.logger.Info("domain deprovisioned", "domain_id", domain.ID, "domain", domain.Name)
	return nil
}

func (s *Service) countFailure(step string) {
	if s.metrics != nil {
		s.metrics.Failures.WithLabelValues(step).Inc()
	}
}

func (s *Service) countProvisioned(took time.Duration) {
	if s.metrics != nil {
		s.metrics.Provisioned.Inc()
		s.metrics.ProvisionTiming.Observe(took.Seconds())
	}
}

func (s *Service) countCompensation() {
	if s.metrics != nil {
		s.metrics.Compensations.Inc()
	}
}

func (s *Service) countDeprovisioned() {
	if s.metrics != nil {
		s.metrics.Deprovisioned.Inc()
	}
}
