package service

import (
	"context"
	"time"

	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/domain/store"
	dErrors "mngkeeper/pkg/domain-errors"
)

// GetDomain returns the domain with the given id.
func (s *Service) GetDomain(ctx context.Context, id string) (*models.Domain, error) {
	return s.store.GetByID(ctx, id)
}

// GetDomainByName returns the domain whose normalized name matches.
func (s *Service) GetDomainByName(ctx context.Context, name string) (*models.Domain, error) {
	return s.store.GetByName(ctx, name)
}

// GetDomainByRealm returns the domain provisioned under the given realm.
func (s *Service) GetDomainByRealm(ctx context.Context, realmName string) (*models.Domain, error) {
	return s.store.GetByRealm(ctx, realmName)
}

// ListDomains returns domains matching the filter.
func (s *Service) ListDomains(ctx context.Context, filter store.ListFilter) ([]*models.Domain, error) {
	return s.store.List(ctx, filter)
}

// UpdateSettingsCommand carries a settings change.
type UpdateSettingsCommand struct {
	MaxUsers         int    `json:"maxUsers" validate:"min=1"`
	MaxAssets        int    `json:"maxAssets" validate:"min=1"`
	MessagingEnabled bool   `json:"messagingEnabled"`
	UpdatedBy        string `json:"-"`
}

// UpdateSettings replaces the domain's settings. Only active or suspended
// domains accept changes.
func (s *Service) UpdateSettings(ctx context.Context, id string, cmd UpdateSettingsCommand) (*models.Domain, error) {
	domain, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch domain.Status {
	case models.StatusActive, models.StatusSuspended:
	default:
		return nil, dErrors.New(dErrors.CodeInvariantViolation,
			"settings can only change on active or suspended domains")
	}

	domain.Settings = models.Settings{
		MaxUsers:         cmd.MaxUsers,
		MaxAssets:        cmd.MaxAssets,
		MessagingEnabled: cmd.MessagingEnabled,
	}
	domain.UpdatedAt = time.Now().UTC()
	domain.UpdatedBy = cmd.UpdatedBy
	if err := s.store.Update(ctx, domain); err != nil {
		return nil, err
	}
	return domain, nil
}

// SuspendDomain moves the domain to suspended. Sessions and logins for the
// domain stop being honored while suspended.
func (s *Service) SuspendDomain(ctx context.Context, id, by string) (*models.Domain, error) {
	return s.transition(ctx, id, models.StatusSuspended, by)
}

// ActivateDomain reactivates a suspended or expired domain.
func (s *Service) ActivateDomain(ctx context.Context, id, by string) (*models.Domain, error) {
	return s.transition(ctx, id, models.StatusActive, by)
}

// ExpireDomain moves the domain to expired.
func (s *Service) ExpireDomain(ctx context.Context, id, by string) (*models.Domain, error) {
	return s.transition(ctx, id, models.StatusExpired, by)
}

func (s *Service) transition(ctx context.Context, id string, target models.Status, by string) (*models.Domain, error) {
	domain, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Transition(target, by); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, domain); err != nil {
		return nil, err
	}
	s.logger.Info("domain status changed",
		"domain_id", domain.ID, "status", domain.Status, "by", by)
	return domain, nil
}
