package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/domain/service/mocks"
	"mngkeeper/internal/events"
	"mngkeeper/internal/keycloak"
	dErrors "mngkeeper/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite

	ctrl     *gomock.Controller
	store    *mocks.MockStore
	idp      *mocks.MockIdentityProvider
	db       *mocks.MockDatabaseProvisioner
	notifier *mocks.MockNotifier
	service  *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.idp = mocks.NewMockIdentityProvider(s.ctrl)
	s.db = mocks.NewMockDatabaseProvisioner(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.service = NewService(s.store, s.idp, s.db, s.notifier)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func validCommand() CreateDomainCommand {
	return CreateDomainCommand{
		Name:          "Acme Corp",
		DisplayName:   "Acme Corporation",
		Description:   "Acme's tenant",
		AdminEmail:    "admin@acme.test",
		AdminPassword: "correct-horse",
		CreatedBy:     "ops@mngkeeper",
	}
}

func (s *ServiceSuite) TestCreateDomainProvisionsAllBackends() {
	ctx := context.Background()
	cmd := validCommand()

	var pending models.Domain
	s.store.EXPECT().CreateIfNameAvailable(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *models.Domain) error {
			pending = *d
			return nil
		})
	s.db.EXPECT().CreateTenantDatabase(gomock.Any(), "mng_acme_corp").Return(nil)
	s.idp.EXPECT().CreateRealm(gomock.Any(), "acme_corp").Return(nil)
	s.idp.EXPECT().CreateGroup(gomock.Any(), "acme_corp", "admins").Return("g-1", nil)
	s.idp.EXPECT().CreateGroup(gomock.Any(), "acme_corp", "managers").Return("g-2", nil)
	s.idp.EXPECT().CreateGroup(gomock.Any(), "acme_corp", "guests").Return("g-3", nil)
	s.idp.EXPECT().CreateUser(gomock.Any(), "acme_corp", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, user keycloak.User) (string, error) {
			s.Equal("Acme Corp_admin", user.Username)
			s.Equal("admin@acme.test", user.Email)
			s.True(user.Enabled)
			s.Require().Len(user.Credentials, 1)
			s.False(user.Credentials[0].Temporary)
			return "u-1", nil
		})
	s.idp.EXPECT().AddUserToGroup(gomock.Any(), "acme_corp", "u-1", "admins").Return(nil)

	var activated models.Domain
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *models.Domain) error {
			activated = *d
			return nil
		})

	var published events.Event
	s.notifier.EXPECT().Notify(gomock.Any()).
		Do(func(e events.Event) { published = e })

	domain, err := s.service.CreateDomain(ctx, cmd)
	s.Require().NoError(err)

	s.Equal(models.StatusPending, pending.Status)
	s.Equal("acme_corp", pending.RealmName)
	s.Equal("mng_acme_corp", pending.DatabaseName)
	s.Equal("Acme Corporation", pending.DisplayName)
	s.Equal(models.DefaultSettings(), pending.Settings)

	s.Equal(models.StatusActive, activated.Status)
	s.Equal("u-1", activated.AdminUserID)
	s.Equal("ops@mngkeeper", activated.UpdatedBy)
	s.False(activated.UpdatedAt.IsZero())

	s.Equal(models.StatusActive, domain.Status)
	s.Equal(events.TypeDomainCreated, published.Type)
	s.Equal(domain.ID, published.DomainID)
}

func (s *ServiceSuite) TestCreateDomainNameConflict() {
	s.store.EXPECT().CreateIfNameAvailable(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeConflict, "domain name already in use"))

	_, err := s.service.CreateDomain(context.Background(), validCommand())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestCreateDomainCustomSettings() {
	cmd := validCommand()
	cmd.Settings = &models.Settings{MaxUsers: 5, MaxAssets: 10, MessagingEnabled: false}

	var pending models.Domain
	s.store.EXPECT().CreateIfNameAvailable(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *models.Domain) error {
			pending = *d
			return dErrors.New(dErrors.CodeUnavailable, "store down")
		})

	_, err := s.service.CreateDomain(context.Background(), cmd)
	s.Require().Error(err)
	s.Equal(5, pending.Settings.MaxUsers)
	s.Equal(10, pending.Settings.MaxAssets)
	s.False(pending.Settings.MessagingEnabled)
}

func (s *ServiceSuite) TestCreateDomainValidation() {
	cmd := validCommand()
	cmd.Name = "  "

	_, err := s.service.CreateDomain(context.Background(), cmd)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestCreateDomainRealmFailureCompensates() {
	s.store.EXPECT().CreateIfNameAvailable(gomock.Any(), gomock.Any()).Return(nil)
	s.db.EXPECT().CreateTenantDatabase(gomock.Any(), "mng_acme_corp").Return(nil)
	s.idp.EXPECT().CreateRealm(gomock.Any(), "acme_corp").
		Return(dErrors.New(dErrors.CodeUnavailable, "identity provider down"))

	// Completed steps unwind in reverse order.
	gomock.InOrder(
		s.db.EXPECT().DropTenantDatabase(gomock.Any(), "mng_acme_corp").Return(nil),
		s.store.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil),
	)

	_, err := s.service.CreateDomain(context.Background(), validCommand())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestCreateDomainAdminUserFailureCompensatesRealm() {
	s.store.EXPECT().CreateIfNameAvailable(gomock.Any(), gomock.Any()).Return(nil)
	s.db.EXPECT().CreateTenantDatabase(gomock.Any(), "mng_acme_corp").Return(nil)
	s.idp.EXPECT().CreateRealm(gomock.Any(), "acme_corp").Return(nil)
	s.idp.EXPECT().CreateGroup(gomock.Any(), "acme_corp", gomock.Any()).Return("g", nil).Times(3)
	s.idp.EXPECT().CreateUser(gomock.Any(), "acme_corp", gomock.Any()).
		Return("", dErrors.New(dErrors.CodeUnavailable, "identity provider down"))

	gomock.InOrder(
		s.idp.EXPECT().DeleteRealm(gomock.Any(), "acme_corp").Return(nil),
		s.db.EXPECT().DropTenantDatabase(gomock.Any(), "mng_acme_corp").Return(nil),
		s.store.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil),
	)

	_, err := s.service.CreateDomain(context.Background(), validCommand())
	s.Require().Error(err)
}

func (s *ServiceSuite) TestCreateDomainCompensationFailureIsSwallowed() {
	s.store.EXPECT().CreateIfNameAvailable(gomock.Any(), gomock.Any()).Return(nil)
	s.db.EXPECT().CreateTenantDatabase(gomock.Any(), "mng_acme_corp").
		Return(dErrors.New(dErrors.CodeUnavailable, "database down"))
	s.store.EXPECT().Delete(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeUnavailable, "still down"))

	_, err := s.service.CreateDomain(context.Background(), validCommand())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestDeleteDomain() {
	domain := &models.Domain{
		ID:           "d-1",
		Name:         "Acme Corp",
		Status:       models.StatusActive,
		RealmName:    "acme_corp",
		DatabaseName: "mng_acme_corp",
	}
	s.store.EXPECT().GetByID(gomock.Any(), "d-1").Return(domain, nil)
	s.idp.EXPECT().DeleteRealm(gomock.Any(), "acme_corp").Return(nil)
	s.db.EXPECT().DropTenantDatabase(gomock.Any(), "mng_acme_corp").Return(nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *models.Domain) error {
			s.Equal(models.StatusDeleted, d.Status)
			s.Equal("ops", d.UpdatedBy)
			return nil
		})

	s.Require().NoError(s.service.DeleteDomain(context.Background(), "d-1", "ops"))
}

func (s *ServiceSuite) TestDeleteDomainContinuesPastBackendFailures() {
	domain := &models.Domain{
		ID:           "d-1",
		Name:         "Acme Corp",
		Status:       models.StatusActive,
		RealmName:    "acme_corp",
		DatabaseName: "mng_acme_corp",
	}
	s.store.EXPECT().GetByID(gomock.Any(), "d-1").Return(domain, nil)
	s.idp.EXPECT().DeleteRealm(gomock.Any(), "acme_corp").
		Return(dErrors.New(dErrors.CodeUnavailable, "identity provider down"))
	s.db.EXPECT().DropTenantDatabase(gomock.Any(), "mng_acme_corp").Return(nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	s.Require().NoError(s.service.DeleteDomain(context.Background(), "d-1", "ops"))
}

func (s *ServiceSuite) TestDeleteDomainAlreadyDeleted() {
	s.store.EXPECT().GetByID(gomock.Any(), "d-1").
		Return(&models.Domain{ID: "d-1", Status: models.StatusDeleted}, nil)

	err := s.service.DeleteDomain(context.Background(), "d-1", "ops")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestSuspendAndActivate() {
	active := &models.Domain{ID: "d-1", Status: models.StatusActive}
	s.store.EXPECT().GetByID(gomock.Any(), "d-1").Return(active, nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	suspended, err := s.service.SuspendDomain(context.Background(), "d-1", "ops")
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, suspended.Status)

	s.store.EXPECT().GetByID(gomock.Any(), "d-1").Return(suspended, nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	reactivated, err := s.service.ActivateDomain(context.Background(), "d-1", "ops")
	s.Require().NoError(err)
	s.Equal(models.StatusActive, reactivated.Status)
}

func (s *ServiceSuite) TestInvalidTransitionRejected() {
	s.store.EXPECT().GetByID(gomock.Any(), "d-1").
		Return(&models.Domain{ID: "d-1", Status: models.StatusDeleted}, nil)

	_, err := s.service.ActivateDomain(context.Background(), "d-1", "ops")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestUpdateSettings() {
	domain := &models.Domain{ID: "d-1", Status: models.StatusActive, Settings: models.DefaultSettings()}
	s.store.EXPECT().GetByID(gomock.Any(), "d-1").Return(domain, nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	updated, err := s.service.UpdateSettings(context.Background(), "d-1", UpdateSettingsCommand{
		MaxUsers:         500,
		MaxAssets:        5000,
		MessagingEnabled: false,
		UpdatedBy:        "ops",
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 500, updated.Settings.MaxUsers)
	assert.Equal(s.T(), 5000, updated.Settings.MaxAssets)
	assert.False(s.T(), updated.Settings.MessagingEnabled)
}

func (s *ServiceSuite) TestUpdateSettingsRejectedForPending() {
	s.store.EXPECT().GetByID(gomock.Any(), "d-1").
		Return(&models.Domain{ID: "d-1", Status: models.StatusPending}, nil)

	_, err := s.service.UpdateSettings(context.Background(), "d-1", UpdateSettingsCommand{
		MaxUsers: 10, MaxAssets: 10, UpdatedBy: "ops",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
