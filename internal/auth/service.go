// Package auth implements the login flow: credentials go to the identity
// provider, the issued token is enriched with domain claims, and a session
// is opened for the user.
package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mssola/useragent"

	"mngkeeper/internal/domain/models"
	"mngkeeper/internal/keycloak"
	"mngkeeper/internal/session"
	"mngkeeper/internal/token"
	dErrors "mngkeeper/pkg/domain-errors"
)

// DomainDirectory resolves domains by name or realm.
type DomainDirectory interface {
	GetDomainByName(ctx context.Context, name string) (*models.Domain, error)
	GetDomainByRealm(ctx context.Context, realmName string) (*models.Domain, error)
}

// TokenProvider is the token-facing slice of the identity provider client.
type TokenProvider interface {
	GetToken(ctx context.Context, realmName, username, password string) (*keycloak.Token, error)
	RefreshToken(ctx context.Context, realmName, refreshToken string) (*keycloak.Token, error)
	RevokeToken(ctx context.Context, realmName, refreshToken string) error
	IsUserInGroup(ctx context.Context, realmName, username, groupName string) (bool, error)
}

// Sessions is the session store surface the auth flow needs.
type Sessions interface {
	Create(ctx context.Context, data *session.Data, ttl time.Duration) (string, error)
	Get(ctx context.Context, id string) (*session.Data, error)
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttl time.Duration) error
	ActiveSessionsForUser(ctx context.Context, userID string) ([]string, error)
	InvalidateAllForUser(ctx context.Context, userID string) error
}

// Service runs the authentication flows.
type Service struct {
	domains  DomainDirectory
	tokens   TokenProvider
	sessions Sessions
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates the auth service.
func NewService(domains DomainDirectory, tokens TokenProvider, sessions Sessions, opts ...Option) *Service {
	s := &Service{
		domains:  domains,
		tokens:   tokens,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginCommand carries the caller's credentials. Username may be qualified
// as "realm/username", which overrides Domain; Domain is only required when
// the username carries no realm qualifier, which resolveDomain enforces.
type LoginCommand struct {
	Domain    string `json:"domain"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	UserAgent string `json:"-"`
}

// LoginResult is what a successful login returns. AccessToken carries the
// injected domain claims.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn"`
	SessionID    string `json:"sessionId"`
	IsAdmin      bool   `json:"isAdmin"`
}

// resolveDomain finds the domain the credentials target. A "realm/username"
// qualified username wins over the Domain field.
func (s *Service) resolveDomain(ctx context.Context, cmd *LoginCommand) (*models.Domain, error) {
	if realm, username, ok := strings.Cut(cmd.Username, "/"); ok {
		cmd.Username = username
		return s.domains.GetDomainByRealm(ctx, realm)
	}
	if cmd.Domain == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "domain is required")
	}
	return s.domains.GetDomainByName(ctx, cmd.Domain)
}

// Login authenticates the user against the domain's realm, enriches the
// issued token with domain claims and opens a session.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	domain, err := s.resolveDomain(ctx, &cmd)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// Do not leak which domains exist.
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if domain.Status != models.StatusActive {
		return nil, dErrors.New(dErrors.CodeForbidden, "domain is not active")
	}

	issued, err := s.tokens.GetToken(ctx, domain.RealmName, cmd.Username, cmd.Password)
	if err != nil {
		return nil, err
	}

	isAdmin, err := s.tokens.IsUserInGroup(ctx, domain.RealmName, cmd.Username, "admins")
	if err != nil {
		s.logger.Warn("admin membership check failed, treating user as non-admin",
			"domain_id", domain.ID, "username", cmd.Username, "error", err)
		isAdmin = false
	}

	accessToken := issued.AccessToken
	if enriched, err := token.Enrich(issued.AccessToken, domain.ID, domain.Name, isAdmin); err != nil {
		// A token we cannot enrich still authenticates; domain claims are
		// just absent.
		s.logger.Warn("token enrichment failed, returning provider token",
			"domain_id", domain.ID, "username", cmd.Username, "error", err)
	} else {
		accessToken = enriched
	}

	sessionID, err := s.sessions.Create(ctx, &session.Data{
		UserID:   subjectOf(issued.AccessToken, cmd.Username),
		DomainID: domain.ID,
		Username: cmd.Username,
		Roles:    rolesFor(isAdmin),
		Claims: map[string]any{
			"device": deviceName(cmd.UserAgent),
		},
	}, 0)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		"domain_id", domain.ID, "username", cmd.Username, "is_admin", isAdmin)
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: issued.RefreshToken,
		ExpiresIn:    issued.ExpiresIn,
		SessionID:    sessionID,
		IsAdmin:      isAdmin,
	}, nil
}

// RefreshCommand carries a refresh request.
type RefreshCommand struct {
	Domain       string `json:"domain" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
	SessionID    string `json:"sessionId,omitempty"`
}

// Refresh exchanges the refresh token for a fresh pair and re-enriches the
// new access token. The session, when named, is extended alongside.
func (s *Service) Refresh(ctx context.Context, cmd RefreshCommand) (*LoginResult, error) {
	domain, err := s.domains.GetDomainByName(ctx, cmd.Domain)
	if err != nil {
		return nil, err
	}
	if domain.Status != models.StatusActive {
		return nil, dErrors.New(dErrors.CodeForbidden, "domain is not active")
	}

	issued, err := s.tokens.RefreshToken(ctx, domain.RealmName, cmd.RefreshToken)
	if err != nil {
		return nil, err
	}

	// Provider tokens carry no domain claims, so admin standing is
	// re-checked against the realm rather than read off the token.
	isAdmin := false
	if claims, err := token.Parse(issued.AccessToken); err == nil && claims.Username != "" {
		isAdmin, err = s.tokens.IsUserInGroup(ctx, domain.RealmName, claims.Username, "admins")
		if err != nil {
			s.logger.Warn("admin membership check failed on refresh, treating user as non-admin",
				"domain_id", domain.ID, "username", claims.Username, "error", err)
			isAdmin = false
		}
	}

	accessToken := issued.AccessToken
	if enriched, err := token.Enrich(issued.AccessToken, domain.ID, domain.Name, isAdmin); err == nil {
		accessToken = enriched
	}

	if cmd.SessionID != "" {
		if err := s.sessions.Extend(ctx, cmd.SessionID, 0); err != nil {
			s.logger.Warn("failed to extend session on refresh",
				"session_id", cmd.SessionID, "error", err)
		}
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: issued.RefreshToken,
		ExpiresIn:    issued.ExpiresIn,
		SessionID:    cmd.SessionID,
		IsAdmin:      isAdmin,
	}, nil
}

// LogoutCommand carries a logout request.
type LogoutCommand struct {
	Domain       string `json:"domain" validate:"required"`
	RefreshToken string `json:"refreshToken,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
}

// Logout revokes the refresh token and closes the session. Both halves are
// attempted; the first failure is returned after both ran.
func (s *Service) Logout(ctx context.Context, cmd LogoutCommand) error {
	var firstErr error

	if cmd.RefreshToken != "" {
		domain, err := s.domains.GetDomainByName(ctx, cmd.Domain)
		if err != nil {
			firstErr = err
		} else if err := s.tokens.RevokeToken(ctx, domain.RealmName, cmd.RefreshToken); err != nil {
			firstErr = err
		}
	}

	if cmd.SessionID != "" {
		if err := s.sessions.Delete(ctx, cmd.SessionID); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// ActiveSessions lists the user's live session ids.
func (s *Service) ActiveSessions(ctx context.Context, userID string) ([]string, error) {
	return s.sessions.ActiveSessionsForUser(ctx, userID)
}

// GetSession returns the session data for an id.
func (s *Service) GetSession(ctx context.Context, id string) (*session.Data, error) {
	return s.sessions.Get(ctx, id)
}

// InvalidateAllSessions closes every session of the user.
func (s *Service) InvalidateAllSessions(ctx context.Context, userID string) error {
	return s.sessions.InvalidateAllForUser(ctx, userID)
}

func rolesFor(isAdmin bool) []string {
	if isAdmin {
		return []string{"admins"}
	}
	return nil
}

// subjectOf extracts the token's subject, falling back to the username when
// the token cannot be read.
func subjectOf(tokenString, fallback string) string {
	parsed, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return fallback
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return fallback
	}
	return sub
}

// deviceName renders a user agent string into a short device label for the
// session list.
func deviceName(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	browser, version := ua.Browser()
	if browser == "" {
		return "unknown"
	}
	name := browser
	if version != "" {
		name += " " + version
	}
	if os := ua.OS(); os != "" {
		name += " on " + os
	}
	return name
}
