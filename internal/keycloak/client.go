// Package keycloak is the admin REST client for the identity provider. All
// realm, user, group and token operations go through it; the rest of the
// service never touches identity provider endpoints directly.
package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"mngkeeper/internal/platform/config"
	dErrors "mngkeeper/pkg/domain-errors"
)

const (
	// domainScopeName is the client scope attached to every tenant realm so
	// issued tokens can carry domain claims.
	domainScopeName = "custom-domain"
	// domainMapperName is the protocol mapper inside that scope.
	domainMapperName = "domain-claim"

	tokenScope = "profile email offline_access"

	// adminTokenSkew refreshes the cached admin token this long before it
	// actually expires.
	adminTokenSkew = 30 * time.Second
)

// Client talks to the identity provider's admin and token endpoints.
type Client struct {
	baseURL       string
	clientID      string
	adminUsername string
	adminPassword string
	httpClient    *http.Client
	logger        *slog.Logger

	sf singleflight.Group

	mu          sync.Mutex
	adminToken  string
	adminExpiry time.Time
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a client for the given identity provider.
func NewClient(cfg config.KeycloakConfig, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		clientID:      cfg.ClientID,
		adminUsername: cfg.AdminUsername,
		adminPassword: cfg.AdminPassword,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        slog.Default(),
	}
	if c.clientID == "" {
		c.clientID = "admin-cli"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError maps an identity provider response status to a domain error.
func apiError(op string, status int, body []byte) error {
	msg := fmt.Sprintf("%s: identity provider returned %d: %s", op, status, strings.TrimSpace(string(body)))
	switch status {
	case http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, msg)
	case http.StatusConflict:
		return dErrors.New(dErrors.CodeConflict, msg)
	case http.StatusUnauthorized:
		return dErrors.New(dErrors.CodeUnauthorized, msg)
	case http.StatusForbidden:
		return dErrors.New(dErrors.CodeForbidden, msg)
	case http.StatusBadRequest:
		return dErrors.New(dErrors.CodeBadRequest, msg)
	default:
		return dErrors.New(dErrors.CodeUnavailable, msg)
	}
}

// adminAccessToken returns a valid admin token, fetching a new one when the
// cached token is missing or about to expire. Concurrent callers share one
// fetch.
func (c *Client) adminAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.adminToken != "" && time.Now().Before(c.adminExpiry.Add(-adminTokenSkew)) {
		token := c.adminToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do("admin-token", func() (any, error) {
		token, err := c.fetchToken(ctx, "master", url.Values{
			"grant_type": {"password"},
			"client_id":  {c.clientID},
			"username":   {c.adminUsername},
			"password":   {c.adminPassword},
		})
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.adminToken = token.AccessToken
		c.adminExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		c.mu.Unlock()
		return token.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// invalidateAdminToken drops the cached admin token so the next call fetches
// a fresh one.
func (c *Client) invalidateAdminToken() {
	c.mu.Lock()
	c.adminToken = ""
	c.adminExpiry = time.Time{}
	c.mu.Unlock()
}

// doAdmin performs an authenticated admin API request. A 401 invalidates the
// cached token and retries once with a fresh one.
func (c *Client) doAdmin(ctx context.Context, method, path string, body any) (*http.Response, error) {
	resp, err := c.doAdminOnce(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.invalidateAdminToken()
		return c.doAdminOnce(ctx, method, path, body)
	}
	return resp, nil
}

func (c *Client) doAdminOnce(ctx context.Context, method, path string, body any) (*http.Response, error) {
	token, err := c.adminAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "identity provider request")
	}
	return resp, nil
}

func drainAndClose(resp *http.Response) []byte {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return body
}

// CreateRealm creates an enabled realm and attaches the domain claim client
// scope to it. Scope and mapper failures are logged, not returned: the realm
// is usable without them and can be repaired out of band.
func (c *Client) CreateRealm(ctx context.Context, realmName string) error {
	resp, err := c.doAdmin(ctx, http.MethodPost, "/admin/realms", realmRepresentation{
		Realm:   realmName,
		Enabled: true,
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return apiError("create realm", resp.StatusCode, drainAndClose(resp))
	}
	drainAndClose(resp)

	if err := c.createDomainScope(ctx, realmName); err != nil {
		c.logger.Warn("failed to attach domain claim scope to realm",
			"realm", realmName, "error", err)
	}
	return nil
}

func (c *Client) createDomainScope(ctx context.Context, realmName string) error {
	resp, err := c.doAdmin(ctx, http.MethodPost, "/admin/realms/"+realmName+"/client-scopes", clientScopeRepresentation{
		Name:     domainScopeName,
		Protocol: "openid-connect",
		Attributes: map[string]string{
			"include.in.token.scope": "true",
		},
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return apiError("create client scope", resp.StatusCode, drainAndClose(resp))
	}
	scopeID := idFromLocation(resp)
	drainAndClose(resp)
	if scopeID == "" {
		return dErrors.New(dErrors.CodeInternal, "client scope response carried no location")
	}

	resp, err = c.doAdmin(ctx, http.MethodPost,
		"/admin/realms/"+realmName+"/client-scopes/"+scopeID+"/protocol-mappers/models",
		protocolMapperRepresentation{
			Name:           domainMapperName,
			Protocol:       "openid-connect",
			ProtocolMapper: "oidc-usermodel-attribute-mapper",
			Config: map[string]string{
				"user.attribute":       "domain_id",
				"claim.name":           "domain_id",
				"jsonType.label":       "String",
				"access.token.claim":   "true",
				"id.token.claim":       "true",
				"userinfo.token.claim": "true",
			},
		})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return apiError("create protocol mapper", resp.StatusCode, drainAndClose(resp))
	}
	drainAndClose(resp)
	return nil
}

// DeleteRealm removes a realm and everything in it.
func (c *Client) DeleteRealm(ctx context.Context, realmName string) error {
	resp, err := c.doAdmin(ctx, http.MethodDelete, "/admin/realms/"+realmName, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return apiError("delete realm", resp.StatusCode, drainAndClose(resp))
	}
	drainAndClose(resp)
	return nil
}

// idFromLocation extracts the created resource id from a Location header.
func idFromLocation(resp *http.Response) string {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return ""
	}
	return loc[strings.LastIndex(loc, "/")+1:]
}

// CreateUser creates a user in the realm and returns the new user's id.
func (c *Client) CreateUser(ctx context.Context, realmName string, user User) (string, error) {
	resp, err := c.doAdmin(ctx, http.MethodPost, "/admin/realms/"+realmName+"/users", user)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated {
		return "", apiError("create user", resp.StatusCode, drainAndClose(resp))
	}
	id := idFromLocation(resp)
	drainAndClose(resp)
	if id == "" {
		return "", dErrors.New(dErrors.CodeInternal, "user response carried no location")
	}
	return id, nil
}

// DeleteUser removes a user from the realm.
func (c *Client) DeleteUser(ctx context.Context, realmName, userID string) error {
	resp, err := c.doAdmin(ctx, http.MethodDelete, "/admin/realms/"+realmName+"/users/"+userID, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return apiError("delete user", resp.StatusCode, drainAndClose(resp))
	}
	drainAndClose(resp)
	return nil
}

// GetUserByUsername looks a user up by exact username.
func (c *Client) GetUserByUsername(ctx context.Context, realmName, username string) (*User, error) {
	path := "/admin/realms/" + realmName + "/users?exact=true&username=" + url.QueryEscape(username)
	resp, err := c.doAdmin(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get user", resp.StatusCode, drainAndClose(resp))
	}
	defer resp.Body.Close()

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode users")
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "user not found in realm")
}

// CreateGroup creates a group in the realm and returns its id. A group that
// already exists is not an error; its id is resolved and returned instead.
func (c *Client) CreateGroup(ctx context.Context, realmName, groupName string) (string, error) {
	resp, err := c.doAdmin(ctx, http.MethodPost, "/admin/realms/"+realmName+"/groups", groupRepresentation{Name: groupName})
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusConflict {
		drainAndClose(resp)
		existing, err := c.findGroupByName(ctx, realmName, groupName)
		if err != nil {
			return "", err
		}
		return existing.ID, nil
	}
	if resp.StatusCode != http.StatusCreated {
		return "", apiError("create group", resp.StatusCode, drainAndClose(resp))
	}
	id := idFromLocation(resp)
	drainAndClose(resp)
	if id == "" {
		return "", dErrors.New(dErrors.CodeInternal, "group response carried no location")
	}
	return id, nil
}

// DeleteGroup removes a group from the realm.
func (c *Client) DeleteGroup(ctx context.Context, realmName, groupID string) error {
	resp, err := c.doAdmin(ctx, http.MethodDelete, "/admin/realms/"+realmName+"/groups/"+groupID, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return apiError("delete group", resp.StatusCode, drainAndClose(resp))
	}
	drainAndClose(resp)
	return nil
}

// GetGroups lists the realm's top-level groups.
func (c *Client) GetGroups(ctx context.Context, realmName string) ([]Group, error) {
	resp, err := c.doAdmin(ctx, http.MethodGet, "/admin/realms/"+realmName+"/groups", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list groups", resp.StatusCode, drainAndClose(resp))
	}
	defer resp.Body.Close()

	var groups []Group
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode groups")
	}
	return groups, nil
}

// findGroupByName resolves a group name to its id with a scan of the realm's
// group list. Realms hold a handful of groups, so a linear scan is fine.
func (c *Client) findGroupByName(ctx context.Context, realmName, groupName string) (*Group, error) {
	groups, err := c.GetGroups(ctx, realmName)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].Name == groupName {
			return &groups[i], nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "group not found in realm")
}

// AddUserToGroup puts the user into the named group.
func (c *Client) AddUserToGroup(ctx context.Context, realmName, userID, groupName string) error {
	group, err := c.findGroupByName(ctx, realmName, groupName)
	if err != nil {
		return err
	}
	resp, err := c.doAdmin(ctx, http.MethodPut,
		"/admin/realms/"+realmName+"/users/"+userID+"/groups/"+group.ID, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return apiError("add user to group", resp.StatusCode, drainAndClose(resp))
	}
	drainAndClose(resp)
	return nil
}

// RemoveUserFromGroup takes the user out of the named group.
func (c *Client) RemoveUserFromGroup(ctx context.Context, realmName, userID, groupName string) error {
	group, err := c.findGroupByName(ctx, realmName, groupName)
	if err != nil {
		return err
	}
	resp, err := c.doAdmin(ctx, http.MethodDelete,
		"/admin/realms/"+realmName+"/users/"+userID+"/groups/"+group.ID, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return apiError("remove user from group", resp.StatusCode, drainAndClose(resp))
	}
	drainAndClose(resp)
	return nil
}

// UserGroups lists the groups a user belongs to.
func (c *Client) UserGroups(ctx context.Context, realmName, userID string) ([]Group, error) {
	resp, err := c.doAdmin(ctx, http.MethodGet, "/admin/realms/"+realmName+"/users/"+userID+"/groups", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list user groups", resp.StatusCode, drainAndClose(resp))
	}
	defer resp.Body.Close()

	var groups []Group
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode user groups")
	}
	return groups, nil
}

// IsUserInGroup reports whether the named user is a member of the named
// group.
func (c *Client) IsUserInGroup(ctx context.Context, realmName, username, groupName string) (bool, error) {
	user, err := c.GetUserByUsername(ctx, realmName, username)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	groups, err := c.UserGroups(ctx, realmName, user.ID)
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		if g.Name == groupName {
			return true, nil
		}
	}
	return false, nil
}

// fetchToken posts to the realm's token endpoint.
func (c *Client) fetchToken(ctx context.Context, realmName string, form url.Values) (*Token, error) {
	endpoint := c.baseURL + "/realms/" + realmName + "/protocol/openid-connect/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "token request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, apiError("fetch token", resp.StatusCode, body)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode token")
	}
	return &token, nil
}

// GetToken authenticates a user against the realm with the password grant.
func (c *Client) GetToken(ctx context.Context, realmName, username, password string) (*Token, error) {
	return c.fetchToken(ctx, realmName, url.Values{
		"grant_type": {"password"},
		"client_id":  {c.clientID},
		"username":   {username},
		"password":   {password},
		"scope":      {tokenScope},
	})
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, realmName, refreshToken string) (*Token, error) {
	return c.fetchToken(ctx, realmName, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientID},
		"refresh_token": {refreshToken},
	})
}

// RevokeToken revokes a refresh token. Revocation of an already-dead token
// succeeds, matching the provider's behavior.
func (c *Client) RevokeToken(ctx context.Context, realmName, refreshToken string) error {
	endpoint := c.baseURL + "/realms/" + realmName + "/protocol/openid-connect/revoke"
	form := url.Values{
		"client_id":       {c.clientID},
		"token":           {refreshToken},
		"token_type_hint": {"refresh_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build revoke request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "revoke request")
	}
	if resp.StatusCode != http.StatusOK {
		return apiError("revoke token", resp.StatusCode, drainAndClose(resp))
	}
	drainAndClose(resp)
	return nil
}

// ValidateToken checks that the token is well formed and unexpired. The
// signature is not verified here; the identity provider remains the signing
// authority and upstream gateways terminate trust.
func (c *Client) ValidateToken(tokenString string) (bool, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnauthorized, "malformed token")
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token expiry unreadable")
	}
	if exp == nil || time.Now().After(exp.Time) {
		return false, nil
	}
	return true, nil
}
