package keycloak

// User is the identity provider's user representation. Only the fields this
// service reads or writes are mapped.
type User struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Enabled   bool   `json:"enabled"`

	Credentials []Credential `json:"credentials,omitempty"`
}

// Credential is a user credential submitted at creation time.
type Credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// Group is the identity provider's group representation.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// Token is an OAuth2 token response.
type Token struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in,omitempty"`
	TokenType        string `json:"token_type"`
}

type realmRepresentation struct {
	Realm               string `json:"realm"`
	Enabled             bool   `json:"enabled"`
	DisplayName         string `json:"displayName,omitempty"`
	RegistrationAllowed bool   `json:"registrationAllowed"`
}

type clientScopeRepresentation struct {
	Name       string            `json:"name"`
	Protocol   string            `json:"protocol"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type protocolMapperRepresentation struct {
	Name           string            `json:"name"`
	Protocol       string            `json:"protocol"`
	ProtocolMapper string            `json:"protocolMapper"`
	Config         map[string]string `json:"config"`
}

type groupRepresentation struct {
	Name string `json:"name"`
}
