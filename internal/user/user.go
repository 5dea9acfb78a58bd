// Package user manages tenant users. User records live in the document store
// and mirror an account in the tenant's identity provider realm.
package user

import (
	"strings"
	"time"
)

// adminSuffix marks the domain admin accounts created at provisioning time.
const adminSuffix = "_admin"

// IsProtected reports whether the username belongs to a protected domain
// admin account. Protected accounts cannot be deleted or disabled.
func IsProtected(username string) bool {
	return strings.HasSuffix(username, adminSuffix)
}

// User is a tenant user record.
type User struct {
	ID             string    `json:"id" bson:"_id"`
	DomainID       string    `json:"domainId" bson:"domainId"`
	Username       string    `json:"username" bson:"username"`
	Email          string    `json:"email" bson:"email"`
	FirstName      string    `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName       string    `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Enabled        bool      `json:"enabled" bson:"enabled"`
	KeycloakUserID string    `json:"keycloakUserId,omitempty" bson:"keycloakUserId,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}
