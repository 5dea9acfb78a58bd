// Package group manages tenant groups. Group records live in the document
// store and mirror a group in the tenant's identity provider realm; the
// identity provider id is a weak reference resolved at use.
package group

import (
	"strings"
	"time"
)

// systemGroups are provisioned with every domain and cannot be deleted or
// renamed.
var systemGroups = map[string]struct{}{
	"admins":   {},
	"managers": {},
	"guests":   {},
}

// IsSystem reports whether the group name is a protected system group.
func IsSystem(name string) bool {
	_, ok := systemGroups[strings.ToLower(name)]
	return ok
}

// Group is a tenant group record.
type Group struct {
	ID              string    `json:"id" bson:"_id"`
	DomainID        string    `json:"domainId" bson:"domainId"`
	Name            string    `json:"name" bson:"name"`
	Description     string    `json:"description,omitempty" bson:"description,omitempty"`
	KeycloakGroupID string    `json:"keycloakGroupId,omitempty" bson:"keycloakGroupId,omitempty"`
	MemberIDs       []string  `json:"memberIds,omitempty" bson:"memberIds,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasMember reports whether the user id is recorded as a member.
func (g *Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AddMember records the user as a member. Adding an existing member is a
// no-op.
func (g *Group) AddMember(userID string) {
	if g.HasMember(userID) {
		return
	}
	g.MemberIDs = append(g.MemberIDs, userID)
}

// RemoveMember drops the user from the member list.
func (g *Group) RemoveMember(userID string) {
	for i, id := range g.MemberIDs {
		if id == userID {
			g.MemberIDs = append(g.MemberIDs[:i], g.MemberIDs[i+1:]...)
			return
		}
	}
}
