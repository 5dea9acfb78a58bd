// Package events defines the domain event envelope and the notifier that
// publishes events to the message broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mngkeeper/internal/platform/middleware"
)

// Type identifies the kind of domain event.
type Type string

const (
	TypeDomainCreated        Type = "DomainCreated"
	TypeUserCreated          Type = "UserCreated"
	TypeUserUpdated          Type = "UserUpdated"
	TypeUserDeleted          Type = "UserDeleted"
	TypeGroupCreated         Type = "GroupCreated"
	TypeGroupUpdated         Type = "GroupUpdated"
	TypeGroupDeleted         Type = "GroupDeleted"
	TypeUserAddedToGroup     Type = "UserAddedToGroup"
	TypeUserRemovedFromGroup Type = "UserRemovedFromGroup"
)

// routingSuffix maps each event type to the lowercase suffix of its routing
// key. The full key is "{domainId}.{suffix}".
var routingSuffix = map[Type]string{
	TypeDomainCreated:        "domaincreated",
	TypeUserCreated:          "usercreated",
	TypeUserUpdated:          "userupdated",
	TypeUserDeleted:          "userdeleted",
	TypeGroupCreated:         "groupcreated",
	TypeGroupUpdated:         "groupupdated",
	TypeGroupDeleted:         "groupdeleted",
	TypeUserAddedToGroup:     "useraddedtogroup",
	TypeUserRemovedFromGroup: "userremovedfromgroup",
}

// Event is the envelope published for every domain event. Payload carries the
// type-specific fields and is flattened into the message body.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	DomainID      string    `json:"domainId"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Payload       any       `json:"payload,omitempty"`
}

// New builds an event envelope with a fresh id and the current time. The
// request id is carried over from ctx as the correlation id, so consumers
// can tie an event back to the API call that caused it.
func New(ctx context.Context, eventType Type, domainID string, payload any) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		DomainID:      domainID,
		Timestamp:     time.Now().UTC(),
		CorrelationID: middleware.GetRequestID(ctx),
		Payload:       payload,
	}
}

// RoutingKey returns the broker routing key for the event.
func (e Event) RoutingKey() string {
	suffix, ok := routingSuffix[e.Type]
	if !ok {
		suffix = "unknown"
	}
	return e.DomainID + "." + suffix
}

// DomainCreatedPayload accompanies TypeDomainCreated.
type DomainCreatedPayload struct {
	DomainName   string `json:"domainName"`
	RealmName    string `json:"realmName"`
	DatabaseName string `json:"databaseName"`
	AdminUserID  string `json:"adminUserId,omitempty"`
}

// UserPayload accompanies the user lifecycle events.
type UserPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// GroupPayload accompanies the group lifecycle events.
type GroupPayload struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

// MembershipPayload accompanies TypeUserAddedToGroup and
// TypeUserRemovedFromGroup.
type MembershipPayload struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
	Group   string `json:"group"`
}
