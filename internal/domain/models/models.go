// Package models holds the domain entity and its lifecycle rules.
package models

import (
	"strings"
	"time"

	dErrors "mngkeeper/pkg/domain-errors"
)

// Status is the lifecycle state of a domain.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusActive    Status = "Active"
	StatusSuspended Status = "Suspended"
	StatusExpired   Status = "Expired"
	StatusDeleted   Status = "Deleted"
)

// validTransitions encodes the lifecycle state machine. Pending is an entry
// state only; nothing transitions back into it.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusActive, StatusDeleted},
	StatusActive:    {StatusSuspended, StatusExpired, StatusDeleted},
	StatusSuspended: {StatusActive, StatusExpired, StatusDeleted},
	StatusExpired:   {StatusActive, StatusDeleted},
	StatusDeleted:   {},
}

// CanTransition reports whether a domain may move from its current status to
// the target.
func (s Status) CanTransition(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Settings are the per-domain limits and feature toggles.
type Settings struct {
	MaxUsers         int  `json:"maxUsers" bson:"maxUsers"`
	MaxAssets        int  `json:"maxAssets" bson:"maxAssets"`
	MessagingEnabled bool `json:"messagingEnabled" bson:"messagingEnabled"`
}

// DefaultSettings returns the limits applied to newly provisioned domains.
func DefaultSettings() Settings {
	return Settings{
		MaxUsers:         100,
		MaxAssets:        1000,
		MessagingEnabled: true,
	}
}

// Domain is a provisioned tenant. Name is the unique identifier shown to
// operators; RealmName and DatabaseName are derived from it at creation time
// and never change. DisplayName is free-form and carries no uniqueness rule.
type Domain struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	DisplayName  string    `json:"displayName,omitempty" bson:"displayName,omitempty"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Status       Status    `json:"status" bson:"status"`
	RealmName    string    `json:"realmName" bson:"realmName"`
	DatabaseName string    `json:"databaseName" bson:"databaseName"`
	AdminUserID  string    `json:"adminUserId,omitempty" bson:"adminUserId,omitempty"`
	Settings     Settings  `json:"settings" bson:"settings"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	CreatedBy    string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
	UpdatedBy    string    `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
}

// Normalize lowercases a domain name and replaces spaces with underscores.
// The result names the realm and seeds the database name.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// DatabaseNameFor derives the tenant database name from a domain name.
func DatabaseNameFor(name string) string {
	return "mng_" + Normalize(name)
}

// Transition moves the domain to the target status, stamping the audit
// fields. It fails when the lifecycle forbids the move.
func (d *Domain) Transition(target Status, by string) error {
	if !d.Status.CanTransition(target) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"domain cannot move from "+string(d.Status)+" to "+string(target))
	}
	d.Status = target
	d.UpdatedAt = time.Now().UTC()
	d.UpdatedBy = by
	return nil
}

// Validate checks the fields a caller supplies when creating a domain.
func (d *Domain) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "domain name is required")
	}
	if len(d.Name) > 100 {
		return dErrors.New(dErrors.CodeValidation, "domain name must be at most 100 characters")
	}
	return nil
}
