package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "mngkeeper/pkg/domain-errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "AcmeCorp", "acmecorp"},
		{"spaces become underscores", "Acme Corp West", "acme_corp_west"},
		{"trims surrounding whitespace", "  Acme ", "acme"},
		{"already normalized", "acme_corp", "acme_corp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestDatabaseNameFor(t *testing.T) {
	assert.Equal(t, "mng_acme_corp", DatabaseNameFor("Acme Corp"))
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusActive, true},
		{StatusPending, StatusDeleted, true},
		{StatusPending, StatusSuspended, false},
		{StatusActive, StatusSuspended, true},
		{StatusActive, StatusExpired, true},
		{StatusActive, StatusDeleted, true},
		{StatusActive, StatusPending, false},
		{StatusSuspended, StatusActive, true},
		{StatusSuspended, StatusPending, false},
		{StatusExpired, StatusActive, true},
		{StatusDeleted, StatusActive, false},
		{StatusDeleted, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestDomainTransition(t *testing.T) {
	d := &Domain{Status: StatusPending}

	require.NoError(t, d.Transition(StatusActive, "system"))
	assert.Equal(t, StatusActive, d.Status)
	assert.Equal(t, "system", d.UpdatedBy)
	assert.False(t, d.UpdatedAt.IsZero())

	err := d.Transition(StatusPending, "system")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Equal(t, StatusActive, d.Status)
}

func TestDomainValidate(t *testing.T) {
	d := &Domain{Name: "Acme"}
	require.NoError(t, d.Validate())

	d.Name = "   "
	err := d.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	d.Name = strings.Repeat("a", 101)
	err = d.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 100, s.MaxUsers)
	assert.Equal(t, 1000, s.MaxAssets)
	assert.True(t, s.MessagingEnabled)
}
