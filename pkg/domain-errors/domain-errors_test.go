package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CarriesCodeAndMessage(t *testing.T) {
	err := New(CodeConflict, "domain name must be unique")

	var dErr *Error
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, CodeConflict, dErr.Code)
	assert.Equal(t, "domain name must be unique", err.Error())
}

func TestWrap_PreservesExistingCode(t *testing.T) {
	inner := New(CodeNotFound, "session not found")
	wrapped := Wrap(inner, CodeInternal, "failed to load session")

	assert.True(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(wrapped, CodeInternal))
	assert.ErrorIs(t, wrapped, inner)
}

func TestWrap_NonDomainErrorGetsNewCode(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := Wrap(inner, CodeUnavailable, "cache unreachable")

	assert.True(t, HasCode(wrapped, CodeUnavailable))
	assert.ErrorIs(t, wrapped, inner)
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "protected group"))
	assert.ErrorIs(t, err, &Error{Code: CodeForbidden})
	assert.NotErrorIs(t, err, &Error{Code: CodeConflict})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeTimeout, CodeOf(New(CodeTimeout, "")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
