package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildToken assembles a three-segment token with the given payload claims.
// The header and signature are opaque to the code under test.
func buildToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig-bytes"
}

func TestEnrich_AddsDomainClaims(t *testing.T) {
	tok := buildToken(t, map[string]any{
		"preferred_username": "acme_admin",
		"email":              "admin@acme.io",
		"exp":                1893456000,
	})

	enriched, err := Enrich(tok, "dom-1", "Acme", true)
	require.NoError(t, err)

	claims, err := Parse(enriched)
	require.NoError(t, err)
	assert.Equal(t, "dom-1", claims.DomainID)
	assert.Equal(t, "Acme", claims.DomainName)
	assert.Equal(t, "acme", claims.DomainRealm)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "acme_admin", claims.Username)
	assert.Equal(t, "admin@acme.io", claims.Email)
}

func TestEnrich_PreservesHeaderAndSignature(t *testing.T) {
	tok := buildToken(t, map[string]any{"sub": "u1"})
	parts := strings.Split(tok, ".")

	enriched, err := Enrich(tok, "dom-1", "Acme", false)
	require.NoError(t, err)

	enrichedParts := strings.Split(enriched, ".")
	require.Len(t, enrichedParts, 3)
	assert.Equal(t, parts[0], enrichedParts[0])
	assert.Equal(t, parts[2], enrichedParts[2])
	assert.NotEqual(t, parts[1], enrichedParts[1])
}

func TestEnrich_OverwritesExistingDomainClaims(t *testing.T) {
	tok := buildToken(t, map[string]any{
		"domain_id":   "stale",
		"domain_name": "Old Name",
		"is_admin":    true,
	})

	enriched, err := Enrich(tok, "dom-2", "New Name", false)
	require.NoError(t, err)

	claims, err := Parse(enriched)
	require.NoError(t, err)
	assert.Equal(t, "dom-2", claims.DomainID)
	assert.Equal(t, "New Name", claims.DomainName)
	assert.Equal(t, "new_name", claims.DomainRealm)
	assert.False(t, claims.IsAdmin)
}

func TestEnrich_RealmDerivation(t *testing.T) {
	tok := buildToken(t, map[string]any{})

	enriched, err := Enrich(tok, "dom-3", "Acme Corp West", false)
	require.NoError(t, err)

	claims, err := Parse(enriched)
	require.NoError(t, err)
	assert.Equal(t, "acme_corp_west", claims.DomainRealm)
}

func TestEnrich_PreservesForeignClaims(t *testing.T) {
	tok := buildToken(t, map[string]any{
		"sub":   "user-7",
		"scope": "profile email",
		"exp":   1893456000,
	})

	enriched, err := Enrich(tok, "dom-1", "Acme", false)
	require.NoError(t, err)

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(enriched, ".")[1])
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	assert.Equal(t, "user-7", raw["sub"])
	assert.Equal(t, "profile email", raw["scope"])
	assert.EqualValues(t, 1893456000, raw["exp"])
}

func TestEnrich_RejectsMalformedToken(t *testing.T) {
	_, err := Enrich("only.two", "d", "n", false)
	assert.Error(t, err)

	_, err = Enrich("a.!!!notbase64!!!.c", "d", "n", false)
	assert.Error(t, err)
}

func TestParse_MalformedInputs(t *testing.T) {
	cases := []string{
		"",
		"a.b",
		"a.b.c.d",
		"a.%%%.c",
		"a." + base64.RawURLEncoding.EncodeToString([]byte("[1,2,3]")) + ".c",
	}
	for _, tok := range cases {
		claims, err := Parse(tok)
		assert.Error(t, err, "token %q", tok)
		assert.Nil(t, claims)
	}
}

func TestParse_IsAdminStringForm(t *testing.T) {
	tok := buildToken(t, map[string]any{"is_admin": "true"})
	claims, err := Parse(tok)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)

	tok = buildToken(t, map[string]any{"is_admin": "false"})
	claims, err = Parse(tok)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin)
}

func TestParse_PaddedSegments(t *testing.T) {
	// Standard-alphabet, padded base64 still decodes.
	payload := base64.StdEncoding.EncodeToString([]byte(`{"domain_id":"d1"}`))
	claims, err := Parse("h." + payload + ".s")
	require.NoError(t, err)
	assert.Equal(t, "d1", claims.DomainID)
}
