// Package token rewrites and reads the payload segment of bearer tokens.
//
// Enrichment happens at the gateway after the identity provider has already
// authenticated the user. The header and signature segments are carried
// through untouched, which means the signature no longer covers the enriched
// payload: consumers of enriched tokens sit behind this gateway and read
// claims through Parse without signature verification. Nothing in this
// service re-verifies an enriched token against the realm keys.
package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	dErrors "mngkeeper/pkg/domain-errors"
)

// Claims is the tenant context carried in a token payload. It is derived on
// every request and never stored.
type Claims struct {
	Subject     string
	Username    string
	Email       string
	DomainID    string
	DomainName  string
	DomainRealm string
	IsAdmin     bool
}

// Enrich decodes the payload segment of a three-segment token, overwrites the
// tenant claims and re-encodes it. Existing claims are preserved; domain_id,
// domain_name, domain_realm and is_admin are always set to the given values.
func Enrich(token, domainID, domainName string, isAdmin bool) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "token must have three segments")
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "decode token payload")
	}

	claims := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "token payload is not a JSON object")
	}

	claims["domain_id"] = mustRaw(domainID)
	claims["domain_name"] = mustRaw(domainName)
	claims["domain_realm"] = mustRaw(realmFor(domainName))
	claims["is_admin"] = mustRaw(isAdmin)

	enriched, err := json.Marshal(claims)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "encode enriched payload")
	}

	return parts[0] + "." + base64.RawURLEncoding.EncodeToString(enriched) + "." + parts[2], nil
}

// Parse extracts tenant claims from a token payload. It returns an error on
// any malformed segment count or JSON; it never panics.
func Parse(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "token must have three segments")
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "decode token payload")
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "token payload is not a JSON object")
	}

	c := &Claims{
		Subject:     stringClaim(raw, "sub"),
		Username:    stringClaim(raw, "preferred_username"),
		Email:       stringClaim(raw, "email"),
		DomainID:    stringClaim(raw, "domain_id"),
		DomainName:  stringClaim(raw, "domain_name"),
		DomainRealm: stringClaim(raw, "domain_realm"),
		IsAdmin:     boolClaim(raw, "is_admin"),
	}
	return c, nil
}

// decodeSegment base64url-decodes a token segment, restoring padding and the
// standard alphabet as issuers vary in both.
func decodeSegment(seg string) ([]byte, error) {
	seg = strings.ReplaceAll(seg, "-", "+")
	seg = strings.ReplaceAll(seg, "_", "/")
	if pad := len(seg) % 4; pad != 0 {
		seg += strings.Repeat("=", 4-pad)
	}
	return base64.StdEncoding.DecodeString(seg)
}

// realmFor derives the realm name the same way domain provisioning does.
func realmFor(domainName string) string {
	return strings.ReplaceAll(strings.ToLower(domainName), " ", "_")
}

func mustRaw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func stringClaim(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

// boolClaim accepts both bool and string forms, as enriched tokens from older
// gateway versions stored is_admin as a string.
func boolClaim(raw map[string]any, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
