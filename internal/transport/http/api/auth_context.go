// Package api wires the HTTP surface: routing, request decoding and
// validation, bearer authentication, and handler glue over the services.
package api

import (
	"context"
	"net/http"
	"strings"

	"mngkeeper/internal/platform/middleware"
	"mngkeeper/internal/token"
	"mngkeeper/internal/transport/http/shared"
	dErrors "mngkeeper/pkg/domain-errors"
)

type claimsKey struct{}

// ClaimsFrom returns the authenticated caller's claims, or nil outside an
// authenticated route.
func ClaimsFrom(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*token.Claims)
	return claims
}

// BearerAuth requires a bearer token and puts its claims on the context.
// Only the token's shape and expiry are checked here; signature trust sits
// at the gateway in front of this service.
func BearerAuth(validate func(tokenString string) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				shared.WriteError(w, r,
					dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"),
					middleware.GetRequestID(r.Context()))
				return
			}

			valid, err := validate(raw)
			if err != nil || !valid {
				shared.WriteError(w, r,
					dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"),
					middleware.GetRequestID(r.Context()))
				return
			}

			claims, err := token.Parse(raw)
			if err != nil {
				shared.WriteError(w, r,
					dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"),
					middleware.GetRequestID(r.Context()))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose token does not carry the admin claim.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFrom(r.Context())
		if claims == nil || !claims.IsAdmin {
			shared.WriteError(w, r,
				dErrors.New(dErrors.CodeForbidden, "admin access required"),
				middleware.GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return "", false
	}
	return raw, true
}
