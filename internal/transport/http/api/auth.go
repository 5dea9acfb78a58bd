package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mngkeeper/internal/auth"
	"mngkeeper/internal/platform/middleware"
	"mngkeeper/internal/transport/http/json"
	"mngkeeper/internal/transport/http/shared"
	dErrors "mngkeeper/pkg/domain-errors"
)

// AuthHandler exposes login, token refresh, logout and session management.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates the handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterPublic mounts the unauthenticated auth routes.
func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
	r.Post("/logout", h.logout)
}

// RegisterProtected mounts the session routes, which require a bearer token.
func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Get("/sessions", h.listSessions)
	r.Delete("/sessions", h.invalidateSessions)
	r.Get("/sessions/{sessionID}", h.getSession)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	cmd, err := decode[auth.LoginCommand](r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	cmd.UserAgent = r.UserAgent()

	result, err := h.service.Login(r.Context(), cmd)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	cmd, err := decode[auth.RefreshCommand](r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.service.Refresh(r.Context(), cmd)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	cmd, err := decode[auth.LogoutCommand](r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.service.Logout(r.Context(), cmd); err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionOwner resolves the calling user's id from their token subject,
// which is what sessions are indexed by.
func sessionOwner(r *http.Request) (string, error) {
	claims := ClaimsFrom(r.Context())
	if claims == nil || claims.Subject == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "no authenticated user")
	}
	return claims.Subject, nil
}

func (h *AuthHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		owner, err := sessionOwner(r)
		if err != nil {
			shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
			return
		}
		userID = owner
	} else if claims := ClaimsFrom(r.Context()); claims == nil || !claims.IsAdmin {
		// Only admins may list other users' sessions.
		shared.WriteError(w, r,
			dErrors.New(dErrors.CodeForbidden, "admin access required"),
			middleware.GetRequestID(r.Context()))
		return
	}

	ids, err := h.service.ActiveSessions(r.Context(), userID)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, map[string]any{"sessionIds": ids})
}

func (h *AuthHandler) getSession(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, data)
}

func (h *AuthHandler) invalidateSessions(w http.ResponseWriter, r *http.Request) {
	owner, err := sessionOwner(r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.service.InvalidateAllSessions(r.Context(), owner); err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
