package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mngkeeper/internal/platform/middleware"
	"mngkeeper/internal/transport/http/json"
	"mngkeeper/internal/transport/http/shared"
	"mngkeeper/internal/user"
	dErrors "mngkeeper/pkg/domain-errors"
)

// UserHandler exposes tenant user management over HTTP.
type UserHandler struct {
	service *user.Service
}

// NewUserHandler creates the handler.
func NewUserHandler(service *user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// Register mounts the user routes under a domain.
func (h *UserHandler) Register(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{userID}", h.get)
	r.Put("/{userID}", h.update)
	r.Delete("/{userID}", h.delete)
}

// requireDomainAccess lets a caller act in their own domain; admins may act
// anywhere.
func requireDomainAccess(w http.ResponseWriter, r *http.Request, domainID string) bool {
	claims := ClaimsFrom(r.Context())
	if claims == nil {
		shared.WriteError(w, r,
			dErrors.New(dErrors.CodeUnauthorized, "no authenticated user"),
			middleware.GetRequestID(r.Context()))
		return false
	}
	if claims.IsAdmin || claims.DomainID == domainID {
		return true
	}
	shared.WriteError(w, r,
		dErrors.New(dErrors.CodeForbidden, "caller belongs to a different domain"),
		middleware.GetRequestID(r.Context()))
	return false
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	cmd, err := decode[user.CreateCommand](r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}

	u, err := h.service.Create(r.Context(), domainID, cmd)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	users, err := h.service.List(r.Context(), domainID)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	u, err := h.service.Get(r.Context(), domainID, chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, u)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	cmd, err := decode[user.UpdateCommand](r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}

	u, err := h.service.Update(r.Context(), domainID, chi.URLParam(r, "userID"), cmd)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, u)
}

func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	if err := h.service.Delete(r.Context(), domainID, chi.URLParam(r, "userID")); err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
