package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mngkeeper/internal/group"
	"mngkeeper/internal/platform/middleware"
	"mngkeeper/internal/transport/http/json"
	"mngkeeper/internal/transport/http/shared"
)

// GroupHandler exposes tenant group management over HTTP.
type GroupHandler struct {
	service *group.Service
}

// NewGroupHandler creates the handler.
func NewGroupHandler(service *group.Service) *GroupHandler {
	return &GroupHandler{service: service}
}

// Register mounts the group routes under a domain.
func (h *GroupHandler) Register(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{groupID}", h.get)
	r.Put("/{groupID}", h.update)
	r.Delete("/{groupID}", h.delete)
	r.Put("/{groupID}/members/{userID}", h.addMember)
	r.Delete("/{groupID}/members/{userID}", h.removeMember)
}

func (h *GroupHandler) create(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	cmd, err := decode[group.CreateCommand](r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}

	g, err := h.service.Create(r.Context(), domainID, cmd)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusCreated, g)
}

func (h *GroupHandler) list(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	groups, err := h.service.List(r.Context(), domainID)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) get(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	g, err := h.service.Get(r.Context(), domainID, chi.URLParam(r, "groupID"))
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) update(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	cmd, err := decode[group.UpdateCommand](r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}

	g, err := h.service.Update(r.Context(), domainID, chi.URLParam(r, "groupID"), cmd)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) delete(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	if err := h.service.Delete(r.Context(), domainID, chi.URLParam(r, "groupID")); err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) addMember(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	err := h.service.AddUser(r.Context(), domainID, chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	if !requireDomainAccess(w, r, domainID) {
		return
	}
	err := h.service.RemoveUser(r.Context(), domainID, chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
