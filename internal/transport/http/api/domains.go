package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mngkeeper/internal/domain/models"
	domainservice "mngkeeper/internal/domain/service"
	"mngkeeper/internal/domain/store"
	"mngkeeper/internal/platform/middleware"
	"mngkeeper/internal/transport/http/json"
	"mngkeeper/internal/transport/http/shared"
)

// DomainHandler exposes domain provisioning and lifecycle over HTTP.
type DomainHandler struct {
	service *domainservice.Service
}

// NewDomainHandler creates the handler.
func NewDomainHandler(service *domainservice.Service) *DomainHandler {
	return &DomainHandler{service: service}
}

// Register mounts the domain routes. All of them require an admin caller.
func (h *DomainHandler) Register(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{domainID}", h.get)
	r.Delete("/{domainID}", h.delete)
	r.Put("/{domainID}/settings", h.updateSettings)
	r.Post("/{domainID}/suspend", h.suspend)
	r.Post("/{domainID}/activate", h.activate)
}

func caller(r *http.Request) string {
	if claims := ClaimsFrom(r.Context()); claims != nil {
		return claims.Username
	}
	return ""
}

func (h *DomainHandler) create(w http.ResponseWriter, r *http.Request) {
	cmd, err := decode[domainservice.CreateDomainCommand](r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	cmd.CreatedBy = caller(r)

	domain, err := h.service.CreateDomain(r.Context(), cmd)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusCreated, domain)
}

func (h *DomainHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		Status:     models.Status(r.URL.Query().Get("status")),
		NamePrefix: r.URL.Query().Get("name"),
	}
	domains, err := h.service.ListDomains(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, domains)
}

func (h *DomainHandler) get(w http.ResponseWriter, r *http.Request) {
	domain, err := h.service.GetDomain(r.Context(), chi.URLParam(r, "domainID"))
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, domain)
}

func (h *DomainHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDomain(r.Context(), chi.URLParam(r, "domainID"), caller(r)); err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DomainHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	cmd, err := decode[domainservice.UpdateSettingsCommand](r)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	cmd.UpdatedBy = caller(r)

	domain, err := h.service.UpdateSettings(r.Context(), chi.URLParam(r, "domainID"), cmd)
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, domain)
}

func (h *DomainHandler) suspend(w http.ResponseWriter, r *http.Request) {
	domain, err := h.service.SuspendDomain(r.Context(), chi.URLParam(r, "domainID"), caller(r))
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, domain)
}

func (h *DomainHandler) activate(w http.ResponseWriter, r *http.Request) {
	domain, err := h.service.ActivateDomain(r.Context(), chi.URLParam(r, "domainID"), caller(r))
	if err != nil {
		shared.WriteError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	json.WriteJSON(w, http.StatusOK, domain)
}
