// Package handler exposes admin-set management over HTTP. All routes sit
// behind the auth middleware; the service enforces that only the owner
// identity mutates the set.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminservice "credentry/internal/admin/service"
	"credentry/pkg/domain"
	dErrors "credentry/pkg/domain-errors"
	"credentry/pkg/platform/httputil"
)

func invalidIdentity(err error) error {
	return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid identity")
}

type Handler struct {
	service *adminservice.Service
}

func New(service *adminservice.Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the admin-set endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.addAdmin)
	r.Get("/", h.listAdmins)
	r.Delete("/{id}", h.removeAdmin)
	r.Get("/{id}", h.isAdmin)
}

type addAdminRequest struct {
	ID string `json:"id"`
}

func (h *Handler) addAdmin(w http.ResponseWriter, r *http.Request) {
	var req addAdminRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := domain.ParseAccountID(req.ID)
	if err != nil {
		httputil.WriteError(w, invalidIdentity(err))
		return
	}
	if err := h.service.AddAdmin(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"id": id, "admin": true})
}

func (h *Handler) removeAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, invalidIdentity(err))
		return
	}
	if err := h.service.RemoveAdmin(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "admin": false})
}

func (h *Handler) isAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, invalidIdentity(err))
		return
	}
	isAdmin, err := h.service.IsAdmin(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "admin": isAdmin})
}

func (h *Handler) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.ListAdmins(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if admins == nil {
		admins = []domain.AccountID{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"admins": admins})
}
