// Package handler exposes the authority registry over HTTP. Registration and
// verification are mutating and require the auth middleware; lookups are
// public.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"credentry/internal/authority/models"
	authorityservice "credentry/internal/authority/service"
	"credentry/pkg/domain"
	dErrors "credentry/pkg/domain-errors"
	"credentry/pkg/platform/httputil"
)

type Handler struct {
	service *authorityservice.Service
}

func New(service *authorityservice.Service) *Handler {
	return &Handler{service: service}
}

// MutatingRoutes mounts register and verify; wrap with the auth middleware.
func (h *Handler) MutatingRoutes(r chi.Router) {
	r.Post("/", h.register)
	r.Put("/{id}/verified", h.setVerified)
}

// ReadRoutes mounts the public lookups.
func (h *Handler) ReadRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type registerRequest struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Website  string `json:"website,omitempty"`
	Location string `json:"location,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	authority, err := h.service.Register(r.Context(), req.Name, category, req.Website, req.Location)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, authority)
}

type setVerifiedRequest struct {
	Verified bool `json:"verified"`
}

func (h *Handler) setVerified(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid authority identity"))
		return
	}
	var req setVerifiedRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	authority, err := h.service.SetVerified(r.Context(), id, req.Verified)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, authority)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid authority identity"))
		return
	}
	authority, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, authority)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	authorities, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if authorities == nil {
		authorities = []*models.Authority{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"authorities": authorities})
}
