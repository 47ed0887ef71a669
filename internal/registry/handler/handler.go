// Package handler exposes one record registry over HTTP. The same handler
// serves all three registries; which operations it mounts depends on the
// kind — self-report and verify exist only for qualifications, status update
// and renewal only for privileges and panels.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"credentry/internal/registry/models"
	registryservice "credentry/internal/registry/service"
	"credentry/pkg/domain"
	dErrors "credentry/pkg/domain-errors"
	"credentry/pkg/platform/httputil"
)

type Handler struct {
	service *registryservice.Service
}

func New(service *registryservice.Service) *Handler {
	return &Handler{service: service}
}

// MutatingRoutes mounts the kind-appropriate write operations; wrap with the
// auth middleware.
func (h *Handler) MutatingRoutes(r chi.Router) {
	r.Post("/", h.issue)
	if h.service.Kind() == models.KindQualification {
		r.Post("/self-reports", h.selfReport)
		r.Post("/{id}/verification", h.verify)
	} else {
		r.Put("/{id}/status", h.updateStatus)
		r.Put("/{id}/renewal", h.renew)
	}
}

// ReadRoutes mounts the public lookups: anyone can read a record or ask
// whether it is currently valid.
func (h *Handler) ReadRoutes(r chi.Router) {
	r.Get("/", h.listBySubject)
	r.Get("/{id}", h.get)
	r.Get("/{id}/validity", h.validity)
}

type issueRequest struct {
	SubjectID string         `json:"subject_id"`
	Payload   models.Payload `json:"payload"`
	ExpiresAt uint64         `json:"expires_at"`
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	subject, err := domain.ParseAccountID(req.SubjectID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid subject identity"))
		return
	}
	id, err := h.service.Issue(r.Context(), subject, req.Payload, req.ExpiresAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

type selfReportRequest struct {
	AuthorityID string         `json:"authority_id"`
	Payload     models.Payload `json:"payload"`
	ExpiresAt   uint64         `json:"expires_at"`
}

func (h *Handler) selfReport(w http.ResponseWriter, r *http.Request) {
	var req selfReportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	authorityID, err := domain.ParseAccountID(req.AuthorityID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid authority identity"))
		return
	}
	id, err := h.service.SelfReport(r.Context(), authorityID, req.Payload, req.ExpiresAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	record, err := h.service.Verify(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

type updateStatusRequest struct {
	Status       string `json:"status"`
	Restrictions string `json:"restrictions,omitempty"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.service.UpdateStatus(r.Context(), id, models.Status(req.Status), req.Restrictions)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

type renewRequest struct {
	ExpiresAt uint64 `json:"expires_at"`
}

func (h *Handler) renew(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	var req renewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.service.Renew(r.Context(), id, req.ExpiresAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) validity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	valid, err := h.service.IsValid(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "valid": valid})
}

func (h *Handler) listBySubject(w http.ResponseWriter, r *http.Request) {
	subject, err := domain.ParseAccountID(r.URL.Query().Get("subject_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "subject_id query parameter required"))
		return
	}
	records, err := h.service.ListBySubject(r.Context(), subject)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []*models.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "record id must be an unsigned integer"))
		return 0, false
	}
	return id, true
}
