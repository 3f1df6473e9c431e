package apicredential

import (
	"context"
	"net/http"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Principal, dto AddCredentialDTO) (*Credential, error)
	List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*Credential, int64, error)
	Update(ctx context.Context, actor internal.Principal, id int64, dto UpdateCredentialDTO) (*Credential, error)
	Delete(ctx context.Context, actor internal.Principal, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ListCredentials handles GET /api/all. Results are always scoped to the caller.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	page, err := transport.ParsePage(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		UserID:   p.UserID,
		Platform: q.Get("platform"),
		Nickname: q.Get("nickname"),
	}
	creds, total, err := h.Service.List(r.Context(), filter, page)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.NewPage(creds, total, page))
}

// AddCredential handles POST /api/add
func (h *Handler) AddCredential(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto AddCredentialDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	cred, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, cred)
}

// UpdateCredential handles PUT /api/{id}
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto UpdateCredentialDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	cred, err := h.Service.Update(r.Context(), p, id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, cred)
}

// DeleteCredential handles DELETE /api/{id}
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), p, id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
