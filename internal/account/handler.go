package account

import (
	"context"
	"net/http"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, ownerID int64, dto AddAccountDTO) (*Account, error)
	List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*Account, int64, error)
	Update(ctx context.Context, actor internal.Principal, id int64, dto UpdateAccountDTO) (*Account, error)
	Delete(ctx context.Context, actor internal.Principal, id int64) error
	Stats(ctx context.Context, userID int64) (Stats, error)
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

// AdminAddAccount handles POST /accounts/admin/add
func (h *Handler) AdminAddAccount(w http.ResponseWriter, r *http.Request) {
	var dto AddAccountDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	acc, err := h.Service.Create(r.Context(), dto.UserID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, acc)
}

// ClientAddAccount handles POST /accounts/client/add
func (h *Handler) ClientAddAccount(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto AddAccountDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	acc, err := h.Service.Create(r.Context(), p.UserID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, acc)
}

// ListAllAccounts handles GET /accounts/admin/all
func (h *Handler) ListAllAccounts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, ListFilter{Nickname: r.URL.Query().Get("nickname")})
}

// ListOwnAccounts handles GET /accounts/client/all
func (h *Handler) ListOwnAccounts(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.list(w, r, ListFilter{UserID: p.UserID, Nickname: r.URL.Query().Get("nickname")})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	page, err := transport.ParsePage(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	accounts, total, err := h.Service.List(r.Context(), filter, page)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.NewPage(accounts, total, page))
}

// UpdateAccount handles PUT /accounts/{id}
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
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

	var dto UpdateAccountDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	acc, err := h.Service.Update(r.Context(), p, id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, acc)
}

// DeleteAccount handles DELETE /accounts/{id}
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
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

// GetStats handles GET /accounts/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	stats, err := h.Service.Stats(r.Context(), p.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}
