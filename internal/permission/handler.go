package permission

import (
	"context"
	"net/http"

	"github.com/alphawing/brokerage/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, page transport.PageRequest) ([]*Permission, int64, error)
	Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error)
	Update(ctx context.Context, id int64, dto UpdatePermissionDTO) (*Permission, error)
	Delete(ctx context.Context, id int64) error
	Grant(ctx context.Context, grantedBy int64, dto GrantDTO) error
	Revoke(ctx context.Context, dto GrantDTO) error
	UserGrants(ctx context.Context, userID int64) ([]Grant, error)
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

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	page, err := transport.ParsePage(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	perms, total, err := h.Service.List(r.Context(), page)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.NewPage(perms, total, page))
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	perm, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, perm)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto UpdatePermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	perm, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, perm)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto GrantDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Grant(r.Context(), p.UserID, dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "permission granted"})
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	var dto GrantDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Revoke(r.Context(), dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "permission revoked"})
}

func (h *Handler) ListUserPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := h.PathID(r, "userId")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	grants, err := h.Service.UserGrants(r.Context(), userID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, grants)
}
