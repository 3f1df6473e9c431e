package user

import (
	"context"
	"net/http"

	"github.com/alphawing/brokerage/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*Profile, int64, error)
	Get(ctx context.Context, id int64) (*Profile, error)
	UpdateProfile(ctx context.Context, id int64, dto UpdateProfileDTO) (*Profile, error)
	Watchlist(ctx context.Context, id int64) ([]WatchlistItem, error)
	AddToWatchlist(ctx context.Context, id int64, item WatchlistItem) ([]WatchlistItem, error)
	RemoveFromWatchlist(ctx context.Context, id int64, item WatchlistItem) ([]WatchlistItem, error)
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

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := transport.ParsePage(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	filter := ListFilter{
		Username: r.URL.Query().Get("username"),
		Role:     r.URL.Query().Get("role"),
	}

	users, total, err := h.Service.List(r.Context(), filter, page)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.NewPage(users, total, page))
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	profile, err := h.Service.Get(r.Context(), p.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

// UpdateCurrentUser handles PATCH /users/me
func (h *Handler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto UpdateProfileDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	profile, err := h.Service.UpdateProfile(r.Context(), p.UserID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

// GetWatchlist handles GET /users/me/watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	items, err := h.Service.Watchlist(r.Context(), p.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, items)
}

// AddToWatchlist handles POST /users/me/watchlist
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	h.editWatchlist(w, r, h.Service.AddToWatchlist)
}

// RemoveFromWatchlist handles DELETE /users/me/watchlist
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	h.editWatchlist(w, r, h.Service.RemoveFromWatchlist)
}

func (h *Handler) editWatchlist(w http.ResponseWriter, r *http.Request, edit func(context.Context, int64, WatchlistItem) ([]WatchlistItem, error)) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var item WatchlistItem
	if err := h.DecodeJSON(r, &item); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	items, err := edit(r.Context(), p.UserID, item)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, items)
}
