package symbol

import (
	"context"
	"net/http"

	"github.com/alphawing/brokerage/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*Symbol, int64, error)
	Create(ctx context.Context, dto AddSymbolDTO) (*Symbol, error)
	Update(ctx context.Context, id int64, dto UpdateSymbolDTO) (*Symbol, error)
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context, id int64) (Summary, error)
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

// ListSymbols handles GET /symbols/all
func (h *Handler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	page, err := transport.ParsePage(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	q := r.URL.Query()
	symbols, total, err := h.Service.List(r.Context(), ListFilter{Name: q.Get("name"), Market: q.Get("market")}, page)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.NewPage(symbols, total, page))
}

// CreateSymbol handles POST /symbols
func (h *Handler) CreateSymbol(w http.ResponseWriter, r *http.Request) {
	var dto AddSymbolDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	sym, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, sym)
}

// UpdateSymbol handles PUT /symbols/{id}
func (h *Handler) UpdateSymbol(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto UpdateSymbolDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	sym, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sym)
}

// DeleteSymbol handles DELETE /symbols/{id}
func (h *Handler) DeleteSymbol(w http.ResponseWriter, r *http.Request) {
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

// GetSummary handles GET /symbols/{id}/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	summary, err := h.Service.Summary(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}
