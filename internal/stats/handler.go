package stats

import (
	"context"
	"net/http"

	"github.com/alphawing/brokerage/internal/transport"
)

type ServiceAPI interface {
	Data(ctx context.Context, params Params) ([]Row, error)
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

// GetData handles POST /stats/data
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	var params Params
	if err := h.DecodeJSON(r, &params); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	rows, err := h.Service.Data(r.Context(), params)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rows)
}
