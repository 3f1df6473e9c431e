package transport

import (
	"net/http"
	"strconv"

	"github.com/alphawing/brokerage/internal"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

// ParsePage reads ?page and ?size, defaulting to page 1 and DefaultPageSize.
func ParsePage(r *http.Request) (PageRequest, error) {
	req := PageRequest{Page: 1, Size: DefaultPageSize}
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, internal.NewValidationFieldError("page", "page must be a positive integer", internal.ErrCodeValidationFailed)
		}
		req.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxPageSize {
			return req, internal.NewValidationFieldError("size", "size must be between 1 and 100", internal.ErrCodeValidationFailed)
		}
		req.Size = n
	}
	return req, nil
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int   `json:"pages"`
}

func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{Items: items, Total: total, Page: req.Page, Size: req.Size, Pages: pages}
}
