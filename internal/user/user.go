package user

import (
	"time"

	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
)

// Profile is the public view of an identity; secrets never leave the store.
type Profile struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"email"`
	Company   string          `json:"company,omitempty"`
	Role      string          `json:"role"`
	IsActive  bool            `json:"isActive"`
	ImgPath   string          `json:"imgPath,omitempty"`
	Watchlist []WatchlistItem `json:"watchlist"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type WatchlistItem struct {
	Symbol string `json:"symbol" validate:"required,max=32"`
	Market string `json:"market" validate:"required,max=32"`
}

func FromDataModel(u *userDatamodel.User) *Profile {
	return &Profile{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Company:   u.Company,
		Role:      u.Role,
		IsActive:  u.IsActive,
		ImgPath:   u.ImgPath,
		Watchlist: fromDataWatchlist(u.Watchlist),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toDataWatchlist(items []WatchlistItem) []userDatamodel.WatchlistItem {
	out := make([]userDatamodel.WatchlistItem, 0, len(items))
	for _, w := range items {
		out = append(out, userDatamodel.WatchlistItem{Symbol: w.Symbol, Market: w.Market})
	}
	return out
}

func fromDataWatchlist(items []userDatamodel.WatchlistItem) []WatchlistItem {
	out := make([]WatchlistItem, 0, len(items))
	for _, w := range items {
		out = append(out, WatchlistItem{Symbol: w.Symbol, Market: w.Market})
	}
	return out
}
