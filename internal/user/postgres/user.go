package postgres

import (
	"context"
	"strings"

	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/transport"
	"github.com/alphawing/brokerage/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	gw *store.Gateway
}

func NewUserRepository(gw *store.Gateway) user.Repository {
	return &UserRepository{gw: gw}
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter, page transport.PageRequest) ([]*userDatamodel.User, int64, error) {
	scoped := func() *gorm.DB {
		q := r.gw.Session(ctx).Model(&userDatamodel.User{})
		if filter.Username != "" {
			q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(filter.Username))+"%")
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*userDatamodel.User
	err := scoped().Order("id ASC").Limit(page.Size).Offset(page.Offset()).Find(&users).Error
	return users, total, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.gw.Session(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var n int64
	err := r.gw.Session(ctx).Model(&userDatamodel.User{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", email, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.gw.Session(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) SaveWatchlist(ctx context.Context, id int64, items []userDatamodel.WatchlistItem) error {
	return r.gw.Session(ctx).Model(&userDatamodel.User{ID: id}).
		Select("watchlist").
		Updates(&userDatamodel.User{Watchlist: items}).Error
}
