package postgres

import (
	"context"
	"strings"

	"github.com/alphawing/brokerage/internal/account"
	"github.com/alphawing/brokerage/internal/core/brokerage"
	accountDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/account"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/transport"
	"gorm.io/gorm"
)

type AccountRepository struct {
	gw *store.Gateway
}

func NewAccountRepository(gw *store.Gateway) account.Repository {
	return &AccountRepository{gw: gw}
}

func (r *AccountRepository) List(ctx context.Context, filter account.ListFilter, page transport.PageRequest) ([]*accountDatamodel.Account, int64, error) {
	scoped := func() *gorm.DB {
		q := r.gw.Session(ctx).Model(&accountDatamodel.Account{})
		if filter.UserID > 0 {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if n := strings.TrimSpace(filter.Nickname); n != "" {
			q = q.Where("LOWER(nickname) LIKE ?", "%"+strings.ToLower(n)+"%")
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []*accountDatamodel.Account
	err := scoped().Order("id ASC").Limit(page.Size).Offset(page.Offset()).Find(&accounts).Error
	return accounts, total, err
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*accountDatamodel.Account, error) {
	var a accountDatamodel.Account
	err := r.gw.Session(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *accountDatamodel.Account) error {
	return r.gw.Session(ctx).Create(a).Error
}

func (r *AccountRepository) Update(ctx context.Context, a *accountDatamodel.Account) error {
	return r.gw.Session(ctx).Save(a).Error
}

func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	return r.gw.Session(ctx).Delete(&accountDatamodel.Account{}, id).Error
}

func (r *AccountRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := r.gw.Session(ctx).Model(&userDatamodel.User{}).Where("id = ?", userID).Count(&n).Error
	return n > 0, err
}

const statsQuery = `
SELECT
  COALESCE(SUM(CASE WHEN account_type = ? THEN 1 ELSE 0 END), 0) AS service_accounts,
  COALESCE(SUM(CASE WHEN account_type = ? THEN 1 ELSE 0 END), 0) AS live_accounts,
  COALESCE(SUM(CASE WHEN account_type = ? THEN 1 ELSE 0 END), 0) AS paper_accounts,
  COUNT(*) AS total_accounts,
  COALESCE(SUM(current_balance), 0) AS current_balance,
  COALESCE(SUM(initial_balance), 0) AS initial_balance
FROM accounts
WHERE user_id = ?`

func (r *AccountRepository) Stats(ctx context.Context, userID int64) (account.StatsRow, error) {
	var row account.StatsRow
	err := r.gw.Session(ctx).Raw(statsQuery,
		string(brokerage.AccountTypeService),
		string(brokerage.AccountTypeLive),
		string(brokerage.AccountTypePaper),
		userID,
	).Scan(&row).Error
	return row, err
}
