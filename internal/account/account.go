package account

import (
	"time"

	accountDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/account"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"userId"`
	AccountNum     string     `json:"accountNum"`
	Nickname       string     `json:"nickname,omitempty"`
	Broker         string     `json:"broker"`
	DateOpened     *time.Time `json:"dateOpened,omitempty"`
	InitialBalance float64    `json:"initialBalance"`
	CurrentBalance float64    `json:"currentBalance"`
	AccountType    string     `json:"accountType"`
	AutoTrade      bool       `json:"autoTrade"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Stats summarises one user's accounts. Growth is current/initial*100.
type Stats struct {
	TotalServiceAccount int64   `json:"total_service_account"`
	TotalLiveAccount    int64   `json:"total_live_account"`
	TotalPaperAccount   int64   `json:"total_paper_account"`
	TotalAccounts       int64   `json:"total_accounts"`
	CurrentBalance      float64 `json:"current_balance"`
	InitialBalance      float64 `json:"initial_balance"`
	AccountGrowth       float64 `json:"account_growth"`
}

// StatsRow is the aggregate read from the store.
type StatsRow struct {
	ServiceAccounts int64
	LiveAccounts    int64
	PaperAccounts   int64
	TotalAccounts   int64
	CurrentBalance  decimal.Decimal
	InitialBalance  decimal.Decimal
}

// Growth returns current/initial*100 rounded to 2 places, or 0 when the
// initial balance is not positive.
func Growth(current, initial decimal.Decimal) decimal.Decimal {
	if !initial.IsPositive() {
		return decimal.Zero
	}
	return current.Div(initial).Mul(decimal.NewFromInt(100)).Round(2)
}

func (r StatsRow) ToStats() Stats {
	return Stats{
		TotalServiceAccount: r.ServiceAccounts,
		TotalLiveAccount:    r.LiveAccounts,
		TotalPaperAccount:   r.PaperAccounts,
		TotalAccounts:       r.TotalAccounts,
		CurrentBalance:      r.CurrentBalance.Round(2).InexactFloat64(),
		InitialBalance:      r.InitialBalance.Round(2).InexactFloat64(),
		AccountGrowth:       Growth(r.CurrentBalance, r.InitialBalance).InexactFloat64(),
	}
}

// fromDataModel expects an already decrypted account number.
func fromDataModel(a *accountDatamodel.Account, accountNum string) *Account {
	return &Account{
		ID:             a.ID,
		UserID:         a.UserID,
		AccountNum:     accountNum,
		Nickname:       a.Nickname,
		Broker:         a.Broker,
		DateOpened:     a.DateOpened,
		InitialBalance: a.InitialBalance.InexactFloat64(),
		CurrentBalance: a.CurrentBalance.InexactFloat64(),
		AccountType:    a.AccountType,
		AutoTrade:      a.AutoTrade,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
