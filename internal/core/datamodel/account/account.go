package account

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID             int64           `gorm:"primaryKey"`
	UserID         int64           `gorm:"column:user_id;not null;index"`
	AccountNum     string          `gorm:"column:account_num"`
	Nickname       string          `gorm:"column:nickname"`
	Broker         string          `gorm:"column:broker;not null"`
	DateOpened     *time.Time      `gorm:"column:date_opened"`
	InitialBalance decimal.Decimal `gorm:"column:initial_balance;type:numeric(15,2);not null"`
	CurrentBalance decimal.Decimal `gorm:"column:current_balance;type:numeric(15,2);not null"`
	AccountType    string          `gorm:"column:account_type;not null"`
	AutoTrade      bool            `gorm:"column:auto_trade;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
