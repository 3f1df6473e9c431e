package account

import (
	"time"

	"github.com/shopspring/decimal"
)

type AddAccountDTO struct {
	UserID         int64            `json:"userId"`
	AccountNum     string           `json:"accountNum" validate:"required,max=64"`
	Nickname       string           `json:"nickname" validate:"max=255"`
	Broker         string           `json:"broker" validate:"required,broker"`
	DateOpened     *time.Time       `json:"dateOpened"`
	InitialBalance *decimal.Decimal `json:"initialBalance"`
	CurrentBalance *decimal.Decimal `json:"currentBalance"`
	AccountType    string           `json:"accountType" validate:"omitempty,account_type"`
	AutoTrade      bool             `json:"autoTrade"`
}

type UpdateAccountDTO struct {
	AccountNum     *string          `json:"accountNum" validate:"omitempty,max=64"`
	Nickname       *string          `json:"nickname" validate:"omitempty,max=255"`
	Broker         *string          `json:"broker" validate:"omitempty,broker"`
	DateOpened     *time.Time       `json:"dateOpened"`
	InitialBalance *decimal.Decimal `json:"initialBalance"`
	CurrentBalance *decimal.Decimal `json:"currentBalance"`
	AccountType    *string          `json:"accountType" validate:"omitempty,account_type"`
	AutoTrade      *bool            `json:"autoTrade"`
}

type ListFilter struct {
	UserID   int64
	Nickname string
}
