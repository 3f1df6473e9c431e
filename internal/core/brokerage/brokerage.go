// Package brokerage holds the closed enumerations shared by accounts and API credentials.
package brokerage

import "github.com/alphawing/brokerage/internal/core/common/validation"

func init() {
	validation.RegisterOneOf("broker", brokerNames()...)
	validation.RegisterOneOf("account_type", accountTypeNames()...)
	validation.RegisterOneOf("credential_status", string(CredentialActive), string(CredentialDisabled))
}

type Broker string

const (
	BrokerTradeStation       Broker = "tradestation"
	BrokerAlpaca             Broker = "alpaca"
	BrokerKraken             Broker = "kraken"
	BrokerCoinbase           Broker = "coinbase"
	BrokerInteractiveBrokers Broker = "interactive_brokers"
	BrokerOanda              Broker = "oanda"
)

var Brokers = []Broker{
	BrokerTradeStation,
	BrokerAlpaca,
	BrokerKraken,
	BrokerCoinbase,
	BrokerInteractiveBrokers,
	BrokerOanda,
}

func (b Broker) Valid() bool {
	for _, known := range Brokers {
		if b == known {
			return true
		}
	}
	return false
}

type AccountType string

const (
	AccountTypeService AccountType = "service_account"
	AccountTypeLive    AccountType = "live_account"
	AccountTypePaper   AccountType = "paper_account"
)

var AccountTypes = []AccountType{AccountTypeService, AccountTypeLive, AccountTypePaper}

func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

type CredentialStatus string

const (
	CredentialActive   CredentialStatus = "active"
	CredentialDisabled CredentialStatus = "disabled"
)

func (s CredentialStatus) Valid() bool {
	return s == CredentialActive || s == CredentialDisabled
}

func brokerNames() []string {
	out := make([]string, len(Brokers))
	for i, b := range Brokers {
		out[i] = string(b)
	}
	return out
}

func accountTypeNames() []string {
	out := make([]string, len(AccountTypes))
	for i, t := range AccountTypes {
		out[i] = string(t)
	}
	return out
}
