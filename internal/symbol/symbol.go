package symbol

import (
	"time"

	marketDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/market"
	"github.com/alphawing/brokerage/internal/indicators"
)

type Symbol struct {
	ID        int64  `json:"id"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	AltNames  any    `json:"alt_names,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Market    string `json:"market"`
	MarketCap string `json:"market_cap,omitempty"`
}

func FromDataModel(t *marketDatamodel.Ticker) *Symbol {
	return &Symbol{
		ID:        t.ID,
		Symbol:    t.Symbol,
		Name:      t.Name,
		AltNames:  t.AltNames,
		Industry:  t.Industry,
		Market:    t.Market,
		MarketCap: t.MarketCap,
	}
}

// Summary describes a symbol's price history. Every figure is nil when the
// symbol has no bars.
type Summary struct {
	Symbol         string     `json:"symbol"`
	Name           string     `json:"name"`
	MinClose       *float64   `json:"min_close"`
	MaxClose       *float64   `json:"max_close"`
	Wk52CloseLow   *float64   `json:"wk52_close_low"`
	Wk52CloseHigh  *float64   `json:"wk52_close_high"`
	Wk52DailyClose []float64  `json:"wk52_daily_close"`
	LatestData     *time.Time `json:"latest_data"`
	LastClose      *float64   `json:"last_close"`
	LastOpen       *float64   `json:"last_open"`
	LastDailyRange *float64   `json:"last_daily_range"`
}

// CloseRange is the min and max close over a set of bars.
type CloseRange struct {
	MinClose *float64
	MaxClose *float64
}

// Summarize builds a Summary from the all-time close range, the latest bar and
// the closes of the 52 weeks ending at that bar, oldest first.
func Summarize(t *marketDatamodel.Ticker, all CloseRange, latest *marketDatamodel.Historical, yearCloses []float64) Summary {
	s := Summary{
		Symbol:         t.Symbol,
		Name:           t.Name,
		MinClose:       roundPtr(all.MinClose),
		MaxClose:       roundPtr(all.MaxClose),
		Wk52DailyClose: make([]float64, 0, len(yearCloses)),
	}
	if latest == nil {
		return s
	}

	ts := latest.Timestamp
	s.LatestData = &ts
	s.LastClose = roundPtr(&latest.Close)
	s.LastOpen = roundPtr(&latest.Open)
	dailyRange := latest.High - latest.Low
	s.LastDailyRange = roundPtr(&dailyRange)

	for i, c := range yearCloses {
		c = indicators.Round(c, 2)
		s.Wk52DailyClose = append(s.Wk52DailyClose, c)
		if i == 0 || c < *s.Wk52CloseLow {
			low := c
			s.Wk52CloseLow = &low
		}
		if i == 0 || c > *s.Wk52CloseHigh {
			high := c
			s.Wk52CloseHigh = &high
		}
	}
	return s
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := indicators.Round(*v, 2)
	return &r
}
