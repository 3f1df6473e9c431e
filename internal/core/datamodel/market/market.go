package market

import "time"

type Ticker struct {
	ID        int64  `gorm:"primaryKey"`
	Symbol    string `gorm:"column:symbol;uniqueIndex;not null"`
	Name      string `gorm:"column:name;not null"`
	AltNames  any    `gorm:"column:alt_names;serializer:json;type:text"`
	Industry  string `gorm:"column:industry"`
	Market    string `gorm:"column:market;not null"`
	MarketCap string `gorm:"column:market_cap"`
}

func (Ticker) TableName() string {
	return "tickers"
}

// Historical is one OHLC bar. The service only reads this table.
type Historical struct {
	ID           int64     `gorm:"primaryKey" db:"id"`
	CustomID     string    `gorm:"column:custom_id;uniqueIndex" db:"custom_id"`
	TickerID     int64     `gorm:"column:ticker_id;not null;index" db:"ticker_id"`
	Symbol       string    `gorm:"column:symbol;not null" db:"symbol"`
	Milliseconds int64     `gorm:"column:milliseconds" db:"milliseconds"`
	Duration     string    `gorm:"column:duration" db:"duration"`
	Open         float64   `gorm:"column:open" db:"open"`
	Low          float64   `gorm:"column:low" db:"low"`
	High         float64   `gorm:"column:high" db:"high"`
	Close        float64   `gorm:"column:close" db:"close"`
	AdjClose     *float64  `gorm:"column:adj_close" db:"adj_close"`
	Volume       float64   `gorm:"column:volume" db:"volume"`
	VWAP         float64   `gorm:"column:vwap" db:"vwap"`
	Timestamp    time.Time `gorm:"column:timestamp;index" db:"timestamp"`
	Transactions int64     `gorm:"column:transactions" db:"transactions"`
	Source       string    `gorm:"column:source;not null" db:"source"`
	Market       string    `gorm:"column:market;not null" db:"market"`
}

func (Historical) TableName() string {
	return "historical"
}
