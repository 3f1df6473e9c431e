// Package stats serves historical price ranges enriched with indicator columns.
package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alphawing/brokerage/internal/indicators"
)

const (
	DefaultSource       = "POLYGON"
	DefaultLookbackDays = 100
)

const dateLayout = "2006-01-02"

// Date is a calendar day in UTC. It accepts "2006-01-02" or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = NewDate(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	*d = NewDate(t)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// Params is the body of POST /stats/data. Zero values take the defaults.
type Params struct {
	TickerID   int64                  `json:"ticker_id" validate:"required,gt=0"`
	FromDate   Date                   `json:"from_date"`
	ToDate     Date                   `json:"to_date"`
	Indicators []indicators.Directive `json:"indicators"`
	Source     string                 `json:"source" validate:"max=30"`
}

// Query is the resolved range handed to the repository. To is exclusive.
type Query struct {
	TickerID int64
	Source   string
	From     time.Time
	To       time.Time
}

type IndicatorValue struct {
	Name  string
	Value *float64
}

// Row is one bar with prices rounded to two decimals. Indicator values are
// flattened into the JSON object after the bar fields.
type Row struct {
	ID           int64            `json:"id"`
	CustomID     string           `json:"custom_id"`
	TickerID     int64            `json:"ticker_id"`
	Symbol       string           `json:"symbol"`
	Milliseconds int64            `json:"milliseconds"`
	Duration     string           `json:"duration"`
	Open         float64          `json:"open"`
	Low          float64          `json:"low"`
	High         float64          `json:"high"`
	Close        float64          `json:"close"`
	AdjClose     *float64         `json:"adj_close"`
	Volume       float64          `json:"volume"`
	VWAP         float64          `json:"vwap"`
	Timestamp    time.Time        `json:"timestamp"`
	Transactions int64            `json:"transactions"`
	Source       string           `json:"source"`
	Market       string           `json:"market"`
	Indicators   []IndicatorValue `json:"-"`
}

type plainRow Row

func (r Row) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(plainRow(r))
	if err != nil {
		return nil, err
	}
	if len(r.Indicators) == 0 {
		return base, nil
	}

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, iv := range r.Indicators {
		key, err := json.Marshal(iv.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(iv.Value)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
