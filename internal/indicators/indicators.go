// Package indicators derives rolling-window technical columns from an
// ordered OHLC price series. Every function here is pure.
package indicators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Bar is one observation of the series. Bars must be ordered by Timestamp.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// Period accepts either a JSON number or a numeric string.
type Period int

func (p *Period) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		*p = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*p = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("period %q is not an integer", s)
		}
		*p = Period(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("period must be an integer: %w", err)
	}
	*p = Period(n)
	return nil
}

// Directive asks for one derived column.
type Directive struct {
	Name   string `json:"name"`
	Period Period `json:"period,omitempty"`
}

// Column is a derived series aligned index-for-index with the input bars.
// A nil entry means the value is undefined at that row.
type Column struct {
	Name   string
	Values []*float64
}

type Columns []Column

// Lookup returns the column with the given name.
func (cs Columns) Lookup(name string) (Column, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

const (
	defaultMAPeriod         = 20
	defaultRSIPeriod        = 14
	defaultATRPeriod        = 14
	defaultEMAPeriod        = 14
	defaultVolatilityPeriod = 14

	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// Compute evaluates each directive independently. Unknown names are skipped,
// as are repeats of a column that was already produced.
func Compute(bars []Bar, directives []Directive) Columns {
	if len(bars) == 0 {
		return nil
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	var out Columns
	seen := make(map[string]struct{})
	add := func(cols ...Column) {
		for _, c := range cols {
			if _, dup := seen[c.Name]; dup {
				continue
			}
			seen[c.Name] = struct{}{}
			out = append(out, c)
		}
	}

	for _, d := range directives {
		period := int(d.Period)
		switch strings.ToUpper(strings.TrimSpace(d.Name)) {
		case "MA":
			period = orDefault(period, defaultMAPeriod)
			add(Column{Name: fmt.Sprintf("MA_%d", period), Values: MovingAverage(closes, period)})
		case "RSI":
			period = orDefault(period, defaultRSIPeriod)
			add(Column{Name: fmt.Sprintf("RSI_%d", period), Values: RSI(closes, period)})
		case "ATR":
			period = orDefault(period, defaultATRPeriod)
			add(Column{Name: fmt.Sprintf("ATR_%d", period), Values: ATR(bars, period)})
		case "RETURN", "RETURNS":
			add(Column{Name: "returns", Values: Returns(closes)})
		case "VOLATILITY":
			period = orDefault(period, defaultVolatilityPeriod)
			add(Column{Name: "volatility", Values: Volatility(closes, period)})
		case "EMA":
			period = orDefault(period, defaultEMAPeriod)
			add(Column{Name: fmt.Sprintf("EMA_%d", period), Values: roundAll(EMA(closes, period), 2)})
		case "MACD":
			macd, signal, hist := MACD(closes, macdFast, macdSlow, macdSignal)
			add(
				Column{Name: "MACD", Values: roundAll(macd, 4)},
				Column{Name: "MACD_signal", Values: roundAll(signal, 4)},
				Column{Name: "MACD_hist", Values: roundAll(hist, 4)},
			)
		}
	}
	return out
}

// MovingAverage is the mean of the trailing period closes, rounded to 2 decimals.
func MovingAverage(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(closes); i++ {
		out[i] = ptr(Round(mean(closes[i-period+1:i+1]), 2))
	}
	return out
}

// RSI uses the simple average of the trailing period close-to-close gains and
// losses. It is undefined until period changes exist, and when the window is flat.
func RSI(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period <= 0 {
		return out
	}
	for i := period; i < len(closes); i++ {
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gain += delta
			} else {
				loss -= delta
			}
		}
		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)
		switch {
		case avgLoss == 0 && avgGain == 0:
			continue
		case avgLoss == 0:
			out[i] = ptr(100)
		default:
			rs := avgGain / avgLoss
			out[i] = ptr(Round(100-100/(1+rs), 2))
		}
	}
	return out
}

// TrueRange of each bar; the first bar has no previous close so it is high-low.
func TrueRange(bars []Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		tr[i] = b.High - b.Low
		if i == 0 {
			continue
		}
		prev := bars[i-1].Close
		tr[i] = math.Max(tr[i], math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
	}
	return tr
}

// ATR is the trailing mean of the true range, rounded to 2 decimals.
func ATR(bars []Bar, period int) []*float64 {
	out := make([]*float64, len(bars))
	if period <= 0 {
		return out
	}
	tr := TrueRange(bars)
	for i := period - 1; i < len(tr); i++ {
		out[i] = ptr(Round(mean(tr[i-period+1:i+1]), 2))
	}
	return out
}

// Returns is the percent change of each close vs the previous one, rounded to 5 decimals.
func Returns(closes []float64) []*float64 {
	raw := pctChange(closes)
	out := make([]*float64, len(raw))
	for i, r := range raw {
		if r != nil {
			out[i] = ptr(Round(*r, 5))
		}
	}
	return out
}

// Volatility is the sample standard deviation of the trailing period returns,
// rounded to 5 decimals.
func Volatility(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period < 2 {
		return out
	}
	returns := pctChange(closes)
	for i := period; i < len(closes); i++ {
		window := make([]float64, 0, period)
		for _, r := range returns[i-period+1 : i+1] {
			if r == nil {
				break
			}
			window = append(window, *r)
		}
		if len(window) < period {
			continue
		}
		out[i] = ptr(Round(sampleStdDev(window), 5))
	}
	return out
}

// EMA uses span smoothing (alpha = 2/(period+1)) seeded with the first close.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || period <= 0 {
		return out
	}
	alpha := 2 / (float64(period) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns the fast-slow EMA spread, its signal line and the histogram.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sig = EMA(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist
}

// Round rounds half to even at the given number of decimals, the way pandas
// and numpy round.
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*pow) / pow
}

func pctChange(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out[i] = ptr((values[i] - values[i-1]) / values[i-1])
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sampleStdDev(values []float64) float64 {
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func roundAll(values []float64, decimals int) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = ptr(Round(v, decimals))
	}
	return out
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func ptr(v float64) *float64 {
	return &v
}
