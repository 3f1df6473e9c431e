package stats

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/core/common/validation"
	marketDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/market"
	"github.com/alphawing/brokerage/internal/indicators"
)

type Repository interface {
	Range(ctx context.Context, q Query) ([]marketDatamodel.Historical, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Data returns the bars of one ticker and source between FromDate and ToDate,
// both inclusive, with the requested indicator columns.
func (s *Service) Data(ctx context.Context, params Params) ([]Row, error) {
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	q, directives, err := s.resolve(params)
	if err != nil {
		return nil, err
	}

	bars, err := s.repo.Range(ctx, q)
	if err != nil {
		return nil, internal.NewInternalError("failed to load historical data", err)
	}

	series := make([]indicators.Bar, len(bars))
	for i, b := range bars {
		series[i] = indicators.Bar{Timestamp: b.Timestamp, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	}
	cols := indicators.Compute(series, directives)

	rows := make([]Row, len(bars))
	for i, b := range bars {
		rows[i] = toRow(b)
		if len(cols) > 0 {
			rows[i].Indicators = make([]IndicatorValue, len(cols))
			for j, c := range cols {
				rows[i].Indicators[j] = IndicatorValue{Name: c.Name, Value: c.Values[i]}
			}
		}
	}

	s.logger.DebugContext(ctx, "stats data served", "ticker_id", q.TickerID, "source", q.Source, "rows", len(rows), "columns", len(cols))
	return rows, nil
}

func (s *Service) resolve(params Params) (Query, []indicators.Directive, error) {
	today := NewDate(s.now())

	from := params.FromDate
	if from.IsZero() {
		from = Date{today.AddDate(0, 0, -DefaultLookbackDays)}
	}
	to := params.ToDate
	if to.IsZero() {
		to = today
	}
	if to.Before(from.Time) {
		return Query{}, nil, internal.NewValidationFieldError("to_date", "to_date must not be before from_date", internal.ErrCodeValidationFailed)
	}

	source := strings.TrimSpace(params.Source)
	if source == "" {
		source = DefaultSource
	}

	directives := params.Indicators
	if directives == nil {
		directives = []indicators.Directive{{Name: "MA", Period: 50}}
	}

	return Query{
		TickerID: params.TickerID,
		Source:   source,
		From:     from.Time,
		To:       to.AddDate(0, 0, 1),
	}, directives, nil
}

func toRow(b marketDatamodel.Historical) Row {
	return Row{
		ID:           b.ID,
		CustomID:     b.CustomID,
		TickerID:     b.TickerID,
		Symbol:       b.Symbol,
		Milliseconds: b.Milliseconds,
		Duration:     b.Duration,
		Open:         indicators.Round(b.Open, 2),
		Low:          indicators.Round(b.Low, 2),
		High:         indicators.Round(b.High, 2),
		Close:        indicators.Round(b.Close, 2),
		AdjClose:     round2Ptr(b.AdjClose),
		Volume:       b.Volume,
		VWAP:         indicators.Round(b.VWAP, 2),
		Timestamp:    b.Timestamp,
		Transactions: b.Transactions,
		Source:       b.Source,
		Market:       b.Market,
	}
}

func round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := indicators.Round(*v, 2)
	return &r
}
