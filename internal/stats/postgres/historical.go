package postgres

import (
	"context"

	marketDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/market"
	"github.com/alphawing/brokerage/internal/stats"
	"github.com/jmoiron/sqlx"
)

const rangeQuery = `
SELECT id,
       COALESCE(custom_id, '') AS custom_id,
       ticker_id,
       symbol,
       COALESCE(milliseconds, 0) AS milliseconds,
       COALESCE(duration, '') AS duration,
       COALESCE(open, 0) AS open,
       COALESCE(low, 0) AS low,
       COALESCE(high, 0) AS high,
       COALESCE(close, 0) AS close,
       adj_close,
       COALESCE(volume, 0) AS volume,
       COALESCE(vwap, 0) AS vwap,
       timestamp,
       COALESCE(transactions, 0) AS transactions,
       source,
       market
FROM historical
WHERE ticker_id = $1
  AND source = $2
  AND timestamp >= $3
  AND timestamp < $4
ORDER BY timestamp ASC`

// HistoricalRepository reads bars with plain SQL. The table is written by the
// ingestion jobs, never by this service.
type HistoricalRepository struct {
	db *sqlx.DB
}

func NewHistoricalRepository(db *sqlx.DB) stats.Repository {
	return &HistoricalRepository{db: db}
}

func (r *HistoricalRepository) Range(ctx context.Context, q stats.Query) ([]marketDatamodel.Historical, error) {
	var bars []marketDatamodel.Historical
	if err := r.db.SelectContext(ctx, &bars, rangeQuery, q.TickerID, q.Source, q.From, q.To); err != nil {
		return nil, err
	}
	return bars, nil
}
