package postgres

import (
	"context"
	"strings"
	"time"

	marketDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/market"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/symbol"
	"github.com/alphawing/brokerage/internal/transport"
	"gorm.io/gorm"
)

type SymbolRepository struct {
	gw *store.Gateway
}

func NewSymbolRepository(gw *store.Gateway) symbol.Repository {
	return &SymbolRepository{gw: gw}
}

func (r *SymbolRepository) List(ctx context.Context, filter symbol.ListFilter, page transport.PageRequest) ([]*marketDatamodel.Ticker, int64, error) {
	scoped := func() *gorm.DB {
		q := r.gw.Session(ctx).Model(&marketDatamodel.Ticker{})
		if n := strings.TrimSpace(filter.Name); n != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(n)+"%")
		}
		if m := strings.TrimSpace(filter.Market); m != "" {
			q = q.Where("LOWER(market) = ?", strings.ToLower(m))
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickers []*marketDatamodel.Ticker
	err := scoped().Order("name ASC").Order("id ASC").Limit(page.Size).Offset(page.Offset()).Find(&tickers).Error
	return tickers, total, err
}

func (r *SymbolRepository) GetByID(ctx context.Context, id int64) (*marketDatamodel.Ticker, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *SymbolRepository) FindBySymbol(ctx context.Context, sym string) (*marketDatamodel.Ticker, error) {
	return r.first(ctx, "symbol = ?", sym)
}

func (r *SymbolRepository) first(ctx context.Context, query string, arg interface{}) (*marketDatamodel.Ticker, error) {
	var t marketDatamodel.Ticker
	err := r.gw.Session(ctx).Where(query, arg).First(&t).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *SymbolRepository) Create(ctx context.Context, t *marketDatamodel.Ticker) error {
	return r.gw.Session(ctx).Create(t).Error
}

func (r *SymbolRepository) Update(ctx context.Context, t *marketDatamodel.Ticker) error {
	return r.gw.Session(ctx).Save(t).Error
}

// Delete removes the bars explicitly as well, for stores without the cascade.
func (r *SymbolRepository) Delete(ctx context.Context, id int64) error {
	db := r.gw.Session(ctx)
	if err := db.Where("ticker_id = ?", id).Delete(&marketDatamodel.Historical{}).Error; err != nil {
		return err
	}
	return db.Delete(&marketDatamodel.Ticker{}, id).Error
}

func (r *SymbolRepository) CloseRange(ctx context.Context, tickerID int64) (symbol.CloseRange, error) {
	var row struct {
		MinClose *float64
		MaxClose *float64
	}
	err := r.gw.Session(ctx).Model(&marketDatamodel.Historical{}).
		Select("MIN(close) AS min_close, MAX(close) AS max_close").
		Where("ticker_id = ?", tickerID).
		Scan(&row).Error
	return symbol.CloseRange{MinClose: row.MinClose, MaxClose: row.MaxClose}, err
}

func (r *SymbolRepository) LatestBar(ctx context.Context, tickerID int64) (*marketDatamodel.Historical, error) {
	var h marketDatamodel.Historical
	err := r.gw.Session(ctx).Where("ticker_id = ?", tickerID).Order("timestamp DESC").First(&h).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *SymbolRepository) ClosesSince(ctx context.Context, tickerID int64, since time.Time) ([]float64, error) {
	var closes []float64
	err := r.gw.Session(ctx).Model(&marketDatamodel.Historical{}).
		Where("ticker_id = ? AND timestamp >= ?", tickerID, since).
		Order("timestamp ASC").
		Pluck("close", &closes).Error
	return closes, err
}
