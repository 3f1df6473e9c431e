package symbol

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/core/common/validation"
	marketDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/market"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/transport"
)

const yearWindow = 52 * 7 * 24 * time.Hour

type Repository interface {
	List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*marketDatamodel.Ticker, int64, error)
	GetByID(ctx context.Context, id int64) (*marketDatamodel.Ticker, error)
	FindBySymbol(ctx context.Context, symbol string) (*marketDatamodel.Ticker, error)
	Create(ctx context.Context, t *marketDatamodel.Ticker) error
	Update(ctx context.Context, t *marketDatamodel.Ticker) error
	Delete(ctx context.Context, id int64) error
	CloseRange(ctx context.Context, tickerID int64) (CloseRange, error)
	LatestBar(ctx context.Context, tickerID int64) (*marketDatamodel.Historical, error)
	ClosesSince(ctx context.Context, tickerID int64, since time.Time) ([]float64, error)
}

type Transactor interface {
	UnitOfWork(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo   Repository
	tx     Transactor
	logger *slog.Logger
}

func NewService(repo Repository, tx Transactor, logger *slog.Logger) *Service {
	return &Service{repo: repo, tx: tx, logger: logger}
}

func (s *Service) List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*Symbol, int64, error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list symbols", err)
	}
	out := make([]*Symbol, 0, len(rows))
	for _, t := range rows {
		out = append(out, FromDataModel(t))
	}
	return out, total, nil
}

// Create adds a ticker. Symbols are stored upper-case and must be unique.
func (s *Service) Create(ctx context.Context, dto AddSymbolDTO) (*Symbol, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	t := &marketDatamodel.Ticker{
		Symbol:    normalizeSymbol(dto.Symbol),
		Name:      strings.TrimSpace(dto.Name),
		AltNames:  dto.AltNames,
		Industry:  strings.TrimSpace(dto.Industry),
		Market:    strings.TrimSpace(dto.Market),
		MarketCap: strings.TrimSpace(dto.MarketCap),
	}

	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, t.Symbol, 0); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, t); err != nil {
			if store.IsDuplicate(err) {
				return internal.ErrDuplicateSymbol
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "failed to create symbol")
	}

	s.logger.InfoContext(ctx, "symbol created", "symbol_id", t.ID, "symbol", t.Symbol)
	return FromDataModel(t), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateSymbolDTO) (*Symbol, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	var updated *marketDatamodel.Ticker
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return internal.ErrSymbolNotFound
		}
		if dto.Symbol != nil {
			sym := normalizeSymbol(*dto.Symbol)
			if sym != t.Symbol {
				if err := s.ensureUnique(ctx, sym, t.ID); err != nil {
					return err
				}
			}
			t.Symbol = sym
		}
		if dto.Name != nil {
			t.Name = strings.TrimSpace(*dto.Name)
		}
		if dto.Industry != nil {
			t.Industry = strings.TrimSpace(*dto.Industry)
		}
		if dto.Market != nil {
			t.Market = strings.TrimSpace(*dto.Market)
		}
		if dto.MarketCap != nil {
			t.MarketCap = strings.TrimSpace(*dto.MarketCap)
		}
		if dto.AltNames != nil {
			t.AltNames = dto.AltNames
		}
		if err := s.repo.Update(ctx, t); err != nil {
			if store.IsDuplicate(err) {
				return internal.ErrDuplicateSymbol
			}
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, wrap(err, "failed to update symbol")
	}
	return FromDataModel(updated), nil
}

// Delete removes a ticker. Its historical bars go with it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return internal.ErrSymbolNotFound
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return wrap(err, "failed to delete symbol")
	}
	s.logger.InfoContext(ctx, "symbol deleted", "symbol_id", id)
	return nil
}

// Summary reports price statistics. The 52 week window ends at the latest bar,
// not at the current time.
func (s *Service) Summary(ctx context.Context, id int64) (Summary, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Summary{}, internal.NewInternalError("failed to load symbol", err)
	}
	if t == nil {
		return Summary{}, internal.ErrSymbolNotFound
	}

	all, err := s.repo.CloseRange(ctx, id)
	if err != nil {
		return Summary{}, internal.NewInternalError("failed to load close range", err)
	}
	latest, err := s.repo.LatestBar(ctx, id)
	if err != nil {
		return Summary{}, internal.NewInternalError("failed to load latest bar", err)
	}

	var closes []float64
	if latest != nil {
		closes, err = s.repo.ClosesSince(ctx, id, latest.Timestamp.Add(-yearWindow))
		if err != nil {
			return Summary{}, internal.NewInternalError("failed to load 52 week closes", err)
		}
	}
	return Summarize(t, all, latest, closes), nil
}

func (s *Service) ensureUnique(ctx context.Context, sym string, exceptID int64) error {
	existing, err := s.repo.FindBySymbol(ctx, sym)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != exceptID {
		return internal.ErrDuplicateSymbol
	}
	return nil
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func wrap(err error, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(msg, err)
}
