package account

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/core/brokerage"
	"github.com/alphawing/brokerage/internal/core/common/validation"
	accountDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/account"
	"github.com/alphawing/brokerage/internal/transport"
	"github.com/shopspring/decimal"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*accountDatamodel.Account, int64, error)
	GetByID(ctx context.Context, id int64) (*accountDatamodel.Account, error)
	Create(ctx context.Context, a *accountDatamodel.Account) error
	Update(ctx context.Context, a *accountDatamodel.Account) error
	Delete(ctx context.Context, id int64) error
	UserExists(ctx context.Context, userID int64) (bool, error)
	Stats(ctx context.Context, userID int64) (StatsRow, error)
}

type Transactor interface {
	UnitOfWork(ctx context.Context, fn func(ctx context.Context) error) error
}

// FieldCipher encrypts account numbers at rest.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(value string) (string, error)
}

type Service struct {
	repo   Repository
	tx     Transactor
	cipher FieldCipher
	logger *slog.Logger
}

func NewService(repo Repository, tx Transactor, cipher FieldCipher, logger *slog.Logger) *Service {
	return &Service{repo: repo, tx: tx, cipher: cipher, logger: logger}
}

// Create adds an account for ownerID. Admin callers name the owner in the
// body, everyone else owns what they create.
func (s *Service) Create(ctx context.Context, ownerID int64, dto AddAccountDTO) (*Account, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if ownerID <= 0 {
		return nil, internal.NewValidationFieldError("userId", "userId is required", internal.ErrCodeValidationFailed)
	}

	accountType := brokerage.AccountTypePaper
	if dto.AccountType != "" {
		accountType = brokerage.AccountType(dto.AccountType)
	}
	current := decimalOrZero(dto.CurrentBalance)
	initial := current
	if dto.InitialBalance != nil {
		initial = *dto.InitialBalance
	}

	encrypted, err := s.cipher.Encrypt(strings.TrimSpace(dto.AccountNum))
	if err != nil {
		return nil, internal.NewInternalError("failed to encrypt account number", err)
	}

	a := &accountDatamodel.Account{
		UserID:         ownerID,
		AccountNum:     encrypted,
		Nickname:       strings.TrimSpace(dto.Nickname),
		Broker:         dto.Broker,
		DateOpened:     dto.DateOpened,
		InitialBalance: initial.Round(2),
		CurrentBalance: current.Round(2),
		AccountType:    string(accountType),
		AutoTrade:      dto.AutoTrade,
	}

	err = s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UserExists(ctx, ownerID)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrUserNotFound
		}
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, wrap(err, "failed to create account")
	}

	s.logger.InfoContext(ctx, "account created", "account_id", a.ID, "user_id", ownerID, "broker", a.Broker)
	return s.present(a)
}

func (s *Service) List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*Account, int64, error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list accounts", err)
	}
	out := make([]*Account, 0, len(rows))
	for _, a := range rows {
		acc, err := s.present(a)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, acc)
	}
	return out, total, nil
}

func (s *Service) Update(ctx context.Context, actor internal.Principal, id int64, dto UpdateAccountDTO) (*Account, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	var updated *accountDatamodel.Account
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		a, err := s.owned(ctx, actor, id)
		if err != nil {
			return err
		}
		if dto.AccountNum != nil {
			enc, err := s.cipher.Encrypt(strings.TrimSpace(*dto.AccountNum))
			if err != nil {
				return err
			}
			a.AccountNum = enc
		}
		if dto.Nickname != nil {
			a.Nickname = strings.TrimSpace(*dto.Nickname)
		}
		if dto.Broker != nil {
			a.Broker = *dto.Broker
		}
		if dto.DateOpened != nil {
			a.DateOpened = dto.DateOpened
		}
		if dto.InitialBalance != nil {
			a.InitialBalance = dto.InitialBalance.Round(2)
		}
		if dto.CurrentBalance != nil {
			a.CurrentBalance = dto.CurrentBalance.Round(2)
		}
		if dto.AccountType != nil {
			a.AccountType = *dto.AccountType
		}
		if dto.AutoTrade != nil {
			a.AutoTrade = *dto.AutoTrade
		}
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, wrap(err, "failed to update account")
	}
	return s.present(updated)
}

func (s *Service) Delete(ctx context.Context, actor internal.Principal, id int64) error {
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, actor, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return wrap(err, "failed to delete account")
	}
	s.logger.InfoContext(ctx, "account deleted", "account_id", id, "by", actor.UserID)
	return nil
}

func (s *Service) Stats(ctx context.Context, userID int64) (Stats, error) {
	row, err := s.repo.Stats(ctx, userID)
	if err != nil {
		return Stats{}, internal.NewInternalError("failed to compute account stats", err)
	}
	return row.ToStats(), nil
}

func (s *Service) owned(ctx context.Context, actor internal.Principal, id int64) (*accountDatamodel.Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, internal.ErrAccountNotFound
	}
	if !actor.CanActOn(a.UserID) {
		s.logger.WarnContext(ctx, "account access denied", "account_id", id, "user_id", actor.UserID)
		return nil, internal.ErrNotOwner
	}
	return a, nil
}

func (s *Service) present(a *accountDatamodel.Account) (*Account, error) {
	num, err := s.cipher.Decrypt(a.AccountNum)
	if err != nil {
		return nil, internal.NewInternalError("failed to decrypt account number", err)
	}
	return fromDataModel(a, num), nil
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func wrap(err error, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(msg, err)
}
