package user

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/core/common/validation"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/transport"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*userDatamodel.User, int64, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	SaveWatchlist(ctx context.Context, id int64, items []userDatamodel.WatchlistItem) error
}

type Transactor interface {
	UnitOfWork(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo       Repository
	tx         Transactor
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, tx Transactor, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, tx: tx, bcryptCost: bcryptCost, logger: logger}
}

func (s *Service) List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*Profile, int64, error) {
	users, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list users", err)
	}
	out := make([]*Profile, 0, len(users))
	for _, u := range users {
		out = append(out, FromDataModel(u))
	}
	return out, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Profile, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(u), nil
}

// UpdateProfile applies the non-nil fields of dto. A new email must be unused;
// a new password also revokes the stored refresh token.
func (s *Service) UpdateProfile(ctx context.Context, id int64, dto UpdateProfileDTO) (*Profile, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if dto.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*dto.FirstName)
	}
	if dto.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*dto.LastName)
	}
	if dto.Company != nil {
		fields["company"] = strings.TrimSpace(*dto.Company)
	}
	if dto.ImgPath != nil {
		fields["img_path"] = strings.TrimSpace(*dto.ImgPath)
	}
	if dto.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		fields["password_hash"] = string(hash)
		fields["refresh_token_hash"] = nil
	}

	var updated *userDatamodel.User
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}
		if dto.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*dto.Email))
			taken, err := s.repo.EmailTaken(ctx, email, id)
			if err != nil {
				return err
			}
			if taken {
				return internal.ErrDuplicateUser
			}
			fields["email"] = email
		}
		if len(fields) > 0 {
			if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
				if store.IsDuplicate(err) {
					return internal.ErrDuplicateUser
				}
				return err
			}
		}
		u, err := s.load(ctx, id)
		updated = u
		return err
	})
	if err != nil {
		return nil, wrap(err, "failed to update profile")
	}

	s.logger.InfoContext(ctx, "profile updated", "user_id", id, "fields", len(fields))
	return FromDataModel(updated), nil
}

func (s *Service) Watchlist(ctx context.Context, id int64) ([]WatchlistItem, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromDataWatchlist(u.Watchlist), nil
}

// AddToWatchlist is idempotent: an item already present is not duplicated.
func (s *Service) AddToWatchlist(ctx context.Context, id int64, item WatchlistItem) ([]WatchlistItem, error) {
	return s.editWatchlist(ctx, id, item, func(items []WatchlistItem, idx int) []WatchlistItem {
		if idx >= 0 {
			return items
		}
		return append(items, normalize(item))
	})
}

func (s *Service) RemoveFromWatchlist(ctx context.Context, id int64, item WatchlistItem) ([]WatchlistItem, error) {
	return s.editWatchlist(ctx, id, item, func(items []WatchlistItem, idx int) []WatchlistItem {
		if idx < 0 {
			return items
		}
		return append(items[:idx], items[idx+1:]...)
	})
}

func (s *Service) editWatchlist(ctx context.Context, id int64, item WatchlistItem, edit func([]WatchlistItem, int) []WatchlistItem) ([]WatchlistItem, error) {
	if err := validation.Struct(item); err != nil {
		return nil, err
	}

	var result []WatchlistItem
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		u, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		items := fromDataWatchlist(u.Watchlist)
		result = edit(items, indexOf(items, item))
		return s.repo.SaveWatchlist(ctx, id, toDataWatchlist(result))
	})
	if err != nil {
		return nil, wrap(err, "failed to update watchlist")
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, id int64) (*userDatamodel.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func normalize(item WatchlistItem) WatchlistItem {
	return WatchlistItem{
		Symbol: strings.ToUpper(strings.TrimSpace(item.Symbol)),
		Market: strings.ToLower(strings.TrimSpace(item.Market)),
	}
}

func indexOf(items []WatchlistItem, item WatchlistItem) int {
	want := normalize(item)
	for i, it := range items {
		if normalize(it) == want {
			return i
		}
	}
	return -1
}

func wrap(err error, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(msg, err)
}
