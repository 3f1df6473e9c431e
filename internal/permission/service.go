package permission

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/core/common/validation"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/transport"
)

type Repository interface {
	List(ctx context.Context, page transport.PageRequest) ([]*userDatamodel.Permission, int64, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.Permission, error)
	GetByName(ctx context.Context, name string) (*userDatamodel.Permission, error)
	Create(ctx context.Context, p *userDatamodel.Permission) error
	Update(ctx context.Context, p *userDatamodel.Permission) error
	Delete(ctx context.Context, id int64) error
	UserExists(ctx context.Context, userID int64) (bool, error)
	Grant(ctx context.Context, link *userDatamodel.UserPermission) error
	Revoke(ctx context.Context, userID, permissionID int64) (bool, error)
	ListGrants(ctx context.Context, userID int64) ([]Grant, error)
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

func (s *Service) List(ctx context.Context, page transport.PageRequest) ([]*Permission, int64, error) {
	perms, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list permissions", err)
	}
	out := make([]*Permission, 0, len(perms))
	for _, p := range perms {
		out = append(out, FromDataModel(p))
	}
	return out, total, nil
}

func (s *Service) Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	p := &userDatamodel.Permission{
		Name:        strings.TrimSpace(dto.Name),
		Description: strings.TrimSpace(dto.Description),
	}
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByName(ctx, p.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return internal.ErrDuplicatePermission
		}
		return s.create(ctx, p)
	})
	if err != nil {
		return nil, wrap(err, "failed to create permission")
	}

	s.logger.InfoContext(ctx, "permission created", "permission_id", p.ID, "name", p.Name)
	return FromDataModel(p), nil
}

func (s *Service) create(ctx context.Context, p *userDatamodel.Permission) error {
	if err := s.repo.Create(ctx, p); err != nil {
		if store.IsDuplicate(err) {
			return internal.ErrDuplicatePermission
		}
		return err
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdatePermissionDTO) (*Permission, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	var updated *userDatamodel.Permission
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		p, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if dto.Name != nil {
			name := strings.TrimSpace(*dto.Name)
			if name != p.Name {
				existing, err := s.repo.GetByName(ctx, name)
				if err != nil {
					return err
				}
				if existing != nil {
					return internal.ErrDuplicatePermission
				}
			}
			p.Name = name
		}
		if dto.Description != nil {
			p.Description = strings.TrimSpace(*dto.Description)
		}
		if err := s.repo.Update(ctx, p); err != nil {
			if store.IsDuplicate(err) {
				return internal.ErrDuplicatePermission
			}
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, wrap(err, "failed to update permission")
	}
	return FromDataModel(updated), nil
}

// Delete removes the permission together with every grant of it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return wrap(err, "failed to delete permission")
	}
	s.logger.InfoContext(ctx, "permission deleted", "permission_id", id)
	return nil
}

// Grant is idempotent; granting an already held permission succeeds.
func (s *Service) Grant(ctx context.Context, grantedBy int64, dto GrantDTO) error {
	if err := validation.Struct(dto); err != nil {
		return err
	}

	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		if err := s.checkRefs(ctx, dto); err != nil {
			return err
		}
		var by *int64
		if grantedBy > 0 {
			by = &grantedBy
		}
		return s.repo.Grant(ctx, &userDatamodel.UserPermission{
			UserID:       dto.UserID,
			PermissionID: dto.PermissionID,
			GrantedBy:    by,
		})
	})
	if err != nil {
		return wrap(err, "failed to grant permission")
	}

	s.logger.InfoContext(ctx, "permission granted",
		"user_id", dto.UserID,
		"permission_id", dto.PermissionID,
		"granted_by", grantedBy)
	return nil
}

func (s *Service) Revoke(ctx context.Context, dto GrantDTO) error {
	if err := validation.Struct(dto); err != nil {
		return err
	}

	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		if err := s.checkRefs(ctx, dto); err != nil {
			return err
		}
		_, err := s.repo.Revoke(ctx, dto.UserID, dto.PermissionID)
		return err
	})
	if err != nil {
		return wrap(err, "failed to revoke permission")
	}

	s.logger.InfoContext(ctx, "permission revoked", "user_id", dto.UserID, "permission_id", dto.PermissionID)
	return nil
}

func (s *Service) UserGrants(ctx context.Context, userID int64) ([]Grant, error) {
	ok, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	grants, err := s.repo.ListGrants(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list grants", err)
	}
	if grants == nil {
		grants = []Grant{}
	}
	return grants, nil
}

func (s *Service) checkRefs(ctx context.Context, dto GrantDTO) error {
	ok, err := s.repo.UserExists(ctx, dto.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrUserNotFound
	}
	_, err = s.load(ctx, dto.PermissionID)
	return err
}

func (s *Service) load(ctx context.Context, id int64) (*userDatamodel.Permission, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, internal.ErrPermissionNotFound
	}
	return p, nil
}

func wrap(err error, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(msg, err)
}
