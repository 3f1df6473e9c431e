package apicredential

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/core/brokerage"
	"github.com/alphawing/brokerage/internal/core/common/validation"
	credentialDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/apicredential"
	"github.com/alphawing/brokerage/internal/transport"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*credentialDatamodel.Credential, int64, error)
	GetByID(ctx context.Context, id int64) (*credentialDatamodel.Credential, error)
	Create(ctx context.Context, c *credentialDatamodel.Credential) error
	Update(ctx context.Context, c *credentialDatamodel.Credential) error
	Delete(ctx context.Context, id int64) error
	UserExists(ctx context.Context, userID int64) (bool, error)
}

type Transactor interface {
	UnitOfWork(ctx context.Context, fn func(ctx context.Context) error) error
}

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

// Create stores a credential for the caller. Only admins may name another owner.
func (s *Service) Create(ctx context.Context, actor internal.Principal, dto AddCredentialDTO) (*Credential, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	ownerID := actor.UserID
	if dto.UserID != 0 && dto.UserID != actor.UserID {
		if actor.Role != "admin" {
			return nil, internal.ErrNotOwner
		}
		ownerID = dto.UserID
	}

	c := &credentialDatamodel.Credential{
		UserID:       ownerID,
		Platform:     dto.Platform,
		ServiceLevel: orDefault(dto.ServiceLevel, string(brokerage.AccountTypePaper)),
		Expiration:   dto.Expiration,
		State:        dto.State,
		Scope:        dto.Scope,
		Status:       orDefault(dto.Status, string(brokerage.CredentialActive)),
		Nickname:     strings.TrimSpace(dto.Nickname),
	}
	if err := s.seal(c, dto.APIKey, dto.Secret, dto.AccessToken, dto.RefreshToken); err != nil {
		return nil, err
	}

	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UserExists(ctx, ownerID)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrUserNotFound
		}
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, wrap(err, "failed to create API credential")
	}

	s.logger.InfoContext(ctx, "api credential created", "credential_id", c.ID, "user_id", ownerID, "platform", c.Platform)
	return s.present(c)
}

func (s *Service) List(ctx context.Context, filter ListFilter, page transport.PageRequest) ([]*Credential, int64, error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list API credentials", err)
	}
	out := make([]*Credential, 0, len(rows))
	for _, c := range rows {
		cred, err := s.present(c)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, cred)
	}
	return out, total, nil
}

func (s *Service) Update(ctx context.Context, actor internal.Principal, id int64, dto UpdateCredentialDTO) (*Credential, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	var updated *credentialDatamodel.Credential
	err := s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		c, err := s.owned(ctx, actor, id)
		if err != nil {
			return err
		}
		for _, f := range []struct {
			in  *string
			out *string
		}{
			{dto.APIKey, &c.APIKey},
			{dto.Secret, &c.Secret},
			{dto.AccessToken, &c.AccessToken},
			{dto.RefreshToken, &c.RefreshToken},
		} {
			if f.in == nil {
				continue
			}
			enc, err := s.cipher.Encrypt(*f.in)
			if err != nil {
				return internal.NewInternalError("failed to encrypt credential", err)
			}
			*f.out = enc
		}
		if dto.Platform != nil {
			c.Platform = *dto.Platform
		}
		if dto.ServiceLevel != nil {
			c.ServiceLevel = *dto.ServiceLevel
		}
		if dto.Expiration != nil {
			c.Expiration = dto.Expiration
		}
		if dto.State != nil {
			c.State = *dto.State
		}
		if dto.Scope != nil {
			c.Scope = *dto.Scope
		}
		if dto.Status != nil {
			c.Status = *dto.Status
		}
		if dto.Nickname != nil {
			c.Nickname = strings.TrimSpace(*dto.Nickname)
		}
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, wrap(err, "failed to update API credential")
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
		return wrap(err, "failed to delete API credential")
	}
	s.logger.InfoContext(ctx, "api credential deleted", "credential_id", id, "by", actor.UserID)
	return nil
}

func (s *Service) owned(ctx context.Context, actor internal.Principal, id int64) (*credentialDatamodel.Credential, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, internal.ErrCredentialNotFound
	}
	if !actor.CanActOn(c.UserID) {
		s.logger.WarnContext(ctx, "api credential access denied", "credential_id", id, "user_id", actor.UserID)
		return nil, internal.ErrNotOwner
	}
	return c, nil
}

func (s *Service) seal(c *credentialDatamodel.Credential, apiKey, secret, accessToken, refreshToken string) error {
	var err error
	if c.APIKey, err = s.cipher.Encrypt(apiKey); err != nil {
		return internal.NewInternalError("failed to encrypt credential", err)
	}
	if c.Secret, err = s.cipher.Encrypt(secret); err != nil {
		return internal.NewInternalError("failed to encrypt credential", err)
	}
	if c.AccessToken, err = s.cipher.Encrypt(accessToken); err != nil {
		return internal.NewInternalError("failed to encrypt credential", err)
	}
	if c.RefreshToken, err = s.cipher.Encrypt(refreshToken); err != nil {
		return internal.NewInternalError("failed to encrypt credential", err)
	}
	return nil
}

func (s *Service) present(c *credentialDatamodel.Credential) (*Credential, error) {
	out := &Credential{
		ID:           c.ID,
		UserID:       c.UserID,
		Platform:     c.Platform,
		ServiceLevel: c.ServiceLevel,
		Expiration:   c.Expiration,
		State:        c.State,
		Scope:        c.Scope,
		Status:       c.Status,
		Nickname:     c.Nickname,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	for _, f := range []struct {
		in  string
		out *string
	}{
		{c.APIKey, &out.APIKey},
		{c.Secret, &out.Secret},
		{c.AccessToken, &out.AccessToken},
		{c.RefreshToken, &out.RefreshToken},
	} {
		plain, err := s.cipher.Decrypt(f.in)
		if err != nil {
			return nil, internal.NewInternalError("failed to decrypt credential", err)
		}
		*f.out = plain
	}
	return out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func wrap(err error, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(msg, err)
}
