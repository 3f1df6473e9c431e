package postgres

import (
	"context"
	"time"

	"github.com/alphawing/brokerage/internal/auth"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/store"
)

type CredentialStore struct {
	gw *store.Gateway
}

func NewCredentialStore(gw *store.Gateway) auth.CredentialStore {
	return &CredentialStore{gw: gw}
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	return s.first(ctx, "username = ?", username)
}

func (s *CredentialStore) FindByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return s.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (s *CredentialStore) FindByResetToken(ctx context.Context, token string) (*userDatamodel.User, error) {
	if token == "" {
		return nil, nil
	}
	return s.first(ctx, "reset_token = ?", token)
}

func (s *CredentialStore) first(ctx context.Context, query string, args ...interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := s.gw.Session(ctx).Where(query, args...).First(&u).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *CredentialStore) Create(ctx context.Context, u *userDatamodel.User) error {
	return s.gw.Session(ctx).Create(u).Error
}

func (s *CredentialStore) UpdateRefreshTokenHash(ctx context.Context, userID int64, hash *string) error {
	return s.gw.Session(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", hash).Error
}

func (s *CredentialStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return s.gw.Session(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"reset_token":            nil,
			"reset_token_expires_at": nil,
			"refresh_token_hash":     nil,
		}).Error
}

func (s *CredentialStore) SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	return s.gw.Session(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_token":            token,
			"reset_token_expires_at": expiresAt,
		}).Error
}

func (s *CredentialStore) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res := s.gw.Session(ctx).Model(&userDatamodel.User{}).
		Where("reset_token IS NOT NULL AND reset_token_expires_at < ?", now).
		Updates(map[string]interface{}{
			"reset_token":            nil,
			"reset_token_expires_at": nil,
		})
	return res.RowsAffected, res.Error
}

func (s *CredentialStore) LoadGrantedPermissionNames(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := s.gw.Session(ctx).
		Table("permissions p").
		Joins("JOIN user_permissions up ON up.permission_id = p.id").
		Where("up.user_id = ?", userID).
		Order("p.name").
		Pluck("p.name", &names).Error
	return names, err
}
