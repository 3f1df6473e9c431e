package auth

import (
	"context"
	"time"

	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
)

// RefreshHashWriter persists the hash of the latest refresh token.
// A nil hash clears it.
type RefreshHashWriter interface {
	UpdateRefreshTokenHash(ctx context.Context, userID int64, hash *string) error
}

type PermissionLoader interface {
	LoadGrantedPermissionNames(ctx context.Context, userID int64) ([]string, error)
}

// CredentialStore is the persistence contract of the auth flows. Find methods
// return (nil, nil) when nothing matches.
type CredentialStore interface {
	RefreshHashWriter
	PermissionLoader

	FindByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	FindByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	FindByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	FindByResetToken(ctx context.Context, token string) (*userDatamodel.User, error)

	Create(ctx context.Context, u *userDatamodel.User) error
	// UpdatePassword also clears the reset token and the refresh hash.
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// LoginLimiter tracks failed logins per key and locks the key out once the
// configured threshold is hit.
type LoginLimiter interface {
	Locked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type noopLimiter struct{}

func (noopLimiter) Locked(context.Context, string) (bool, error) { return false, nil }
func (noopLimiter) RecordFailure(context.Context, string) error  { return nil }
func (noopLimiter) Reset(context.Context, string) error          { return nil }
