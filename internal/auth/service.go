package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/core/common/validation"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/core/events"
	"github.com/alphawing/brokerage/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Transactor runs fn in one unit of work.
type Transactor interface {
	UnitOfWork(ctx context.Context, fn func(ctx context.Context) error) error
}

type ServiceConfig struct {
	BCryptCost int
	ResetTTL   time.Duration
	BaseURL    string

	// AllowedOrigins lists the front ends a reset link may point at. Any other
	// origin falls back to BaseURL.
	AllowedOrigins []string
}

// Service is the main auth service with dependencies
type Service struct {
	store   CredentialStore
	tokens  *TokenService
	tx      Transactor
	events  events.Publisher
	limiter LoginLimiter
	cfg     ServiceConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(st CredentialStore, tokens *TokenService, tx Transactor, publisher events.Publisher, limiter LoginLimiter, cfg ServiceConfig, logger *slog.Logger) *Service {
	if limiter == nil {
		limiter = noopLimiter{}
	}
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &Service{
		store:   st,
		tokens:  tokens,
		tx:      tx,
		events:  publisher,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates a demo or client identity. Duplicate usernames or emails
// are a Conflict and nothing is written.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*UserResponse, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	role := RoleDemo
	if dto.Role != "" {
		role = Role(dto.Role)
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &userDatamodel.User{
		Username:     strings.TrimSpace(dto.Username),
		FirstName:    strings.TrimSpace(dto.FirstName),
		LastName:     strings.TrimSpace(dto.LastName),
		Email:        strings.ToLower(strings.TrimSpace(dto.Email)),
		Company:      strings.TrimSpace(dto.Company),
		PasswordHash: hash,
		Role:         string(role),
		IsActive:     true,
		Watchlist:    []userDatamodel.WatchlistItem{},
	}

	err = s.tx.UnitOfWork(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindByUsername(ctx, u.Username)
		if err != nil {
			return err
		}
		if existing == nil {
			existing, err = s.store.FindByEmail(ctx, u.Email)
			if err != nil {
				return err
			}
		}
		if existing != nil {
			return internal.ErrDuplicateUser
		}
		if err := s.store.Create(ctx, u); err != nil {
			if store.IsDuplicate(err) {
				return internal.ErrDuplicateUser
			}
			return err
		}
		return nil
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to register user", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	s.publish(ctx, events.NewUserRegisteredEvent(u.ID, u.Username, u.Role))

	resp := ToUserResponse(u)
	return &resp, nil
}

// Login checks the password and issues a rotated token pair. A failed attempt
// never touches the stored refresh hash.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	key := loginKey(dto)
	locked, err := s.limiter.Locked(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "login limiter unavailable", "error", err)
	}
	if locked {
		return nil, internal.ErrLockedOut
	}

	u, err := s.store.FindByUsername(ctx, strings.TrimSpace(dto.Username))
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)) != nil {
		s.recordFailure(ctx, key)
		return nil, internal.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}

	role, err := ParseRole(u.Role)
	if err != nil {
		return nil, internal.NewInternalError("stored role is invalid", err)
	}

	pair, err := s.tokens.RotateRefresh(ctx, Identity{ID: u.ID, Role: role})
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to reset login limiter", "error", err)
	}

	return &LoginResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         role,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh exchanges a refresh token whose hash matches the stored one for a
// new pair. The old refresh token stops working.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, internal.ErrMissingToken
	}

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.Kind != RefreshToken {
		return TokenPair{}, internal.ErrInvalidToken
	}

	u, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return TokenPair{}, internal.ErrInvalidToken
	}
	if !u.IsActive {
		return TokenPair{}, internal.ErrUserInactive
	}
	if !s.tokens.RefreshMatches(u.RefreshTokenHash, refreshToken) {
		s.logger.WarnContext(ctx, "refresh token does not match stored hash", "user_id", u.ID)
		return TokenPair{}, internal.ErrInvalidToken
	}

	role, err := ParseRole(u.Role)
	if err != nil {
		return TokenPair{}, internal.NewInternalError("stored role is invalid", err)
	}
	return s.tokens.RotateRefresh(ctx, Identity{ID: u.ID, Role: role})
}

// Logout forgets the stored refresh hash so no refresh token of the user works.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	if err := s.store.UpdateRefreshTokenHash(ctx, userID, nil); err != nil {
		return internal.NewInternalError("failed to clear refresh token", err)
	}
	return nil
}

// ForgotPassword stores a one hour reset token and queues the email. Unknown
// addresses succeed silently so the endpoint cannot be used to probe accounts.
func (s *Service) ForgotPassword(ctx context.Context, dto ForgotPasswordDTO) error {
	if err := validation.Struct(dto); err != nil {
		return err
	}

	u, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		return internal.NewInternalError("failed to load user", err)
	}
	if u == nil || !u.IsActive {
		s.logger.DebugContext(ctx, "password reset requested for unknown or inactive email")
		return nil
	}

	token, err := GenerateRandomToken()
	if err != nil {
		return internal.NewInternalError("failed to generate reset token", err)
	}
	if err := s.store.SetResetToken(ctx, u.ID, token, s.now().Add(s.cfg.ResetTTL)); err != nil {
		return internal.NewInternalError("failed to store reset token", err)
	}

	link := s.resetBase(dto.Origin) + "/reset/" + token
	s.publish(ctx, events.NewPasswordResetRequestedEvent(u.ID, u.Email, link))
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token.
// The token is consumed and every refresh token is revoked.
func (s *Service) ResetPassword(ctx context.Context, dto ResetPasswordDTO) error {
	if err := validation.Struct(dto); err != nil {
		return err
	}

	u, err := s.store.FindByResetToken(ctx, dto.Token)
	if err != nil {
		return internal.NewInternalError("failed to load user", err)
	}
	if u == nil || u.ResetTokenExpiresAt == nil || !s.now().Before(*u.ResetTokenExpiresAt) {
		return internal.ErrInvalidResetToken
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.store.UpdatePassword(ctx, u.ID, hash); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}

	s.logger.InfoContext(ctx, "password reset completed", "user_id", u.ID)
	return nil
}

// PurgeExpiredResetTokens clears reset tokens past their expiry.
func (s *Service) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.store.PurgeExpiredResetTokens(ctx, s.now())
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BCryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// resetBase returns origin only when it is an exact allowed origin.
func (s *Service) resetBase(origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin != "" && slices.Contains(s.cfg.AllowedOrigins, origin) {
		return origin
	}
	return strings.TrimRight(s.cfg.BaseURL, "/")
}

// loginKey counts failures per username and client address, so a stranger
// cannot lock a user out from elsewhere.
func loginKey(dto LoginDTO) string {
	key := strings.ToLower(strings.TrimSpace(dto.Username))
	if dto.ClientIP != "" {
		key += "|" + dto.ClientIP
	}
	return key
}

func (s *Service) recordFailure(ctx context.Context, key string) {
	if err := s.limiter.RecordFailure(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

// GenerateRandomToken returns 32 random bytes, hex encoded.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
