package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphawing/brokerage/internal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmptySecret = errors.New("auth: signing secret must not be empty")

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Identity is what a token is minted for.
type Identity struct {
	ID   int64
	Role Role
}

// Claims is the decoded payload of a verified token.
type Claims struct {
	UserID int64     `json:"id"`
	Role   Role      `json:"role"`
	Kind   TokenKind `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{ID: c.UserID, Role: c.Role}
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenConfig is fixed at construction.
type TokenConfig struct {
	Secret         string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	BCryptCost     int
	EnvelopeCookie string
	AccessCookie   string
}

type TokenService struct {
	cfg    TokenConfig
	secret []byte
	hashes RefreshHashWriter
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig, hashes RefreshHashWriter) (*TokenService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrEmptySecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 10 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 10080 * time.Minute
	}
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	if cfg.EnvelopeCookie == "" {
		cfg.EnvelopeCookie = "remix"
	}
	if cfg.AccessCookie == "" {
		cfg.AccessCookie = "accessToken"
	}
	return &TokenService{
		cfg:    cfg,
		secret: []byte(cfg.Secret),
		hashes: hashes,
		now:    time.Now,
	}, nil
}

// WithClock swaps the time source. Used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

func (s *TokenService) Config() TokenConfig {
	return s.cfg
}

// Issue mints an access/refresh pair for id.
func (s *TokenService) Issue(id Identity) (TokenPair, error) {
	access, err := s.sign(id, AccessToken, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(id, RefreshToken, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) sign(id Identity, kind TokenKind, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: id.ID,
		Role:   id.Role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", internal.NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. Expired tokens map to ErrTokenExpired,
// everything else to ErrInvalidToken.
func (s *TokenService) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired.WithCause(err)
		}
		return nil, internal.ErrInvalidToken.WithCause(err)
	}
	if !parsed.Valid || !claims.Role.Valid() {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

// RotateRefresh mints a new pair and overwrites the stored refresh hash, which
// invalidates every earlier refresh token of id. Callers verify the presented
// refresh token with RefreshMatches first.
func (s *TokenService) RotateRefresh(ctx context.Context, id Identity) (TokenPair, error) {
	pair, err := s.Issue(id)
	if err != nil {
		return TokenPair{}, err
	}
	hash, err := s.HashRefresh(pair.RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.hashes.UpdateRefreshTokenHash(ctx, id.ID, &hash); err != nil {
		return TokenPair{}, internal.NewInternalError("failed to store refresh token", err)
	}
	return pair, nil
}

// HashRefresh salts and hashes a refresh token. The token is pre-digested with
// SHA-256 because bcrypt only reads the first 72 bytes of its input.
func (s *TokenService) HashRefresh(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(digest(token), s.cfg.BCryptCost)
	if err != nil {
		return "", internal.NewInternalError("failed to hash refresh token", err)
	}
	return string(hash), nil
}

// RefreshMatches compares a presented refresh token with the stored hash.
func (s *TokenService) RefreshMatches(storedHash *string, presented string) bool {
	if storedHash == nil || *storedHash == "" || presented == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*storedHash), digest(presented)) == nil
}

func digest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(hex.EncodeToString(sum[:]))
}
