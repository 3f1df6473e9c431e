package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/alphawing/brokerage/internal"
)

// ErrNoCredentials means the request carried no token in any supported place.
var ErrNoCredentials = internal.ErrMissingToken

// ExtractFromRequest finds and verifies the caller's access token. Sources are
// tried in order and the first populated one wins, even if its token is bad:
//
//  1. Authorization: Bearer <token>, then a raw "bearer" header
//  2. the envelope cookie, base64 JSON holding an access/refresh pair
//  3. the plain access-token cookie
func (s *TokenService) ExtractFromRequest(r *http.Request) (*Claims, error) {
	raw, err := s.tokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	claims, err := s.Verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.Kind == RefreshToken {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) tokenFromRequest(r *http.Request) (string, error) {
	if tok := bearerToken(r.Header.Get("Authorization")); tok != "" {
		return tok, nil
	}
	if tok := bearerToken(r.Header.Get("bearer")); tok != "" {
		return tok, nil
	}
	if tok := strings.TrimSpace(r.Header.Get("bearer")); tok != "" {
		return tok, nil
	}

	if c, err := r.Cookie(s.cfg.EnvelopeCookie); err == nil && c.Value != "" {
		env, err := DecodeEnvelope(c.Value)
		if err != nil {
			return "", internal.ErrInvalidToken.WithCause(err)
		}
		if env.AccessToken != "" {
			return env.AccessToken, nil
		}
	}

	if c, err := r.Cookie(s.cfg.AccessCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}

	return "", ErrNoCredentials
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Envelope is the session cookie payload.
type Envelope struct {
	AccessToken  string
	RefreshToken string
}

type envelopeJSON struct {
	User *struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// DecodeEnvelope URL-decodes the cookie, drops a trailing ".signature",
// accepts both base64 alphabets with or without padding, and reads either
// {"user":{"accessToken":..}} or a top-level accessToken.
func DecodeEnvelope(value string) (Envelope, error) {
	if unescaped, err := url.PathUnescape(value); err == nil {
		value = unescaped
	}
	if i := strings.IndexByte(value, '.'); i >= 0 {
		value = value[:i]
	}
	value = strings.NewReplacer("-", "+", "_", "/").Replace(strings.TrimSpace(value))
	value = strings.TrimRight(value, "=")

	data, err := base64.RawStdEncoding.DecodeString(value)
	if err != nil {
		return Envelope{}, err
	}

	var payload envelopeJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return Envelope{}, err
	}

	env := Envelope{AccessToken: payload.AccessToken, RefreshToken: payload.RefreshToken}
	if payload.User != nil {
		if payload.User.AccessToken != "" {
			env.AccessToken = payload.User.AccessToken
		}
		if payload.User.RefreshToken != "" {
			env.RefreshToken = payload.User.RefreshToken
		}
	}
	return env, nil
}

// EncodeEnvelope produces a cookie value DecodeEnvelope accepts.
func EncodeEnvelope(pair TokenPair) string {
	payload, _ := json.Marshal(map[string]TokenPair{"user": pair})
	return base64.URLEncoding.EncodeToString(payload)
}
