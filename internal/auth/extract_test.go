package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/alphawing/brokerage/internal"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("ExtractFromRequest", func() {
	var (
		tokens *TokenService
		admin  TokenPair
		client TokenPair
	)

	ginkgo.BeforeEach(func() {
		tokens = newTestTokens(newMemoryStore())
		var err error
		admin, err = tokens.Issue(Identity{ID: 1, Role: RoleAdmin})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		client, err = tokens.Issue(Identity{ID: 2, Role: RoleClient})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})

	newRequest := func() *http.Request {
		return httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	}

	ginkgo.It("reads the Authorization bearer header", func() {
		r := newRequest()
		r.Header.Set("Authorization", "Bearer "+admin.AccessToken)

		claims, err := tokens.ExtractFromRequest(r)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.UserID).To(gomega.Equal(int64(1)))
	})

	ginkgo.It("reads the lowercase bearer header with and without prefix", func() {
		r := newRequest()
		r.Header.Set("bearer", admin.AccessToken)
		claims, err := tokens.ExtractFromRequest(r)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.Role).To(gomega.Equal(RoleAdmin))

		r = newRequest()
		r.Header.Set("bearer", "Bearer "+client.AccessToken)
		claims, err = tokens.ExtractFromRequest(r)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.Role).To(gomega.Equal(RoleClient))
	})

	ginkgo.It("prefers the header over cookies", func() {
		r := newRequest()
		r.Header.Set("Authorization", "Bearer "+admin.AccessToken)
		r.AddCookie(&http.Cookie{Name: "remix", Value: EncodeEnvelope(client)})
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: client.AccessToken})

		claims, err := tokens.ExtractFromRequest(r)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.UserID).To(gomega.Equal(int64(1)))
	})

	ginkgo.It("prefers the envelope cookie over the plain cookie", func() {
		r := newRequest()
		r.AddCookie(&http.Cookie{Name: "remix", Value: EncodeEnvelope(client)})
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: admin.AccessToken})

		claims, err := tokens.ExtractFromRequest(r)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.UserID).To(gomega.Equal(int64(2)))
	})

	ginkgo.It("falls back to the plain access cookie", func() {
		r := newRequest()
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: client.AccessToken})

		claims, err := tokens.ExtractFromRequest(r)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.UserID).To(gomega.Equal(int64(2)))
	})

	ginkgo.It("reports missing credentials", func() {
		_, err := tokens.ExtractFromRequest(newRequest())
		gomega.Expect(err).To(gomega.MatchError(internal.ErrMissingToken))
	})

	ginkgo.It("rejects a refresh token presented as access token", func() {
		r := newRequest()
		r.Header.Set("Authorization", "Bearer "+admin.RefreshToken)

		_, err := tokens.ExtractFromRequest(r)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("rejects an undecodable envelope", func() {
		r := newRequest()
		r.AddCookie(&http.Cookie{Name: "remix", Value: "%%%not-base64"})
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: admin.AccessToken})

		_, err := tokens.ExtractFromRequest(r)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.Describe("DecodeEnvelope", func() {
		ginkgo.It("accepts url-escaped standard base64 with a signature suffix", func() {
			payload := `{"user":{"accessToken":"a","refreshToken":"r"}}`
			value := url.PathEscape(base64.StdEncoding.EncodeToString([]byte(payload))) + ".c2lnbmF0dXJl"

			env, err := DecodeEnvelope(value)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(env.AccessToken).To(gomega.Equal("a"))
			gomega.Expect(env.RefreshToken).To(gomega.Equal("r"))
		})

		ginkgo.It("accepts unpadded url-safe base64 with top-level tokens", func() {
			payload := `{"accessToken":"top"}`
			env, err := DecodeEnvelope(base64.RawURLEncoding.EncodeToString([]byte(payload)))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(env.AccessToken).To(gomega.Equal("top"))
		})

		ginkgo.It("round-trips EncodeEnvelope", func() {
			env, err := DecodeEnvelope(EncodeEnvelope(TokenPair{AccessToken: "x", RefreshToken: "y"}))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(env).To(gomega.Equal(Envelope{AccessToken: "x", RefreshToken: "y"}))
		})

		ginkgo.It("fails on non-JSON payloads", func() {
			_, err := DecodeEnvelope(base64.StdEncoding.EncodeToString([]byte("plain")))
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
