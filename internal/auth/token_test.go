package auth

import (
	"context"
	"strings"
	"time"

	"github.com/alphawing/brokerage/internal"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("TokenService", func() {
	var (
		store  *memoryStore
		tokens *TokenService
		user   *userDatamodel.User
	)

	ginkgo.BeforeEach(func() {
		store = newMemoryStore()
		tokens = newTestTokens(store)
		user = store.add(&userDatamodel.User{Username: "alice", Email: "alice@example.com", Role: "client", IsActive: true})
	})

	ginkgo.It("refuses an empty secret", func() {
		_, err := NewTokenService(TokenConfig{Secret: "  "}, store)
		gomega.Expect(err).To(gomega.MatchError(ErrEmptySecret))
	})

	ginkgo.Describe("Issue and Verify", func() {
		ginkgo.It("round-trips identity and kind", func() {
			pair, err := tokens.Issue(Identity{ID: user.ID, Role: RoleClient})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(pair.AccessToken).NotTo(gomega.Equal(pair.RefreshToken))

			access, err := tokens.Verify(pair.AccessToken)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(access.UserID).To(gomega.Equal(user.ID))
			gomega.Expect(access.Role).To(gomega.Equal(RoleClient))
			gomega.Expect(access.Kind).To(gomega.Equal(AccessToken))
			gomega.Expect(access.ID).NotTo(gomega.BeEmpty())

			refresh, err := tokens.Verify(pair.RefreshToken)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(refresh.Kind).To(gomega.Equal(RefreshToken))
			gomega.Expect(refresh.ExpiresAt.Time).To(gomega.BeTemporally(">", access.ExpiresAt.Time))
		})

		ginkgo.It("reports expired tokens as expired", func() {
			past := tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
			pair, err := past.Issue(Identity{ID: user.ID, Role: RoleClient})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = tokens.Verify(pair.AccessToken)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})

		ginkgo.It("rejects tokens signed with another secret", func() {
			other, err := NewTokenService(TokenConfig{Secret: "other-secret", BCryptCost: 4}, store)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			pair, err := other.Issue(Identity{ID: user.ID, Role: RoleAdmin})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = tokens.Verify(pair.AccessToken)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})

		ginkgo.It("rejects tokens without an expiry", func() {
			raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: user.ID, Role: RoleClient}).
				SignedString([]byte(testSecret))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = tokens.Verify(raw)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})

		ginkgo.It("rejects the none algorithm", func() {
			claims := &Claims{
				UserID: user.ID,
				Role:   RoleAdmin,
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}
			raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = tokens.Verify(raw)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})

		ginkgo.It("rejects garbage", func() {
			_, err := tokens.Verify("not-a-jwt")
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})
	})

	ginkgo.Describe("RotateRefresh", func() {
		ginkgo.It("stores a hash that only the latest refresh token matches", func() {
			ctx := context.Background()
			first, err := tokens.RotateRefresh(ctx, Identity{ID: user.ID, Role: RoleClient})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			stored := store.user(user.ID).RefreshTokenHash
			gomega.Expect(stored).NotTo(gomega.BeNil())
			gomega.Expect(*stored).NotTo(gomega.Equal(first.RefreshToken))
			gomega.Expect(tokens.RefreshMatches(stored, first.RefreshToken)).To(gomega.BeTrue())

			second, err := tokens.RotateRefresh(ctx, Identity{ID: user.ID, Role: RoleClient})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			stored = store.user(user.ID).RefreshTokenHash
			gomega.Expect(tokens.RefreshMatches(stored, second.RefreshToken)).To(gomega.BeTrue())
			gomega.Expect(tokens.RefreshMatches(stored, first.RefreshToken)).To(gomega.BeFalse())
		})

		ginkgo.It("handles tokens longer than bcrypt's input limit", func() {
			long := strings.Repeat("a", 200)
			hash, err := tokens.HashRefresh(long)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(tokens.RefreshMatches(&hash, long)).To(gomega.BeTrue())
			gomega.Expect(tokens.RefreshMatches(&hash, long[:199]+"b")).To(gomega.BeFalse())
		})

		ginkgo.It("never matches a missing hash", func() {
			gomega.Expect(tokens.RefreshMatches(nil, "anything")).To(gomega.BeFalse())
			empty := ""
			gomega.Expect(tokens.RefreshMatches(&empty, "anything")).To(gomega.BeFalse())
		})
	})
})
