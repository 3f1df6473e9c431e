package user_test

import (
	"context"

	"github.com/alphawing/brokerage/internal"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/user"
	userPostgres "github.com/alphawing/brokerage/internal/user/postgres"
	"github.com/alphawing/brokerage/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

var _ = Describe("Service", func() {
	var (
		db      *gorm.DB
		service *user.Service
		ctx     context.Context
		alice   *userDatamodel.User
		bob     *userDatamodel.User
	)

	BeforeEach(func() {
		var gw *store.Gateway
		db, gw = newGateway()
		service = user.NewService(userPostgres.NewUserRepository(gw), gw, bcrypt.MinCost, logger.Discard())
		ctx = context.Background()

		hash := "refresh"
		alice = &userDatamodel.User{Username: "alice", FirstName: "Alice", LastName: "Doe", Email: "alice@example.com", PasswordHash: "x", Role: "client", IsActive: true, RefreshTokenHash: &hash}
		bob = &userDatamodel.User{Username: "bob", FirstName: "Bob", LastName: "Roe", Email: "bob@example.com", PasswordHash: "x", Role: "demo", IsActive: true}
		Expect(db.Create(alice).Error).To(Succeed())
		Expect(db.Create(bob).Error).To(Succeed())
	})

	Describe("UpdateProfile", func() {
		It("changes only the provided fields", func() {
			profile, err := service.UpdateProfile(ctx, alice.ID, user.UpdateProfileDTO{Company: strPtr("Acme"), Email: strPtr("Alice.New@Example.com")})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Company).To(Equal("Acme"))
			Expect(profile.Email).To(Equal("alice.new@example.com"))
			Expect(profile.FirstName).To(Equal("Alice"))
		})

		It("refuses an email owned by someone else", func() {
			_, err := service.UpdateProfile(ctx, alice.ID, user.UpdateProfileDTO{Email: strPtr("bob@example.com")})
			Expect(err).To(MatchError(internal.ErrDuplicateUser))

			profile, err := service.Get(ctx, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Email).To(Equal("alice@example.com"))
		})

		It("hashes a new password and revokes the refresh token", func() {
			_, err := service.UpdateProfile(ctx, alice.ID, user.UpdateProfileDTO{Password: strPtr("another-secret")})
			Expect(err).NotTo(HaveOccurred())

			var stored userDatamodel.User
			Expect(db.First(&stored, alice.ID).Error).To(Succeed())
			Expect(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("another-secret"))).To(Succeed())
			Expect(stored.RefreshTokenHash).To(BeNil())
		})

		It("validates input", func() {
			_, err := service.UpdateProfile(ctx, alice.ID, user.UpdateProfileDTO{Email: strPtr("not-an-email")})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("reports a missing user", func() {
			_, err := service.UpdateProfile(ctx, 999, user.UpdateProfileDTO{Company: strPtr("Acme")})
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("watchlist", func() {
		It("adds items once and removes them", func() {
			items, err := service.AddToWatchlist(ctx, alice.ID, user.WatchlistItem{Symbol: "aapl", Market: "Stock"})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(Equal([]user.WatchlistItem{{Symbol: "AAPL", Market: "stock"}}))

			items, err = service.AddToWatchlist(ctx, alice.ID, user.WatchlistItem{Symbol: "AAPL", Market: "stock"})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))

			items, err = service.AddToWatchlist(ctx, alice.ID, user.WatchlistItem{Symbol: "ETHUSD", Market: "crypto"})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))

			items, err = service.RemoveFromWatchlist(ctx, alice.ID, user.WatchlistItem{Symbol: "aapl", Market: "stock"})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(Equal([]user.WatchlistItem{{Symbol: "ETHUSD", Market: "crypto"}}))

			stored, err := service.Watchlist(ctx, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(Equal(items))
		})

		It("rejects items without a market", func() {
			_, err := service.AddToWatchlist(ctx, alice.ID, user.WatchlistItem{Symbol: "AAPL"})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})
})
