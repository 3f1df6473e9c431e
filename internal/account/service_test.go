package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/account"
	accountPostgres "github.com/alphawing/brokerage/internal/account/postgres"
	accountDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/account"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/cryptox"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/transport"
	"github.com/alphawing/brokerage/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var _ = Describe("Account Service", func() {
	var (
		db      *gorm.DB
		service *account.Service
		ctx     context.Context
		alice   internal.Principal
		bob     internal.Principal
		admin   internal.Principal
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&userDatamodel.User{}, &accountDatamodel.Account{})).To(Succeed())

		cipher, err := cryptox.New([]byte("0123456789abcdef0123456789abcdef"))
		Expect(err).NotTo(HaveOccurred())

		gw := store.NewGateway(db)
		service = account.NewService(accountPostgres.NewAccountRepository(gw), gw, cipher, logger.Discard())
		ctx = context.Background()

		ids := make([]int64, 0, 3)
		for _, name := range []string{"alice", "bob", "root"} {
			u := &userDatamodel.User{Username: name, FirstName: "F", LastName: "L", Email: name + "@example.com", PasswordHash: "x", Role: "client", IsActive: true}
			Expect(db.Create(u).Error).To(Succeed())
			ids = append(ids, u.ID)
		}
		alice = internal.Principal{UserID: ids[0], Role: "client"}
		bob = internal.Principal{UserID: ids[1], Role: "demo"}
		admin = internal.Principal{UserID: ids[2], Role: "admin"}
	})

	create := func(owner int64, num, nickname, accountType string, initial, current string) *account.Account {
		acc, err := service.Create(ctx, owner, account.AddAccountDTO{
			AccountNum:     num,
			Nickname:       nickname,
			Broker:         "alpaca",
			AccountType:    accountType,
			InitialBalance: dec(initial),
			CurrentBalance: dec(current),
		})
		Expect(err).NotTo(HaveOccurred())
		return acc
	}

	Describe("Create", func() {
		It("stores the account number encrypted and returns it decrypted", func() {
			acc := create(alice.UserID, "ACC-001", "main", "live_account", "1000", "1100")
			Expect(acc.AccountNum).To(Equal("ACC-001"))
			Expect(acc.UserID).To(Equal(alice.UserID))

			var stored accountDatamodel.Account
			Expect(db.First(&stored, acc.ID).Error).To(Succeed())
			Expect(stored.AccountNum).NotTo(Equal("ACC-001"))
			Expect(stored.AccountNum).To(ContainSubstring(":"))
		})

		It("defaults to a paper account and copies the current balance as initial", func() {
			acc, err := service.Create(ctx, alice.UserID, account.AddAccountDTO{
				AccountNum:     "ACC-002",
				Broker:         "kraken",
				CurrentBalance: dec("250.456"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(acc.AccountType).To(Equal("paper_account"))
			Expect(acc.CurrentBalance).To(Equal(250.46))
			Expect(acc.InitialBalance).To(Equal(250.46))
		})

		It("rejects unknown brokers", func() {
			_, err := service.Create(ctx, alice.UserID, account.AddAccountDTO{AccountNum: "X", Broker: "robinhood"})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("reports a missing owner", func() {
			_, err := service.Create(ctx, 999, account.AddAccountDTO{AccountNum: "X", Broker: "oanda"})
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			create(alice.UserID, "A1", "Swing Trading", "live_account", "100", "100")
			create(alice.UserID, "A2", "long term", "paper_account", "100", "100")
			create(bob.UserID, "B1", "swing", "paper_account", "100", "100")
		})

		It("scopes to the owner and filters by nickname", func() {
			accounts, total, err := service.List(ctx, account.ListFilter{UserID: alice.UserID, Nickname: "SWING"}, transport.PageRequest{Page: 1, Size: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(accounts[0].AccountNum).To(Equal("A1"))
		})

		It("lists everything for admins", func() {
			_, total, err := service.List(ctx, account.ListFilter{}, transport.PageRequest{Page: 1, Size: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(3)))
		})
	})

	Describe("Update and Delete", func() {
		var acc *account.Account

		BeforeEach(func() {
			acc = create(alice.UserID, "A1", "main", "live_account", "100", "100")
		})

		It("lets the owner update", func() {
			nick := "renamed"
			updated, err := service.Update(ctx, alice, acc.ID, account.UpdateAccountDTO{Nickname: &nick, CurrentBalance: dec("150")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Nickname).To(Equal("renamed"))
			Expect(updated.CurrentBalance).To(Equal(150.0))
			Expect(updated.AccountNum).To(Equal("A1"))
		})

		It("forbids other users", func() {
			nick := "mine now"
			_, err := service.Update(ctx, bob, acc.ID, account.UpdateAccountDTO{Nickname: &nick})
			Expect(err).To(MatchError(internal.ErrNotOwner))
			Expect(service.Delete(ctx, bob, acc.ID)).To(MatchError(internal.ErrNotOwner))
		})

		It("lets admins delete any account", func() {
			Expect(service.Delete(ctx, admin, acc.ID)).To(Succeed())
			Expect(service.Delete(ctx, admin, acc.ID)).To(MatchError(internal.ErrAccountNotFound))
		})
	})

	Describe("Stats", func() {
		It("aggregates the caller's accounts", func() {
			create(alice.UserID, "A1", "", "live_account", "1000", "1200")
			create(alice.UserID, "A2", "", "paper_account", "1000", "900")
			create(alice.UserID, "A3", "", "service_account", "0", "100")
			create(bob.UserID, "B1", "", "live_account", "1000", "5000")

			stats, err := service.Stats(ctx, alice.UserID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalAccounts).To(Equal(int64(3)))
			Expect(stats.TotalLiveAccount).To(Equal(int64(1)))
			Expect(stats.TotalPaperAccount).To(Equal(int64(1)))
			Expect(stats.TotalServiceAccount).To(Equal(int64(1)))
			Expect(stats.CurrentBalance).To(Equal(2200.0))
			Expect(stats.InitialBalance).To(Equal(2000.0))
			Expect(stats.AccountGrowth).To(Equal(110.0))
		})

		It("returns zeros without accounts", func() {
			stats, err := service.Stats(ctx, bob.UserID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal(account.Stats{}))
		})
	})

	Describe("Handler", func() {
		var router http.Handler

		BeforeEach(func() {
			handler := account.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
			r := chi.NewRouter()
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(internal.ContextWithPrincipal(req.Context(), alice)))
				})
			})
			r.Post("/accounts/client/add", handler.ClientAddAccount)
			r.Get("/accounts/client/all", handler.ListOwnAccounts)
			r.Get("/accounts/stats", handler.GetStats)
			router = r
		})

		It("should add and list the caller's accounts", func() {
			body := `{"accountNum":"ACC-9","broker":"coinbase","accountType":"live_account","initialBalance":"100","currentBalance":120.5}`
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/accounts/client/add", strings.NewReader(body)))
			Expect(w.Code).To(Equal(http.StatusCreated))

			w = httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/client/all", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			var page transport.Page[account.Account]
			Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
			Expect(page.Items).To(HaveLen(1))
			Expect(page.Items[0].AccountNum).To(Equal("ACC-9"))
			Expect(page.Items[0].CurrentBalance).To(Equal(120.5))
		})

		It("should answer stats with snake_case keys", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/stats", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"account_growth":0`))
		})
	})
})
