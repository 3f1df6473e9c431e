package apicredential_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/apicredential"
	credentialPostgres "github.com/alphawing/brokerage/internal/apicredential/postgres"
	credentialDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/apicredential"
	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
	"github.com/alphawing/brokerage/internal/cryptox"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/transport"
	"github.com/alphawing/brokerage/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ = Describe("API Credential Service", func() {
	var (
		db      *gorm.DB
		service *apicredential.Service
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
		Expect(db.AutoMigrate(&userDatamodel.User{}, &credentialDatamodel.Credential{})).To(Succeed())

		cipher, err := cryptox.New([]byte("fedcba9876543210fedcba9876543210"))
		Expect(err).NotTo(HaveOccurred())

		gw := store.NewGateway(db)
		service = apicredential.NewService(credentialPostgres.NewCredentialRepository(gw), gw, cipher, logger.Discard())
		ctx = context.Background()

		ids := make([]int64, 0, 3)
		for _, name := range []string{"alice", "bob", "root"} {
			u := &userDatamodel.User{Username: name, FirstName: "F", LastName: "L", Email: name + "@example.com", PasswordHash: "x", Role: "client", IsActive: true}
			Expect(db.Create(u).Error).To(Succeed())
			ids = append(ids, u.ID)
		}
		alice = internal.Principal{UserID: ids[0], Role: "client"}
		bob = internal.Principal{UserID: ids[1], Role: "client"}
		admin = internal.Principal{UserID: ids[2], Role: "admin"}
	})

	Describe("Create", func() {
		It("encrypts secrets at rest and applies defaults", func() {
			cred, err := service.Create(ctx, alice, apicredential.AddCredentialDTO{
				Platform: "alpaca",
				APIKey:   "PK123",
				Secret:   "s3cr3t",
				Nickname: " paper bot ",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(cred.APIKey).To(Equal("PK123"))
			Expect(cred.Secret).To(Equal("s3cr3t"))
			Expect(cred.AccessToken).To(BeEmpty())
			Expect(cred.Status).To(Equal("active"))
			Expect(cred.ServiceLevel).To(Equal("paper_account"))
			Expect(cred.Nickname).To(Equal("paper bot"))

			var stored credentialDatamodel.Credential
			Expect(db.First(&stored, cred.ID).Error).To(Succeed())
			Expect(stored.APIKey).NotTo(ContainSubstring("PK123"))
			Expect(stored.Secret).NotTo(ContainSubstring("s3cr3t"))
			Expect(stored.AccessToken).To(BeEmpty())
		})

		It("lets admins create for another user", func() {
			cred, err := service.Create(ctx, admin, apicredential.AddCredentialDTO{UserID: bob.UserID, Platform: "kraken"})
			Expect(err).NotTo(HaveOccurred())
			Expect(cred.UserID).To(Equal(bob.UserID))
		})

		It("refuses a client naming another owner", func() {
			_, err := service.Create(ctx, alice, apicredential.AddCredentialDTO{UserID: bob.UserID, Platform: "kraken"})
			Expect(err).To(MatchError(internal.ErrNotOwner))
		})

		It("rejects an unknown status", func() {
			_, err := service.Create(ctx, alice, apicredential.AddCredentialDTO{Platform: "kraken", Status: "paused"})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for _, dto := range []apicredential.AddCredentialDTO{
				{Platform: "alpaca", Nickname: "Momentum"},
				{Platform: "kraken", Nickname: "crypto momentum"},
				{Platform: "oanda", Nickname: "fx"},
			} {
				_, err := service.Create(ctx, alice, dto)
				Expect(err).NotTo(HaveOccurred())
			}
			_, err := service.Create(ctx, bob, apicredential.AddCredentialDTO{Platform: "alpaca", Nickname: "momentum"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("filters by nickname within the caller's credentials", func() {
			creds, total, err := service.List(ctx, apicredential.ListFilter{UserID: alice.UserID, Nickname: "momentum"}, transport.PageRequest{Page: 1, Size: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
			Expect(creds).To(HaveLen(2))
		})

		It("filters by platform", func() {
			creds, total, err := service.List(ctx, apicredential.ListFilter{UserID: alice.UserID, Platform: "oan"}, transport.PageRequest{Page: 1, Size: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(creds[0].Nickname).To(Equal("fx"))
		})
	})

	Describe("Update and Delete", func() {
		var cred *apicredential.Credential

		BeforeEach(func() {
			var err error
			cred, err = service.Create(ctx, alice, apicredential.AddCredentialDTO{Platform: "coinbase", APIKey: "old"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("re-encrypts changed secrets", func() {
			key := "new"
			status := "disabled"
			updated, err := service.Update(ctx, alice, cred.ID, apicredential.UpdateCredentialDTO{APIKey: &key, Status: &status})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.APIKey).To(Equal("new"))
			Expect(updated.Status).To(Equal("disabled"))
		})

		It("forbids other clients", func() {
			key := "stolen"
			_, err := service.Update(ctx, bob, cred.ID, apicredential.UpdateCredentialDTO{APIKey: &key})
			Expect(err).To(MatchError(internal.ErrNotOwner))
			Expect(service.Delete(ctx, bob, cred.ID)).To(MatchError(internal.ErrNotOwner))
		})

		It("lets admins delete", func() {
			Expect(service.Delete(ctx, admin, cred.ID)).To(Succeed())
			Expect(service.Delete(ctx, alice, cred.ID)).To(MatchError(internal.ErrCredentialNotFound))
		})
	})

	Describe("Handler", func() {
		var router http.Handler

		BeforeEach(func() {
			handler := apicredential.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
			r := chi.NewRouter()
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(internal.ContextWithPrincipal(req.Context(), alice)))
				})
			})
			r.Get("/api/all", handler.ListCredentials)
			r.Post("/api/add", handler.AddCredential)
			r.Delete("/api/{id}", handler.DeleteCredential)
			router = r
		})

		It("should add then list the caller's credentials", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/add", strings.NewReader(`{"platform":"tradestation","apiKey":"K","nickname":"ts"}`)))
			Expect(w.Code).To(Equal(http.StatusCreated))

			w = httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/all?platform=trade", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			var page transport.Page[apicredential.Credential]
			Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
			Expect(page.Total).To(Equal(int64(1)))
			Expect(page.Items[0].APIKey).To(Equal("K"))
		})

		It("should reject an invalid platform", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/add", strings.NewReader(`{"platform":"etrade"}`)))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject a malformed id", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/abc", nil))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
