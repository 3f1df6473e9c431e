package rest

import (
	"github.com/alphawing/brokerage/api"
	"github.com/alphawing/brokerage/internal/account"
	"github.com/alphawing/brokerage/internal/apicredential"
	"github.com/alphawing/brokerage/internal/auth"
	"github.com/alphawing/brokerage/internal/permission"
	"github.com/alphawing/brokerage/internal/stats"
	"github.com/alphawing/brokerage/internal/symbol"
	"github.com/alphawing/brokerage/internal/transport/middleware"
	"github.com/alphawing/brokerage/internal/transport/swagger"
	"github.com/alphawing/brokerage/internal/user"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries every handler the router mounts. ClientIP, Limiter, Metrics and
// Gatherer are optional.
type Deps struct {
	Auth        *auth.Handler
	Users       *user.Handler
	Permissions *permission.Handler
	Accounts    *account.Handler
	Credentials *apicredential.Handler
	Symbols     *symbol.Handler
	Stats       *stats.Handler
	Health      *HealthHandler

	Gate        *auth.Gate
	ClientIP    *middleware.ClientIPResolver
	Limiter     *middleware.IPRateLimiter
	Metrics     *middleware.Metrics
	Gatherer    prometheus.Gatherer
	MetricsPath string
	Origins     []string
}

func RegisterAllRoutes(router *chi.Mux, d Deps) {
	router.Use(middleware.RequestID)
	if d.ClientIP != nil {
		router.Use(d.ClientIP.Middleware)
	}
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS(d.Origins))
	if d.Metrics != nil {
		router.Use(d.Metrics.Instrument)
	}

	router.Get(swagger.SpecPath, swagger.SpecHandler(api.OpenAPI))
	router.Handle("/swagger/*", swagger.Handler())
	if d.Gatherer != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	gate := d.Gate

	router.Route("/api/v1", func(r chi.Router) {
		if d.Health != nil {
			r.Get("/health", d.Health.Health)
			r.Get("/ping", d.Health.Ping)
		}

		r.Route("/auth", func(ar chi.Router) {
			if d.Limiter != nil {
				ar.Use(d.Limiter.Middleware)
			}
			ar.Post("/register", d.Auth.Register)
			ar.Post("/login", d.Auth.Login)
			ar.Post("/refresh", d.Auth.Refresh)
			ar.Post("/forgot", d.Auth.ForgotPassword)
			ar.Post("/reset", d.Auth.ResetPassword)
			ar.With(gate.Require(auth.AnyRole)).Post("/logout", d.Auth.Logout)
		})

		r.Route("/users", func(ur chi.Router) {
			ur.With(gate.Require(auth.AdminOnly)).Get("/", d.Users.ListUsers)
			ur.With(gate.Require(auth.AnyRole)).Get("/me", d.Users.GetCurrentUser)
			ur.Group(func(mr chi.Router) {
				mr.Use(gate.Require(auth.AllUsers))
				mr.Patch("/me", d.Users.UpdateCurrentUser)
				mr.Get("/me/watchlist", d.Users.GetWatchlist)
				mr.Post("/me/watchlist", d.Users.AddToWatchlist)
				mr.Delete("/me/watchlist", d.Users.RemoveFromWatchlist)
			})
		})

		r.Route("/permissions", func(pr chi.Router) {
			pr.Use(gate.Require(auth.AdminOnly))
			pr.Get("/", d.Permissions.ListPermissions)
			pr.Post("/", d.Permissions.CreatePermission)
			pr.Post("/grant", d.Permissions.GrantPermission)
			pr.Post("/revoke", d.Permissions.RevokePermission)
			pr.Get("/user/{userId}", d.Permissions.ListUserPermissions)
			pr.Put("/{id}", d.Permissions.UpdatePermission)
			pr.Delete("/{id}", d.Permissions.DeletePermission)
		})

		r.Route("/accounts", func(acr chi.Router) {
			acr.Group(func(adm chi.Router) {
				adm.Use(gate.Require(auth.AdminOnly))
				adm.Post("/admin/add", d.Accounts.AdminAddAccount)
				adm.Get("/admin/all", d.Accounts.ListAllAccounts)
			})
			acr.Group(func(cr chi.Router) {
				cr.Use(gate.Require(auth.AllUsers))
				cr.Post("/client/add", d.Accounts.ClientAddAccount)
				cr.Get("/client/all", d.Accounts.ListOwnAccounts)
				cr.Get("/stats", d.Accounts.GetStats)
				cr.Put("/{id}", d.Accounts.UpdateAccount)
				cr.Delete("/{id}", d.Accounts.DeleteAccount)
			})
		})

		r.Route("/api", func(cr chi.Router) {
			cr.Use(gate.Require(auth.AllUsers))
			cr.Get("/all", d.Credentials.ListCredentials)
			cr.Post("/add", d.Credentials.AddCredential)
			cr.Put("/{id}", d.Credentials.UpdateCredential)
			cr.Delete("/{id}", d.Credentials.DeleteCredential)
		})

		r.Route("/symbols", func(sr chi.Router) {
			sr.Group(func(rr chi.Router) {
				rr.Use(gate.Require(auth.AllUsers))
				rr.Get("/all", d.Symbols.ListSymbols)
				rr.Get("/{id}/summary", d.Symbols.GetSummary)
			})
			sr.Group(func(wr chi.Router) {
				wr.Use(gate.Require(auth.AdminOnly))
				wr.Post("/", d.Symbols.CreateSymbol)
				wr.Put("/{id}", d.Symbols.UpdateSymbol)
				wr.Delete("/{id}", d.Symbols.DeleteSymbol)
			})
		})

		r.With(gate.Require(auth.AdminAndClient)).Post("/stats/data", d.Stats.GetData)
	})
}
