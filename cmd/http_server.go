package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/account"
	accountPostgres "github.com/alphawing/brokerage/internal/account/postgres"
	"github.com/alphawing/brokerage/internal/apicredential"
	apicredentialPostgres "github.com/alphawing/brokerage/internal/apicredential/postgres"
	"github.com/alphawing/brokerage/internal/auth"
	authPostgres "github.com/alphawing/brokerage/internal/auth/postgres"
	"github.com/alphawing/brokerage/internal/cache"
	"github.com/alphawing/brokerage/internal/core/events"
	"github.com/alphawing/brokerage/internal/cryptox"
	"github.com/alphawing/brokerage/internal/mailer"
	"github.com/alphawing/brokerage/internal/permission"
	permissionPostgres "github.com/alphawing/brokerage/internal/permission/postgres"
	"github.com/alphawing/brokerage/internal/stats"
	statsPostgres "github.com/alphawing/brokerage/internal/stats/postgres"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/internal/symbol"
	symbolPostgres "github.com/alphawing/brokerage/internal/symbol/postgres"
	"github.com/alphawing/brokerage/internal/transport"
	"github.com/alphawing/brokerage/internal/transport/middleware"
	"github.com/alphawing/brokerage/internal/transport/rest"
	"github.com/alphawing/brokerage/internal/user"
	userPostgres "github.com/alphawing/brokerage/internal/user/postgres"
	"github.com/alphawing/brokerage/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Redis  *redis.Client
	Events *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	cfg := deps.Config.Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "environment", deps.Config.Environment)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return logger.Into(context.Background(), deps.Logger)
		},
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Events.Wait(ctx); err != nil {
			deps.Logger.Warn("Pending event handlers did not finish", "error", err)
		}
		deps.close()
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(config)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := store.OpenPostgres(db.DB, config.Environment == "development")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	gw := store.NewGateway(gormDB)

	var redisClient *redis.Client
	var limiter auth.LoginLimiter
	if config.Redis.Enabled {
		redisClient, err = cache.Connect(config.Redis)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		limiter = cache.NewLoginLimiter(redisClient, config.Security.LoginMaxAttempts, config.Security.LockoutWindow())
	} else {
		lg.Warn("redis disabled, login lockout is off")
	}

	key, err := config.Security.EncryptionKeyBytes()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	cipher, err := cryptox.New(key)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	credentials := authPostgres.NewCredentialStore(gw)
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:         config.Security.JWTSecret,
		AccessTTL:      config.Security.AccessTTL(),
		RefreshTTL:     config.Security.RefreshTTL(),
		BCryptCost:     config.Security.BCryptCost,
		EnvelopeCookie: config.Security.EnvelopeCookie,
		AccessCookie:   config.Security.AccessCookie,
	}, credentials)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	bus := events.NewEventBus(lg)
	mailer.Subscribe(bus, mailer.New(config.Mail, lg), lg)

	base := transport.NewBaseHandler(lg)

	authService := auth.NewService(credentials, tokens, gw, bus, limiter, auth.ServiceConfig{
		BCryptCost:     config.Security.BCryptCost,
		ResetTTL:       config.Security.ResetTTL(),
		BaseURL:        config.Server.BaseURL,
		AllowedOrigins: config.Server.Origins(),
	}, lg)
	authHandler := auth.NewHandler(base, authService, auth.CookieConfig{
		AccessCookie:  config.Security.AccessCookie,
		RefreshCookie: config.Security.RefreshCookie,
		AccessTTL:     config.Security.AccessTTL(),
		RefreshTTL:    config.Security.RefreshTTL(),
		Secure:        config.Security.SecureCookies,
	})

	userService := user.NewService(userPostgres.NewUserRepository(gw), gw, config.Security.BCryptCost, lg)
	permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(gw), gw, lg)
	accountService := account.NewService(accountPostgres.NewAccountRepository(gw), gw, cipher, lg)
	credentialService := apicredential.NewService(apicredentialPostgres.NewCredentialRepository(gw), gw, cipher, lg)
	symbolService := symbol.NewService(symbolPostgres.NewSymbolRepository(gw), gw, lg)
	statsService := stats.NewService(statsPostgres.NewHistoricalRepository(db), lg)

	deps := rest.Deps{
		Auth:        authHandler,
		Users:       user.NewHandler(base, userService),
		Permissions: permission.NewHandler(base, permissionService),
		Accounts:    account.NewHandler(base, accountService),
		Credentials: apicredential.NewHandler(base, credentialService),
		Symbols:     symbol.NewHandler(base, symbolService),
		Stats:       stats.NewHandler(base, statsService),
		Health:      rest.NewHealthHandler(db.DB, redisClient),
		Gate:        auth.NewGate(tokens, credentials, lg),
		Origins:     config.Server.Origins(),
	}

	clientIP, err := middleware.NewClientIPResolver(config.Server.Proxies())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	deps.ClientIP = clientIP

	if config.RateLimit.Enabled {
		deps.Limiter = middleware.NewIPRateLimiter(config.RateLimit.RequestsPerSecond, config.RateLimit.Burst, base)
	}

	if config.Observability.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewDBStatsCollector(db.DB, "brokerage"),
		)
		deps.Metrics = middleware.NewMetrics(reg)
		deps.Gatherer = reg
		deps.MetricsPath = config.Observability.Metrics.Path
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, deps)

	return &Dependencies{
		Config: config,
		DB:     db,
		Redis:  redisClient,
		Events: bus,
		Router: router,
		Logger: lg,
	}, nil
}

// initDB opens the shared pgx pool that both sqlx and gorm sit on.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	conn, err := sql.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqlx.NewDb(conn, driver), nil
}
