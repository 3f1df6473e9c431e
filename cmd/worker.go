package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alphawing/brokerage/internal/auth"
	authPostgres "github.com/alphawing/brokerage/internal/auth/postgres"
	"github.com/alphawing/brokerage/internal/store"
	"github.com/alphawing/brokerage/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start scheduled maintenance jobs",
	Long:  `Start the cron scheduler that purges expired password reset tokens.`,
	Run: func(cmd *cobra.Command, args []string) {
		startWorker()
	},
}

var purgeSchedule string

func startWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLogger(config)
	lg := logger.LoggerWrapper()

	conn, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	gormDB, err := store.OpenPostgres(conn.DB, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open gorm: %v\n", err)
		os.Exit(1)
	}
	credentials := authPostgres.NewCredentialStore(store.NewGateway(gormDB))

	schedule := getStringFlag(purgeSchedule, config.Worker.PurgeSchedule)
	scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err = scheduler.AddFunc(schedule, func() {
		purgeResetTokens(credentials, lg)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid purge schedule %q: %v\n", schedule, err)
		os.Exit(1)
	}

	scheduler.Start()
	lg.Info("worker started", "purge_schedule", schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	lg.Info("received signal, shutting down worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	select {
	case <-scheduler.Stop().Done():
		lg.Info("worker shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func purgeResetTokens(st auth.CredentialStore, lg *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := st.PurgeExpiredResetTokens(ctx, time.Now())
	if err != nil {
		lg.Error("purge of expired reset tokens failed", "error", err)
		return
	}
	lg.Info("purged expired reset tokens", "count", n)
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	workerCmd.Flags().StringVar(&purgeSchedule, "schedule", "", "Cron spec for the reset token purge (overrides config)")

	rootCmd.AddCommand(workerCmd)
}
