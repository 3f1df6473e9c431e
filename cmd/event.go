package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alphawing/brokerage/internal/core/events"
	"github.com/alphawing/brokerage/internal/mailer"
	"github.com/alphawing/brokerage/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Publish events through the in-process bus to check subscribers such as the mailer.`,
}

var resetMailCmd = &cobra.Command{
	Use:   "reset-mail [email]",
	Short: "Send a password reset email through the mailer subscriber",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishResetMail(args[0])
	},
}

var resetLink string

func publishResetMail(email string) {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLogger(config)
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	mailer.Subscribe(bus, mailer.New(config.Mail, lg), lg)

	e := events.NewPasswordResetRequestedEvent(0, email, resetLink)
	lg.Info("publishing event", "event_type", e.EventType(), "event_id", e.EventID())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := bus.PublishSync(ctx, e); err != nil {
		lg.Error("failed to deliver event", "error", err)
		os.Exit(1)
	}
	lg.Info("event delivered")
}

func init() {
	resetMailCmd.Flags().StringVar(&resetLink, "link", "http://localhost:3000/reset/test-token", "Reset link placed in the email")

	eventCmd.AddCommand(resetMailCmd)
	rootCmd.AddCommand(eventCmd)
}
