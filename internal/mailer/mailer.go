// Package mailer delivers transactional email.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/core/events"
	"github.com/mailgun/mailgun-go/v4"
)

const company = "Alpha Wing"

type Sender interface {
	SendPasswordReset(ctx context.Context, to []string, resetLink string) error
}

// New picks the Mailgun sender when configured and falls back to logging.
func New(cfg internal.MailConfig, logger *slog.Logger) Sender {
	if cfg.Provider == "mailgun" {
		return NewMailgunSender(cfg.MailgunBaseURL, cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.Sender, nil)
	}
	return &LogSender{Logger: logger}
}

// LogSender writes the message to the log instead of sending it.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) SendPasswordReset(ctx context.Context, to []string, resetLink string) error {
	s.Logger.InfoContext(ctx, "password reset email (log provider)", "to", to, "link_length", len(resetLink))
	return nil
}

const sendTimeout = 10 * time.Second

// MailgunSender sends through the Mailgun HTTP API.
type MailgunSender struct {
	mg   *mailgun.MailgunImpl
	from string
}

// NewMailgunSender talks to baseURL when set, otherwise to Mailgun's default
// API base. A nil client gets a ten second timeout.
func NewMailgunSender(baseURL, domain, apiKey, from string, client *http.Client) *MailgunSender {
	mg := mailgun.NewMailgun(domain, apiKey)
	if baseURL != "" {
		mg.SetAPIBase(strings.TrimRight(baseURL, "/"))
	}
	if client == nil {
		client = &http.Client{Timeout: sendTimeout}
	}
	mg.SetClient(client)
	return &MailgunSender{mg: mg, from: from}
}

func (s *MailgunSender) SendPasswordReset(ctx context.Context, to []string, resetLink string) error {
	if len(to) == 0 {
		return errors.New("mailer: no recipients")
	}

	html, err := renderReset(resetLink)
	if err != nil {
		return err
	}

	msg := s.mg.NewMessage(
		fmt.Sprintf("%s <%s>", company, s.from),
		company+" Password Reset",
		"You have requested to reset your password: "+resetLink,
		to...,
	)
	msg.SetHtml(html)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if _, _, err := s.mg.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailer: mailgun send: %w", err)
	}
	return nil
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8" /><title>{{.Company}}</title></head>
<body style="font-family: sans-serif; color: #333333; padding: 20px;">
  <h2>{{.Company}}</h2>
  <p>You have requested to reset your password.</p>
  <p><a href="{{.Link}}">Reset your password</a></p>
  <p>The link expires in one hour. If you did not ask for this you can ignore this email.</p>
</body>
</html>`))

func renderReset(link string) (string, error) {
	var buf bytes.Buffer
	if err := resetTemplate.Execute(&buf, struct{ Company, Link string }{company, link}); err != nil {
		return "", fmt.Errorf("mailer: render: %w", err)
	}
	return buf.String(), nil
}

// Subscribe delivers password reset emails published on the bus.
func Subscribe(bus *events.EventBus, sender Sender, logger *slog.Logger) {
	bus.Subscribe(events.EventTypePasswordResetRequested, func(ctx context.Context, event events.Event) error {
		e, ok := event.(*events.PasswordResetRequestedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}
		if err := sender.SendPasswordReset(ctx, []string{e.Email}, e.ResetLink); err != nil {
			return err
		}
		logger.InfoContext(ctx, "password reset email sent", "user_id", e.UserID)
		return nil
	})
}
