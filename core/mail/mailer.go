// Package mail sends operator-triggered notification mail. Only the
// password-reset message exists today.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"argus-console/config"
	"argus-console/core/utils"
)

var ErrNotConfigured = errors.New("mail delivery not configured")

type Mailer interface {
	Configured() bool
	SendPasswordReset(ctx context.Context, to, username, password string) error
}

type smtpMailer struct {
	cfg    config.MailConfig
	logger *utils.Logger
}

func NewSMTPMailer(cfg config.MailConfig, logger *utils.Logger) Mailer {
	return &smtpMailer{cfg: cfg, logger: logger}
}

func (m *smtpMailer) Configured() bool {
	return m.cfg.Configured()
}

func (m *smtpMailer) SendPasswordReset(ctx context.Context, to, username, password string) error {
	if !m.cfg.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: Your account password was reset",
		"",
		fmt.Sprintf("Hello %s,", username),
		"",
		"An administrator reset your password. Your new temporary password is:",
		"",
		"    " + password,
		"",
		"Please sign in and change it immediately.",
	}, "\r\n")
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	m.logger.Printf("mail: password reset sent to %s", to)
	return nil
}
