// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email sends the account-workflow mails over SMTP.
package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"codeberg.org/oliverandrich/unsocial/internal/config"
	"github.com/wneessen/go-mail"
)

// Service sends transactional mail via SMTP.
type Service struct {
	cfg          *config.SMTPConfig
	clientOrigin string
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, clientOrigin string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:          cfg,
		clientOrigin: strings.TrimSuffix(clientOrigin, "/"),
	}, nil
}

// SendVerification mails the account-verification link.
func (s *Service) SendVerification(ctx context.Context, toEmail, fullName, token string) error {
	link := s.link("/account/verify", token)
	body := fmt.Sprintf(`<h1>Hello %s</h1>
<br />
<a href='%s' target='_blank'>Click to verify your account.</a>`, fullName, link)

	return s.send(ctx, toEmail, "Unsocial account verification", body)
}

// SendChangePassword mails the change-password link to a logged-in user.
func (s *Service) SendChangePassword(ctx context.Context, toEmail, fullName, token string) error {
	link := s.link("/account/change-password", token)
	body := fmt.Sprintf(`<h1>Hello %s</h1>
<br />
<a href='%s' target='_blank'>Click to change your password.</a>`, fullName, link)

	return s.send(ctx, toEmail, "Change your Unsocial password", body)
}

// SendPasswordReset mails the reset-password link.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, fullName, token string) error {
	link := s.link("/account/reset-password", token)
	body := fmt.Sprintf(`<h1>Hello %s</h1>
<br />
<a href='%s' target='_blank'>Click to reset your password.</a>`, fullName, link)

	return s.send(ctx, toEmail, "Reset your Unsocial password", body)
}

func (s *Service) link(path, token string) string {
	return s.clientOrigin + path + "?token=" + url.QueryEscape(token)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
