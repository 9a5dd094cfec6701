package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/domodwyer/mailyak/v3"
	"github.com/rs/zerolog"
)

type Message struct {
	To       string
	FromName string
	Subject  string
	HTML     string
}

// Sender delivers one message. Implementations do not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.FromAddress != ""
}

type SMTPSender struct {
	cfg SMTPConfig
	log *zerolog.Logger
}

func NewSMTPSender(cfg SMTPConfig, log *zerolog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	mail := mailyak.New(s.cfg.Host+":"+strconv.Itoa(s.cfg.Port), auth)
	mail.To(msg.To)
	mail.From(s.cfg.FromAddress)
	mail.FromName(msg.FromName)
	mail.Subject(msg.Subject)
	mail.HTML().Set(msg.HTML)

	// mailyak has no context support; the send keeps running in the
	// background if ctx expires first.
	done := make(chan error, 1)
	go func() { done <- mail.Send() }()

	select {
	case err := <-done:
		if err != nil {
			s.log.Warn().Err(err).Str("to", msg.To).Msg("failed to send email")
			return fmt.Errorf("send email: %w", err)
		}
	case <-ctx.Done():
		s.log.Warn().Err(ctx.Err()).Str("to", msg.To).Msg("email send timed out")
		return fmt.Errorf("send email: %w", ctx.Err())
	}

	s.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("📧 email sent")
	return nil
}

// LogSender only logs. Used when no SMTP relay is configured.
type LogSender struct {
	log *zerolog.Logger
}

func NewLogSender(log *zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTML)).
		Msg("SMTP not configured, email not sent")
	return nil
}
