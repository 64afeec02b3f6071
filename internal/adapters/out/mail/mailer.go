// Package mail sends plain-text e-mail, optionally with attachments, over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"waterdist/internal/pkg/errs"
)

var (
	ErrMailDisabled      = errors.New("mail delivery disabled")
	ErrMailNotConfigured = errors.New("mail delivery not configured")
)

const smtpService = "smtp"

// Config holds the SMTP relay settings.
type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	// UseSSL dials TLS directly; UseTLS upgrades a plain connection with STARTTLS.
	UseSSL bool `mapstructure:"use_ssl"`
	UseTLS bool `mapstructure:"use_tls"`
}

// Attachment is a file carried by a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing e-mail.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer is the Sender backed by an SMTP relay.
type SMTPMailer struct {
	cfg Config
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers msg. Relay failures are reported as upstream failures; an
// invalid recipient is reported as an invalid value.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled {
		return errs.NewUpstreamUnavailableErrorWithCause(smtpService, ErrMailDisabled)
	}
	if m.cfg.Host == "" || m.cfg.Port == 0 || m.cfg.From == "" {
		return errs.NewUpstreamUnavailableErrorWithCause(smtpService, ErrMailNotConfigured)
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("recipient", err)
	}

	raw, err := buildMessage(buildFromAddress(m.cfg.From, m.cfg.FromName), msg)
	if err != nil {
		return err
	}

	if err = m.deliver(ctx, msg.To, raw); err != nil {
		return errs.NewUpstreamUnavailableErrorWithCause(smtpService, err)
	}
	return nil
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, raw []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var conn net.Conn
	var err error
	dialer := &net.Dialer{}
	if m.cfg.UseSSL {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.cfg.Host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if m.cfg.UseTLS && !m.cfg.UseSSL {
		if err = client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}

	if m.cfg.Username != "" || m.cfg.Password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
			if err = client.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err = client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err = client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(raw); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	return (&mail.Address{Name: name, Address: from}).String()
}

func formatError(op string, err error) error {
	return fmt.Errorf("build mail: %s: %w", op, err)
}
