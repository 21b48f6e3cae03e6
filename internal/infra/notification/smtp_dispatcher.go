// Package notification delivers outbound account email.
package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"rachel/config"
	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const defaultSMTPPort = 587

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// smtpDispatcher sends one message per recipient so addresses are never disclosed to each other.
type smtpDispatcher struct {
	addr     string
	host     string
	from     string
	fromName string
	auth     smtp.Auth
	useTLS   bool
	send     sendFunc
	logger   *slog.Logger
}

func newSMTPDispatcher(cfg *config.SMTPConfig, logger *slog.Logger) (*smtpDispatcher, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp from is required")
	}

	port := cfg.Port
	if port == 0 {
		port = defaultSMTPPort
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	d := &smtpDispatcher{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, port),
		host:     cfg.Host,
		from:     cfg.From,
		fromName: cfg.FromName,
		auth:     auth,
		useTLS:   cfg.UseTLS,
		logger:   logger,
	}
	d.send = smtp.SendMail
	if d.useTLS {
		d.send = d.sendImplicitTLS
	}

	return d, nil
}

// Send delivers the message to every recipient and reports all failures together.
func (d *smtpDispatcher) Send(ctx context.Context, subject, body string, recipients []string) error {
	var errs error
	for _, to := range recipients {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, errors.WithStack(err))
		}

		msg := buildMessage(d.from, d.fromName, to, subject, body)
		if err := d.send(d.addr, d.auth, d.from, []string{to}, []byte(msg)); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "send mail to %s", to))

			continue
		}
		deliverycontext.GetLoggerOrDefault(ctx, d.logger).Debug("Mail sent",
			slog.String("subject", subject),
			slog.String("to", to),
		)
	}

	return errs
}

func (d *smtpDispatcher) sendImplicitTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: d.host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return errors.Wrap(err, "dial smtp")
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, d.host)
	if err != nil {
		return errors.Wrap(err, "smtp handshake")
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return errors.Wrap(err, "smtp auth")
		}
	}
	if err := client.Mail(from); err != nil {
		return errors.WithStack(err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return errors.WithStack(err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := writer.Write(msg); err != nil {
		_ = writer.Close()

		return errors.WithStack(err)
	}

	return errors.WithStack(writer.Close())
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		"From: " + fromHeader,
		"To: " + to,
		"Subject: " + sanitizeHeader(subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}

// sanitizeHeader keeps user-influenced values from injecting extra headers.
func sanitizeHeader(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}

var _ service.NotificationDispatcher = (*smtpDispatcher)(nil)
