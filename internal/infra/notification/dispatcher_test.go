package notification

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"

	"rachel/config"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("noreply@rachel.org", "Rachel", "alice@example.com", "Reset\r\nBcc: evil@example.com", "hello")

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)
	assert.Equal(t, "hello", body)
	assert.Contains(t, headers, "From: Rachel <noreply@rachel.org>")
	assert.Contains(t, headers, "To: alice@example.com")
	assert.NotContains(t, headers, "\r\nBcc:")
}

func TestSMTPDispatcherSendsOnePerRecipient(t *testing.T) {
	d, err := newSMTPDispatcher(&config.SMTPConfig{Host: "mail.test", From: "noreply@rachel.org"}, newDiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, "mail.test:587", d.addr)

	var sent []sentMail
	d.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})

		return nil
	}

	err = d.Send(context.Background(), "Welcome", "body", []string{"a@example.com", " ", "b@example.com"})
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, []string{"a@example.com"}, sent[0].to)
	assert.Equal(t, []string{"b@example.com"}, sent[1].to)
	assert.Contains(t, sent[1].msg, "To: b@example.com")
}

func TestSMTPDispatcherCollectsFailures(t *testing.T) {
	d, err := newSMTPDispatcher(&config.SMTPConfig{Host: "mail.test", Port: 25, From: "noreply@rachel.org"}, newDiscardLogger())
	require.NoError(t, err)

	var attempts int
	d.send = func(_ string, _ smtp.Auth, _ string, to []string, _ []byte) error {
		attempts++
		if to[0] == "bad@example.com" {
			return errors.New("mailbox unavailable")
		}

		return nil
	}

	err = d.Send(context.Background(), "Alert", "body", []string{"bad@example.com", "good@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad@example.com")
	assert.Equal(t, 2, attempts)
}

func TestSMTPDispatcherRequiresHostAndFrom(t *testing.T) {
	_, err := newSMTPDispatcher(&config.SMTPConfig{From: "noreply@rachel.org"}, newDiscardLogger())
	assert.Error(t, err)

	_, err = newSMTPDispatcher(&config.SMTPConfig{Host: "mail.test"}, newDiscardLogger())
	assert.Error(t, err)
}

func TestNewDispatcherFallsBackToLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	d, err := NewDispatcher(DispatcherParams{Config: &config.Config{}, Logger: logger})
	require.NoError(t, err)
	require.IsType(t, &logDispatcher{}, d)

	require.NoError(t, d.Send(context.Background(), "Welcome", "body", []string{"a@example.com"}))
	assert.Contains(t, buf.String(), "subject=Welcome")

	d, err = NewDispatcher(DispatcherParams{
		Config: &config.Config{SMTP: &config.SMTPConfig{Host: "mail.test", From: "noreply@rachel.org"}},
		Logger: logger,
	})
	require.NoError(t, err)
	assert.IsType(t, &smtpDispatcher{}, d)
}
