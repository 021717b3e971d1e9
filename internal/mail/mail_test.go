package mail

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeMessage(t *testing.T) {
	msg := WelcomeMessage("http://localhost:3000", "jane@example.com", "Jane", "abc-123")

	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "Welcome to Fitness Tracker Jane", msg.Subject)
	assert.Contains(t, msg.Body, "http://localhost:3000/verify-email?token=abc-123")
}

func TestPasswordResetMessage(t *testing.T) {
	msg := PasswordResetMessage("https://app.example", "jane@example.com", "a.b+c")

	assert.Equal(t, "jane@example.com", msg.To)
	assert.Contains(t, msg.Body, "https://app.example/reset-password?token=a.b%2Bc")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := LogMailer{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, m.Send(context.Background(), Message{To: "jane@example.com", Subject: "hi", Body: "secret link"}))
	assert.Contains(t, buf.String(), "jane@example.com")
	assert.NotContains(t, buf.String(), "secret link")
}

func TestSMTPMailerRejectsBadSender(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, From: "not an address"})
	err := m.Send(context.Background(), Message{To: "jane@example.com", Subject: "x", Body: "y"})
	assert.Error(t, err)
}
