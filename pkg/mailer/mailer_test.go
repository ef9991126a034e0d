package mailer

import (
	"bytes"
	"context"
	"testing"

	"review-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	log := zap.NewNop()

	sender, err := New(utils.EmailConfig{Driver: "log"}, log)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, sender)

	sender, err = New(utils.EmailConfig{Driver: "smtp", Host: "mail.local", Port: 25}, log)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, sender)

	_, err = New(utils.EmailConfig{Driver: "smtp"}, log)
	assert.Error(t, err)

	_, err = New(utils.EmailConfig{Driver: "pigeon"}, log)
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := NewLogSender("support@review-api.local", zap.New(core))

	err := sender.Send(context.Background(), "a@x.com", "Sign-up confirmation", "Confirmation code: 123456")
	require.NoError(t, err)

	entries := logs.FilterField(zap.String("to", "a@x.com")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Confirmation code: 123456", entries[0].ContextMap()["body"])
}

func TestNewMessage(t *testing.T) {
	msg, err := newMessage("support@review-api.local", "to@x.com", "Bestätigungscode", "Confirmation code: 123456")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "From: <support@review-api.local>")
	assert.Contains(t, raw, "To: <to@x.com>")
	assert.Contains(t, raw, "Date: ")
	assert.Contains(t, raw, "Message-ID: <")
	assert.Contains(t, raw, "Subject: =?UTF-8?")
	assert.NotContains(t, raw, "Bestätigungscode")
	assert.Contains(t, raw, "Confirmation code: 123456")
}

func TestNewMessageRejectsBadAddress(t *testing.T) {
	_, err := newMessage("support@review-api.local", "not an address", "Hi", "Body")
	assert.Error(t, err)
}
