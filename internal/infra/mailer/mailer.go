// Package mailer sends transactional email.
package mailer

import (
	"context"
	"log/slog"
)

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Message struct {
	ToEmail     string
	ToName      string
	Subject     string
	PlainText   string
	HTML        string
	Attachments []Attachment
}

// LogMailer only logs outgoing mail. It is used when no provider key is configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("email not sent, no provider configured",
		"to", msg.ToEmail,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments))
	return nil
}
