package mailer

import (
	"context"
	"fmt"
	"time"

	"review-api/pkg/utils"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender delivers a plain-text message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New picks the sender named by config.Driver.
func New(config utils.EmailConfig, log *zap.Logger) (Sender, error) {
	switch config.Driver {
	case "", "log":
		return NewLogSender(config.From, log), nil
	case "smtp":
		if config.Host == "" {
			return nil, fmt.Errorf("smtp mailer: SMTP_HOST is required")
		}
		return NewSMTPSender(config, log)
	default:
		return nil, fmt.Errorf("unknown mail driver %q", config.Driver)
	}
}

// ==================== SMTP ====================

const smtpTimeout = 15 * time.Second

type SMTPSender struct {
	client *mail.Client
	from   string
	log    *zap.Logger
}

func NewSMTPSender(config utils.EmailConfig, log *zap.Logger) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(smtpTimeout),
	}
	if config.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.User),
			mail.WithPassword(config.Password),
		)
	}

	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp mailer: %w", err)
	}

	return &SMTPSender{
		client: client,
		from:   config.From,
		log:    log.With(zap.String("mailer", "smtp")),
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg, err := newMessage(s.from, to, subject, body)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		s.log.Error("Failed to send email",
			zap.Error(err),
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	s.log.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// newMessage builds a plain-text message with Date and Message-ID set.
func newMessage(from, to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// ==================== LOG ====================

// LogSender writes messages to the application log instead of delivering
// them. Used for local development.
type LogSender struct {
	from string
	log  *zap.Logger
}

func NewLogSender(from string, log *zap.Logger) *LogSender {
	return &LogSender{
		from: from,
		log:  log.With(zap.String("mailer", "log")),
	}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info("Email",
		zap.String("from", s.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
