// Package mail delivers outbound email through a configurable transport.
package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/learnhub/content-subscriptions/internal/config"
)

// Message is a plain-text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends messages. Implementations do not retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Closer is implemented by transports holding connections.
type Closer interface {
	Close() error
}

// New builds the mailer selected by cfg.Transport.
func New(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Transport {
	case "", "log":
		return NewLogMailer(logger), nil
	case "smtp":
		return NewSMTPMailer(cfg), nil
	case "amqp":
		return DialAMQPMailer(cfg.AMQPURL, cfg.AMQPQueue)
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("mail",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}
