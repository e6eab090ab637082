package worker

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/learnhub/content-subscriptions/internal/mail"
)

const mailConsumerTag = "mail-worker"

// MailWorker drains the outbound mail queue and delivers each message with
// sender. Failed deliveries are dropped, not requeued.
type MailWorker struct {
	ch     *amqp.Channel
	queue  string
	sender mail.Mailer
	logger *zap.Logger
}

// NewMailWorker opens a dedicated channel on conn.
func NewMailWorker(conn *amqp.Connection, queue string, sender mail.Mailer, logger *zap.Logger) (*MailWorker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := mail.DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := ch.Qos(8, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("amqp qos: %w", err)
	}
	return &MailWorker{ch: ch, queue: queue, sender: sender, logger: logger}, nil
}

// Run consumes until ctx is done or the broker closes the channel.
func (w *MailWorker) Run(ctx context.Context) error {
	deliveries, err := w.ch.Consume(w.queue, mailConsumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}
	defer w.ch.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("mail queue channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *MailWorker) handle(ctx context.Context, d amqp.Delivery) {
	msg, err := mail.Decode(d.Body)
	if err != nil {
		w.logger.Error("discarding undecodable mail", zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if err := w.sender.Send(ctx, msg); err != nil {
		w.logger.Error("mail delivery failed", zap.String("to", msg.To), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if err := d.Ack(false); err != nil {
		w.logger.Warn("mail ack failed", zap.Error(err))
	}
}
