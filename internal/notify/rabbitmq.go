package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// amqpPublisher is the part of *amqp091.Channel the notifier needs.
type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// RabbitNotifier publishes each message to a topic exchange with routing
// key "notification.<type>".
type RabbitNotifier struct {
	ch       amqpPublisher
	exchange string
	conn     *amqp091.Connection
}

// DialRabbit connects, opens a channel and declares the exchange.
func DialRabbit(url, exchange string) (*RabbitNotifier, error) {
	var (
		conn *amqp091.Connection
		err  error
	)
	for i := 0; i < 5; i++ {
		conn, err = amqp091.Dial(url)
		if err == nil {
			break
		}
		log.Printf("RabbitMQ not ready, retrying... (%d/5)", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitNotifier{ch: ch, exchange: exchange, conn: conn}, nil
}

func newRabbitNotifier(ch amqpPublisher, exchange string) *RabbitNotifier {
	return &RabbitNotifier{ch: ch, exchange: exchange}
}

func (r *RabbitNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := encode(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	err = r.ch.PublishWithContext(ctx,
		r.exchange,
		"notification."+msg.Type(),
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (r *RabbitNotifier) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
