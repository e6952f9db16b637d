package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaNotifier writes each message to a topic keyed by recipient, so one
// user's notifications stay ordered within a partition.
type KafkaNotifier struct {
	w messageWriter
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{w: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}}
}

func (k *KafkaNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := encode(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	err = k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.RecipientID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(msg.Type())},
		},
	})
	if err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error {
	if c, ok := k.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
