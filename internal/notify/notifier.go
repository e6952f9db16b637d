// Package notify delivers push notifications about booking activity.
// Delivery is best effort: callers never roll back on a failed send.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
)

// Message is one push notification addressed to a single user.
type Message struct {
	RecipientID int64             `json:"recipient_id"`
	SenderID    int64             `json:"sender_id,omitempty"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

// Type returns the data.type tag, used as routing key by broker transports.
func (m Message) Type() string {
	if t := m.Data["type"]; t != "" {
		return t
	}
	return "generic"
}

// Payload is the wire shape shared by the webhook and broker transports.
// Ids are strings because push data payloads only carry strings.
type Payload struct {
	RecipientID string            `json:"recipient_id"`
	UserID      string            `json:"user_id"`
	SenderID    string            `json:"sender_id"`
	DriverID    string            `json:"driver_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
}

// NewPayload normalizes m for delivery.
func NewPayload(m Message) Payload {
	data := make(map[string]string, len(m.Data)+1)
	for k, v := range m.Data {
		data[k] = v
	}
	if data["type"] == "" {
		data["type"] = m.Type()
	}
	sender := ""
	if m.SenderID > 0 {
		sender = strconv.FormatInt(m.SenderID, 10)
	}
	recipient := strconv.FormatInt(m.RecipientID, 10)
	return Payload{
		RecipientID: recipient,
		UserID:      recipient,
		SenderID:    sender,
		DriverID:    sender,
		Title:       m.Title,
		Body:        m.Body,
		Data:        data,
	}
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(NewPayload(m))
}

// Notifier sends a message to its recipient.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogNotifier only writes the message to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, msg Message) error {
	log.Printf("[NOTIFY] action=log recipient_id=%d type=%s title=%q", msg.RecipientID, msg.Type(), msg.Title)
	return nil
}

// Noop discards every message.
type Noop struct{}

func (Noop) Notify(ctx context.Context, msg Message) error { return nil }

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
