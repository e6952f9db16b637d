package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	intconfig "rideshare/internal/config"

	"github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessage() Message {
	return Message{
		RecipientID: 42,
		SenderID:    7,
		Title:       "You have a counter offer",
		Body:        "Driver offered PKR 450 per seat.",
		Data:        map[string]string{"type": "driver_counter", "booking_id": "9"},
	}
}

func TestNewPayloadStringifiesIDs(t *testing.T) {
	p := NewPayload(sampleMessage())
	assert.Equal(t, "42", p.RecipientID)
	assert.Equal(t, "42", p.UserID)
	assert.Equal(t, "7", p.SenderID)
	assert.Equal(t, "7", p.DriverID)
	assert.Equal(t, "driver_counter", p.Data["type"])

	p = NewPayload(Message{RecipientID: 1})
	assert.Equal(t, "generic", p.Data["type"])
	assert.Empty(t, p.SenderID)
}

func TestWebhookNotifierPostsPayload(t *testing.T) {
	var (
		gotAuth string
		gotKey  string
		got     Payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "secret", time.Second)
	require.NoError(t, n.Notify(context.Background(), sampleMessage()))
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "42", got.RecipientID)
	assert.Equal(t, "You have a counter offer", got.Title)
}

func TestWebhookNotifierReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no token", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, "", time.Second).Notify(context.Background(), sampleMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func TestRabbitNotifierRoutesByType(t *testing.T) {
	ch := &fakeChannel{}
	n := newRabbitNotifier(ch, "ride.notifications")
	require.NoError(t, n.Notify(context.Background(), sampleMessage()))

	assert.Equal(t, "ride.notifications", ch.exchange)
	assert.Equal(t, "notification.driver_counter", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var p Payload
	require.NoError(t, json.Unmarshal(ch.msg.Body, &p))
	assert.Equal(t, "42", p.RecipientID)

	ch.err = errors.New("channel closed")
	assert.Error(t, n.Notify(context.Background(), sampleMessage()))
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaNotifierKeysByRecipient(t *testing.T) {
	w := &fakeWriter{}
	n := &KafkaNotifier{w: w}
	require.NoError(t, n.Notify(context.Background(), sampleMessage()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))
	assert.Equal(t, "driver_counter", string(w.msgs[0].Headers[0].Value))
	assert.NoError(t, n.Close())
}

func TestMultiJoinsErrors(t *testing.T) {
	calls := 0
	ok := NotifierFunc(func(ctx context.Context, msg Message) error { calls++; return nil })
	bad := NotifierFunc(func(ctx context.Context, msg Message) error { calls++; return errors.New("down") })

	err := Multi{ok, nil, bad, ok}.Notify(context.Background(), sampleMessage())
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestNewSelectsDrivers(t *testing.T) {
	n, closeFn, err := New(intconfig.NotifyConfig{Driver: "log"})
	require.NoError(t, err)
	assert.IsType(t, LogNotifier{}, n)
	assert.NoError(t, closeFn())

	n, _, err = New(intconfig.NotifyConfig{Driver: "log,none"})
	require.NoError(t, err)
	assert.Len(t, n.(Multi), 2)

	_, _, err = New(intconfig.NotifyConfig{Driver: "webhook"})
	assert.Error(t, err)

	_, _, err = New(intconfig.NotifyConfig{Driver: "pigeon"})
	assert.Error(t, err)
}
