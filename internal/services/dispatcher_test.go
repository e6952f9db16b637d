package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"rideshare/internal/notify"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherSwallowsFailures(t *testing.T) {
	var calls atomic.Int32
	d := NewDispatcher(notify.NotifierFunc(func(ctx context.Context, msg notify.Message) error {
		calls.Add(1)
		if msg.RecipientID == 2 {
			panic("boom")
		}
		return errors.New("provider down")
	}), time.Second)

	d.Send("req-1", notify.Message{RecipientID: 1, Title: "a"})
	d.Send("req-1", notify.Message{RecipientID: 2, Title: "b"})
	d.Send("req-1", notify.Message{RecipientID: 0, Title: "skipped"})
	d.Wait()

	assert.EqualValues(t, 2, calls.Load())
}

func TestDispatcherAppliesTimeout(t *testing.T) {
	var deadline atomic.Bool
	d := NewDispatcher(notify.NotifierFunc(func(ctx context.Context, msg notify.Message) error {
		<-ctx.Done()
		deadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	}), 20*time.Millisecond)

	d.Send("", notify.Message{RecipientID: 1})
	d.Wait()
	assert.True(t, deadline.Load())
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() {
		d.Send("", notify.Message{RecipientID: 1})
		d.Wait()
	})
}
