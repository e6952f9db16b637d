package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rideshare/internal/notify"
	"rideshare/internal/utils"
)

// Dispatcher is the single best-effort path to the notifier. Sends run on
// their own goroutine after the transaction commits; failures are logged
// and dropped.
type Dispatcher struct {
	Notifier notify.Notifier
	Timeout  time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(n notify.Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{Notifier: n, Timeout: timeout}
}

// Send never blocks the caller and never returns an error.
func (d *Dispatcher) Send(requestID string, msg notify.Message) {
	if d == nil || d.Notifier == nil || msg.RecipientID <= 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.LogEvent(requestID, "notify", "panic", fmt.Sprintf("recipient_id=%d err=%v", msg.RecipientID, r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
		defer cancel()
		if err := d.Notifier.Notify(ctx, msg); err != nil {
			utils.LogEvent(requestID, "notify", "send_failed", fmt.Sprintf("recipient_id=%d type=%s err=%v", msg.RecipientID, msg.Type(), err))
			return
		}
		utils.LogEvent(requestID, "notify", "sent", fmt.Sprintf("recipient_id=%d type=%s", msg.RecipientID, msg.Type()))
	}()
}

// Wait blocks until every in-flight send has finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
