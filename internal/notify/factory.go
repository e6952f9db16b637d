package notify

import (
	"errors"
	"fmt"
	"strings"

	intconfig "rideshare/internal/config"
)

type closer interface{ Close() error }

// New builds the notifier selected by cfg.Driver. Several drivers may be
// combined with commas, e.g. "log,kafka". The returned close func releases
// broker connections.
func New(cfg intconfig.NotifyConfig) (Notifier, func() error, error) {
	drivers := strings.Split(cfg.Driver, ",")
	var (
		out     Multi
		closers []closer
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, d := range drivers {
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "", "log":
			out = append(out, LogNotifier{})
		case "none":
			out = append(out, Noop{})
		case "webhook":
			if cfg.WebhookURL == "" {
				_ = closeAll()
				return nil, nil, fmt.Errorf("NOTIFY_WEBHOOK_URL is required for webhook notifications")
			}
			out = append(out, NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookKey, cfg.Timeout))
		case "rabbitmq":
			if cfg.RabbitURL == "" {
				_ = closeAll()
				return nil, nil, fmt.Errorf("RABBITMQ_URL is required for rabbitmq notifications")
			}
			r, err := DialRabbit(cfg.RabbitURL, cfg.RabbitExch)
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			out = append(out, r)
			closers = append(closers, r)
		case "kafka":
			if len(cfg.KafkaBrokers) == 0 {
				_ = closeAll()
				return nil, nil, fmt.Errorf("KAFKA_ADDR is required for kafka notifications")
			}
			k := NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
			out = append(out, k)
			closers = append(closers, k)
		default:
			_ = closeAll()
			return nil, nil, fmt.Errorf("unknown notify driver %q", d)
		}
	}
	if len(out) == 1 {
		return out[0], closeAll, nil
	}
	return out, closeAll, nil
}
