package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env struct {
	AppAddr     string
	GinMode     string
	StoreDriver string
	AutoMigrate bool
	LockTimeout time.Duration

	DB DBConfig

	JWTSecret   string
	CORSOrigins []string

	Notify NotifyConfig
}

type DBConfig struct {
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type NotifyConfig struct {
	Driver       string
	Timeout      time.Duration
	WebhookURL   string
	WebhookKey   string
	RabbitURL    string
	RabbitExch   string
	KafkaBrokers []string
	KafkaTopic   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("GIN_MODE", "")
	v.SetDefault("STORE_DRIVER", "mysql")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("LOCK_TIMEOUT", "3s")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "rideshare")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("NOTIFY_DRIVER", "log")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("RABBITMQ_EXCHANGE", "ride.notifications")
	v.SetDefault("KAFKA_TOPIC", "ride-notifications")
}

// LoadEnv reads configuration from the process environment, optionally
// seeded by a .env file in the working directory.
func LoadEnv() Env {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			log.Printf("warning: failed to read .env: %v", err)
		}
	}
	return FromViper(v)
}

// FromViper builds Env from an already populated viper instance.
func FromViper(v *viper.Viper) Env {
	lockTimeout := v.GetDuration("LOCK_TIMEOUT")
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	notifyTimeout := v.GetDuration("NOTIFY_TIMEOUT")
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}

	return Env{
		AppAddr:     strings.TrimSpace(v.GetString("APP_ADDR")),
		GinMode:     strings.TrimSpace(v.GetString("GIN_MODE")),
		StoreDriver: strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		LockTimeout: lockTimeout,
		DB: DBConfig{
			DSN:      strings.TrimSpace(v.GetString("DB_DSN")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		JWTSecret:   v.GetString("JWT_SECRET"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		Notify: NotifyConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("NOTIFY_DRIVER"))),
			Timeout:      notifyTimeout,
			WebhookURL:   strings.TrimSpace(v.GetString("NOTIFY_WEBHOOK_URL")),
			WebhookKey:   v.GetString("NOTIFY_WEBHOOK_KEY"),
			RabbitURL:    strings.TrimSpace(v.GetString("RABBITMQ_URL")),
			RabbitExch:   v.GetString("RABBITMQ_EXCHANGE"),
			KafkaBrokers: splitList(v.GetString("KAFKA_ADDR")),
			KafkaTopic:   v.GetString("KAFKA_TOPIC"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
