package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	env := FromViper(v)

	assert.Equal(t, ":8080", env.AppAddr)
	assert.Equal(t, "mysql", env.StoreDriver)
	assert.Equal(t, 3*time.Second, env.LockTimeout)
	assert.Equal(t, []string{"*"}, env.CORSOrigins)
	assert.Equal(t, "log", env.Notify.Driver)
	assert.Equal(t, 10*time.Second, env.Notify.Timeout)
	assert.Contains(t, env.DB.DSNString(), "tcp(127.0.0.1:3306)/rideshare")
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", " Memory ")
	v.Set("LOCK_TIMEOUT", "750ms")
	v.Set("KAFKA_ADDR", "k1:9092, k2:9092,")
	v.Set("NOTIFY_DRIVER", "LOG,Kafka")
	v.Set("DB_DSN", "u:p@tcp(db:3306)/x")

	env := FromViper(v)
	assert.Equal(t, "memory", env.StoreDriver)
	assert.Equal(t, 750*time.Millisecond, env.LockTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, env.Notify.KafkaBrokers)
	assert.Equal(t, "log,kafka", env.Notify.Driver)
	assert.Equal(t, "u:p@tcp(db:3306)/x", env.DB.DSNString())
}
