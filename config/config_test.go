package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "donors", cfg.Elastic.DonorIndex)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/bb.db")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "1h")
	t.Setenv("REDIS_INVENTORY_TTL", "30")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ELASTICSEARCH_ADDRESSES", "")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")

	cfg := LoadEnv()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/bb.db", cfg.Database.SQLitePath)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 30*time.Second, cfg.Redis.InventoryTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Elastic.Addresses)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}
