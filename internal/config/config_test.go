// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deposit-service/internal/domain"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/deposits")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, EventsRedis, cfg.Events.Backend)
	assert.Equal(t, TronHTTP, cfg.Tron.Transport)
	assert.True(t, cfg.Tron.Solidity)
	assert.Equal(t, 20*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 10, cfg.Rate.Limit)
	assert.Equal(t, time.Minute, cfg.Worker.Interval)
	assert.Equal(t, 50, cfg.Worker.BatchSize)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/deposits")
	t.Setenv("EVENTS_BACKEND", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TRON_TRANSPORT", "GRPC")
	t.Setenv("RPC_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")
	t.Setenv("TRON_USDT_CONTRACT", "TXYZopYRdj2D9XRtbG411XZZ3kM5VkAeBf")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, EventsKafka, cfg.Events.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, TronGRPC, cfg.Tron.Transport)
	assert.Equal(t, 5*time.Second, cfg.RPCTimeout)
	assert.Len(t, cfg.AllowedOrigins, 2)

	overrides := cfg.TokenOverrides()
	assert.Equal(t, "TXYZopYRdj2D9XRtbG411XZZ3kM5VkAeBf", overrides[domain.NetworkTron].USDT)
	assert.Empty(t, overrides[domain.NetworkTron].USDC)
}

func TestParse_ValidationErrors(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := Parse()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("kafka without brokers", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/deposits")
		t.Setenv("EVENTS_BACKEND", "kafka")
		_, err := Parse()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KAFKA_BROKERS")
	})

	t.Run("unknown transport", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/deposits")
		t.Setenv("TRON_TRANSPORT", "websocket")
		_, err := Parse()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TRON_TRANSPORT")
	})
}
