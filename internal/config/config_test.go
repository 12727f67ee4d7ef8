package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "MONGO_URI", "MONGO_DB", "JWT_SECRET", "JWT_EXPIRY", "REDIS_ADDR", "CACHE_TTL",
		"MQTT_BROKER", "MQTT_TOPIC", "MQTT_CLIENT_ID", "LOG_LEVEL", "LOG_FORMAT", "RATE_LIMIT_PER_MIN",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "fleet", cfg.MongoDB)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Equal(t, "equipment/+/readings", cfg.MQTTTopic)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.True(t, cfg.UsesDefaultSecret())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("MQTT_BROKER", "tcp://mosquitto:1883")
	t.Setenv("RATE_LIMIT_PER_MIN", "10")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "tcp://mosquitto:1883", cfg.MQTTBroker)
	assert.Equal(t, 10, cfg.RateLimitPerMin)
	assert.False(t, cfg.UsesDefaultSecret())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "forever")
	t.Setenv("CACHE_TTL", "-1m")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
}

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())
	defer logrus.SetFormatter(logrus.StandardLogger().Formatter)

	Config{LogLevel: "debug", LogFormat: "json"}.ConfigureLogging()
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	Config{LogLevel: "chatty", LogFormat: "text"}.ConfigureLogging()
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)
}
