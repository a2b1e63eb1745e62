package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	PostgresDSN     string
	Redis           RedisConfig
	Kafka           KafkaConfig
	ProviderTimeout time.Duration
}

// RedisConfig configures the shared Redis client. An empty URL disables Redis
// and the process falls back to in-memory stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the alert mirror sink. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("IDHUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("IDHUB_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	providerTimeout := 2 * time.Second
	if raw := os.Getenv("IDHUB_PROVIDER_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			providerTimeout = d
		}
	}

	topic := os.Getenv("IDHUB_KAFKA_ALERT_TOPIC")
	if topic == "" {
		topic = "idhub.alerts"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		PostgresDSN:   os.Getenv("IDHUB_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("IDHUB_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("IDHUB_KAFKA_BROKERS")),
			Topic:   topic,
		},
		ProviderTimeout: providerTimeout,
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
