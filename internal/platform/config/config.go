package config

import (
	"os"
	"strings"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr        string
	MetricsAddr string

	// PostgresDSN selects the database-backed stores; empty means in-memory.
	PostgresDSN string

	// RedisURL selects the Redis-backed audit store; empty means in-memory.
	RedisURL string

	// KafkaBrokers enables publishing audit events; empty disables it.
	KafkaBrokers []string
	KafkaTopic   string

	JWTSigningKey string
	// AuthDisabled skips bearer-token validation; local development only.
	AuthDisabled bool
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          getenv("STEMMA_ADDR", ":8080"),
		MetricsAddr:   getenv("STEMMA_METRICS_ADDR", ":9090"),
		PostgresDSN:   os.Getenv("STEMMA_POSTGRES_DSN"),
		RedisURL:      os.Getenv("STEMMA_REDIS_URL"),
		KafkaTopic:    getenv("STEMMA_KAFKA_TOPIC", "stemma.audit"),
		JWTSigningKey: getenv("STEMMA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AuthDisabled:  os.Getenv("STEMMA_AUTH_DISABLED") == "true",
	}
	if brokers := os.Getenv("STEMMA_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
