package config

import (
	"os"
	"strings"
)

// Config captures process-level configuration. FromEnv keeps main lean;
// every knob has a dev default so the service runs with no environment at
// all (in-memory stores, no brokers).
type Config struct {
	Addr    string
	DevMode bool

	// OwnerID is the distinguished deployer identity. It is permanently
	// privileged to manage the admin set and is not itself an admin map
	// entry, so it can never be removed through the exposed operations.
	OwnerID string

	// JWTSigningKey verifies caller-identity bearer tokens.
	JWTSigningKey string

	// PostgresURL switches the stores from in-memory to Postgres when set.
	PostgresURL string

	// RedisURL enables the record read cache when set.
	RedisURL string

	// KafkaBrokers enables the Kafka audit publisher when non-empty.
	KafkaBrokers []string
	AuditTopic   string
}

func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("CREDENTRY_ADDR", ":8080"),
		DevMode:       os.Getenv("CREDENTRY_ENV") != "production",
		OwnerID:       getenv("CREDENTRY_OWNER_ID", "owner"),
		JWTSigningKey: getenv("CREDENTRY_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresURL:   os.Getenv("CREDENTRY_POSTGRES_URL"),
		RedisURL:      os.Getenv("CREDENTRY_REDIS_URL"),
		AuditTopic:    getenv("CREDENTRY_AUDIT_TOPIC", "credentry.audit"),
	}
	if brokers := os.Getenv("CREDENTRY_KAFKA_BROKERS"); brokers != "" {
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
