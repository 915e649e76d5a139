package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oceanwatch/hazard-report-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	JWTSecret string

	// StoreBackend selects report/profile persistence: "memory" or "mongo".
	StoreBackend string
	MongoURI     string
	MongoDB      string

	// RedisAddr enables the Redis leaderboard when set; empty keeps the
	// leaderboard in memory.
	RedisAddr string

	// KafkaBrokers enables alert publishing when non-empty.
	KafkaBrokers    []string
	KafkaAlertTopic string

	DuplicateRadiusKM float64
	DuplicateWindow   time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	window, err := parseDuration("DUPLICATE_WINDOW", "24h")
	if err != nil {
		return nil, err
	}

	radius, err := parseRadius()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		JWTSecret: os.Getenv("JWT_SECRET"),

		StoreBackend: envOrDefault("STORE_BACKEND", "memory"),
		MongoURI:     envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      envOrDefault("MONGO_DB", "hazardwatch"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		KafkaBrokers:    parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "hazard-alerts"),

		DuplicateRadiusKM: radius,
		DuplicateWindow:   window,
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.StoreBackend != "memory" && cfg.StoreBackend != "mongo" {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be memory or mongo", cfg.StoreBackend)
	}
	if cfg.StoreBackend == "mongo" && cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required when STORE_BACKEND is mongo")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// Guard returns the duplicate guard thresholds from this configuration.
func (c *Config) Guard() domain.GuardConfig {
	return domain.GuardConfig{RadiusKM: c.DuplicateRadiusKM, Window: c.DuplicateWindow}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseRadius() (float64, error) {
	raw := envOrDefault("DUPLICATE_RADIUS_KM", "1.0")
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || r <= 0 {
		return 0, errors.New("invalid DUPLICATE_RADIUS_KM")
	}
	return r, nil
}
