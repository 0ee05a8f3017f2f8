// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "json" or "text"

	RateLimitPerMin int
	Workers         int
	MetricsAddr     string

	// Alert delivery. No brokers means alerts are only logged.
	KafkaBrokers    []string
	KafkaAlertTopic string
	AlertSigningKey string
	AlertQueueSize  int

	OTLPEndpoint string
}

const (
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultRateLimitPerMin = 120
	DefaultWorkers         = 4
	DefaultMetricsAddr     = ":9090"
	DefaultKafkaAlertTopic = "fraud-alerts"
	DefaultAlertQueueSize  = 1000
)

// Load reads configuration from environment variables, picking up a .env
// file first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:       getEnv("LOG_FORMAT", DefaultLogFormat),
		RateLimitPerMin: getEnvPositiveInt("RATE_LIMIT_PER_MIN", DefaultRateLimitPerMin),
		Workers:         getEnvInt("WORKERS", DefaultWorkers),
		MetricsAddr:     getEnv("METRICS_ADDR", DefaultMetricsAddr),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaAlertTopic: getEnv("KAFKA_ALERT_TOPIC", DefaultKafkaAlertTopic),
		AlertSigningKey: os.Getenv("ALERT_SIGNING_KEY"),
		AlertQueueSize:  getEnvPositiveInt("ALERT_QUEUE_SIZE", DefaultAlertQueueSize),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaAlertTopic == "" {
		return fmt.Errorf("KAFKA_ALERT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvPositiveInt is getEnvInt that also falls back on zero or negative values.
func getEnvPositiveInt(key string, defaultValue int) int {
	if i := getEnvInt(key, defaultValue); i > 0 {
		return i
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
