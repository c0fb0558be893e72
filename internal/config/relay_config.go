package config

import (
	"os"

	"github.com/joho/godotenv"
)

// RelayConfig holds configuration for the outbox relay service.
type RelayConfig struct {
	DatabaseURL   string
	RabbitMQURL   string
	CareQueueName string
	HealthPort    string
	LogLevel      string
}

func LoadRelayConfig() *RelayConfig {
	_ = godotenv.Load()

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	rabbitURL := os.Getenv("RABBITMQ_URL")
	if rabbitURL == "" {
		panic("RABBITMQ_URL environment variable is required")
	}

	return &RelayConfig{
		DatabaseURL:   dbURL,
		RabbitMQURL:   rabbitURL,
		CareQueueName: getEnv("CARE_QUEUE_NAME", "care_events"),
		HealthPort:    getEnv("RELAY_HEALTH_PORT", "8090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}
