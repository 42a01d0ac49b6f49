package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DBURL           string
	LogLevel        string
	DBMaxConns      int
	AMQPURL         string
	JWTSecret       string
	TransferTimeout time.Duration
	LockTimeout     time.Duration
	NotifyQueueSize int
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load("config.env")
	return &Config{
		Port:     os.Getenv("APP_PORT"),
		LogLevel: os.Getenv("LOG_LEVEL"),
		DBURL: fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		),
		DBMaxConns:      envInt("DB_MAX_CONNS", 8),
		AMQPURL:         os.Getenv("AMQP_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TransferTimeout: envDuration("TRANSFER_TIMEOUT_MS", 5*time.Second),
		LockTimeout:     envDuration("TRANSFER_LOCK_TIMEOUT_MS", 2*time.Second),
		NotifyQueueSize: envInt("NOTIFY_QUEUE_SIZE", 256),
	}, nil
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}

func envDuration(name string, def time.Duration) time.Duration {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return time.Duration(v) * time.Millisecond
		}
	}
	return def
}
