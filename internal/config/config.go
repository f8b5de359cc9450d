// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/banklab/concurrent-ledger/internal/engine"
)

type Config struct {
	// Workers caps concurrent store-connection usage.
	Workers int
	// DatabaseDSN selects the postgres store; empty runs in-memory.
	DatabaseDSN string
	// KafkaBrokers enables the Kafka event sink when non-empty.
	KafkaBrokers []string
	// KafkaTopic defaults to transaction_events.
	KafkaTopic string
	// ShutdownGrace bounds how long Close waits for the backlog.
	ShutdownGrace time.Duration
}

// Load reads a .env file when present, then the environment. Missing or
// malformed values fall back to defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Workers:       engine.DefaultWorkers,
		DatabaseDSN:   os.Getenv("BANK_DB_DSN"),
		KafkaTopic:    "transaction_events",
		ShutdownGrace: engine.DefaultShutdownGrace,
	}

	if v := os.Getenv("BANK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("BANK_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BANK_KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	if v := os.Getenv("BANK_SHUTDOWN_GRACE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ShutdownGrace = d
		}
	}
	return cfg
}
