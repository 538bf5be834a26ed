package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultIdempotencyTTL bounds how long stored responses are replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// ServerConfig configures the API process: listener, storage and side adapters.
type ServerConfig struct {
	Port string

	// StorageBackend selects user/ride persistence: "memory" or "postgres".
	StorageBackend string
	DatabaseURL    string
	DBMaxConns     int32

	// IdempotencyBackend selects the replay store: "memory", "postgres" or "redis".
	IdempotencyBackend string
	RedisAddr          string
	IdempotencyTTL     time.Duration

	// EventsBackend selects the ride event publisher: "none" or "amqp".
	EventsBackend string
	AMQPURL       string

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	BcryptCost int
}

func LoadServerConfigFromEnv() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:               getenv("PORT", "8080"),
		StorageBackend:     strings.ToLower(getenv("STORAGE_BACKEND", "memory")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		IdempotencyBackend: strings.ToLower(os.Getenv("IDEMPOTENCY_BACKEND")),
		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		IdempotencyTTL:     DefaultIdempotencyTTL,
		EventsBackend:      strings.ToLower(getenv("EVENTS_BACKEND", "none")),
		AMQPURL:            os.Getenv("AMQP_URL"),
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFormat:          getenv("LOG_FORMAT", "json"),
		BcryptCost:         bcrypt.DefaultCost,
	}

	switch cfg.StorageBackend {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return ServerConfig{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return ServerConfig{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}

	// Replays follow the storage backend unless explicitly overridden.
	if cfg.IdempotencyBackend == "" {
		cfg.IdempotencyBackend = cfg.StorageBackend
	}
	switch cfg.IdempotencyBackend {
	case "memory", "redis":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return ServerConfig{}, fmt.Errorf("DATABASE_URL is required when IDEMPOTENCY_BACKEND=postgres")
		}
	default:
		return ServerConfig{}, fmt.Errorf("IDEMPOTENCY_BACKEND must be memory, postgres or redis, got %q", cfg.IdempotencyBackend)
	}

	switch cfg.EventsBackend {
	case "none":
	case "amqp":
		if cfg.AMQPURL == "" {
			return ServerConfig{}, fmt.Errorf("AMQP_URL is required when EVENTS_BACKEND=amqp")
		}
	default:
		return ServerConfig{}, fmt.Errorf("EVENTS_BACKEND must be none or amqp, got %q", cfg.EventsBackend)
	}

	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return ServerConfig{}, fmt.Errorf("DB_MAX_CONNS must be a positive integer")
		}
		cfg.DBMaxConns = int32(n)
	}
	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("IDEMPOTENCY_TTL must be a duration (e.g. 24h): %w", err)
		}
		cfg.IdempotencyTTL = d
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return ServerConfig{}, fmt.Errorf("BCRYPT_COST must be an integer in [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.BcryptCost = n
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
