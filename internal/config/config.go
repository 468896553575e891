package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Allocation AllocationConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// AllocationConfig tunes the registration engine's retry and caching
// behavior.
type AllocationConfig struct {
	MaxAttempts    int
	RetryBackoff   time.Duration
	RosterTTL      time.Duration
	RateLimitRPM   int
	IdempotencyTTL time.Duration
}

// New reads configuration from the environment, loading a .env file first
// when one is present.
func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: envStr("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	postgresPort, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     envStr("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  envStr("POSTGRES_SSLMODE", "disable"),
	}

	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     envStr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	maxAttempts, err := envInt("ALLOC_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	backoffMs, err := envInt("ALLOC_RETRY_BACKOFF_MS", 25)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rosterTTLSec, err := envInt("ROSTER_CACHE_TTL_SECONDS", 15)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateLimitRPM, err := envInt("RATE_LIMIT_RPM", 30)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	idemTTLMin, err := envInt("IDEMPOTENCY_TTL_MINUTES", 120)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	allocCfg := AllocationConfig{
		MaxAttempts:    maxAttempts,
		RetryBackoff:   time.Duration(backoffMs) * time.Millisecond,
		RosterTTL:      time.Duration(rosterTTLSec) * time.Second,
		RateLimitRPM:   rateLimitRPM,
		IdempotencyTTL: time.Duration(idemTTLMin) * time.Minute,
	}

	return &Config{
		Server:     serverCfg,
		Postgres:   postgresCfg,
		Redis:      redisCfg,
		Allocation: allocCfg,
	}, nil
}

func envStr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return n, nil
}
