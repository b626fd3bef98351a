// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port           string
	Store          string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RedisPassword  string
	JWTSecret      []byte
	AccessTokenTTL time.Duration
	KafkaBrokers   []string
	KafkaTopic     string
	CORSOrigins    []string
	AdminEmails    []string
	AuthRatePerMin int
	SeedCatalog    bool

	SessionRatePerMin int
	AnonSessionTTL    time.Duration
}

const devSecret = "agrimart-dev-secret"

// Load reads .env when present, then the environment. Every invalid
// setting is reported in one joined error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error
	cfg := &Config{
		Port:          get("PORT", ":8080"),
		Store:         get("STORE", StoreMongo),
		MongoURI:      get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       get("MONGO_DB", "agrimart"),
		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),
		KafkaBrokers:  splitList(get("KAFKA_BROKERS", "")),
		KafkaTopic:    get("KAFKA_TOPIC", "agrimart.events"),
		CORSOrigins:   splitList(get("CORS_ORIGINS", "http://localhost:5173")),
		AdminEmails:   splitList(get("ADMIN_EMAILS", "")),
	}
	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	switch cfg.Store {
	case StoreMongo, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE must be %q or %q, got %q", StoreMongo, StoreMemory, cfg.Store))
	}

	secret := get("JWT_SECRET", "")
	switch {
	case secret != "":
		cfg.JWTSecret = []byte(secret)
	case cfg.Store == StoreMemory:
		cfg.JWTSecret = []byte(devSecret)
	default:
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	ttl, err := time.ParseDuration(get("ACCESS_TOKEN_TTL", "12h"))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_TTL: %w", err))
	case ttl <= 0:
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", ttl))
	default:
		cfg.AccessTokenTTL = ttl
	}

	rpm, err := strconv.Atoi(get("AUTH_RATE_PER_MIN", "5"))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("AUTH_RATE_PER_MIN: %w", err))
	case rpm <= 0:
		errs = append(errs, fmt.Errorf("AUTH_RATE_PER_MIN must be positive, got %d", rpm))
	default:
		cfg.AuthRatePerMin = rpm
	}

	srpm, err := strconv.Atoi(get("SESSION_RATE_PER_MIN", "30"))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("SESSION_RATE_PER_MIN: %w", err))
	case srpm <= 0:
		errs = append(errs, fmt.Errorf("SESSION_RATE_PER_MIN must be positive, got %d", srpm))
	default:
		cfg.SessionRatePerMin = srpm
	}

	anonTTL, err := time.ParseDuration(get("ANON_SESSION_TTL", "30m"))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("ANON_SESSION_TTL: %w", err))
	case anonTTL <= 0:
		errs = append(errs, fmt.Errorf("ANON_SESSION_TTL must be positive, got %s", anonTTL))
	default:
		cfg.AnonSessionTTL = anonTTL
	}

	seed, err := strconv.ParseBool(get("SEED_CATALOG", "true"))
	if err != nil {
		errs = append(errs, fmt.Errorf("SEED_CATALOG: %w", err))
	}
	cfg.SeedCatalog = seed

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
