package config

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// APIConfig holds runtime configuration for the API service. It is loaded
// once in main and injected into the components that need it; the JWT
// secret and bcrypt cost are never read from the environment anywhere else.
type APIConfig struct {
	Environment         string
	Addr                string
	DatabaseURL         string
	MigrationsDir       string
	JWTSecret           string
	AccessTokenTTL      time.Duration
	BcryptCost          int
	RevocationSweep     time.Duration
	RateLimitRedisAddr  string
	RateLimitRedisPass  string
	RateLimitRedisDB    int
	WSReadLimit         int64
	ShutdownGracePeriod time.Duration
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	cfg := APIConfig{
		Environment:         GetString("APP_ENV", "development"),
		Addr:                GetString("API_ADDR", ":3000"),
		DatabaseURL:         GetString("DATABASE_URL", "postgres://aqd:aqd@db:5432/aqd?sslmode=disable"),
		MigrationsDir:       GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		JWTSecret:           GetString("JWT_SECRET_LOGIN", "supersecuresecret"),
		AccessTokenTTL:      GetDuration("ACCESS_TOKEN_TTL", time.Hour),
		BcryptCost:          GetInt("SALT_ROUNDS", bcrypt.DefaultCost),
		RevocationSweep:     GetDuration("REVOCATION_SWEEP_INTERVAL", 15*time.Minute),
		RateLimitRedisAddr:  GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass:  GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:    GetInt("RATE_LIMIT_REDIS_DB", 0),
		WSReadLimit:         int64(GetInt("WS_READ_LIMIT_BYTES", 1024)),
		ShutdownGracePeriod: GetDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return cfg
}
