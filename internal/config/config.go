package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Env      string `env:"APP_ENV" env-default:"development"`
	HTTPAddr string `env:"HTTP_ADDR" env-default:":8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	Store    string `env:"STORE" env-default:"postgres"`

	Auth     AuthConfig
	Admin    AdminConfig
	CORS     CORSConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL        time.Duration `env:"JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTTL       time.Duration `env:"JWT_REFRESH_TTL" env-default:"168h"`
	CookieDomain     string        `env:"AUTH_COOKIE_DOMAIN"`
	LookupTimeout    time.Duration `env:"AUTH_LOOKUP_TIMEOUT" env-default:"3s"`
	AllowSignup      bool          `env:"ALLOW_SIGNUP" env-default:"true"`
	// CookieSecure is derived from Env and is not read from the environment.
	CookieSecure bool
}

// AdminConfig holds the bootstrap admin created on startup when Email is set.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Name     string `env:"ADMIN_NAME" env-default:"Administrator"`
	Password string `env:"ADMIN_PASSWORD"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

type PostgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Host        string `env:"PGHOST" env-default:"localhost"`
	Port        string `env:"PGPORT" env-default:"5432"`
	User        string `env:"PGUSER"`
	Password    string `env:"PGPASSWORD"`
	Database    string `env:"PGDATABASE"`
	SSLMode     string `env:"PGSSLMODE" env-default:"disable"`
}

type RedisConfig struct {
	URL    string `env:"REDIS_URL"`
	Prefix string `env:"REDIS_PREFIX" env-default:"userhub:session:"`
}

// Load reads an optional .env file and decodes the environment into Config.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read env: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	switch cfg.Env {
	case EnvDevelopment:
		cfg.Auth.CookieSecure = false
	case EnvProduction:
		cfg.Auth.CookieSecure = true
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q", cfg.Env)
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		return Config{}, fmt.Errorf("invalid STORE %q", cfg.Store)
	}

	if cfg.Auth.JWTRefreshSecret == "" {
		cfg.Auth.JWTRefreshSecret = cfg.Auth.JWTSecret
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}
