package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr                    string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL            string `default:"" usage:"Base URL prepended to product image paths" flag:"image-base-url"`
	StrictStatusTransitions bool   `default:"true" usage:"Reject illegal order and membership status changes" flag:"strict-status-transitions"`
	Storage                 StorageConfig
	Auth                    AuthConfig
	Stock                   StockConfig
	RateLimit               RateLimitConfig
	CORS                    CORSConfig
	Graceful                GracefulConfig
}

// StorageConfig selects the backing store.
type StorageConfig struct {
	Driver      string `default:"postgres" usage:"Storage driver: postgres or memory"`
	DatabaseURL string `env:"DATABASE_URL" usage:"PostgreSQL connection URL (POS_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	SeedMemory  bool   `default:"true" usage:"Load the built-in catalog into memory storage at startup" flag:"seed-memory"`
}

// AuthConfig controls bearer token verification.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" usage:"HS256 secret used to verify bearer tokens" flag:"jwt-secret"`
}

// StockConfig controls retries of ingredient stock writes.
type StockConfig struct {
	RetryMaxTries        uint          `default:"3" usage:"Attempts per stock write" flag:"stock-retry-max-tries"`
	RetryInitialInterval time.Duration `default:"50ms" usage:"First backoff interval between stock write attempts" flag:"stock-retry-initial-interval"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "POS",
		Files:     []string{"config.yaml", "/etc/pos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set POS_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required: set POS_AUTH_JWT_SECRET")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's POS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
