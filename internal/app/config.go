package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CART_ prefix), flags, or YAML config files.
type Config struct {
	Addr       string `default:"0.0.0.0:8080" usage:"API server listen address"`
	CatalogURL string `usage:"Base URL of the catalog API (CART_CATALOG_URL)" flag:"catalog-url"`
	Store      StoreConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Graceful   GracefulConfig
}

// StoreConfig selects and configures the cart snapshot backend.
type StoreConfig struct {
	Backend     string `default:"memory" usage:"Snapshot backend: memory, redis or postgres"`
	RedisURL    string `usage:"Redis connection URL (CART_STORE_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CART_STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Key         string `default:"shopcart:cart" usage:"Key the serialized cart is stored under"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
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

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CART",
		Files:     []string{"config.yaml", "/etc/shopcart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.CatalogURL == "" {
		return nil, errors.New("catalog URL is required: set CART_CATALOG_URL")
	}
	switch cfg.Store.Backend {
	case "memory":
	case "redis":
		if cfg.Store.RedisURL == "" {
			return nil, errors.New("redis URL is required: set CART_STORE_REDIS_URL or REDIS_URL")
		}
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, errors.New("database URL is required: set CART_STORE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return nil, errors.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like PORT and REDIS_URL
// to the application's CART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Store.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.Store.RedisURL = v
		}
	}
	if c.Store.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Store.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
