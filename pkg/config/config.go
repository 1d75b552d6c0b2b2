package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// BaseURL is the externally reachable URL of this server. The OAuth redirect_uri is derived from it.
	// Example: https://your-ngrok-subdomain.ngrok-free.app
	BaseURL string

	// DATABASE_URL enables the install event log; DIRECT_URL is used for migrations when set.
	DatabaseURL string
	DirectURL   string

	Shopify ShopifyConfig

	Render RenderConfig
}

type ShopifyConfig struct {
	APIKey    string
	APISecret string
	Scopes    string

	// RequireState rejects callbacks that carry no signed state parameter.
	RequireState bool

	ExchangeTimeout time.Duration
}

type RenderConfig struct {
	// StaticDir holds the built client assets (build/client).
	StaticDir string

	// UpstreamURL is the rendering server every non-asset request is proxied to.
	// In dev this is the Vite dev server; in prod the SSR server.
	UpstreamURL string
}

const CallbackPath = "/install/api/callback"

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8080"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		BaseURL:        strings.TrimRight(env("BASE_URL", "http://localhost:8080"), "/"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		Shopify: ShopifyConfig{
			APIKey:          os.Getenv("SHOPIFY_API_KEY"),
			APISecret:       os.Getenv("SHOPIFY_API_SECRET"),
			Scopes:          os.Getenv("SHOPIFY_SCOPES"),
			RequireState:    envBool("SHOPIFY_REQUIRE_STATE", false),
			ExchangeTimeout: envDuration("SHOPIFY_EXCHANGE_TIMEOUT", 15*time.Second),
		},
		Render: RenderConfig{
			StaticDir:   env("RENDER_STATIC_DIR", "build/client"),
			UpstreamURL: os.Getenv("RENDER_UPSTREAM_URL"),
		},
	}
}

// CallbackURL is the redirect_uri registered with Shopify.
func (c Config) CallbackURL() string {
	return c.BaseURL + CallbackPath
}

func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

// Validate reports every missing setting the OAuth handshake cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.Shopify.APIKey == "" {
		errs = append(errs, errors.New("SHOPIFY_API_KEY is required"))
	}
	if c.Shopify.APISecret == "" {
		errs = append(errs, errors.New("SHOPIFY_API_SECRET is required"))
	}
	if c.Shopify.Scopes == "" {
		errs = append(errs, errors.New("SHOPIFY_SCOPES is required"))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("BASE_URL is required"))
	}
	return errors.Join(errs...)
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
