// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"github.com/abhilash2200/beyuvana-sub000/internal/cartsync"
	"github.com/abhilash2200/beyuvana-sub000/internal/commerce"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development)
// or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// Store-specific configuration (loaded from secrets)
	Store StoreConfig

	// Cart engine tuning, all optional
	Cart CartConfig
}

// StoreConfig contains the upstream commerce credentials.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	StoreURL    string `json:"store_url"`
	StoreDomain string `json:"store_domain"` // Derived from StoreURL if not set
	APIKey      string `json:"api_key"`
}

// CartConfig tunes the cart engine and its HTTP surface.
// Zero values fall back to the engine defaults.
type CartConfig struct {
	ButtonDebounceMS      int    `json:"button_debounce_ms"`
	InputDebounceMS       int    `json:"input_debounce_ms"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	EmptySyncPolicy       string `json:"empty_sync_policy"` // "preserve" or "replace"

	// EngineIdleMinutes controls how long a shopper's engine survives
	// without traffic before eviction. 0 means the 30 minute default.
	EngineIdleMinutes int `json:"engine_idle_minutes"`

	// MinStorefrontVersion rejects requests from storefront builds older
	// than this semver. Empty disables the gate.
	MinStorefrontVersion string `json:"min_storefront_version"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) -> ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	// Otherwise, use ENV vars / Secret Manager approach
	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		StoreID:     os.Getenv("STORE_ID"),
	}

	// StoreID required in all environments
	if cfg.StoreID == "" {
		return nil, fmt.Errorf("STORE_ID environment variable required")
	}

	// Load store credentials based on environment
	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	// Cart tuning always comes from plain env vars; nothing secret in it
	if err := cfg.loadCartFromEnv(); err != nil {
		return nil, fmt.Errorf("loading cart config: %w", err)
	}

	// Derive store domain from URL if not explicitly set
	if cfg.Store.StoreDomain == "" && cfg.Store.StoreURL != "" {
		cfg.Store.StoreDomain = extractDomain(cfg.Store.StoreURL)
	}

	// Validate required store fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		StoreID     string      `json:"store_id"`
		Store       StoreConfig `json:"store"`
		Cart        CartConfig  `json:"cart"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		StoreID:     fileConfig.StoreID,
		Store:       fileConfig.Store,
		Cart:        fileConfig.Cart,
	}

	// Derive store domain from URL if not explicitly set
	if cfg.Store.StoreDomain == "" && cfg.Store.StoreURL != "" {
		cfg.Store.StoreDomain = extractDomain(cfg.Store.StoreURL)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads store credentials from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		StoreURL:    os.Getenv("STORE_URL"),
		StoreDomain: os.Getenv("STORE_DOMAIN"),
		APIKey:      os.Getenv("STORE_API_KEY"),
	}
	return nil
}

// loadCartFromEnv reads optional cart tuning from environment variables.
func (c *Config) loadCartFromEnv() error {
	var err error
	if c.Cart.ButtonDebounceMS, err = envInt("CART_BUTTON_DEBOUNCE_MS"); err != nil {
		return err
	}
	if c.Cart.InputDebounceMS, err = envInt("CART_INPUT_DEBOUNCE_MS"); err != nil {
		return err
	}
	if c.Cart.RequestTimeoutSeconds, err = envInt("CART_REQUEST_TIMEOUT_SECONDS"); err != nil {
		return err
	}
	if c.Cart.EngineIdleMinutes, err = envInt("CART_ENGINE_IDLE_MINUTES"); err != nil {
		return err
	}
	c.Cart.EmptySyncPolicy = os.Getenv("CART_EMPTY_SYNC_POLICY")
	c.Cart.MinStorefrontVersion = os.Getenv("MIN_STOREFRONT_VERSION")
	return nil
}

// envInt parses an optional integer environment variable. Unset means 0.
func envInt(key string) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.StoreURL == "" {
		return fmt.Errorf("store_url is required")
	}
	if c.Store.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}

	// Validate store URL is well-formed
	if _, err := url.Parse(c.Store.StoreURL); err != nil {
		return fmt.Errorf("invalid store_url: %w", err)
	}

	switch c.Cart.EmptySyncPolicy {
	case "", string(cartsync.EmptyPreserve), string(cartsync.EmptyReplace):
	default:
		return fmt.Errorf("empty_sync_policy must be %q or %q",
			cartsync.EmptyPreserve, cartsync.EmptyReplace)
	}

	return nil
}

// BackendConfig builds the commerce client configuration.
func (c *Config) BackendConfig() commerce.Config {
	return commerce.Config{
		StoreURL: strings.TrimSuffix(c.Store.StoreURL, "/"),
		APIKey:   c.Store.APIKey,
		Timeout:  time.Duration(c.Cart.RequestTimeoutSeconds) * time.Second,
	}
}

// EngineConfig builds the cart engine configuration. Zero fields fall
// through to the engine's own defaults.
func (c *Config) EngineConfig() cartsync.Config {
	return cartsync.Config{
		ButtonDebounce:  time.Duration(c.Cart.ButtonDebounceMS) * time.Millisecond,
		InputDebounce:   time.Duration(c.Cart.InputDebounceMS) * time.Millisecond,
		RequestTimeout:  time.Duration(c.Cart.RequestTimeoutSeconds) * time.Second,
		EmptySyncPolicy: cartsync.EmptySyncPolicy(c.Cart.EmptySyncPolicy),
	}
}

// EngineIdle returns how long an untouched engine survives before eviction.
func (c *Config) EngineIdle() time.Duration {
	if c.Cart.EngineIdleMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Cart.EngineIdleMinutes) * time.Minute
}

// extractDomain parses the domain from a URL string.
func extractDomain(storeURL string) string {
	u, err := url.Parse(storeURL)
	if err != nil {
		// Fallback: strip protocol prefix manually
		domain := strings.TrimPrefix(storeURL, "https://")
		domain = strings.TrimPrefix(domain, "http://")
		return strings.Split(domain, "/")[0]
	}
	return u.Host
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
