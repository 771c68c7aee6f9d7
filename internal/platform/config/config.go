package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	defaultEnvFile        = ".env"
	defaultPort           = "8080"
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 120 * time.Second
	defaultCatalogTimeout = 10 * time.Second
	defaultCurrency       = "INR"
	defaultStoreName      = "Trendy Footwear"
	defaultThemeColor     = "#88C8BC"
	defaultContentDir     = "content"
	defaultCookieName     = "storefront_session"
	defaultCheckoutExit   = "/allproducts"
	defaultConfirmPath    = "/thankyou"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Payments PaymentsConfig
	Session  SessionConfig
	Store    StoreConfig
	Checkout CheckoutConfig
	Content  ContentConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CatalogConfig points at the external product catalog REST API.
type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PaymentsConfig collects payment provider settings.
type PaymentsConfig struct {
	RazorpayKeyID     string
	RazorpayKeySecret string
	Currency          string
}

// SessionConfig controls visitor session cookie encoding.
type SessionConfig struct {
	CookieName   string
	HashKey      string
	BlockKey     string
	CookieSecure bool
}

// StoreConfig holds display metadata handed to the payment widget.
type StoreConfig struct {
	Name       string
	LogoURL    string
	ThemeColor string
}

// CheckoutConfig sets the navigation targets around the checkout flow.
type CheckoutConfig struct {
	ExitPath    string
	ConfirmPath string
}

// ContentConfig locates markdown content pages.
type ContentConfig struct {
	Dir string
}

// ValidationError aggregates missing or invalid configuration fields.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	sorted := append([]string(nil), e.fields...)
	sort.Strings(sorted)
	return fmt.Sprintf("config: invalid or missing fields: %s", strings.Join(sorted, ", "))
}

// Fields returns the offending configuration field names.
func (e *ValidationError) Fields() []string {
	return append([]string(nil), e.fields...)
}

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// Option customises configuration loading.
type Option func(*loaderOptions)

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load reads configuration applying dotenv < OS env < explicit map precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	values := make(map[string]string)
	merge := func(source map[string]string) {
		for key, value := range source {
			values[key] = value
		}
	}
	merge(dotEnvValues)
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
				continue
			}
			values[strings.TrimSpace(parts[0])] = parts[1]
		}
	}
	merge(options.envMap)

	lookup := func(key string) (string, bool) {
		value, ok := values[key]
		return strings.TrimSpace(value), ok
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Catalog: CatalogConfig{
			BaseURL: stringWithDefault(lookup, "CATALOG_API_URL", ""),
			Timeout: durationWithDefault(lookup, "CATALOG_TIMEOUT", defaultCatalogTimeout),
		},
		Payments: PaymentsConfig{
			RazorpayKeyID:     stringWithDefault(lookup, "RAZORPAY_KEY_ID", ""),
			RazorpayKeySecret: stringWithDefault(lookup, "RAZORPAY_KEY_SECRET", ""),
			Currency:          strings.ToUpper(stringWithDefault(lookup, "PAYMENT_CURRENCY", defaultCurrency)),
		},
		Session: SessionConfig{
			CookieName:   stringWithDefault(lookup, "SESSION_COOKIE_NAME", defaultCookieName),
			HashKey:      stringWithDefault(lookup, "SESSION_HASH_KEY", ""),
			BlockKey:     stringWithDefault(lookup, "SESSION_BLOCK_KEY", ""),
			CookieSecure: boolWithDefault(lookup, "SESSION_COOKIE_SECURE", false),
		},
		Store: StoreConfig{
			Name:       stringWithDefault(lookup, "STORE_NAME", defaultStoreName),
			LogoURL:    stringWithDefault(lookup, "STORE_LOGO_URL", ""),
			ThemeColor: stringWithDefault(lookup, "STORE_THEME_COLOR", defaultThemeColor),
		},
		Checkout: CheckoutConfig{
			ExitPath:    stringWithDefault(lookup, "CHECKOUT_EXIT_PATH", defaultCheckoutExit),
			ConfirmPath: stringWithDefault(lookup, "CHECKOUT_CONFIRM_PATH", defaultConfirmPath),
		},
		Content: ContentConfig{
			Dir: stringWithDefault(lookup, "CONTENT_DIR", defaultContentDir),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if cfg.Catalog.BaseURL == "" {
		invalid = append(invalid, "Catalog.BaseURL")
	} else if parsed, err := url.Parse(cfg.Catalog.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		invalid = append(invalid, "Catalog.BaseURL")
	}
	if cfg.Session.HashKey == "" {
		invalid = append(invalid, "Session.HashKey")
	}
	if cfg.Payments.Currency == "" {
		invalid = append(invalid, "Payments.Currency")
	}
	// Key secret is only required once a key id is configured; without
	// either the service falls back to the development provider.
	if cfg.Payments.RazorpayKeyID != "" && cfg.Payments.RazorpayKeySecret == "" {
		invalid = append(invalid, "Payments.RazorpayKeySecret")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		if key == "" {
			continue
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
