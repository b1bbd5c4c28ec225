package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/plaid"
)

// EnvPrefix namespaces environment overrides, e.g. ZENITH_DATABASE_PATH.
const EnvPrefix = "ZENITH"

// Defaults.
const (
	DefaultUser            = "local@zenith"
	DefaultPort            = 8080
	DefaultCatchUpSchedule = "5 0 * * *"
)

// SetDefaults registers default values with viper.
func SetDefaults() {
	viper.SetDefault("database.path", DefaultDatabasePath())
	viper.SetDefault("user", DefaultUser)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.rate_limit", 60)
	viper.SetDefault("llm.cache_ttl", 15*time.Minute)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("server.port", DefaultPort)
	viper.SetDefault("server.catchup_schedule", DefaultCatchUpSchedule)
	viper.SetDefault("server.cert_dir", filepath.Join(ConfigDir(), "certs"))
	viper.SetDefault("plaid.environment", "sandbox")
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// BindEnv makes viper read ZENITH_* variables for nested keys.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// DatabasePath returns the configured SQLite location.
func DatabasePath() string {
	return ExpandPath(viper.GetString("database.path"))
}

// LLMConfig returns the AI provider settings. The API key falls back to
// the provider's conventional environment variable.
func LLMConfig() (llm.Config, error) {
	cfg := llm.Config{
		Provider:    strings.ToLower(viper.GetString("llm.provider")),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
		Timeout:     viper.GetDuration("llm.timeout"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = providerKey(cfg.Provider)
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("%w: llm.api_key (or the provider's API key variable) is not set", common.ErrMissingConfig)
	}
	return cfg, nil
}

func providerKey(provider string) string {
	var names []string
	switch provider {
	case "openai":
		names = []string{"OPENAI_API_KEY"}
	case "anthropic":
		names = []string{"ANTHROPIC_API_KEY"}
	default:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"}
	}
	for _, name := range names {
		_ = viper.BindEnv("llm.env." + name, name)
		if v := viper.GetString("llm.env." + name); v != "" {
			return v
		}
	}
	return ""
}

// HealthPolicy returns the health scoring thresholds, starting from the
// defaults and overriding whatever health.* sets.
func HealthPolicy() (metrics.HealthPolicy, error) {
	policy := metrics.DefaultHealthPolicy()
	if !viper.IsSet("health") {
		return policy, nil
	}
	if err := viper.UnmarshalKey("health", &policy); err != nil {
		return policy, fmt.Errorf("%w: health: %w", common.ErrInvalidConfig, err)
	}
	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("%w: health: %w", common.ErrInvalidConfig, err)
	}
	return policy, nil
}

// MinPaymentPolicy returns the debt planner's minimum payment rule.
func MinPaymentPolicy() (metrics.MinPaymentPolicy, error) {
	policy := metrics.DefaultMinPaymentPolicy()
	for key, target := range map[string]*decimal.Decimal{
		"debt.min_payment_floor": &policy.Floor,
		"debt.min_payment_rate":  &policy.Rate,
	} {
		if !viper.IsSet(key) {
			continue
		}
		v, err := decimal.NewFromString(viper.GetString(key))
		if err != nil {
			return policy, fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, key, err)
		}
		if v.IsNegative() {
			return policy, fmt.Errorf("%w: %s cannot be negative", common.ErrInvalidConfig, key)
		}
		*target = v
	}
	return policy, nil
}

// PlaidConfig returns the Plaid credentials.
func PlaidConfig() plaid.Config {
	return plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
		BaseURL:     viper.GetString("plaid.base_url"),
	}
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	CatchUpSchedule string
	CertDir         string
	AllowedOrigins  []string
	TLSHosts        []string
	Port            int
	TLS             bool
}

// Server returns the HTTP API settings.
func Server() ServerConfig {
	return ServerConfig{
		Port:            viper.GetInt("server.port"),
		CatchUpSchedule: viper.GetString("server.catchup_schedule"),
		AllowedOrigins:  viper.GetStringSlice("server.allowed_origins"),
		TLS:             viper.GetBool("server.tls"),
		TLSHosts:        viper.GetStringSlice("server.tls_hosts"),
		CertDir:         ExpandPath(viper.GetString("server.cert_dir")),
	}
}
