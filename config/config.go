// Package config loads process configuration from the environment, an
// optional .env file and CLI flags, and resolves per-session settings for
// MCP connections that carry their own credentials.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	lnsms "github.com/lnsms/go"
	"github.com/lnsms/go/opennode"
)

// Transport names
const (
	TransportSSE        = "sse"
	TransportStreamable = "streamable"
	TransportStdio      = "stdio"
)

// Store kinds
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Configuration keys. Each maps to the upper-cased environment variable.
const (
	KeyOpenNodeAPIKey    = "opennode_api_key"
	KeyOpenNodeBaseURL   = "opennode_base_url"
	KeyTwilioAccountSID  = "twilio_account_sid"
	KeyTwilioAuthToken   = "twilio_auth_token"
	KeyTwilioPhoneNumber = "twilio_phone_number"
	KeySMSPrice          = "sms_price_usd"
	KeyWebhookURL        = "webhook_url"
	KeyHost              = "host"
	KeyPort              = "port"
	KeyTransport         = "mcp_transport"
	KeyStore             = "store"
	KeyRedisURL          = "redis_url"
	KeyRedisTTL          = "redis_ttl"
	KeyLogLevel          = "log_level"
	KeyLogFormat         = "log_format"
	KeySessionConfig     = "session_config"
)

// DefaultSMSPrice is the per-message price in USD.
const DefaultSMSPrice = "0.10"

// Config is the resolved process configuration.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Log    LogConfig

	// SessionConfig lets MCP HTTP sessions override provider settings.
	SessionConfig bool

	// Settings are the process-wide provider credentials and pricing.
	Settings lnsms.Settings
}

// ServerConfig controls the transport listener.
type ServerConfig struct {
	Host      string
	Port      int
	Transport string
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig selects the registry backend.
type StoreConfig struct {
	Kind     string
	RedisURL string
	RedisTTL time.Duration
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string
	Format string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyOpenNodeBaseURL, opennode.DefaultBaseURL)
	v.SetDefault(KeySMSPrice, DefaultSMSPrice)
	v.SetDefault(KeyHost, "0.0.0.0")
	v.SetDefault(KeyPort, 8000)
	v.SetDefault(KeyTransport, TransportSSE)
	v.SetDefault(KeyStore, StoreMemory)
	v.SetDefault(KeyRedisURL, "redis://localhost:6379/0")
	v.SetDefault(KeyRedisTTL, "0")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeySessionConfig, false)
}

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment. Missing files are ignored; existing variables are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// Load resolves the configuration from v. Flags bound to v take precedence
// over environment variables, which take precedence over defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	price, err := ParsePrice(v.GetString(KeySMSPrice))
	if err != nil {
		return nil, err
	}
	ttl, err := ParseTTL(v.GetString(KeyRedisTTL))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:      v.GetString(KeyHost),
			Port:      v.GetInt(KeyPort),
			Transport: strings.ToLower(v.GetString(KeyTransport)),
		},
		Store: StoreConfig{
			Kind:     strings.ToLower(v.GetString(KeyStore)),
			RedisURL: v.GetString(KeyRedisURL),
			RedisTTL: ttl,
		},
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		SessionConfig: v.GetBool(KeySessionConfig),
		Settings: lnsms.Settings{
			OpenNodeAPIKey:    v.GetString(KeyOpenNodeAPIKey),
			OpenNodeBaseURL:   v.GetString(KeyOpenNodeBaseURL),
			TwilioAccountSID:  v.GetString(KeyTwilioAccountSID),
			TwilioAuthToken:   v.GetString(KeyTwilioAuthToken),
			TwilioPhoneNumber: v.GetString(KeyTwilioPhoneNumber),
			SMSPrice:          price,
			CallbackURL:       v.GetString(KeyWebhookURL),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges. Credentials are checked lazily
// by the operations that need them.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportSSE, TransportStreamable, TransportStdio:
	default:
		return fmt.Errorf("invalid %s %q: want sse, streamable or stdio", strings.ToUpper(KeyTransport), c.Server.Transport)
	}
	switch c.Store.Kind {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid %s %q: want memory or redis", strings.ToUpper(KeyStore), c.Store.Kind)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid %s %d", strings.ToUpper(KeyPort), c.Server.Port)
	}
	if c.Store.RedisTTL < 0 || (c.Store.RedisTTL > 0 && c.Store.RedisTTL < time.Second) {
		return fmt.Errorf("invalid %s %s: want 0 or at least 1s", strings.ToUpper(KeyRedisTTL), c.Store.RedisTTL)
	}
	return nil
}

// ParseTTL parses a record TTL. Whole numbers are seconds; anything else
// must be a Go duration such as "24h".
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	ttl, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: want seconds or a duration like 24h", strings.ToUpper(KeyRedisTTL), s)
	}
	return ttl, nil
}

// ParsePrice parses a positive decimal price.
func ParsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid SMS_PRICE_USD %q: %w", s, err)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("invalid SMS_PRICE_USD %q: must be positive", s)
	}
	return price, nil
}

// NewLogger builds the process logger. Format is "json" or "text".
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
