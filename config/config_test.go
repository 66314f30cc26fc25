package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lnsms "github.com/lnsms/go"
	"github.com/lnsms/go/opennode"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, TransportSSE, cfg.Server.Transport)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Zero(t, cfg.Store.RedisTTL)
	assert.False(t, cfg.SessionConfig)
	assert.Equal(t, "0.1", cfg.Settings.SMSPrice.String())
	assert.Equal(t, opennode.DefaultBaseURL, cfg.Settings.OpenNodeBaseURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OPENNODE_API_KEY", "on-key")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "+15550000000")
	t.Setenv("SMS_PRICE_USD", "0.25")
	t.Setenv("WEBHOOK_URL", "https://example.com/webhooks/opennode")
	t.Setenv("PORT", "9000")
	t.Setenv("MCP_TRANSPORT", "Streamable")
	t.Setenv("STORE", "redis")
	t.Setenv("REDIS_TTL", "24h")
	t.Setenv("SESSION_CONFIG", "true")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "on-key", cfg.Settings.OpenNodeAPIKey)
	assert.Equal(t, "AC1", cfg.Settings.TwilioAccountSID)
	assert.Equal(t, "tok", cfg.Settings.TwilioAuthToken)
	assert.Equal(t, "+15550000000", cfg.Settings.TwilioPhoneNumber)
	assert.Equal(t, "0.25", cfg.Settings.SMSPrice.String())
	assert.Equal(t, "https://example.com/webhooks/opennode", cfg.Settings.CallbackURL)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, TransportStreamable, cfg.Server.Transport)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.Equal(t, 24*time.Hour, cfg.Store.RedisTTL)
	assert.True(t, cfg.SessionConfig)
}

func TestLoadRedisTTLUnits(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"3600", time.Hour},
		{"0", 0},
		{"90m", 90 * time.Minute},
		{" 86400 ", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("REDIS_TTL", tt.value)
			cfg, err := Load(viper.New())
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Store.RedisTTL)
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"transport", "MCP_TRANSPORT", "websocket"},
		{"store", "STORE", "postgres"},
		{"price not a number", "SMS_PRICE_USD", "ten cents"},
		{"price not positive", "SMS_PRICE_USD", "0"},
		{"port", "PORT", "70000"},
		{"redis ttl not a duration", "REDIS_TTL", "a day"},
		{"redis ttl negative", "REDIS_TTL", "-5"},
		{"redis ttl under a second", "REDIS_TTL", "500ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LNSMS_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LNSMS_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("LNSMS_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")), "missing file is not an error")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "charge_id", "ch_1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"charge_id":"ch_1"`)
}

func baseSettings() lnsms.Settings {
	price, _ := ParsePrice("0.10")
	return lnsms.Settings{
		OpenNodeAPIKey:    "process-key",
		TwilioAccountSID:  "AC-process",
		TwilioAuthToken:   "process-token",
		TwilioPhoneNumber: "+15550000000",
		SMSPrice:          price,
	}
}

func baseSettingsWithCallback() lnsms.Settings {
	s := baseSettings()
	s.CallbackURL = "https://example.com/webhooks/opennode"
	return s
}

func TestParseSessionSettingsEncoded(t *testing.T) {
	doc := `{"opennode_api_key":"session-key","twilio_account_sid":"AC-session","twilio_auth_token":"session-token",` +
		`"twilio_phone_number":"+15559999999","sms_price_usd":0.5}`
	encoded := base64.StdEncoding.EncodeToString([]byte(doc))
	r := httptest.NewRequest("GET", "/sse?config="+encoded, nil)

	settings, err := ParseSessionSettings(r, baseSettingsWithCallback())
	require.NoError(t, err)

	assert.Equal(t, "session-key", settings.OpenNodeAPIKey)
	assert.Equal(t, "AC-session", settings.TwilioAccountSID)
	assert.Equal(t, "session-token", settings.TwilioAuthToken)
	assert.Equal(t, "+15559999999", settings.TwilioPhoneNumber)
	assert.Equal(t, "0.5", settings.SMSPrice.String())
	assert.Empty(t, settings.CallbackURL, "session-keyed charges get no webhook")
}

func TestParseSessionSettingsPlainQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/mcp?opennode_api_key=session-key&twilio_account_sid=AC-session"+
		"&twilio_auth_token=session-token&twilio_phone_number=%2B15559999999", nil)

	settings, err := ParseSessionSettings(r, baseSettings())
	require.NoError(t, err)

	assert.Equal(t, "session-key", settings.OpenNodeAPIKey)
	assert.Equal(t, "AC-session", settings.TwilioAccountSID)
	assert.Equal(t, "+15559999999", settings.TwilioPhoneNumber)
	assert.Equal(t, "0.1", settings.SMSPrice.String(), "absent price falls back")
}

func TestParseSessionSettingsPriceOnly(t *testing.T) {
	r := httptest.NewRequest("GET", "/mcp?sms_price_usd=0.20", nil)

	settings, err := ParseSessionSettings(r, baseSettingsWithCallback())
	require.NoError(t, err)

	assert.Equal(t, "0.2", settings.SMSPrice.String())
	assert.Equal(t, "process-key", settings.OpenNodeAPIKey)
	assert.Equal(t, "AC-process", settings.TwilioAccountSID)
	assert.Equal(t, "https://example.com/webhooks/opennode", settings.CallbackURL)
}

func TestParseSessionSettingsRejectsPartialCredentials(t *testing.T) {
	queries := []string{
		"opennode_api_key=session-key",
		"opennode_api_key=session-key&twilio_account_sid=AC-session&twilio_auth_token=session-token",
		"twilio_phone_number=%2B15559999999",
		"config=" + base64.StdEncoding.EncodeToString([]byte(`{"twilio_account_sid":"AC-session","twilio_auth_token":"t"}`)),
	}

	for _, query := range queries {
		r := httptest.NewRequest("GET", "/sse?"+query, nil)
		settings, err := ParseSessionSettings(r, baseSettings())

		var sessionErr *SessionSettingsError
		require.True(t, errors.As(err, &sessionErr), "query %s: got %v", query, err)
		assert.Contains(t, err.Error(), "incomplete")
		assert.Equal(t, "AC-process", settings.TwilioAccountSID)
	}
}

func TestParseSessionSettingsAbsent(t *testing.T) {
	r := httptest.NewRequest("GET", "/sse", nil)

	settings, err := ParseSessionSettings(r, baseSettings())
	require.NoError(t, err)
	assert.Equal(t, baseSettings(), settings)
}

func TestParseSessionSettingsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"not base64", "config=!!!"},
		{"not json", "config=" + base64.StdEncoding.EncodeToString([]byte("nope"))},
		{"wrong type", "config=" + base64.StdEncoding.EncodeToString([]byte(`{"opennode_api_key":42}`))},
		{"bad phone", "twilio_phone_number=5551234"},
		{"bad price", "sms_price_usd=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/sse?"+tt.query, nil)
			_, err := ParseSessionSettings(r, baseSettings())

			var sessionErr *SessionSettingsError
			assert.True(t, errors.As(err, &sessionErr), "got %v", err)
		})
	}
}

func TestProviderBackends(t *testing.T) {
	backends := ProviderBackends{}
	var cfgErr *lnsms.ConfigurationError

	_, err := backends.ChargeGateway(lnsms.Settings{})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "OPENNODE_API_KEY not set", err.Error())

	gateway, err := backends.ChargeGateway(baseSettings())
	require.NoError(t, err)
	assert.IsType(t, &opennode.Client{}, gateway)

	_, err = backends.MessageSender(lnsms.Settings{TwilioAccountSID: "AC1"})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "TWILIO credentials not set", err.Error())

	sender, err := backends.MessageSender(baseSettings())
	require.NoError(t, err)
	assert.NotNil(t, sender)
}
