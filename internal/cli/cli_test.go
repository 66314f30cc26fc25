package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lnsms/go/config"
)

func TestVersionCmd(t *testing.T) {
	cmd := newVersionCmd("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := out.String(); got != "lnsms 1.2.3\n" {
		t.Errorf("Expected version line, got %q", got)
	}
}

func TestServeFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("MCP_TRANSPORT", "sse")
	t.Setenv("PORT", "7000")

	cmd := &cobra.Command{Use: "serve"}
	addServeFlags(cmd)
	if err := cmd.ParseFlags([]string{"--transport", "streamable", "--log-format", "json", "--redis-ttl", "7200"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	v := viper.New()
	if err := bindFlags(v, cmd, serveFlags); err != nil {
		t.Fatalf("Failed to bind flags: %v", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Transport != config.TransportStreamable {
		t.Errorf("Expected flag transport, got %s", cfg.Server.Transport)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Expected env port 7000, got %d", cfg.Server.Port)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected json log format, got %s", cfg.Log.Format)
	}
	if cfg.Store.Kind != config.StoreMemory {
		t.Errorf("Expected default memory store, got %s", cfg.Store.Kind)
	}
	if cfg.Store.RedisTTL != 2*time.Hour {
		t.Errorf("Expected --redis-ttl 7200 to mean 2h, got %s", cfg.Store.RedisTTL)
	}
}

func TestOpenStoreRejectsBadRedisURL(t *testing.T) {
	_, _, err := openStore(t.Context(), config.StoreConfig{Kind: config.StoreRedis, RedisURL: "nope://"}, nil)
	if err == nil || !strings.Contains(err.Error(), "invalid REDIS_URL") {
		t.Errorf("Expected invalid REDIS_URL error, got %v", err)
	}
}
