package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	lnsms "github.com/lnsms/go"
	"github.com/lnsms/go/config"
	lnhttp "github.com/lnsms/go/http"
	"github.com/lnsms/go/mcp"
	"github.com/lnsms/go/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server.

Examples:
  lnsms serve                          # SSE on 0.0.0.0:8000
  lnsms serve --transport streamable --port 9000
  lnsms serve --transport stdio
  lnsms serve --store redis --redis-url redis://localhost:6379/0`,
	RunE: runServe,
}

// serveFlags maps flag names to configuration keys.
var serveFlags = map[string]string{
	"host":           config.KeyHost,
	"port":           config.KeyPort,
	"transport":      config.KeyTransport,
	"store":          config.KeyStore,
	"redis-url":      config.KeyRedisURL,
	"redis-ttl":      config.KeyRedisTTL,
	"log-level":      config.KeyLogLevel,
	"log-format":     config.KeyLogFormat,
	"session-config": config.KeySessionConfig,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "0.0.0.0", "listen host")
	cmd.Flags().Int("port", 8000, "listen port")
	cmd.Flags().String("transport", config.TransportSSE, "MCP transport (sse, streamable, stdio)")
	cmd.Flags().String("store", config.StoreMemory, "registry backend (memory, redis)")
	cmd.Flags().String("redis-url", "redis://localhost:6379/0", "Redis URL for --store redis")
	cmd.Flags().String("redis-ttl", "0", "expire Redis records after this many seconds, or a duration like 24h (0 keeps them)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "text", "log format (text, json)")
	cmd.Flags().Bool("session-config", false, "let HTTP sessions supply their own credentials")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	v := viper.New()
	if err := bindFlags(v, cmd, serveFlags); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	// stdout belongs to the protocol under stdio
	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := lnsms.NewService(store, config.ProviderBackends{}, lnsms.StaticSettings(cfg.Settings),
		lnsms.WithLogger(logger))

	serverOpts := []mcp.ServerOption{mcp.WithLogger(logger), mcp.WithVersion(rootCmd.Version)}

	logger.Info("starting lnsms",
		"version", rootCmd.Version,
		"transport", cfg.Server.Transport,
		"store", cfg.Store.Kind,
		"price_usd", cfg.Settings.SMSPrice.StringFixed(2),
		"session_config", cfg.SessionConfig,
	)

	if cfg.Server.Transport == config.TransportStdio {
		server := mcp.NewServer(svc, serverOpts...)
		if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && ctx.Err() == nil {
			return fmt.Errorf("stdio server failed: %w", err)
		}
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	router := lnhttp.NewRouter(lnhttp.RouterConfig{
		Service:       svc,
		Settings:      cfg.Settings,
		SessionConfig: cfg.SessionConfig,
		Logger:        logger,
		ServerOptions: serverOpts,
	})
	return lnhttp.ListenAndServe(ctx, cfg.Server.Addr(), router, logger)
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (lnsms.Store, func(), error) {
	if cfg.Kind != config.StoreRedis {
		return registry.NewMemoryStore(), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis unreachable: %w", err)
	}

	store := registry.NewRedisStore(client,
		registry.WithTTL(cfg.RedisTTL),
		registry.WithRedisLogger(logger),
	)
	return store, func() { _ = client.Close() }, nil
}
