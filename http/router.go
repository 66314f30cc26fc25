package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	lnsms "github.com/lnsms/go"
	"github.com/lnsms/go/config"
	"github.com/lnsms/go/mcp"
)

// Route paths
const (
	HealthPath   = "/"
	SSEPath      = "/sse"
	MessagesPath = "/messages"
	MCPPath      = "/mcp"
	WebhookPath  = "/webhooks/opennode"
)

// HealthMessage is the liveness payload.
const HealthMessage = "Good and healthy!"

// RouterConfig configures NewRouter
type RouterConfig struct {
	// Service runs the workflow with the process settings
	Service *lnsms.Service

	// Settings are the process settings, used by the webhook and as the
	// session fallback
	Settings lnsms.Settings

	// SessionConfig enables per-connection settings
	SessionConfig bool

	// Logger for requests and handlers (optional)
	Logger *slog.Logger

	// ServerOptions are passed to every mcp.NewServer call
	ServerOptions []mcp.ServerOption
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	r.GET(HealthPath, health)
	r.POST(HealthPath, health)

	servers := newServerFactory(cfg, logger)

	sse := mcpsdk.NewSSEHandler(servers.forRequest, nil)
	r.GET(SSEPath, gin.WrapH(sse))
	r.POST(SSEPath, gin.WrapH(sse))
	r.POST(MessagesPath, gin.WrapH(sse))

	streamable := mcpsdk.NewStreamableHTTPHandler(servers.forRequest, nil)
	r.Any(MCPPath, gin.WrapH(streamable))

	wh := &webhookHandler{svc: cfg.Service, apiKey: cfg.Settings.OpenNodeAPIKey, logger: logger}
	r.POST(WebhookPath, wh.handle)

	return r
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": HealthMessage})
}

// serverFactory hands the MCP handlers a server for each new connection.
type serverFactory struct {
	cfg    RouterConfig
	logger *slog.Logger
	shared *mcpsdk.Server
}

func newServerFactory(cfg RouterConfig, logger *slog.Logger) *serverFactory {
	opts := append([]mcp.ServerOption{mcp.WithLogger(logger)}, cfg.ServerOptions...)
	cfg.ServerOptions = opts
	return &serverFactory{
		cfg:    cfg,
		logger: logger,
		shared: mcp.NewServer(cfg.Service, opts...),
	}
}

// forRequest returns nil, which the SDK answers with 400, when the
// connection carries invalid session settings.
func (f *serverFactory) forRequest(req *http.Request) *mcpsdk.Server {
	if !f.cfg.SessionConfig {
		return f.shared
	}

	settings, err := config.ParseSessionSettings(req, f.cfg.Settings)
	if err != nil {
		f.logger.Warn("rejected session config", "path", req.URL.Path, "error", err)
		return nil
	}
	svc := f.cfg.Service.WithSettingsProvider(lnsms.StaticSettings(settings))
	return mcp.NewServer(svc, f.cfg.ServerOptions...)
}
