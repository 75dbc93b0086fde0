// Command screeps-world-mcp serves the Screeps World Web API over MCP.
//
// It supports two modes:
//  1. "stdio" (default) – MCP over stdin/stdout for local agent runtimes
//  2. "http" – an HTTP server exposing /mcp, /metrics, /ws and diagnostics,
//     optionally published through an ngrok tunnel
//
// Settings come from flags, SCREEPS_* environment variables and an optional
// .env file. The server refuses to start without an API token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/screeps-world-mcp/api"
	"github.com/wricardo/screeps-world-mcp/game/config"
	"github.com/wricardo/screeps-world-mcp/game/gateway"
	"github.com/wricardo/screeps-world-mcp/telemetry"
	"github.com/wricardo/screeps-world-mcp/transport/mcp"
	"github.com/wricardo/screeps-world-mcp/transport/websocket"
)

// Version information
const (
	Version = mcp.ServerVersion
	AppName = "Screeps World MCP Server"
)

func main() {
	// Load .env file if it exists. Logging is not configured yet and stdout
	// belongs to the MCP channel, so problems go to stderr.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "screeps-world-mcp",
		Usage:   "MCP server for Screeps World Web API access",
		Version: Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "stdio",
				Usage:  "Serve MCP over stdin/stdout (default)",
				Action: runStdio,
			},
			{
				Name:   "http",
				Usage:  "Serve MCP over HTTP with metrics, live call feed and diagnostics",
				Flags:  httpFlags(),
				Action: runHTTP,
			},
		},
		Action: runStdio,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "base-url", Usage: "Screeps API base URL (env " + config.EnvBaseURL + ")"},
		&cli.StringFlag{Name: "token", Usage: "Screeps API token (env " + config.EnvToken + ")"},
		&cli.StringFlag{Name: "username", Usage: "Username sent as X-Username (env " + config.EnvUsername + ")"},
		&cli.DurationFlag{Name: "loop-window", Usage: "Loop detection window (env " + config.EnvLoopWindow + ")"},
		&cli.IntFlag{Name: "loop-threshold", Usage: "Identical calls within the window that trigger a block, 0 disables (env " + config.EnvLoopThreshold + ")"},
		&cli.DurationFlag{Name: "http-timeout", Usage: "Timeout for Screeps API requests (env " + config.EnvHTTPTimeout + ")"},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
		&cli.StringFlag{Name: "log-encoding", Value: "json", Usage: "Log encoding (json, console)", Sources: cli.EnvVars("LOG_ENCODING")},
		&cli.StringFlag{Name: "log-file", Usage: "Also write logs to this rotating file", Sources: cli.EnvVars("LOG_FILE")},
	}
}

func httpFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host"},
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

// resolveSettings layers explicitly set flags over the environment and the
// defaults, then validates the result.
func resolveSettings(cmd *cli.Command) (config.Settings, error) {
	settings, err := config.FromEnv()
	if err != nil {
		return settings, err
	}

	if cmd.IsSet("base-url") {
		settings.BaseURL = cmd.String("base-url")
	}
	if cmd.IsSet("token") {
		settings.Token = cmd.String("token")
	}
	if cmd.IsSet("username") {
		settings.Username = cmd.String("username")
	}
	if cmd.IsSet("loop-window") {
		settings.LoopWindow = cmd.Duration("loop-window")
	}
	if cmd.IsSet("loop-threshold") {
		settings.LoopThreshold = int(cmd.Int("loop-threshold"))
	}
	if cmd.IsSet("http-timeout") {
		settings.HTTPTimeout = cmd.Duration("http-timeout")
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	if err := settings.RequireToken(); err != nil {
		return settings, err
	}
	return settings, nil
}

// app holds the wired components shared by both modes.
type app struct {
	logger      *zap.Logger
	credentials *config.Manager
	tracker     *gateway.Tracker
	metrics     *telemetry.Metrics
	hub         *websocket.Hub
	client      *mcp.Client
}

// buildApp wires credentials, tracker, executor, gateway and the MCP client.
// The hub is optional and only used in http mode.
func buildApp(settings config.Settings, logger *zap.Logger, hub *websocket.Hub) (*app, error) {
	credentials, err := config.NewManager(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential manager: %w", err)
	}

	tracker := gateway.NewTracker(settings.LoopWindow, settings.LoopThreshold)
	metrics := telemetry.NewMetrics(nil)
	metrics.RegisterTrackerGauge(tracker)

	observers := []gateway.Observer{metrics}
	if hub != nil {
		observers = append(observers, hub)
	}

	exec := gateway.NewExecutor(credentials.BaseURL(), credentials, &http.Client{Timeout: settings.HTTPTimeout})
	gw := gateway.New(exec, tracker,
		gateway.WithLogger(logger.Named("gateway")),
		gateway.WithObserver(observers...),
	)

	return &app{
		logger:      logger,
		credentials: credentials,
		tracker:     tracker,
		metrics:     metrics,
		hub:         hub,
		client:      mcp.NewClient(gw, credentials, logger.Named("mcp")),
	}, nil
}

func setup(cmd *cli.Command) (config.Settings, *zap.Logger, func(), error) {
	logger, cleanup, err := telemetry.NewLogger(telemetry.LogConfig{
		Level:    cmd.String("log-level"),
		Encoding: cmd.String("log-encoding"),
		File:     cmd.String("log-file"),
	})
	if err != nil {
		return config.Settings{}, nil, nil, err
	}

	settings, err := resolveSettings(cmd)
	if err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			logger.Error("no token found, set the SCREEPS_TOKEN environment variable and try again")
		}
		cleanup()
		return settings, nil, nil, err
	}

	logger.Info("starting",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("command", cmd.Name),
		zap.String("base_url", settings.BaseURL),
		zap.Duration("loop_window", settings.LoopWindow),
		zap.Int("loop_threshold", settings.LoopThreshold))
	return settings, logger, cleanup, nil
}

// runStdio serves MCP over stdio until stdin closes or a signal arrives.
func runStdio(ctx context.Context, cmd *cli.Command) error {
	settings, logger, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	a, err := buildApp(settings, logger, nil)
	if err != nil {
		return err
	}

	logger.Info("MCP stdio server ready")
	if err := server.ServeStdio(a.client.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runHTTP starts the HTTP server and, if enabled, an ngrok tunnel serving the
// same router.
func runHTTP(ctx context.Context, cmd *cli.Command) error {
	settings, logger, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub(logger.Named("feed"))
	go hub.Run(ctx)

	a, err := buildApp(settings, logger, hub)
	if err != nil {
		return err
	}

	router := api.NewServer(a.client, a.credentials, api.Options{
		Hub:     a.hub,
		Metrics: a.metrics,
		Logger:  logger.Named("api"),
	})

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: settings.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)),
			zap.String("metrics", fmt.Sprintf("http://%s/metrics", addr)),
			zap.String("feed", fmt.Sprintf("ws://%s/ws?path=<api path>", addr)))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, logger.Named("ngrok"), cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), router)
		}()
	}

	select {
	case sig := <-stop:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err = <-serverErr:
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(shutdownErr))
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// runNgrok publishes handler through an ngrok tunnel until ctx is cancelled.
func runNgrok(ctx context.Context, logger *zap.Logger, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", zap.String("domain", domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("mcp", url+"/mcp"),
		zap.String("feed", url+"/ws"))

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}
