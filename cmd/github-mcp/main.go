// Command github-mcp serves the GitHub tools (get_user, create_repo,
// push_to_repo) to MCP clients over stdio or HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github-mcp/internal/config"
	"github-mcp/internal/github"
	"github-mcp/internal/logging"
	"github-mcp/internal/server"
	"github-mcp/internal/telemetry"
	"github-mcp/internal/tools"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configFile  string
		envFile     string
		transport   string
		addr        string
		logLevel    string
		traces      string
		showVersion bool
	)
	fs := pflag.NewFlagSet("github-mcp", pflag.ContinueOnError)
	fs.StringVar(&configFile, "config", "", "path to a YAML config file")
	fs.StringVar(&envFile, "env-file", ".env", "path to a dotenv file (ignored if missing)")
	fs.StringVar(&transport, "transport", "", "transport to serve: stdio or http")
	fs.StringVar(&addr, "addr", "", "listen address for the http transport")
	fs.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	fs.StringVar(&traces, "trace-exporter", "", "trace exporter: none or stdout (stderr)")
	fs.BoolVar(&showVersion, "version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("github-mcp", version)
		return nil
	}

	cfg, err := config.Load(config.Sources{
		File:           configFile,
		EnvFile:        envFile,
		RequireEnvFile: fs.Changed("env-file"),
	})
	if err != nil {
		return err
	}
	if fs.Changed("transport") {
		cfg.Transport = transport
	}
	if fs.Changed("addr") {
		cfg.Addr = addr
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if fs.Changed("trace-exporter") {
		cfg.TraceExporter = traces
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logs := logging.NewFactory(os.Stderr, level, cfg.LogFormat)
	logger := logs.Logger("main")
	logger.Info("starting github-mcp", "version", version, "config", cfg)

	tp, err := telemetry.Setup(telemetry.Config{
		Exporter:       cfg.TraceExporter,
		ServiceName:    "github-mcp",
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("flushing traces", "error", err)
		}
	}()

	client, err := github.NewClient(github.Config{
		BaseURL:    cfg.GitHubAPIURL,
		Token:      cfg.GitHubToken,
		APIVersion: cfg.APIVersion,
		UserAgent:  cfg.UserAgent,
		HTTPClient: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Logger: logs.Logger("github"),
	})
	if err != nil {
		return err
	}
	logger.Info("github client ready", "base_url", client.BaseURL())
	dispatcher := tools.NewDispatcher(client,
		tools.WithLogger(logs.Logger("tools")),
		tools.WithTracerProvider(tp),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport {
	case config.TransportHTTP:
		return serveHTTP(ctx, cfg, dispatcher, logs)
	default:
		h := server.NewHandler(dispatcher, version)
		logger.Info("serving MCP over stdio")
		return server.ServeStdio(ctx, h, os.Stdin, os.Stdout, logs.StdLogger("stdio", logging.LevelError))
	}
}

func serveHTTP(ctx context.Context, cfg config.Config, caller server.Caller, logs *logging.Factory) error {
	logger := logs.Logger("http")
	if cfg.ServerToken == "" {
		logger.Warn("MCP_TOKEN not set; endpoints will be open. Set MCP_TOKEN to secure.")
	}
	srv := server.New(server.Config{Token: cfg.ServerToken}, caller, logger)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(srv.Router(), "github-mcp"),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logs.StdLogger("http", logging.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSCertFile != "" {
			logger.Info("starting MCP HTTP server", "addr", cfg.Addr, "tls", true)
			errCh <- httpServer.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		logger.Warn("TLS_CERT_FILE and TLS_KEY_FILE not set; serving plain HTTP. Run behind a TLS-terminating proxy.")
		logger.Info("starting MCP HTTP server", "addr", cfg.Addr, "tls", false)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
