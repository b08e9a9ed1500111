// Command stability-mcp serves Stability AI image generation and editing
// tools over the Model Context Protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/lydakis/stability-mcp/internal/config"
	"github.com/lydakis/stability-mcp/internal/dispatch"
	"github.com/lydakis/stability-mcp/internal/keypool"
	"github.com/lydakis/stability-mcp/internal/mcpserver"
	"github.com/lydakis/stability-mcp/internal/metrics"
	"github.com/lydakis/stability-mcp/internal/registry"
	"github.com/lydakis/stability-mcp/internal/sse"
	"github.com/lydakis/stability-mcp/internal/stability"
	"github.com/lydakis/stability-mcp/internal/tools"
)

const serverName = "stability-mcp"

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "stability-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet(serverName, flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path (default "+config.ExampleConfigPath()+")")
	transport := fs.String("transport", "", "transport: stdio, http, or sse (overrides config)")
	host := fs.String("host", "", "listen host for http and sse transports (overrides config)")
	port := fs.Int("port", 0, "listen port for http and sse transports (overrides config)")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Printf("%s %s\n", serverName, version)
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)

	keys, err := keypool.New(cfg.Keys()...)
	if err != nil {
		return err
	}

	client := stability.New(cfg.Stability.BaseURL)
	reg := registry.New()
	if err := tools.NewCatalog(client, keys, cfg.Engine).Register(reg); err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	logger.Info("starting",
		"version", version,
		"transport", cfg.Server.Transport,
		"tools", reg.Len(),
		"api_keys", keys.Size(),
	)

	switch cfg.Server.Transport {
	case config.TransportStdio:
		return mcpserver.ServeStdio(mcpserver.New(reg, serverName, version))

	case config.TransportHTTP:
		banner(cfg)
		return mcpserver.ServeHTTP(mcpserver.New(reg, serverName, version), cfg.ListenAddr())

	case config.TransportSSE:
		banner(cfg)
		m := metrics.New()
		d := dispatch.New(reg, m, logger, dispatch.Config{
			ServerName:     serverName,
			ServerVersion:  version,
			CallTimeout:    cfg.Server.CallTimeout,
			MaxConnections: cfg.Server.MaxConnections,
			IdleTimeout:    cfg.Server.IdleTimeout,
		})
		srv := sse.NewServer(d, m, logger, sse.Options{
			SSEPath:           cfg.Server.SSEPath,
			MessagePath:       cfg.Server.MessagePath,
			MaxConnections:    cfg.Server.MaxConnections,
			IdleTimeout:       cfg.Server.IdleTimeout,
			HeartbeatInterval: cfg.Server.HeartbeatInterval,
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, cfg.ListenAddr())

	default:
		return fmt.Errorf("unknown transport %q", cfg.Server.Transport)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// newLogger builds the process logger. Logs always go to stderr so the
// stdio transport keeps stdout clean for protocol frames.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Development() {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// banner prints a startup line for the network transports. Suppressed on
// stdio, where stderr chatter beyond structured logs is unwelcome.
func banner(cfg *config.Config) {
	bold := color.New(color.FgCyan, color.Bold)
	bold.Fprintf(os.Stderr, "%s %s\n", serverName, version)
	fmt.Fprintf(os.Stderr, "  transport  %s\n", cfg.Server.Transport)
	fmt.Fprintf(os.Stderr, "  listening  %s\n", color.GreenString(cfg.ListenAddr()))
	if cfg.Server.Transport == config.TransportSSE {
		fmt.Fprintf(os.Stderr, "  sse        %s\n", cfg.Server.SSEPath)
		fmt.Fprintf(os.Stderr, "  messages   %s\n", cfg.Server.MessagePath)
	}
}
