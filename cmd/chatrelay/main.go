// Package main is the entry point for the chatrelay service.
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

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/howard-nolan/chatrelay/internal/chat"
	"github.com/howard-nolan/chatrelay/internal/config"
	"github.com/howard-nolan/chatrelay/internal/logx"
	"github.com/howard-nolan/chatrelay/internal/metrics"
	"github.com/howard-nolan/chatrelay/internal/provider"
	"github.com/howard-nolan/chatrelay/internal/server"
)

// shutdownGrace is how long in-flight requests get to finish on SIGTERM.
const shutdownGrace = 10 * time.Second

// CLI is the command-line surface. Everything else comes from config.
type CLI struct {
	Config string `short:"c" default:"config.yaml" type:"path" help:"Path to the YAML config file (optional)."`
	Port   int    `help:"Override server.port."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("chatrelay"),
		kong.Description("HTTP chat façade in front of the Gemini API."),
		kong.UsageOnError(),
	)

	if err := run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "chatrelay: %v\n", err)
		os.Exit(1)
	}
}

func run(cli CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cli.Port > 0 {
		cfg.Server.Port = cli.Port
	}

	logger := logx.Init(logx.Options{Environment: cfg.Environment, Level: cfg.Log.Level})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	p := buildProvider(ctx, cfg, logger)

	capability := chat.NewCapability(cfg.Provider.APIKey, p != nil, cfg.Provider.FakeModeEnabled())
	// Presence only; the key itself never reaches the logs.
	logger.Info().
		Bool("credential_present", capability.CredentialPresent).
		Bool("client_available", capability.ClientAvailable).
		Bool("allow_fake", capability.AllowFake).
		Strs("models", cfg.Provider.Models).
		Msg("provider capability")

	svc := chat.NewService(p, chat.Options{
		Models:         cfg.Provider.Models,
		AttemptTimeout: cfg.Provider.AttemptTimeout,
		Capability:     capability,
	}, m)

	srv := server.New(cfg, svc, logger, reg, m)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Environment.String()).Msg("chatrelay listening")
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

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildProvider constructs the configured provider client. A construction
// failure is not fatal: the service still starts and the capability gate
// routes every chat request to the fallback.
func buildProvider(ctx context.Context, cfg *config.Config, logger zerolog.Logger) provider.Provider {
	// The per-attempt deadline comes from the request context; this client
	// timeout is only a backstop for a provider that ignores it.
	httpClient := &http.Client{Timeout: 2 * cfg.Provider.AttemptTimeout}

	p, err := provider.New(ctx, provider.Settings{
		Client:  cfg.Provider.Client,
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
	}, httpClient)
	if err != nil {
		logger.Warn().Err(err).Str("client", cfg.Provider.Client).Msg("provider client unavailable")
		return nil
	}
	logger.Info().Str("provider", p.Name()).Msg("provider client ready")
	return p
}
