package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"predicta/internal/config"
	"predicta/internal/forecast"
	"predicta/internal/geocode"
	"predicta/internal/insights"
	"predicta/internal/llm"
	"predicta/internal/logger"
	"predicta/internal/market"
	"predicta/internal/news"
	"predicta/internal/orchestrator"
	"predicta/internal/server"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for the intelligence dashboard",
		Long: `Start the Predicta API server.

The server provides:
  • Intelligence feed and scenario simulation endpoints
  • Market, news and prediction data proxies
  • Health check and status endpoints

Examples:
  # Start server on default port 8080
  predicta serve

  # Start on custom port
  predicta serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	cfg := config.Get()
	if port != 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}

	deps := server.Deps{}

	genClient, err := llm.NewClient(ctx, cfg.AI.Gemini)
	if err != nil {
		logger.Warn("generation backend disabled", "reason", err.Error())
	} else {
		deps.Intelligence = orchestrator.New(genClient,
			orchestrator.WithThinkingBudget(cfg.AI.Gemini.ThinkingBudget))
	}

	newsClient := news.NewClient(cfg.News)
	deps.Market = market.NewClient(cfg.Market, cfg.Cache.Quotes, cfg.Cache.Candles)
	deps.Insights = insights.NewService(cfg.AI.OpenAI, newsClient, deps.Market, cfg.Cache.Insights)
	deps.Forecast = forecast.NewService(cfg.AI.OpenAI, deps.Market, newsClient)
	deps.Geocode = geocode.NewClient(cfg.Geocode, cfg.Cache.Geocode)

	srv := server.New(cfg.Server, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
