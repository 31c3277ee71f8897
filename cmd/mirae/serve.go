package mirae

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mirae-labs/go-mirae"
	"github.com/mirae-labs/go-mirae/pkg/config"
	"github.com/mirae-labs/go-mirae/pkg/logger"
	"github.com/mirae-labs/go-mirae/pkg/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP reading server",
	Long: `Start the HTTP server exposing the reading API.

Endpoints:
- POST /v1/ask          synchronous reading
- POST /v1/ask/stream   server-sent-events reading
- GET  /v1/stats        operational counters
- POST /v1/feedback     rule feedback weights
- GET  /health          liveness check`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
	serveMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serveMode, "mode", "debug", "Server mode (debug, release, test)")
	serveCmd.Flags().String("rules-dir", "", "Directory of curated rule files")
	serveCmd.Flags().String("graph-json", "", "Path to a JSON knowledge graph snapshot")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serveMode
	}
	if dir, _ := cmd.Flags().GetString("rules-dir"); dir != "" {
		cfg.Rules.Dir = dir
	}
	if path, _ := cmd.Flags().GetString("graph-json"); path != "" {
		cfg.Graph.JSONPath = path
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	client, err := mirae.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	defer client.Close()

	srv := server.New(cfg, client, log)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info("server stopped gracefully")
		return nil
	}
}
