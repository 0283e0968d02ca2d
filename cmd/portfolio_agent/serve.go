package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-generator/internal/config"
	"github.com/jonathan/portfolio-generator/internal/server"
	"github.com/jonathan/portfolio-generator/internal/server/ratelimit"
)

var (
	servePort  int
	serveFlags configFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that triggers generation runs (in the background or streamed as Server-Sent Events) and serves job status. Requests are authenticated with JWT bearer tokens signed with JWT_SECRET.`,
	RunE:  runServe,
}

func init() {
	serveFlags.bind(serveCmd, flagsBackends)
	serveCmd.Flags().StringVar(&serveFlags.values.APIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := serveFlags.resolve(cmd)
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	b, err := openBackend(ctx, cfg, false, logger)
	if err != nil {
		return err
	}

	orchestrator, closeClient, err := b.newOrchestrator(ctx, cfg)
	if err != nil {
		b.Close()
		return err
	}

	srv := server.New(server.Config{Port: servePort}, server.Dependencies{
		Generator:   orchestrator,
		Jobs:        b.store,
		Portfolios:  b.store,
		JWT:         server.NewJWTService(jwtConfig),
		RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Logger:      logger,
		OnShutdown: func() {
			closeClient()
			b.Close()
		},
	})

	return srv.Start(ctx)
}
