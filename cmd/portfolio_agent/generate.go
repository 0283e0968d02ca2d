package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/config"
	"github.com/jonathan/portfolio-generator/internal/observability"
	"github.com/jonathan/portfolio-generator/internal/parsing"
	"github.com/jonathan/portfolio-generator/internal/pipeline"
	"github.com/jonathan/portfolio-generator/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run portfolio generation synchronously",
	Long: `Runs the generation pipeline for one portfolio: fetch sources -> analyze repositories -> process documents -> narrate projects -> write about -> score code -> persist -> ATS score -> coaching.

Sources given as flags (--github-user, --resume, --linkedin) are connected to the user before the run.
With --dry-run everything runs against an in-process store and nothing is written to the database.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runGenerate,
}

var (
	generateFlags  configFlags
	generateDryRun bool
	generateJSON   bool
)

func init() {
	generateFlags.bind(generateCmd, flagsIdentity|flagsSources|flagsGeneration|flagsBackends)
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Use an in-process store seeded from flags instead of the database")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print the result as JSON")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := generateFlags.resolve(cmd)
	if err != nil {
		return err
	}

	// A dry run may invent its identities
	if generateDryRun {
		if cfg.UserID == "" {
			cfg.UserID = uuid.NewString()
		}
		if cfg.PortfolioID == "" {
			cfg.PortfolioID = uuid.NewString()
		}
		if cfg.GitHubUser == "" {
			return fmt.Errorf("--github-user is required for a dry run")
		}
	}
	if cfg.UserID == "" || cfg.PortfolioID == "" {
		return fmt.Errorf("--user-id and --portfolio-id are required (via flag or config)")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	userID := uuid.MustParse(cfg.UserID)
	portfolioID := uuid.MustParse(cfg.PortfolioID)

	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	b, err := openBackend(ctx, cfg, generateDryRun, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := connectSources(ctx, b.store, userID, cfg); err != nil {
		return err
	}

	orchestrator, closeClient, err := b.newOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeClient()

	printer := observability.NewPrinter(os.Stdout)
	opts := pipeline.RunOptions{
		OnJobCreated: func(jobID uuid.UUID) {
			logger.Info("generation job created", zap.Stringer("job_id", jobID))
		},
	}
	if cfg.Verbose && !generateJSON {
		opts.OnProgress = printer.PrintProgress
	}

	result, err := orchestrator.Generate(ctx, pipeline.Request{
		UserID:      userID,
		PortfolioID: portfolioID,
		Options:     cfg.GenerateOptions(),
	}, opts)
	if err != nil {
		return fmt.Errorf("generation failed (%s): %w", pipeline.KindOf(err), err)
	}

	if generateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printer.PrintSummary(result)
	if cfg.Verbose {
		snapshot, err := b.store.LoadPortfolio(ctx, portfolioID)
		if err != nil {
			return fmt.Errorf("failed to load generated portfolio: %w", err)
		}
		printSnapshot(printer, snapshot)
	}
	return nil
}

func printSnapshot(printer *observability.Printer, snapshot *types.PortfolioSnapshot) {
	printer.PrintProjects(snapshot.Projects)
	printer.PrintSkills(snapshot.Skills)
	if len(snapshot.AtsHistory) > 0 {
		printer.PrintAtsScore(&snapshot.AtsHistory[0])
	}
	printer.PrintCoaching(snapshot.LatestCoaching)
}

// sourceStore is the part of the store that records connected sources
type sourceStore interface {
	SaveGitHubSource(ctx context.Context, userID uuid.UUID, src *types.GitHubSource) error
	SaveDocumentSource(ctx context.Context, userID uuid.UUID, doc *types.DocumentSource) error
}

// connectSources stores the sources named in cfg as the user's connected sources. Documents
// are parsed first; a parse failure stores nothing for that document.
func connectSources(ctx context.Context, s sourceStore, userID uuid.UUID, cfg *config.Config) error {
	now := time.Now()
	if cfg.GitHubUser != "" {
		if err := s.SaveGitHubSource(ctx, userID, &types.GitHubSource{
			Username:    cfg.GitHubUser,
			AccessToken: cfg.GitHubToken,
			ConnectedAt: now,
		}); err != nil {
			return fmt.Errorf("failed to connect GitHub account: %w", err)
		}
	}

	documents := []struct {
		kind types.SourceKind
		path string
	}{
		{types.SourceKindResume, cfg.Resume},
		{types.SourceKindLinkedIn, cfg.LinkedIn},
	}
	for _, d := range documents {
		if d.path == "" {
			continue
		}
		doc, err := parseDocument(d.kind, d.path)
		if err != nil {
			return err
		}
		doc.UploadedAt = now
		if err := s.SaveDocumentSource(ctx, userID, doc); err != nil {
			return fmt.Errorf("failed to store %s: %w", d.kind, err)
		}
	}
	return nil
}

// parseDocument reads and parses a resume or LinkedIn file
func parseDocument(kind types.SourceKind, path string) (*types.DocumentSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", kind, err)
	}
	name := filepath.Base(path)
	facts, err := parsing.Parse(kind, data, name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", kind, err)
	}
	return &types.DocumentSource{Kind: kind, FileName: name, Facts: facts}, nil
}
