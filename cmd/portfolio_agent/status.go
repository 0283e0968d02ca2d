package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-generator/internal/db"
	"github.com/jonathan/portfolio-generator/internal/observability"
	"github.com/jonathan/portfolio-generator/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a generation job",
	Long:  "Prints the job read model (status, current stage, progress, error) for --job-id, or for the latest job of --portfolio-id.",
	RunE:  runStatus,
}

var (
	statusFlags configFlags
	statusJobID string
	statusJSON  bool
)

func init() {
	statusFlags.bind(statusCmd, flagsIdentity|flagsBackends)
	statusCmd.Flags().StringVar(&statusJobID, "job-id", "", "Job UUID")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the status as JSON")

	rootCmd.AddCommand(statusCmd)
}

// jobReader reads jobs by id or latest per portfolio
type jobReader interface {
	GetJob(ctx context.Context, id uuid.UUID) (*types.GenerationJob, error)
	LatestJob(ctx context.Context, portfolioID uuid.UUID) (*types.GenerationJob, error)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := statusFlags.resolve(cmd)
	if err != nil {
		return err
	}
	if statusJobID == "" && cfg.PortfolioID == "" {
		return fmt.Errorf("either --job-id or --portfolio-id must be provided")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	view, err := lookupJob(ctx, database, statusJobID, cfg.PortfolioID)
	if err != nil {
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	observability.NewPrinter(os.Stdout).PrintJobStatus(*view)
	return nil
}

// lookupJob resolves a job by id, or the latest job of a portfolio when jobID is empty
func lookupJob(ctx context.Context, jobs jobReader, jobID, portfolioID string) (*types.JobStatusView, error) {
	var (
		job *types.GenerationJob
		err error
	)
	if jobID != "" {
		id, perr := uuid.Parse(jobID)
		if perr != nil {
			return nil, fmt.Errorf("invalid --job-id: %w", perr)
		}
		job, err = jobs.GetJob(ctx, id)
	} else {
		job, err = jobs.LatestJob(ctx, uuid.MustParse(portfolioID))
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("no generation job found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job: %w", err)
	}

	view := job.View()
	return &view, nil
}
