package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// -----------------------------------------------------------------------------
// Generation Job Methods
// -----------------------------------------------------------------------------

const jobColumns = `id, portfolio_id, job_type, status, current_stage, progress, stages, result,
	error_message, error_kind, created_at, started_at, completed_at`

// CreateJob inserts a new generation job. A nil ID is assigned.
func (db *DB) CreateJob(ctx context.Context, job *types.GenerationJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	stagesJSON, err := json.Marshal(job.Stages)
	if err != nil {
		return fmt.Errorf("failed to marshal stages: %w", err)
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO generation_jobs (id, portfolio_id, job_type, status, current_stage, progress, stages)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		job.ID, job.PortfolioID, job.JobType, job.Status, job.CurrentStage, job.Progress, stagesJSON,
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpdateJob writes the mutable fields of a job
func (db *DB) UpdateJob(ctx context.Context, job *types.GenerationJob) error {
	stagesJSON, err := json.Marshal(job.Stages)
	if err != nil {
		return fmt.Errorf("failed to marshal stages: %w", err)
	}
	var result []byte
	if len(job.Result) > 0 {
		result = job.Result
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE generation_jobs
		 SET status = $2, current_stage = $3, progress = $4, stages = $5, result = $6,
		     error_message = $7, error_kind = $8, started_at = $9, completed_at = $10
		 WHERE id = $1`,
		job.ID, job.Status, job.CurrentStage, job.Progress, stagesJSON, result,
		job.ErrorMessage, job.ErrorKind, job.StartedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", job.ID, ErrNotFound)
	}
	return nil
}

// GetJob retrieves a job by ID
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*types.GenerationJob, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM generation_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

// LatestJob retrieves the most recently created job for a portfolio
func (db *DB) LatestJob(ctx context.Context, portfolioID uuid.UUID) (*types.GenerationJob, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM generation_jobs
		 WHERE portfolio_id = $1 ORDER BY created_at DESC LIMIT 1`,
		portfolioID,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest job for portfolio %s: %w", portfolioID, err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (*types.GenerationJob, error) {
	var job types.GenerationJob
	var stagesJSON, result []byte
	err := row.Scan(&job.ID, &job.PortfolioID, &job.JobType, &job.Status, &job.CurrentStage,
		&job.Progress, &stagesJSON, &result, &job.ErrorMessage, &job.ErrorKind,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(stagesJSON) > 0 {
		if err := json.Unmarshal(stagesJSON, &job.Stages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stages: %w", err)
		}
	}
	if len(result) > 0 {
		job.Result = result
	}
	return &job, nil
}
