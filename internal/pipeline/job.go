package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// JobStore persists job records
type JobStore interface {
	CreateJob(ctx context.Context, job *types.GenerationJob) error
	UpdateJob(ctx context.Context, job *types.GenerationJob) error
}

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	JobID       uuid.UUID `json:"job_id"`
	PortfolioID uuid.UUID `json:"portfolio_id"`
	Stage       Stage     `json:"stage"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	Message     string    `json:"message"`
	ErrorKind   ErrorKind `json:"error_kind,omitempty"`
}

// ProgressCallback is called after every job transition
type ProgressCallback func(event ProgressEvent)

// JobContext owns one job record for the length of a run. Every change to the record goes
// through transition, which enforces monotonic progress and the terminal states.
type JobContext struct {
	mu         sync.Mutex
	job        types.GenerationJob
	store      JobStore
	onProgress ProgressCallback
	logger     *zap.Logger
	now        func() time.Time
}

// NewJobContext creates and stores a pending job with every declared stage at 0
func NewJobContext(ctx context.Context, store JobStore, portfolioID uuid.UUID, onProgress ProgressCallback, logger *zap.Logger) (*JobContext, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &JobContext{
		store:      store,
		onProgress: onProgress,
		now:        time.Now,
		job: types.GenerationJob{
			ID:           uuid.New(),
			PortfolioID:  portfolioID,
			JobType:      types.JobTypePortfolioGeneration,
			Status:       types.JobStatusPending,
			CurrentStage: string(StageCreated),
			Stages:       DeclaredStages(),
		},
	}
	j.job.CreatedAt = j.now()
	if err := store.CreateJob(ctx, &j.job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	j.logger = logger.With(zap.Stringer("job_id", j.job.ID), zap.Stringer("portfolio_id", portfolioID))
	return j, nil
}

// ID returns the job id
func (j *JobContext) ID() uuid.UUID {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.job.ID
}

// Snapshot returns a copy of the job record
func (j *JobContext) Snapshot() types.GenerationJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	job := j.job
	job.Stages = append([]types.StageProgress(nil), j.job.Stages...)
	return job
}

// Advance moves the job into stage at the stage's declared percentage
func (j *JobContext) Advance(ctx context.Context, stage Stage) error {
	def, ok := Lookup(stage)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	return j.transition(ctx, stage, def.Percent, def.Description, func(job *types.GenerationJob) {
		if job.Status == types.JobStatusPending {
			started := j.now()
			job.StartedAt = &started
		}
		job.Status = types.JobStatusProcessing
		idx := stageIndex(stage)
		for i := range job.Stages {
			if i < idx {
				job.Stages[i].Progress = 100
			}
		}
	})
}

// Complete marks the job completed at 100% with result as its payload
func (j *JobContext) Complete(ctx context.Context, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}
	return j.transition(ctx, StageCompleted, CompletedPercent, "Portfolio generated", func(job *types.GenerationJob) {
		job.Status = types.JobStatusCompleted
		job.Result = payload
		for i := range job.Stages {
			job.Stages[i].Progress = 100
		}
		completed := j.now()
		job.CompletedAt = &completed
	})
}

// Fail marks the job failed with cause's message. Progress stays where the run stopped.
func (j *JobContext) Fail(ctx context.Context, cause error) error {
	msg := cause.Error()
	kind := string(KindOf(cause))
	return j.transition(ctx, StageFailed, -1, msg, func(job *types.GenerationJob) {
		job.Status = types.JobStatusFailed
		job.ErrorMessage = &msg
		job.ErrorKind = &kind
		completed := j.now()
		job.CompletedAt = &completed
	})
}

// transition is the only mutation point of the job record. percent < 0 keeps the current progress.
func (j *JobContext) transition(ctx context.Context, stage Stage, percent int, message string, apply func(job *types.GenerationJob)) error {
	j.mu.Lock()
	if j.job.IsTerminal() {
		j.mu.Unlock()
		return ErrJobFinished
	}
	if percent < 0 {
		percent = j.job.Progress
	}
	if percent < j.job.Progress {
		j.mu.Unlock()
		return fmt.Errorf("%w: %s at %d%% after %d%%", ErrProgressRegression, stage, percent, j.job.Progress)
	}

	apply(&j.job)
	j.job.CurrentStage = string(stage)
	j.job.Progress = percent
	job := j.job
	job.Stages = append([]types.StageProgress(nil), j.job.Stages...)
	j.mu.Unlock()

	if err := j.store.UpdateJob(ctx, &job); err != nil {
		j.logger.Warn("failed to write job status", zap.String("stage", string(stage)), zap.Error(err))
		return fmt.Errorf("failed to update job: %w", err)
	}
	j.logger.Info("job advanced",
		zap.String("stage", string(stage)),
		zap.String("status", job.Status),
		zap.Int("progress", job.Progress))

	if j.onProgress != nil {
		event := ProgressEvent{
			JobID:       job.ID,
			PortfolioID: job.PortfolioID,
			Stage:       stage,
			Status:      job.Status,
			Progress:    job.Progress,
			Message:     message,
		}
		if job.ErrorKind != nil {
			event.ErrorKind = ErrorKind(*job.ErrorKind)
		}
		j.onProgress(event)
	}
	return nil
}
