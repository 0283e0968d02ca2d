package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus constants
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobTypePortfolioGeneration is the job type written by the generation pipeline
const JobTypePortfolioGeneration = "portfolio_generation"

// StageProgress is one declared stage of a job and how far it got
type StageProgress struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
}

// GenerationJob identifies one pipeline execution
type GenerationJob struct {
	ID           uuid.UUID       `json:"id"`
	PortfolioID  uuid.UUID       `json:"portfolio_id"`
	JobType      string          `json:"job_type"`
	Status       string          `json:"status"`
	CurrentStage string          `json:"current_stage"`
	Progress     int             `json:"progress"`
	Stages       []StageProgress `json:"stages"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	ErrorKind    *string         `json:"error_kind,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job can no longer change
func (j *GenerationJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobStatusView is the read model consumers poll
type JobStatusView struct {
	JobID        uuid.UUID `json:"job_id"`
	PortfolioID  uuid.UUID `json:"portfolio_id"`
	Status       string    `json:"status"`
	CurrentStage string    `json:"current_stage"`
	Progress     int       `json:"progress"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	ErrorKind    *string   `json:"error_kind,omitempty"`
}

// View projects the job onto its read model
func (j *GenerationJob) View() JobStatusView {
	return JobStatusView{
		JobID:        j.ID,
		PortfolioID:  j.PortfolioID,
		Status:       j.Status,
		CurrentStage: j.CurrentStage,
		Progress:     j.Progress,
		ErrorMessage: j.ErrorMessage,
		ErrorKind:    j.ErrorKind,
	}
}
