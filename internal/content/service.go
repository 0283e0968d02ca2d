// Package content implements the generative content tasks: project and career narratives,
// code-quality critique, ATS critique and coaching. Every task renders an embedded prompt,
// asks the backend for JSON, validates the object against the task's schema and returns
// a typed, clamped result.
package content

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/llm"
	"github.com/jonathan/portfolio-generator/internal/prompts"
	"github.com/jonathan/portfolio-generator/internal/schemas"
)

// DefaultBatchConcurrency bounds in-flight calls in Batch
const DefaultBatchConcurrency = 4

var promptKeys = map[TaskType]string{
	TaskProjectNarrative: "project-narrative",
	TaskCareerNarrative:  "career-narrative",
	TaskCodeQuality:      "code-quality",
	TaskAtsCritique:      "ats-critique",
	TaskCoaching:         "coaching",
}

var taskTiers = map[TaskType]llm.ModelTier{
	TaskProjectNarrative: llm.TierStandard,
	TaskCareerNarrative:  llm.TierStandard,
	TaskCodeQuality:      llm.TierLite,
	TaskAtsCritique:      llm.TierAdvanced,
	TaskCoaching:         llm.TierLite,
}

// Service runs content tasks against a generative backend
type Service struct {
	client      llm.Client
	logger      *zap.Logger
	concurrency int
}

// NewService creates a Service. The client is expected to carry its own retry policy.
func NewService(client llm.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger, concurrency: DefaultBatchConcurrency}
}

// WithConcurrency sets the Batch concurrency limit (<= 0 means unbounded)
func (s *Service) WithConcurrency(n int) *Service {
	s.concurrency = n
	return s
}

// generate renders the task prompt, calls the backend and returns the validated JSON object
func (s *Service) generate(ctx context.Context, task TaskType, data map[string]string) (string, error) {
	prompt, err := prompts.Render(prompts.PortfolioFile, promptKeys[task], data)
	if err != nil {
		return "", &GenerationError{Task: task, Message: "failed to render prompt", Cause: err}
	}

	resp, err := s.client.GenerateJSON(ctx, prompt, taskTiers[task])
	if err != nil {
		return "", &GenerationError{Task: task, Message: "model call failed", Cause: err}
	}

	obj, err := llm.ExtractJSONObject(llm.CleanJSONBlock(resp))
	if err != nil {
		return "", &GenerationError{Task: task, Message: "no JSON object in response", Cause: err}
	}
	if err := schemas.Validate(string(task), obj); err != nil {
		return "", &GenerationError{
			Task:    task,
			Message: "response does not match schema",
			Cause:   fmt.Errorf("%w: %w", llm.ErrMalformedOutput, err),
		}
	}
	return obj, nil
}

func (s *Service) decode(task TaskType, obj string, out any) error {
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return &GenerationError{
			Task:    task,
			Message: "failed to decode response",
			Cause:   fmt.Errorf("%w: %w", llm.ErrMalformedOutput, err),
		}
	}
	return nil
}

// ProjectNarrative writes the portfolio text for one repository
func (s *Service) ProjectNarrative(ctx context.Context, in *ProjectInput) (*ProjectNarrative, error) {
	obj, err := s.generate(ctx, TaskProjectNarrative, in.data())
	if err != nil {
		return nil, err
	}
	var out ProjectNarrative
	if err := s.decode(TaskProjectNarrative, obj, &out); err != nil {
		return nil, err
	}
	out.normalize()
	return &out, nil
}

// CareerNarrative writes the about-me section
func (s *Service) CareerNarrative(ctx context.Context, in *CareerInput) (*CareerNarrative, error) {
	obj, err := s.generate(ctx, TaskCareerNarrative, in.data())
	if err != nil {
		return nil, err
	}
	var out CareerNarrative
	if err := s.decode(TaskCareerNarrative, obj, &out); err != nil {
		return nil, err
	}
	out.normalize()
	return &out, nil
}

// CodeQuality critiques one repository's key files
func (s *Service) CodeQuality(ctx context.Context, in *CodeQualityInput) (*CodeQuality, error) {
	if len(in.Files) == 0 {
		return nil, &GenerationError{Task: TaskCodeQuality, Message: "no key files for " + in.Repository}
	}
	obj, err := s.generate(ctx, TaskCodeQuality, in.data())
	if err != nil {
		return nil, err
	}
	out := CodeQuality{Repository: in.Repository}
	if err := s.decode(TaskCodeQuality, obj, &out); err != nil {
		return nil, err
	}
	out.Repository = in.Repository
	out.normalize()
	return &out, nil
}

// AtsCritique scores the portfolio text against the target role
func (s *Service) AtsCritique(ctx context.Context, in *AtsInput) (*AtsAnalysis, error) {
	obj, err := s.generate(ctx, TaskAtsCritique, in.data())
	if err != nil {
		return nil, err
	}
	var wire atsWire
	if err := s.decode(TaskAtsCritique, obj, &wire); err != nil {
		return nil, err
	}
	return wire.analysis(obj), nil
}

// Coaching recommends next steps given the latest ATS analysis
func (s *Service) Coaching(ctx context.Context, in *CoachingInput) (*Coaching, error) {
	obj, err := s.generate(ctx, TaskCoaching, in.data())
	if err != nil {
		return nil, err
	}
	var wire coachingWire
	if err := s.decode(TaskCoaching, obj, &wire); err != nil {
		return nil, err
	}
	return wire.coaching(), nil
}

// Run dispatches one task by its input type
func (s *Service) Run(ctx context.Context, task Task) (Output, error) {
	var (
		out Output
		err error
	)
	switch in := task.Input.(type) {
	case *ProjectInput:
		out, err = s.ProjectNarrative(ctx, in)
	case *CareerInput:
		out, err = s.CareerNarrative(ctx, in)
	case *CodeQualityInput:
		out, err = s.CodeQuality(ctx, in)
	case *AtsInput:
		out, err = s.AtsCritique(ctx, in)
	case *CoachingInput:
		out, err = s.Coaching(ctx, in)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidInput, task.Input)
	}
	if err != nil {
		return nil, err
	}
	if out.Task() != task.Type {
		return nil, fmt.Errorf("%w: %s input given for %s", ErrInvalidInput, out.Task(), task.Type)
	}
	return out, nil
}
