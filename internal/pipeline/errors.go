package pipeline

import (
	"errors"

	"github.com/jonathan/portfolio-generator/internal/github"
	"github.com/jonathan/portfolio-generator/internal/llm"
	"github.com/jonathan/portfolio-generator/internal/persist"
)

// ErrorKind classifies a failed run
type ErrorKind string

// ErrorKind constants
const (
	KindUpstreamUnavailable  ErrorKind = "upstream_unavailable"
	KindPartialEnrichment    ErrorKind = "partial_enrichment"
	KindRequiredInputMissing ErrorKind = "required_input_missing"
	KindMalformedOutput      ErrorKind = "malformed_output"
	KindPersistence          ErrorKind = "persistence"
	KindInvalidInput         ErrorKind = "invalid_input"
	KindInternal             ErrorKind = "internal"
)

var (
	// ErrGitHubNotConnected means the user has no connected GitHub account
	ErrGitHubNotConnected = errors.New("no GitHub account connected")
	// ErrJobFinished is returned when a terminal job is asked to change
	ErrJobFinished = errors.New("job already finished")
	// ErrProgressRegression is returned when a transition would lower the job's progress
	ErrProgressRegression = errors.New("job progress cannot decrease")
	// ErrUnknownStage is returned for a stage missing from the stage table
	ErrUnknownStage = errors.New("unknown stage")
)

// Error is a fatal run error. Error() returns the cause's message verbatim so the job's
// error_message is unchanged by the classification.
type Error struct {
	Kind  ErrorKind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return classify(err)
}

func classify(err error) ErrorKind {
	var writeErr *persist.WriteError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGitHubNotConnected):
		return KindRequiredInputMissing
	case errors.Is(err, llm.ErrNoStructuredOutput), errors.Is(err, llm.ErrMalformedOutput):
		return KindMalformedOutput
	case errors.As(err, &writeErr):
		return KindPersistence
	case llm.IsUnavailable(err), github.IsUnavailable(err):
		return KindUpstreamUnavailable
	default:
		return KindInternal
	}
}

// wrap attaches stage and kind to err unless it already carries them
func wrap(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Kind: classify(err), Stage: stage, Err: err}
}
