package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/db"
	"github.com/jonathan/portfolio-generator/internal/pipeline"
	"github.com/jonathan/portfolio-generator/internal/server/middleware"
	"github.com/jonathan/portfolio-generator/internal/types"
)

// maxBackgroundRuns caps generation runs started by the non-streaming trigger
const maxBackgroundRuns = 32

// maxBodyBytes bounds the generate request body
const maxBodyBytes = 1 << 16

// GenerateRequest is the optional body of both generate routes
type GenerateRequest struct {
	MinStars    int    `json:"min_stars"`
	MaxProjects int    `json:"max_projects"`
	TargetRole  string `json:"target_role"`
}

// GenerateResponse is returned when a background run has been accepted
type GenerateResponse struct {
	JobID       uuid.UUID `json:"job_id"`
	PortfolioID uuid.UUID `json:"portfolio_id"`
	Status      string    `json:"status"`
}

// handleGenerate starts a run in the background and answers 202 once its job exists
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := s.generationRequest(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	select {
	case s.background <- struct{}{}:
	default:
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"error": "too many generation runs in progress",
		})
		return
	}

	created := make(chan uuid.UUID, 1)
	done := make(chan error, 1)
	// The run outlives the request
	ctx := context.WithoutCancel(r.Context())
	go func() {
		defer func() { <-s.background }()
		_, err := s.generator.Generate(ctx, req, pipeline.RunOptions{
			OnJobCreated: func(jobID uuid.UUID) { created <- jobID },
		})
		if err != nil {
			s.logger.Warn("background generation failed",
				zap.Stringer("portfolio_id", req.PortfolioID),
				zap.String("error_kind", string(pipeline.KindOf(err))),
				zap.Error(err))
		}
		done <- err
	}()

	accepted := func(jobID uuid.UUID) {
		s.jsonResponse(w, http.StatusAccepted, GenerateResponse{
			JobID:       jobID,
			PortfolioID: req.PortfolioID,
			Status:      types.JobStatusPending,
		})
	}

	select {
	case jobID := <-created:
		accepted(jobID)
	case err := <-done:
		// A fast run may finish before the created signal is read
		select {
		case jobID := <-created:
			accepted(jobID)
			return
		default:
		}
		if err == nil {
			err = errors.New("generation finished without creating a job")
		}
		s.errorResponse(w, err)
	}
}

// handleGenerateStream runs a generation on the request and streams its progress as SSE
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.generationRequest(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	result, err := s.generator.Generate(r.Context(), req, pipeline.RunOptions{
		OnProgress: func(event pipeline.ProgressEvent) {
			if werr := sse.WriteEvent(EventProgress, event); werr != nil {
				s.logger.Debug("failed to write progress event", zap.Error(werr))
			}
		},
	})
	if err != nil {
		sse.WriteError(err)
		return
	}
	sse.WriteComplete(result)
}

// handleGetJob returns the status view of a job
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	job, err := s.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, fmt.Errorf("job %s: %w", jobID, err))
		return
	}
	if err := s.authorize(r.Context(), job.PortfolioID, userID, false); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job.View())
}

// handleLatestJob returns the status view of the most recent job of a portfolio
func (s *Server) handleLatestJob(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathUUID(r, "id")
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := s.authorize(r.Context(), portfolioID, userID, false); err != nil {
		s.errorResponse(w, err)
		return
	}

	job, err := s.jobs.LatestJob(r.Context(), portfolioID)
	if err != nil {
		s.errorResponse(w, fmt.Errorf("no jobs for portfolio %s: %w", portfolioID, err))
		return
	}
	s.jsonResponse(w, http.StatusOK, job.View())
}

// ---- Helpers

// generationRequest builds a pipeline request from the path, the caller and the body
func (s *Server) generationRequest(r *http.Request) (pipeline.Request, error) {
	portfolioID, err := pathUUID(r, "id")
	if err != nil {
		return pipeline.Request{}, err
	}
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return pipeline.Request{}, err
	}

	var body GenerateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return pipeline.Request{}, &ErrValidation{Field: "(body)", Message: "invalid JSON: " + err.Error()}
	}

	opts := types.GenerateOptions{
		MinStars:    body.MinStars,
		MaxProjects: body.MaxProjects,
		TargetRole:  body.TargetRole,
	}.WithDefaults()
	if err := opts.Validate(); err != nil {
		return pipeline.Request{}, validationError(err)
	}

	// A missing portfolio is created for the caller by the run
	if err := s.authorize(r.Context(), portfolioID, userID, true); err != nil {
		return pipeline.Request{}, err
	}

	return pipeline.Request{UserID: userID, PortfolioID: portfolioID, Options: opts}, nil
}

// authorize checks that userID owns the portfolio
func (s *Server) authorize(ctx context.Context, portfolioID, userID uuid.UUID, allowMissing bool) error {
	p, err := s.portfolios.GetPortfolio(ctx, portfolioID)
	if errors.Is(err, db.ErrNotFound) && allowMissing {
		return nil
	}
	if err != nil {
		return fmt.Errorf("portfolio %s: %w", portfolioID, err)
	}
	if p.UserID != userID {
		return &ErrForbidden{Resource: "portfolio " + portfolioID.String()}
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: "must be a UUID"}
	}
	return id, nil
}
