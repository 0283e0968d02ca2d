// Package persist is the write path for a generation run. It writes the aggregate result
// entity by entity and stops at the first failure; rows already written stay in place.
package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// Store is the storage a Gateway writes through
type Store interface {
	UpsertProject(ctx context.Context, p *types.GeneratedProject) error
	SetProjectCodeQuality(ctx context.Context, portfolioID uuid.UUID, source types.FactSource, sourceID string, report *types.CodeQualityReport) error
	InsertExperience(ctx context.Context, e *types.GeneratedExperience) error
	InsertSkill(ctx context.Context, s *types.GeneratedSkill) error
	InsertEducation(ctx context.Context, e *types.GeneratedEducation) error
	UpsertAbout(ctx context.Context, a *types.AboutContent) error
	UpdatePortfolioSEO(ctx context.Context, portfolioID uuid.UUID, title, description string) error
	InsertAtsScore(ctx context.Context, s *types.AtsScore) error
	InsertCoachingSession(ctx context.Context, s *types.CoachingSession) error
	LoadPortfolio(ctx context.Context, portfolioID uuid.UUID) (*types.PortfolioSnapshot, error)
}

// WriteError identifies the entity whose write failed
type WriteError struct {
	Entity string
	Key    string
	Cause  error
}

func (e *WriteError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("failed to write %s %s: %v", e.Entity, e.Key, e.Cause)
	}
	return fmt.Sprintf("failed to write %s: %v", e.Entity, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Gateway writes generated content in a fixed order
type Gateway struct {
	store  Store
	logger *zap.Logger
}

// NewGateway creates a Gateway over store
func NewGateway(store Store, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{store: store, logger: logger}
}

// Write persists projects (upserted, with any code-quality report), experiences, skills,
// education, the about section and the portfolio SEO fields, in that order.
func (g *Gateway) Write(ctx context.Context, result *types.GenerationResult) error {
	pid := result.PortfolioID

	for i := range result.Projects {
		p := &result.Projects[i]
		p.PortfolioID = pid
		if err := g.store.UpsertProject(ctx, p); err != nil {
			return &WriteError{Entity: "project", Key: p.SourceID, Cause: err}
		}
		if p.CodeQuality != nil {
			if err := g.store.SetProjectCodeQuality(ctx, pid, p.Source, p.SourceID, p.CodeQuality); err != nil {
				return &WriteError{Entity: "code quality", Key: p.SourceID, Cause: err}
			}
		}
	}

	for i := range result.Experiences {
		e := &result.Experiences[i]
		e.PortfolioID = pid
		if err := g.store.InsertExperience(ctx, e); err != nil {
			return &WriteError{Entity: "experience", Key: e.Company, Cause: err}
		}
	}

	for i := range result.Skills {
		s := &result.Skills[i]
		s.PortfolioID = pid
		if err := g.store.InsertSkill(ctx, s); err != nil {
			return &WriteError{Entity: "skill", Key: s.Name, Cause: err}
		}
	}

	for i := range result.Education {
		e := &result.Education[i]
		e.PortfolioID = pid
		if err := g.store.InsertEducation(ctx, e); err != nil {
			return &WriteError{Entity: "education", Key: e.Institution, Cause: err}
		}
	}

	if about := result.About; about != nil {
		about.PortfolioID = pid
		if about.SectionType == "" {
			about.SectionType = types.AboutSectionType
		}
		if err := g.store.UpsertAbout(ctx, about); err != nil {
			return &WriteError{Entity: "about content", Cause: err}
		}
		if err := g.store.UpdatePortfolioSEO(ctx, pid, about.Tagline, about.MetaDescription); err != nil {
			return &WriteError{Entity: "portfolio seo", Cause: err}
		}
	}

	g.logger.Info("portfolio content written",
		zap.Stringer("portfolio_id", pid),
		zap.Int("projects", len(result.Projects)),
		zap.Int("experiences", len(result.Experiences)),
		zap.Int("skills", len(result.Skills)),
		zap.Int("education", len(result.Education)))
	return nil
}

// RecordAtsScore appends an ATS analysis
func (g *Gateway) RecordAtsScore(ctx context.Context, portfolioID uuid.UUID, score *types.AtsScore) error {
	score.PortfolioID = portfolioID
	if err := g.store.InsertAtsScore(ctx, score); err != nil {
		return &WriteError{Entity: "ats score", Cause: err}
	}
	return nil
}

// RecordCoaching appends a coaching session
func (g *Gateway) RecordCoaching(ctx context.Context, portfolioID uuid.UUID, session *types.CoachingSession) error {
	session.PortfolioID = portfolioID
	if err := g.store.InsertCoachingSession(ctx, session); err != nil {
		return &WriteError{Entity: "coaching session", Cause: err}
	}
	return nil
}

// Reload reads the persisted portfolio back
func (g *Gateway) Reload(ctx context.Context, portfolioID uuid.UUID) (*types.PortfolioSnapshot, error) {
	snapshot, err := g.store.LoadPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload portfolio %s: %w", portfolioID, err)
	}
	return snapshot, nil
}
