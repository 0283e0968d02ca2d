package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// -----------------------------------------------------------------------------
// Generated Content Methods
// -----------------------------------------------------------------------------

// UpsertProject inserts or updates a project keyed by (portfolio_id, source, source_id).
// The stored ID is written back to p. Code-quality fields are not touched.
func (db *DB) UpsertProject(ctx context.Context, p *types.GeneratedProject) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO portfolio_projects (id, portfolio_id, title, short_description, long_description,
		     highlights, gaps, technologies, confidence, repo_url, live_url, stars, display_order,
		     visible, source, source_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (portfolio_id, source, source_id) DO UPDATE SET
		     title = EXCLUDED.title, short_description = EXCLUDED.short_description,
		     long_description = EXCLUDED.long_description, highlights = EXCLUDED.highlights,
		     gaps = EXCLUDED.gaps, technologies = EXCLUDED.technologies,
		     confidence = EXCLUDED.confidence, repo_url = EXCLUDED.repo_url,
		     live_url = EXCLUDED.live_url, stars = EXCLUDED.stars,
		     display_order = EXCLUDED.display_order, updated_at = NOW()
		 RETURNING id`,
		p.ID, p.PortfolioID, p.Title, p.ShortDescription, p.LongDescription,
		nonNil(p.Highlights), nonNil(p.Gaps), nonNil(p.Technologies), p.Confidence, p.RepoURL, p.LiveURL,
		p.Stars, p.DisplayOrder, p.Visible, string(p.Source), p.SourceID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert project %s: %w", p.SourceID, err)
	}
	return nil
}

// SetProjectCodeQuality stores a code-quality report on the project it analyzed
func (db *DB) SetProjectCodeQuality(ctx context.Context, portfolioID uuid.UUID, source types.FactSource, sourceID string, report *types.CodeQualityReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal code quality: %w", err)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE portfolio_projects SET code_quality = $4, code_quality_score = $5, updated_at = NOW()
		 WHERE portfolio_id = $1 AND source = $2 AND source_id = $3`,
		portfolioID, string(source), sourceID, reportJSON, report.Score,
	)
	if err != nil {
		return fmt.Errorf("failed to store code quality for %s: %w", sourceID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", sourceID, ErrNotFound)
	}
	return nil
}

// InsertExperience inserts an experience row. Rows have no natural key; repeated runs append.
func (db *DB) InsertExperience(ctx context.Context, e *types.GeneratedExperience) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO portfolio_experiences (id, portfolio_id, company, role, start_date, end_date,
		     description, user_edited_description, is_current, location, display_order, visible, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.PortfolioID, e.Company, e.Role, e.StartDate, e.EndDate, e.Description,
		e.UserEditedDescription, e.Current, e.Location, e.DisplayOrder, e.Visible, string(e.Source),
	)
	if err != nil {
		return fmt.Errorf("failed to insert experience %s at %s: %w", e.Role, e.Company, err)
	}
	return nil
}

// InsertSkill inserts a skill row
func (db *DB) InsertSkill(ctx context.Context, s *types.GeneratedSkill) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO portfolio_skills (id, portfolio_id, name, category, proficiency, derived_from,
		     display_order, visible)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.PortfolioID, s.Name, s.Category, s.Proficiency, sourceStrings(s.DerivedFrom),
		s.DisplayOrder, s.Visible,
	)
	if err != nil {
		return fmt.Errorf("failed to insert skill %s: %w", s.Name, err)
	}
	return nil
}

// InsertEducation inserts an education row
func (db *DB) InsertEducation(ctx context.Context, e *types.GeneratedEducation) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO portfolio_education (id, portfolio_id, institution, degree, field, start_date,
		     end_date, display_order, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.PortfolioID, e.Institution, e.Degree, e.Field, e.StartDate, e.EndDate,
		e.DisplayOrder, string(e.Source),
	)
	if err != nil {
		return fmt.Errorf("failed to insert education %s: %w", e.Institution, err)
	}
	return nil
}

// UpsertAbout replaces the about content for (portfolio, section type)
func (db *DB) UpsertAbout(ctx context.Context, a *types.AboutContent) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO portfolio_about (portfolio_id, section_type, content, tagline, meta_description, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (portfolio_id, section_type) DO UPDATE SET
		     content = EXCLUDED.content, tagline = EXCLUDED.tagline,
		     meta_description = EXCLUDED.meta_description, confidence = EXCLUDED.confidence,
		     updated_at = NOW()
		 RETURNING updated_at`,
		a.PortfolioID, a.SectionType, a.Content, a.Tagline, a.MetaDescription, a.Confidence,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert about content: %w", err)
	}
	return nil
}

// InsertAtsScore appends an ATS analysis to the portfolio's history
func (db *DB) InsertAtsScore(ctx context.Context, s *types.AtsScore) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	suggestions, err := json.Marshal(s.Suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	var raw []byte
	if len(s.RawAnalysis) > 0 {
		raw = s.RawAnalysis
	}
	err = db.pool.QueryRow(ctx,
		`INSERT INTO ats_scores (id, portfolio_id, overall_score, keyword_score, formatting_score,
		     content_score, missing_keywords, suggestions, target_role, raw_analysis)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		s.ID, s.PortfolioID, s.OverallScore, s.KeywordScore, s.FormattingScore, s.ContentScore,
		nonNil(s.MissingKeywords), suggestions, s.TargetRole, raw,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ats score: %w", err)
	}
	return nil
}

// InsertCoachingSession appends a coaching session
func (db *DB) InsertCoachingSession(ctx context.Context, s *types.CoachingSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	items, err := json.Marshal(s.ActionItems)
	if err != nil {
		return fmt.Errorf("failed to marshal action items: %w", err)
	}
	err = db.pool.QueryRow(ctx,
		`INSERT INTO coaching_sessions (id, portfolio_id, recommendations, action_items, priority_score,
		     status, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		s.ID, s.PortfolioID, nonNil(s.Recommendations), items, s.PriorityScore, s.Status, s.CompletedAt,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert coaching session: %w", err)
	}
	return nil
}
