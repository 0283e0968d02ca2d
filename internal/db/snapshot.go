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

// LoadPortfolio reloads the persisted portfolio with its content, ATS history (newest first)
// and the latest coaching session
func (db *DB) LoadPortfolio(ctx context.Context, portfolioID uuid.UUID) (*types.PortfolioSnapshot, error) {
	portfolio, err := db.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	snapshot := &types.PortfolioSnapshot{Portfolio: portfolio}

	if snapshot.Projects, err = db.listProjects(ctx, portfolioID); err != nil {
		return nil, err
	}
	if snapshot.Experiences, err = db.listExperiences(ctx, portfolioID); err != nil {
		return nil, err
	}
	if snapshot.Skills, err = db.listSkills(ctx, portfolioID); err != nil {
		return nil, err
	}
	if snapshot.Education, err = db.listEducation(ctx, portfolioID); err != nil {
		return nil, err
	}
	if snapshot.About, err = db.getAbout(ctx, portfolioID, types.AboutSectionType); err != nil {
		return nil, err
	}
	if snapshot.AtsHistory, err = db.listAtsScores(ctx, portfolioID); err != nil {
		return nil, err
	}
	if snapshot.LatestCoaching, err = db.latestCoaching(ctx, portfolioID); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (db *DB) listProjects(ctx context.Context, portfolioID uuid.UUID) ([]types.GeneratedProject, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, portfolio_id, title, short_description, long_description, highlights, gaps,
		        technologies, confidence, repo_url, live_url, stars, display_order, visible,
		        source, source_id, code_quality
		 FROM portfolio_projects WHERE portfolio_id = $1
		 ORDER BY display_order, created_at`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []types.GeneratedProject
	for rows.Next() {
		var p types.GeneratedProject
		var source string
		var quality []byte
		if err := rows.Scan(&p.ID, &p.PortfolioID, &p.Title, &p.ShortDescription, &p.LongDescription,
			&p.Highlights, &p.Gaps, &p.Technologies, &p.Confidence, &p.RepoURL, &p.LiveURL, &p.Stars,
			&p.DisplayOrder, &p.Visible, &source, &p.SourceID, &quality); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Source = types.FactSource(source)
		if len(quality) > 0 {
			p.CodeQuality = &types.CodeQualityReport{}
			if err := json.Unmarshal(quality, p.CodeQuality); err != nil {
				return nil, fmt.Errorf("failed to unmarshal code quality: %w", err)
			}
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (db *DB) listExperiences(ctx context.Context, portfolioID uuid.UUID) ([]types.GeneratedExperience, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, portfolio_id, company, role, start_date, end_date, description,
		        user_edited_description, is_current, location, display_order, visible, source
		 FROM portfolio_experiences WHERE portfolio_id = $1
		 ORDER BY display_order, created_at`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	var out []types.GeneratedExperience
	for rows.Next() {
		var e types.GeneratedExperience
		var source string
		if err := rows.Scan(&e.ID, &e.PortfolioID, &e.Company, &e.Role, &e.StartDate, &e.EndDate,
			&e.Description, &e.UserEditedDescription, &e.Current, &e.Location, &e.DisplayOrder,
			&e.Visible, &source); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		e.Source = types.FactSource(source)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) listSkills(ctx context.Context, portfolioID uuid.UUID) ([]types.GeneratedSkill, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, portfolio_id, name, category, proficiency, derived_from, display_order, visible
		 FROM portfolio_skills WHERE portfolio_id = $1
		 ORDER BY display_order, created_at`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var out []types.GeneratedSkill
	for rows.Next() {
		var s types.GeneratedSkill
		var derived []string
		if err := rows.Scan(&s.ID, &s.PortfolioID, &s.Name, &s.Category, &s.Proficiency, &derived,
			&s.DisplayOrder, &s.Visible); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		s.DerivedFrom = factSources(derived)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) listEducation(ctx context.Context, portfolioID uuid.UUID) ([]types.GeneratedEducation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, portfolio_id, institution, degree, field, start_date, end_date, display_order, source
		 FROM portfolio_education WHERE portfolio_id = $1
		 ORDER BY display_order, created_at`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list education: %w", err)
	}
	defer rows.Close()

	var out []types.GeneratedEducation
	for rows.Next() {
		var e types.GeneratedEducation
		var source string
		if err := rows.Scan(&e.ID, &e.PortfolioID, &e.Institution, &e.Degree, &e.Field, &e.StartDate,
			&e.EndDate, &e.DisplayOrder, &source); err != nil {
			return nil, fmt.Errorf("failed to scan education: %w", err)
		}
		e.Source = types.FactSource(source)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) getAbout(ctx context.Context, portfolioID uuid.UUID, sectionType string) (*types.AboutContent, error) {
	a := types.AboutContent{PortfolioID: portfolioID, SectionType: sectionType}
	err := db.pool.QueryRow(ctx,
		`SELECT content, tagline, meta_description, confidence, updated_at
		 FROM portfolio_about WHERE portfolio_id = $1 AND section_type = $2`,
		portfolioID, sectionType,
	).Scan(&a.Content, &a.Tagline, &a.MetaDescription, &a.Confidence, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get about content: %w", err)
	}
	return &a, nil
}

func (db *DB) latestCoaching(ctx context.Context, portfolioID uuid.UUID) (*types.CoachingSession, error) {
	s := types.CoachingSession{PortfolioID: portfolioID}
	var items []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, recommendations, action_items, priority_score, status, completed_at, created_at
		 FROM coaching_sessions WHERE portfolio_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		portfolioID,
	).Scan(&s.ID, &s.Recommendations, &items, &s.PriorityScore, &s.Status, &s.CompletedAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest coaching session: %w", err)
	}
	if err := json.Unmarshal(items, &s.ActionItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action items: %w", err)
	}
	return &s, nil
}

func (db *DB) listAtsScores(ctx context.Context, portfolioID uuid.UUID) ([]types.AtsScore, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, portfolio_id, overall_score, keyword_score, formatting_score, content_score,
		        missing_keywords, suggestions, target_role, raw_analysis, created_at
		 FROM ats_scores WHERE portfolio_id = $1
		 ORDER BY created_at DESC`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ats scores: %w", err)
	}
	defer rows.Close()

	var out []types.AtsScore
	for rows.Next() {
		var s types.AtsScore
		var suggestions, raw []byte
		if err := rows.Scan(&s.ID, &s.PortfolioID, &s.OverallScore, &s.KeywordScore, &s.FormattingScore,
			&s.ContentScore, &s.MissingKeywords, &suggestions, &s.TargetRole, &raw, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ats score: %w", err)
		}
		if len(suggestions) > 0 {
			if err := json.Unmarshal(suggestions, &s.Suggestions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal suggestions: %w", err)
			}
		}
		if len(raw) > 0 {
			s.RawAnalysis = raw
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
