package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// -----------------------------------------------------------------------------
// Portfolio Methods
// -----------------------------------------------------------------------------

// EnsurePortfolio creates the portfolio if it does not exist. An existing row is left untouched.
func (db *DB) EnsurePortfolio(ctx context.Context, p *types.Portfolio) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO portfolios (id, user_id, title)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.UserID, p.Title,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure portfolio: %w", err)
	}
	return nil
}

// GetPortfolio retrieves a portfolio by ID
func (db *DB) GetPortfolio(ctx context.Context, id uuid.UUID) (*types.Portfolio, error) {
	var p types.Portfolio
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, title, seo_title, seo_description, updated_at
		 FROM portfolios WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.SEOTitle, &p.SEODescription, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return &p, nil
}

// UpdatePortfolioSEO sets the portfolio's SEO title and description
func (db *DB) UpdatePortfolioSEO(ctx context.Context, id uuid.UUID, title, description string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE portfolios SET seo_title = $2, seo_description = $3, updated_at = NOW() WHERE id = $1`,
		id, title, description,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio seo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("portfolio %s: %w", id, ErrNotFound)
	}
	return nil
}
