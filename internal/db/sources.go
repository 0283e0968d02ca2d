package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// -----------------------------------------------------------------------------
// Connected Source Methods
// -----------------------------------------------------------------------------

// LoadSources returns everything the user has connected. Missing kinds are left nil.
func (db *DB) LoadSources(ctx context.Context, userID uuid.UUID) (*types.ConnectedSources, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT kind, github_username, access_token, file_name, facts, connected_at
		 FROM connected_sources WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	defer rows.Close()

	sources := &types.ConnectedSources{UserID: userID}
	for rows.Next() {
		var (
			kind                      string
			username, token, fileName *string
			factsJSON                 []byte
			connectedAt               time.Time
		)
		if err := rows.Scan(&kind, &username, &token, &fileName, &factsJSON, &connectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}

		switch types.SourceKind(kind) {
		case types.SourceKindGitHub:
			sources.GitHub = &types.GitHubSource{
				Username:    deref(username),
				AccessToken: deref(token),
				ConnectedAt: connectedAt,
			}
		case types.SourceKindResume, types.SourceKindLinkedIn:
			doc := &types.DocumentSource{
				Kind:       types.SourceKind(kind),
				FileName:   deref(fileName),
				UploadedAt: connectedAt,
			}
			if len(factsJSON) > 0 {
				doc.Facts = &types.NormalizedFacts{}
				if err := json.Unmarshal(factsJSON, doc.Facts); err != nil {
					return nil, fmt.Errorf("failed to unmarshal %s facts: %w", kind, err)
				}
			}
			if doc.Kind == types.SourceKindResume {
				sources.Resume = doc
			} else {
				sources.LinkedIn = doc
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return sources, nil
}

// SaveGitHubSource connects a GitHub account, replacing any previous one
func (db *DB) SaveGitHubSource(ctx context.Context, userID uuid.UUID, src *types.GitHubSource) error {
	var token *string
	if src.AccessToken != "" {
		token = &src.AccessToken
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO connected_sources (user_id, kind, github_username, access_token, connected_at)
		 VALUES ($1, 'github', $2, $3, NOW())
		 ON CONFLICT (user_id, kind)
		 DO UPDATE SET github_username = EXCLUDED.github_username, access_token = EXCLUDED.access_token,
		               connected_at = NOW()`,
		userID, src.Username, token,
	)
	if err != nil {
		return fmt.Errorf("failed to save github source: %w", err)
	}
	return nil
}

// SaveDocumentSource stores parsed document facts, replacing any previous upload of the same kind
func (db *DB) SaveDocumentSource(ctx context.Context, userID uuid.UUID, doc *types.DocumentSource) error {
	factsJSON, err := json.Marshal(doc.Facts)
	if err != nil {
		return fmt.Errorf("failed to marshal facts: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO connected_sources (user_id, kind, file_name, facts, connected_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (user_id, kind)
		 DO UPDATE SET file_name = EXCLUDED.file_name, facts = EXCLUDED.facts, connected_at = NOW()`,
		userID, string(doc.Kind), doc.FileName, factsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save %s source: %w", doc.Kind, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
