//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-generator/internal/cache"
	"github.com/jonathan/portfolio-generator/internal/types"
)

func setupTestDB(t *testing.T) *DB {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func createPortfolio(t *testing.T, db *DB) *types.Portfolio {
	p := &types.Portfolio{ID: uuid.New(), UserID: uuid.New(), Title: "Test"}
	require.NoError(t, db.EnsurePortfolio(context.Background(), p))
	return p
}

func TestJobLifecycle_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	p := createPortfolio(t, db)

	job := &types.GenerationJob{
		PortfolioID: p.ID,
		JobType:     types.JobTypePortfolioGeneration,
		Status:      types.JobStatusPending,
		Stages:      []types.StageProgress{{Name: "fetching_sources"}, {Name: "persisting"}},
	}
	require.NoError(t, db.CreateJob(ctx, job))
	assert.NotEqual(t, uuid.Nil, job.ID)

	now := time.Now()
	msg, kind := "boom", "persistence"
	job.Status = types.JobStatusFailed
	job.CurrentStage = "persisting"
	job.Progress = 40
	job.StartedAt = &now
	job.CompletedAt = &now
	job.ErrorMessage = &msg
	job.ErrorKind = &kind
	require.NoError(t, db.UpdateJob(ctx, job))

	got, err := db.LatestJob(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, types.JobStatusFailed, got.Status)
	assert.Equal(t, 40, got.Progress)
	require.NotNil(t, got.ErrorKind)
	assert.Equal(t, "persistence", *got.ErrorKind)
	assert.Len(t, got.Stages, 2)

	_, err = db.GetJob(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheEntries_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	userID := uuid.New()

	c := cache.New(db, nil)
	require.NoError(t, c.Set(ctx, userID, "repositories", []string{"a", "b"}, time.Hour))

	raw, ok := c.Get(ctx, userID, "repositories")
	require.True(t, ok)
	assert.JSONEq(t, `["a","b"]`, string(raw))

	require.NoError(t, c.Set(ctx, userID, "stale", 1, -time.Minute))
	_, ok = c.Get(ctx, userID, "stale")
	assert.False(t, ok)
	entry, err := db.GetEntry(ctx, userID, "stale")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestProjectUpsert_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	p := createPortfolio(t, db)

	project := &types.GeneratedProject{
		PortfolioID: p.ID, Title: "api", ShortDescription: "v1", Source: types.SourceGitHub, SourceID: "api", Visible: true,
	}
	require.NoError(t, db.UpsertProject(ctx, project))
	firstID := project.ID

	again := &types.GeneratedProject{
		PortfolioID: p.ID, Title: "api", ShortDescription: "v2", Source: types.SourceGitHub, SourceID: "api", Visible: true,
	}
	require.NoError(t, db.UpsertProject(ctx, again))
	assert.Equal(t, firstID, again.ID)

	require.NoError(t, db.SetProjectCodeQuality(ctx, p.ID, types.SourceGitHub, "api", &types.CodeQualityReport{Score: 7}))

	snapshot, err := db.LoadPortfolio(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Projects, 1)
	assert.Equal(t, "v2", snapshot.Projects[0].ShortDescription)
	require.NotNil(t, snapshot.Projects[0].CodeQuality)
	assert.Equal(t, 7.0, snapshot.Projects[0].CodeQuality.Score)
}

func TestSources_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, db.SaveGitHubSource(ctx, userID, &types.GitHubSource{Username: "octocat"}))
	require.NoError(t, db.SaveDocumentSource(ctx, userID, &types.DocumentSource{
		Kind:     types.SourceKindResume,
		FileName: "resume.pdf",
		Facts:    &types.NormalizedFacts{Source: types.SourceResume, Skills: []types.SkillFact{{Name: "Go"}}},
	}))

	sources, err := db.LoadSources(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, sources.GitHub)
	assert.Equal(t, "octocat", sources.GitHub.Username)
	require.NotNil(t, sources.ResumeFacts())
	assert.Equal(t, "Go", sources.ResumeFacts().Skills[0].Name)
	assert.Nil(t, sources.LinkedIn)
}

func TestLatestCoaching_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	p := createPortfolio(t, db)

	snapshot, err := db.LoadPortfolio(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, snapshot.LatestCoaching)

	for _, score := range []int{40, 75} {
		require.NoError(t, db.InsertCoachingSession(ctx, &types.CoachingSession{
			PortfolioID:     p.ID,
			Recommendations: []string{"Ship a demo"},
			ActionItems:     []types.ActionItem{{Title: "Record a walkthrough", Priority: 1, Effort: "low", Impact: "high"}},
			PriorityScore:   score,
			Status:          types.CoachingStatusActive,
		}))
		time.Sleep(10 * time.Millisecond)
	}

	snapshot, err = db.LoadPortfolio(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, snapshot.LatestCoaching)
	assert.Equal(t, 75, snapshot.LatestCoaching.PriorityScore)
	require.Len(t, snapshot.LatestCoaching.ActionItems, 1)
	assert.Equal(t, "Record a walkthrough", snapshot.LatestCoaching.ActionItems[0].Title)
}
