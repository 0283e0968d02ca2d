package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/config"
	"github.com/jonathan/portfolio-generator/internal/memstore"
	"github.com/jonathan/portfolio-generator/internal/observability"
	"github.com/jonathan/portfolio-generator/internal/types"
)

const testResume = `Jane Doe
Senior Software Engineer
jane@example.com

Experience
Senior Engineer | Acme Corp | Jan 2020 - Present
- Built the billing platform in Go

Skills
Languages: Go, Python
`

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestConnectSources(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	userID := uuid.New()

	cfg := &config.Config{
		GitHubUser:  "janedoe",
		GitHubToken: "secret",
		Resume:      writeFile(t, "resume.txt", testResume),
	}
	require.NoError(t, connectSources(ctx, store, userID, cfg))

	sources, err := store.LoadSources(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, sources.GitHub)
	assert.Equal(t, "janedoe", sources.GitHub.Username)
	assert.Equal(t, "secret", sources.GitHub.AccessToken)
	require.NotNil(t, sources.Resume)
	assert.Equal(t, "resume.txt", sources.Resume.FileName)
	require.NotNil(t, sources.ResumeFacts())
	assert.NotEmpty(t, sources.ResumeFacts().Experiences)
	assert.Nil(t, sources.LinkedIn)
}

func TestConnectSources_ParseFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	userID := uuid.New()

	cfg := &config.Config{Resume: writeFile(t, "resume.txt", "just a line of prose without any sections")}
	err := connectSources(ctx, store, userID, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse resume")

	sources, err := store.LoadSources(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, sources.Resume)
}

func TestParseDocument_MissingFile(t *testing.T) {
	_, err := parseDocument(types.SourceKindLinkedIn, filepath.Join(t.TempDir(), "nope.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read linkedin")
}

func TestOpenBackend_InMemory(t *testing.T) {
	ctx := context.Background()

	// The postgres cache falls back to memory when there is no database
	b, err := openBackend(ctx, &config.Config{CacheBackend: config.CacheBackendPostgres}, true, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.store.(*memstore.Store)
	assert.True(t, ok)
	require.NotNil(t, b.cache)

	src := b.githubFactory()(ctx, uuid.New(), &types.GitHubSource{Username: "janedoe"})
	assert.NotNil(t, src)
}

func TestOpenBackend_RequiresDatabase(t *testing.T) {
	_, err := openBackend(context.Background(), &config.Config{}, false, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLookupJob(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	portfolioID := uuid.New()

	_, err := lookupJob(ctx, store, "", portfolioID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generation job found")

	job := &types.GenerationJob{PortfolioID: portfolioID, Status: types.JobStatusProcessing, CurrentStage: "scoring_code", Progress: 75}
	require.NoError(t, store.CreateJob(ctx, job))

	view, err := lookupJob(ctx, store, "", portfolioID.String())
	require.NoError(t, err)
	assert.Equal(t, job.ID, view.JobID)
	assert.Equal(t, 75, view.Progress)

	view, err = lookupJob(ctx, store, job.ID.String(), "")
	require.NoError(t, err)
	assert.Equal(t, "scoring_code", view.CurrentStage)

	_, err = lookupJob(ctx, store, "not-a-uuid", "")
	assert.Error(t, err)
}

func TestPrintSnapshot_IncludesLatestCoaching(t *testing.T) {
	var buf bytes.Buffer
	printSnapshot(observability.NewPrinter(&buf), &types.PortfolioSnapshot{
		Projects: []types.GeneratedProject{{Title: "api", Stars: 3}},
		LatestCoaching: &types.CoachingSession{
			PriorityScore: 65,
			ActionItems:   []types.ActionItem{{Title: "Add a demo video", Priority: 2, Effort: "low", Impact: "high"}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "COACHING")
	assert.Contains(t, out, "Priority score: 65/100")
	assert.Contains(t, out, "Add a demo video")
}

func TestPrintSnapshot_WithoutCoaching(t *testing.T) {
	var buf bytes.Buffer
	printSnapshot(observability.NewPrinter(&buf), &types.PortfolioSnapshot{})
	assert.NotContains(t, buf.String(), "COACHING")
}
