package github

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLastPage(t *testing.T) {
	tests := []struct {
		name   string
		link   string
		want   int
		wantOK bool
	}{
		{"next and last", `<https://x/commits?per_page=1&page=2>; rel="next", <https://x/commits?per_page=1&page=137>; rel="last"`, 137, true},
		{"page first in query", `<https://x/commits?page=9&per_page=1>; rel="last"`, 9, true},
		{"no last", `<https://x/commits?page=2>; rel="next"`, 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseLastPage(tt.link)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectKeyFiles(t *testing.T) {
	entries := []treeEntry{
		{Path: "src/a.go", Type: "blob"},
		{Path: "package.json", Type: "blob"},
		{Path: "node_modules/x/src/index.js", Type: "blob"},
		{Path: "src", Type: "tree"},
		{Path: "lib/util.py", Type: "blob"},
		{Path: "src/huge.go", Type: "blob", Size: maxKeyFileSize + 1},
		{Path: "src/app.min.js", Type: "blob"},
		{Path: "cmd/main.go", Type: "blob"},
		{Path: "services/api/src/server.ts", Type: "blob"},
	}

	got := SelectKeyFiles(entries, MaxKeyFiles)
	paths := []string{}
	for _, e := range got {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"package.json", "src/a.go", "lib/util.py", "services/api/src/server.ts"}, paths)
}

func TestSelectKeyFiles_Limit(t *testing.T) {
	var entries []treeEntry
	for i := 0; i < 25; i++ {
		entries = append(entries, treeEntry{Path: fmt.Sprintf("src/f%d.go", i), Type: "blob"})
	}
	assert.Len(t, SelectKeyFiles(entries, MaxKeyFiles), MaxKeyFiles)
}

func TestComputeContributionPatterns(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repos := []Repository{
		{Language: "Python", Stars: 4, Forks: 1, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: now.AddDate(0, -1, 0)},
		{Language: "Python", Stars: 2, CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: now.AddDate(-1, 0, 0)},
		{Language: "Go", Stars: 1, Forks: 2, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: now.AddDate(0, -2, 0)},
		{Language: "", CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: now.AddDate(-2, 0, 0)},
	}

	p := ComputeContributionPatterns(repos, now)
	assert.Equal(t, 4, p.TotalRepos)
	assert.Equal(t, []LanguageCount{{"Python", 2}, {"Go", 1}}, p.Languages)
	assert.Equal(t, 7, p.TotalStars)
	assert.Equal(t, 3, p.TotalForks)
	assert.Equal(t, 2025, p.MostActiveYear, "ties go to the most recent year")
	assert.Equal(t, 0.5, p.ConsistencyScore)
	assert.Equal(t, 2, p.LanguageRepoCount("Python"))
	assert.Equal(t, 0, p.LanguageRepoCount("Rust"))
}

func TestComputeContributionPatterns_Empty(t *testing.T) {
	p := ComputeContributionPatterns(nil, time.Now())
	assert.Equal(t, 0, p.TotalRepos)
	assert.Equal(t, 0.0, p.ConsistencyScore)
	assert.Empty(t, p.Languages)
}

func TestErrorClassifiers(t *testing.T) {
	notFound := fmt.Errorf("wrapped: %w", &APIError{StatusCode: http.StatusNotFound})
	limited := &APIError{StatusCode: http.StatusForbidden, RateLimitExhausted: true}
	down := &APIError{StatusCode: http.StatusBadGateway}

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(limited))
	assert.True(t, IsRateLimited(limited))
	assert.True(t, IsUnavailable(down))
	assert.False(t, IsUnavailable(errors.New("plain")))
}
