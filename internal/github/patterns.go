package github

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/jonathan/portfolio-generator/internal/cache"
)

// consistencyWindow is how far back an update counts as recent activity
const consistencyWindow = 6 // months

// AnalyzeContributionPatterns aggregates the full repository listing
func (c *Client) AnalyzeContributionPatterns(ctx context.Context) (*ContributionPatterns, error) {
	patterns, _, err := cache.GetOrFetch(ctx, c.cache, c.userID, cache.KeyContributionPatterns, cache.TTLContributionPatterns,
		func(ctx context.Context) (*ContributionPatterns, error) {
			repos, err := c.FetchRepositories(ctx, RepoFilter{})
			if err != nil {
				return nil, err
			}
			return ComputeContributionPatterns(repos, c.now()), nil
		})
	return patterns, err
}

// ComputeContributionPatterns builds the language histogram (descending by count), star and fork
// totals, the year most repositories were created in, and the share of repositories updated in
// the trailing six months rounded to one decimal.
func ComputeContributionPatterns(repos []Repository, now time.Time) *ContributionPatterns {
	p := &ContributionPatterns{TotalRepos: len(repos), Languages: []LanguageCount{}}
	if len(repos) == 0 {
		return p
	}

	langCounts := map[string]int{}
	yearCounts := map[int]int{}
	cutoff := now.AddDate(0, -consistencyWindow, 0)
	recent := 0

	for _, r := range repos {
		if r.Language != "" {
			langCounts[r.Language]++
		}
		p.TotalStars += r.Stars
		p.TotalForks += r.Forks
		if !r.CreatedAt.IsZero() {
			yearCounts[r.CreatedAt.Year()]++
		}
		if r.UpdatedAt.After(cutoff) {
			recent++
		}
	}

	for lang, n := range langCounts {
		p.Languages = append(p.Languages, LanguageCount{Language: lang, Count: n})
	}
	sort.Slice(p.Languages, func(i, j int) bool {
		if p.Languages[i].Count != p.Languages[j].Count {
			return p.Languages[i].Count > p.Languages[j].Count
		}
		return p.Languages[i].Language < p.Languages[j].Language
	})

	best := 0
	for year, n := range yearCounts {
		if n > best || (n == best && year > p.MostActiveYear) {
			best = n
			p.MostActiveYear = year
		}
	}

	p.ConsistencyScore = math.Round(float64(recent)/float64(len(repos))*10) / 10
	return p
}
