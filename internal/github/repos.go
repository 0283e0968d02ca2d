package github

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/cache"
	"github.com/jonathan/portfolio-generator/internal/gather"
)

var errIncompleteDetails = errors.New("repository metadata unavailable")

// FetchUser returns the account profile
func (c *Client) FetchUser(ctx context.Context) (*User, error) {
	user, _, err := cache.GetOrFetch(ctx, c.cache, c.userID, cache.KeyUserData, cache.TTLUserData,
		func(ctx context.Context) (*User, error) {
			var u User
			if _, err := c.getJSON(ctx, "/users/"+url.PathEscape(c.username), nil, &u); err != nil {
				return nil, err
			}
			return &u, nil
		})
	return user, err
}

// FetchRepositories returns the user's repositories after filtering. The unfiltered listing is
// what gets cached, so different filters share one cache entry.
func (c *Client) FetchRepositories(ctx context.Context, filter RepoFilter) ([]Repository, error) {
	all, fromCache, err := cache.GetOrFetch(ctx, c.cache, c.userID, cache.KeyRepositories, cache.TTLRepositories, c.listAllRepositories)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("repositories loaded", zap.Int("count", len(all)), zap.Bool("from_cache", fromCache))
	return FilterRepositories(all, filter), nil
}

func (c *Client) listAllRepositories(ctx context.Context) ([]Repository, error) {
	var all []Repository
	for page := 1; page <= c.cfg.MaxPages; page++ {
		query := url.Values{}
		query.Set("per_page", strconv.Itoa(c.cfg.PerPage))
		query.Set("page", strconv.Itoa(page))
		query.Set("sort", "updated")
		query.Set("type", "owner")

		var batch []Repository
		if _, err := c.getJSON(ctx, "/users/"+url.PathEscape(c.username)+"/repos", query, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < c.cfg.PerPage {
			break
		}
	}
	if all == nil {
		all = []Repository{}
	}
	return all, nil
}

// FilterRepositories excludes forks, then applies the star threshold, then truncates to the limit
func FilterRepositories(repos []Repository, filter RepoFilter) []Repository {
	out := make([]Repository, 0, len(repos))
	for _, r := range repos {
		if filter.ExcludeForked && r.Fork {
			continue
		}
		if r.Stars < filter.MinStars {
			continue
		}
		out = append(out, r)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// FetchRepoDetails fetches metadata, README, language breakdown and commit count concurrently.
// A failed sub-fetch leaves its field nil. Aggregates missing the metadata are returned but not cached.
func (c *Client) FetchRepoDetails(ctx context.Context, name string) (*RepoDetails, error) {
	details, _, err := cache.GetOrFetch(ctx, c.cache, c.userID, cache.RepoKey(name), cache.TTLRepoDetails,
		func(ctx context.Context) (*RepoDetails, error) {
			return c.fetchRepoDetailsLive(ctx, name)
		})
	if errors.Is(err, errIncompleteDetails) {
		return details, nil
	}
	return details, err
}

func (c *Client) fetchRepoDetailsLive(ctx context.Context, name string) (*RepoDetails, error) {
	details := &RepoDetails{}

	errs := gather.Settle(ctx,
		func(ctx context.Context) error {
			var repo Repository
			if _, err := c.getJSON(ctx, c.repoPath(name), nil, &repo); err != nil {
				return err
			}
			details.Repository = &repo
			return nil
		},
		func(ctx context.Context) error {
			readme, err := c.fetchReadme(ctx, name)
			if err != nil {
				return err
			}
			details.Readme = &readme
			return nil
		},
		func(ctx context.Context) error {
			langs := map[string]int{}
			if _, err := c.getJSON(ctx, c.repoPath(name, "languages"), nil, &langs); err != nil {
				return err
			}
			details.Languages = langs
			return nil
		},
		func(ctx context.Context) error {
			count, err := c.fetchCommitCount(ctx, name)
			if err != nil {
				return err
			}
			details.CommitCount = &count
			return nil
		},
	)

	for i, err := range errs {
		if err != nil {
			c.logger.Warn("repository sub-fetch failed", zap.String("repo", name), zap.Int("sub_fetch", i), zap.Error(err))
		}
	}
	if details.Repository == nil {
		return details, errIncompleteDetails
	}
	return details, nil
}

// fetchCommitCount lists commits one per page and reads the last page number from the Link header
func (c *Client) fetchCommitCount(ctx context.Context, name string) (int, error) {
	query := url.Values{}
	query.Set("per_page", "1")
	var commits []map[string]any
	header, err := c.getJSON(ctx, c.repoPath(name, "commits"), query, &commits)
	if err != nil {
		return 0, err
	}
	if last, ok := parseLastPage(header.Get("Link")); ok {
		return last, nil
	}
	return len(commits), nil
}

var lastPagePattern = regexp.MustCompile(`[?&]page=(\d+)[^>]*>;\s*rel="last"`)

// parseLastPage extracts the page number of the rel="last" link
func parseLastPage(link string) (int, bool) {
	m := lastPagePattern.FindStringSubmatch(link)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
