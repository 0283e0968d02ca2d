// Package github fetches a user's public repository metadata and derived signals from the
// GitHub REST API, under the per-user external data cache.
package github

import "time"

// User is the subset of a GitHub profile the generator uses
type User struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Blog        string `json:"blog"`
	Location    string `json:"location"`
	Email       string `json:"email"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	HTMLURL     string `json:"html_url"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
}

// Repository is the subset of repository metadata the generator uses
type Repository struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	HTMLURL       string    `json:"html_url"`
	Homepage      string    `json:"homepage"`
	Language      string    `json:"language"`
	Topics        []string  `json:"topics"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	Fork          bool      `json:"fork"`
	DefaultBranch string    `json:"default_branch"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
}

// RepoFilter selects repositories from the full listing
type RepoFilter struct {
	Limit         int // <= 0 means no limit
	MinStars      int
	ExcludeForked bool
}

// RepoDetails aggregates the secondary fetches for one repository.
// A sub-fetch that failed leaves its field nil.
type RepoDetails struct {
	Repository *Repository    `json:"repository"`
	Readme     *string        `json:"readme"`
	Languages  map[string]int `json:"languages"`
	// CommitCount is approximated from the last page number of a one-per-page commit listing.
	CommitCount *int `json:"commit_count"`
}

// KeyFile is a source file selected as representative of a repository
type KeyFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// LanguageCount is one bucket of the language histogram
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// ContributionPatterns aggregates the repository listing
type ContributionPatterns struct {
	TotalRepos       int             `json:"total_repos"`
	Languages        []LanguageCount `json:"languages"`
	TotalStars       int             `json:"total_stars"`
	TotalForks       int             `json:"total_forks"`
	MostActiveYear   int             `json:"most_active_year"`
	ConsistencyScore float64         `json:"consistency_score"`
}

// LanguageRepoCount returns the number of repositories whose primary language is lang
func (p *ContributionPatterns) LanguageRepoCount(lang string) int {
	for _, lc := range p.Languages {
		if lc.Language == lang {
			return lc.Count
		}
	}
	return 0
}

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int    `json:"size"`
}

type treeResponse struct {
	SHA       string      `json:"sha"`
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type blobResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
}
