package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/portfolio-generator/internal/content"
	"github.com/jonathan/portfolio-generator/internal/github"
	"github.com/jonathan/portfolio-generator/internal/parsing"
	"github.com/jonathan/portfolio-generator/internal/types"
)

const (
	maxTechnologies = 10
	maxAboutProject = 5
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// repositoryProject builds the project row for a narrated repository. The repository name is
// the source id, so re-runs upsert the same row.
func repositoryProject(er enrichedRepo, n *content.ProjectNarrative) types.GeneratedProject {
	langs := []string{er.Repo.Language}
	if er.Details != nil {
		langs = append(langs, languagesByBytes(er.Details.Languages)...)
	}
	return types.GeneratedProject{
		Title:            er.Repo.Name,
		ShortDescription: n.ShortDescription,
		LongDescription:  n.LongDescription,
		Highlights:       n.Highlights,
		Gaps:             n.Gaps,
		Technologies:     technologies(append(langs, n.Skills...)),
		Confidence:       n.Confidence,
		RepoURL:          er.Repo.HTMLURL,
		LiveURL:          er.Repo.Homepage,
		Stars:            er.Repo.Stars,
		Visible:          true,
		Source:           types.SourceGitHub,
		SourceID:         er.Repo.Name,
	}
}

// documentProjects converts resume and LinkedIn projects, skipping any that duplicate a
// repository project by URL or title
func documentProjects(existing []types.GeneratedProject, documents ...*types.NormalizedFacts) []types.GeneratedProject {
	seen := make(map[string]bool)
	for _, p := range existing {
		seen["title:"+strings.ToLower(p.Title)] = true
		if p.RepoURL != "" {
			seen["url:"+strings.ToLower(p.RepoURL)] = true
		}
	}

	var out []types.GeneratedProject
	for _, doc := range documents {
		if doc == nil {
			continue
		}
		for _, p := range doc.Projects {
			title := strings.TrimSpace(p.Title)
			slug := Slug(title)
			if slug == "" {
				continue
			}
			titleKey := "title:" + strings.ToLower(title)
			urlKey := "url:" + strings.ToLower(p.RepoURL)
			if seen[titleKey] || (p.RepoURL != "" && seen[urlKey]) {
				continue
			}
			seen[titleKey] = true
			if p.RepoURL != "" {
				seen[urlKey] = true
			}

			source := p.Source
			if source == "" {
				source = doc.Source
			}
			out = append(out, types.GeneratedProject{
				Title:            title,
				ShortDescription: strings.TrimSpace(p.Description),
				Technologies:     technologies(p.Tags),
				RepoURL:          p.RepoURL,
				LiveURL:          p.URL,
				Visible:          true,
				Source:           source,
				SourceID:         slug,
			})
		}
	}
	return out
}

// Slug lowercases s and joins its alphanumeric runs with hyphens
func Slug(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func languagesByBytes(langs map[string]int) []string {
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// technologies normalizes and dedupes names, keeping first-seen order
func technologies(names []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, raw := range names {
		name := parsing.NormalizeSkillName(raw)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
		if len(out) == maxTechnologies {
			break
		}
	}
	return out
}

// topProjects returns the highest-starred projects for the about section
func topProjects(projects []types.GeneratedProject) []types.GeneratedProject {
	top := append([]types.GeneratedProject(nil), projects...)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Stars > top[j].Stars
	})
	if len(top) > maxAboutProject {
		top = top[:maxAboutProject]
	}
	return top
}

// contactInfo takes the resume contact, then LinkedIn, and fills remaining gaps from the
// GitHub profile
func contactInfo(sources *types.ConnectedSources, user *github.User) *types.ContactInfo {
	contact := &types.ContactInfo{}
	for _, facts := range []*types.NormalizedFacts{sources.ResumeFacts(), sources.LinkedInFacts()} {
		if facts != nil && facts.Contact != nil {
			fillContact(contact, facts.Contact)
		}
	}
	if user != nil {
		fillContact(contact, &types.ContactInfo{
			Name:     user.Name,
			Headline: user.Bio,
			Email:    user.Email,
			Location: user.Location,
			Website:  user.Blog,
			GitHub:   user.HTMLURL,
		})
	}
	return contact
}

func fillContact(dst, src *types.ContactInfo) {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = strings.TrimSpace(s)
		}
	}
	fill(&dst.Name, src.Name)
	fill(&dst.Headline, src.Headline)
	fill(&dst.Email, src.Email)
	fill(&dst.Phone, src.Phone)
	fill(&dst.Location, src.Location)
	fill(&dst.Website, src.Website)
	fill(&dst.LinkedIn, src.LinkedIn)
	fill(&dst.GitHub, src.GitHub)
}
