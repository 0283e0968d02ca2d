package content

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/portfolio-generator/internal/github"
	"github.com/jonathan/portfolio-generator/internal/types"
)

const (
	maxReadmeChars   = 6000
	maxFileChars     = 4000
	maxCareerProject = 5
)

// ProjectInput is the repository material for a project narrative
type ProjectInput struct {
	Repository github.Repository
	// Details may be nil when enrichment failed; the narrative then uses listing metadata only
	Details *github.RepoDetails
}

func (in *ProjectInput) data() map[string]string {
	repo := in.Repository
	data := map[string]string{
		"Name":        repo.Name,
		"Description": orNone(repo.Description),
		"Language":    orNone(repo.Language),
		"Languages":   "none",
		"Topics":      orNone(strings.Join(repo.Topics, ", ")),
		"Stars":       strconv.Itoa(repo.Stars),
		"CommitCount": "unknown",
		"Homepage":    orNone(repo.Homepage),
		"Readme":      "none",
	}
	if d := in.Details; d != nil {
		if len(d.Languages) > 0 {
			data["Languages"] = formatLanguages(d.Languages)
		}
		if d.CommitCount != nil {
			data["CommitCount"] = strconv.Itoa(*d.CommitCount)
		}
		if d.Readme != nil && strings.TrimSpace(*d.Readme) != "" {
			data["Readme"] = truncateRunes(*d.Readme, maxReadmeChars)
		}
	}
	return data
}

// CareerInput is the merged profile for the about-me narrative
type CareerInput struct {
	Contact     *types.ContactInfo
	TargetRole  string
	Experiences []types.Experience
	Education   []types.Education
	Skills      []types.GeneratedSkill
	Projects    []types.GeneratedProject
	Patterns    *github.ContributionPatterns
}

func (in *CareerInput) data() map[string]string {
	contact := in.Contact
	if contact == nil {
		contact = &types.ContactInfo{}
	}

	var exp strings.Builder
	for _, e := range in.Experiences {
		end := e.EndDate
		if e.Current {
			end = "present"
		}
		fmt.Fprintf(&exp, "- %s at %s (%s - %s)", e.Role, e.Company, orNone(e.StartDate), orNone(end))
		if desc := experienceText(e); desc != "" {
			fmt.Fprintf(&exp, ": %s", desc)
		}
		exp.WriteString("\n")
	}

	var edu strings.Builder
	for _, e := range in.Education {
		fmt.Fprintf(&edu, "- %s", e.Institution)
		if e.Degree != "" {
			fmt.Fprintf(&edu, ", %s", e.Degree)
		}
		if e.Field != "" {
			fmt.Fprintf(&edu, " in %s", e.Field)
		}
		edu.WriteString("\n")
	}

	skills := make([]string, 0, len(in.Skills))
	for _, s := range in.Skills {
		skills = append(skills, s.Name)
	}

	var projects strings.Builder
	for i, p := range in.Projects {
		if i == maxCareerProject {
			break
		}
		fmt.Fprintf(&projects, "- %s: %s\n", p.Title, p.ShortDescription)
	}

	return map[string]string{
		"Name":        orNone(contact.Name),
		"Headline":    orNone(contact.Headline),
		"TargetRole":  orNone(in.TargetRole),
		"Location":    orNone(contact.Location),
		"Experiences": orNone(strings.TrimSpace(exp.String())),
		"Education":   orNone(strings.TrimSpace(edu.String())),
		"Skills":      orNone(strings.Join(skills, ", ")),
		"Projects":    orNone(strings.TrimSpace(projects.String())),
		"Patterns":    formatPatterns(in.Patterns),
	}
}

// CodeQualityInput is the key-file sample of one repository
type CodeQualityInput struct {
	Repository string
	Language   string
	Files      []github.KeyFile
}

func (in *CodeQualityInput) data() map[string]string {
	var files strings.Builder
	for _, f := range in.Files {
		fmt.Fprintf(&files, "=== %s ===\n%s\n\n", f.Path, truncateRunes(f.Content, maxFileChars))
	}
	return map[string]string{
		"Name":     in.Repository,
		"Language": orNone(in.Language),
		"Files":    orNone(strings.TrimSpace(files.String())),
	}
}

// AtsInput is the flattened portfolio text scored against a role
type AtsInput struct {
	TargetRole string
	Content    string
}

func (in *AtsInput) data() map[string]string {
	return map[string]string{
		"TargetRole": orNone(in.TargetRole),
		"Content":    orNone(in.Content),
	}
}

// CoachingInput is the portfolio summary and its latest ATS analysis
type CoachingInput struct {
	TargetRole string
	Summary    string
	Ats        *types.AtsScore
}

func (in *CoachingInput) data() map[string]string {
	ats := "none"
	if in.Ats != nil {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Overall %d/100 (keywords %d, formatting %d, content %d)\n",
			in.Ats.OverallScore, in.Ats.KeywordScore, in.Ats.FormattingScore, in.Ats.ContentScore)
		if len(in.Ats.MissingKeywords) > 0 {
			fmt.Fprintf(&sb, "Missing keywords: %s\n", strings.Join(in.Ats.MissingKeywords, ", "))
		}
		for _, s := range in.Ats.Suggestions {
			fmt.Fprintf(&sb, "- [%s] %s\n", s.Priority, s.Suggestion)
		}
		ats = strings.TrimSpace(sb.String())
	}
	return map[string]string{
		"TargetRole":  orNone(in.TargetRole),
		"Summary":     orNone(in.Summary),
		"AtsAnalysis": ats,
	}
}

// PortfolioText flattens a persisted portfolio into the plain text an ATS would see
func PortfolioText(s *types.PortfolioSnapshot) string {
	if s == nil {
		return ""
	}
	var sb strings.Builder
	if s.About != nil {
		if s.About.Tagline != "" {
			sb.WriteString(s.About.Tagline + "\n\n")
		}
		sb.WriteString("ABOUT\n" + s.About.Content + "\n\n")
	}

	if len(s.Experiences) > 0 {
		sb.WriteString("EXPERIENCE\n")
		for _, e := range s.Experiences {
			end := e.EndDate
			if e.Current {
				end = "Present"
			}
			fmt.Fprintf(&sb, "%s, %s (%s - %s)\n", e.Role, e.Company, e.StartDate, end)
			desc := e.UserEditedDescription
			if desc == "" {
				desc = e.Description
			}
			if desc != "" {
				sb.WriteString(desc + "\n")
			}
		}
		sb.WriteString("\n")
	}

	if len(s.Projects) > 0 {
		sb.WriteString("PROJECTS\n")
		for _, p := range s.Projects {
			fmt.Fprintf(&sb, "%s: %s\n", p.Title, p.ShortDescription)
			for _, h := range p.Highlights {
				sb.WriteString("- " + h + "\n")
			}
			if len(p.Technologies) > 0 {
				sb.WriteString("Technologies: " + strings.Join(p.Technologies, ", ") + "\n")
			}
		}
		sb.WriteString("\n")
	}

	if len(s.Skills) > 0 {
		names := make([]string, 0, len(s.Skills))
		for _, sk := range s.Skills {
			names = append(names, sk.Name)
		}
		sb.WriteString("SKILLS\n" + strings.Join(names, ", ") + "\n\n")
	}

	if len(s.Education) > 0 {
		sb.WriteString("EDUCATION\n")
		for _, e := range s.Education {
			line := e.Institution
			if e.Degree != "" {
				line += ", " + e.Degree
			}
			if e.Field != "" {
				line += " in " + e.Field
			}
			sb.WriteString(line + "\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func experienceText(e types.Experience) string {
	if e.UserEditedDescription != "" {
		return e.UserEditedDescription
	}
	return e.Description
}

func formatLanguages(langs map[string]int) string {
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
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%d)", name, langs[name]))
	}
	return strings.Join(parts, ", ")
}

func formatPatterns(p *github.ContributionPatterns) string {
	if p == nil {
		return "none"
	}
	langs := make([]string, 0, len(p.Languages))
	for _, lc := range p.Languages {
		langs = append(langs, fmt.Sprintf("%s (%d repos)", lc.Language, lc.Count))
	}
	return fmt.Sprintf("%d public repositories, %d stars in total, most active in %d, languages: %s",
		p.TotalRepos, p.TotalStars, p.MostActiveYear, orNone(strings.Join(langs, ", ")))
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
