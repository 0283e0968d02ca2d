// Package types provides type definitions for structured data used throughout the portfolio generator.
//
//nolint:revive // types is a standard Go package name pattern
package types

// FactSource records where a fact came from. It is kept through merge and dedupe.
type FactSource string

// FactSource constants
const (
	SourceGitHub   FactSource = "github"
	SourceResume   FactSource = "resume"
	SourceLinkedIn FactSource = "linkedin"
	SourceManual   FactSource = "manual"
)

// NormalizedFacts is the intermediate schema every data source is mapped into before generation
type NormalizedFacts struct {
	Source         FactSource   `json:"source"`
	Contact        *ContactInfo `json:"contact,omitempty"`
	Experiences    []Experience `json:"experiences"`
	Education      []Education  `json:"education"`
	Skills         []SkillFact  `json:"skills"`
	Projects       []Project    `json:"projects"`
	Certifications []string     `json:"certifications,omitempty"`
}

// ContactInfo holds the candidate's contact details
type ContactInfo struct {
	Name     string `json:"name,omitempty"`
	Headline string `json:"headline,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// Experience represents one position held by the candidate
type Experience struct {
	Company     string     `json:"company"`
	Role        string     `json:"role"`
	StartDate   string     `json:"start_date,omitempty"`
	EndDate     string     `json:"end_date,omitempty"`
	Description string     `json:"description,omitempty"`
	Current     bool       `json:"current"`
	Location    string     `json:"location,omitempty"`
	Source      FactSource `json:"source"`
	// UserEditedDescription is set when a resume entry overrides a LinkedIn entry
	UserEditedDescription string `json:"user_edited_description,omitempty"`
}

// Education represents one degree or program
type Education struct {
	Institution string     `json:"institution"`
	Degree      string     `json:"degree,omitempty"`
	Field       string     `json:"field,omitempty"`
	StartDate   string     `json:"start_date,omitempty"`
	EndDate     string     `json:"end_date,omitempty"`
	Source      FactSource `json:"source"`
}

// SkillFact is a skill token as extracted from a document
type SkillFact struct {
	Name    string       `json:"name"`
	Sources []FactSource `json:"sources"`
}

// Project is a project fact from a document or entered manually
type Project struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	URL         string     `json:"url,omitempty"`
	RepoURL     string     `json:"repo_url,omitempty"`
	Source      FactSource `json:"source"`
}

// HasContent reports whether any section holds data
func (f *NormalizedFacts) HasContent() bool {
	if f == nil {
		return false
	}
	return len(f.Experiences) > 0 || len(f.Education) > 0 || len(f.Skills) > 0 ||
		len(f.Projects) > 0 || len(f.Certifications) > 0 || f.Contact != nil
}
