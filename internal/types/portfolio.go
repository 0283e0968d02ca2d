package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Skill categories
const (
	SkillCategoryLanguage = "language"
	SkillCategoryTool     = "tool"
)

// AboutSectionType is the section type of the generated about-me record
const AboutSectionType = "about"

// Portfolio is the parent record a generation run writes into
type Portfolio struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Title          string    `json:"title"`
	SEOTitle       string    `json:"seo_title,omitempty"`
	SEODescription string    `json:"seo_description,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GeneratedProject is a persisted project enriched with generated text.
// (PortfolioID, Source, SourceID) is unique.
type GeneratedProject struct {
	ID               uuid.UUID          `json:"id"`
	PortfolioID      uuid.UUID          `json:"portfolio_id"`
	Title            string             `json:"title"`
	ShortDescription string             `json:"short_description"`
	LongDescription  string             `json:"long_description"`
	Highlights       []string           `json:"highlights,omitempty"`
	Gaps             []string           `json:"gaps,omitempty"`
	Technologies     []string           `json:"technologies"`
	Confidence       *float64           `json:"confidence,omitempty"`
	RepoURL          string             `json:"repo_url,omitempty"`
	LiveURL          string             `json:"live_url,omitempty"`
	Stars            int                `json:"stars"`
	DisplayOrder     int                `json:"display_order"`
	Visible          bool               `json:"visible"`
	Source           FactSource         `json:"source"`
	SourceID         string             `json:"source_id"`
	CodeQuality      *CodeQualityReport `json:"code_quality,omitempty"`
}

// CodeQualityReport is a stored code-quality critique of one repository
type CodeQualityReport struct {
	Score           float64  `json:"score"`
	Strengths       []string `json:"strengths"`
	Patterns        []string `json:"patterns"`
	Recommendations []string `json:"recommendations"`
}

// GeneratedExperience is a persisted work-history entry
type GeneratedExperience struct {
	ID                    uuid.UUID  `json:"id"`
	PortfolioID           uuid.UUID  `json:"portfolio_id"`
	Company               string     `json:"company"`
	Role                  string     `json:"role"`
	StartDate             string     `json:"start_date,omitempty"`
	EndDate               string     `json:"end_date,omitempty"`
	Description           string     `json:"description,omitempty"`
	UserEditedDescription string     `json:"user_edited_description,omitempty"`
	Current               bool       `json:"current"`
	Location              string     `json:"location,omitempty"`
	DisplayOrder          int        `json:"display_order"`
	Visible               bool       `json:"visible"`
	Source                FactSource `json:"source"`
}

// GeneratedSkill is a persisted skill with provenance
type GeneratedSkill struct {
	ID           uuid.UUID    `json:"id"`
	PortfolioID  uuid.UUID    `json:"portfolio_id"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Proficiency  int          `json:"proficiency"`
	DerivedFrom  []FactSource `json:"derived_from"`
	DisplayOrder int          `json:"display_order"`
	Visible      bool         `json:"visible"`
}

// GeneratedEducation is a persisted education entry
type GeneratedEducation struct {
	ID           uuid.UUID  `json:"id"`
	PortfolioID  uuid.UUID  `json:"portfolio_id"`
	Institution  string     `json:"institution"`
	Degree       string     `json:"degree,omitempty"`
	Field        string     `json:"field,omitempty"`
	StartDate    string     `json:"start_date,omitempty"`
	EndDate      string     `json:"end_date,omitempty"`
	DisplayOrder int        `json:"display_order"`
	Source       FactSource `json:"source"`
}

// AboutContent is the generated about-me section; one per portfolio and section type
type AboutContent struct {
	PortfolioID     uuid.UUID `json:"portfolio_id"`
	SectionType     string    `json:"section_type"`
	Content         string    `json:"content"`
	Tagline         string    `json:"tagline"`
	MetaDescription string    `json:"meta_description"`
	Confidence      *float64  `json:"confidence,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AtsSuggestion is one prioritized improvement
type AtsSuggestion struct {
	Priority   string `json:"priority"`
	Category   string `json:"category,omitempty"`
	Suggestion string `json:"suggestion"`
}

// AtsScore is one ATS analysis run. Append-only.
type AtsScore struct {
	ID              uuid.UUID       `json:"id"`
	PortfolioID     uuid.UUID       `json:"portfolio_id"`
	OverallScore    int             `json:"overall_score"`
	KeywordScore    int             `json:"keyword_score"`
	FormattingScore int             `json:"formatting_score"`
	ContentScore    int             `json:"content_score"`
	MissingKeywords []string        `json:"missing_keywords"`
	Suggestions     []AtsSuggestion `json:"suggestions"`
	TargetRole      string          `json:"target_role"`
	RawAnalysis     json.RawMessage `json:"raw_analysis,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ActionItem is one coaching action with effort/impact tags
type ActionItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
	Effort      string `json:"effort"`
	Impact      string `json:"impact"`
}

// Coaching session statuses
const (
	CoachingStatusActive    = "active"
	CoachingStatusCompleted = "completed"
)

// CoachingSession is one coaching pass. Append-only.
type CoachingSession struct {
	ID              uuid.UUID    `json:"id"`
	PortfolioID     uuid.UUID    `json:"portfolio_id"`
	Recommendations []string     `json:"recommendations"`
	ActionItems     []ActionItem `json:"action_items"`
	PriorityScore   int          `json:"priority_score"`
	Status          string       `json:"status"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// PortfolioSnapshot is the persisted state of a portfolio as reloaded after a write
type PortfolioSnapshot struct {
	Portfolio   *Portfolio            `json:"portfolio"`
	Projects    []GeneratedProject    `json:"projects"`
	Experiences []GeneratedExperience `json:"experiences"`
	Skills      []GeneratedSkill      `json:"skills"`
	Education   []GeneratedEducation  `json:"education"`
	About       *AboutContent         `json:"about,omitempty"`
	AtsHistory  []AtsScore            `json:"ats_history,omitempty"`
	// LatestCoaching is the most recent coaching session, if any
	LatestCoaching *CoachingSession `json:"latest_coaching,omitempty"`
}

// GenerationResult is the aggregate a run hands to the persistence gateway
type GenerationResult struct {
	PortfolioID uuid.UUID             `json:"portfolio_id"`
	Projects    []GeneratedProject    `json:"projects"`
	Experiences []GeneratedExperience `json:"experiences"`
	Skills      []GeneratedSkill      `json:"skills"`
	Education   []GeneratedEducation  `json:"education"`
	About       *AboutContent         `json:"about,omitempty"`
}
