package content

import (
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/portfolio-generator/internal/schemas"
	"github.com/jonathan/portfolio-generator/internal/types"
)

// TaskType names one content task
type TaskType string

// TaskType constants. Each one has a prompt and an output schema.
const (
	TaskProjectNarrative TaskType = schemas.ProjectNarrative
	TaskCareerNarrative  TaskType = schemas.CareerNarrative
	TaskCodeQuality      TaskType = schemas.CodeQuality
	TaskAtsCritique      TaskType = schemas.AtsCritique
	TaskCoaching         TaskType = schemas.Coaching
)

// Output is the typed result of one task. The concrete type is fixed per TaskType.
type Output interface {
	Task() TaskType
}

// ProjectNarrative is the generated text for one repository
type ProjectNarrative struct {
	ShortDescription string   `json:"short_description"`
	LongDescription  string   `json:"long_description"`
	Highlights       []string `json:"highlights"`
	Skills           []string `json:"skills"`
	Confidence       *float64 `json:"confidence"`
	Gaps             []string `json:"gaps"`
}

// Task implements Output
func (*ProjectNarrative) Task() TaskType { return TaskProjectNarrative }

func (p *ProjectNarrative) normalize() {
	p.ShortDescription = truncateRunes(strings.TrimSpace(p.ShortDescription), 200)
	p.LongDescription = strings.TrimSpace(p.LongDescription)
	p.Highlights = cleanList(p.Highlights)
	p.Skills = cleanList(p.Skills)
	p.Gaps = cleanList(p.Gaps)
	p.Confidence = clampConfidence(p.Confidence)
}

// CareerNarrative is the generated about-me section
type CareerNarrative struct {
	AboutMe         string   `json:"about_me"`
	Tagline         string   `json:"tagline"`
	MetaDescription string   `json:"meta_description"`
	Confidence      *float64 `json:"confidence"`
}

// Task implements Output
func (*CareerNarrative) Task() TaskType { return TaskCareerNarrative }

func (c *CareerNarrative) normalize() {
	c.AboutMe = strings.TrimSpace(c.AboutMe)
	c.Tagline = truncateRunes(strings.TrimSpace(c.Tagline), 80)
	c.MetaDescription = strings.TrimSpace(c.MetaDescription)
	if c.MetaDescription == "" {
		c.MetaDescription = firstSentence(c.AboutMe)
	}
	c.MetaDescription = truncateRunes(c.MetaDescription, 160)
	c.Confidence = clampConfidence(c.Confidence)
}

// CodeQuality is a critique of one repository's key files
type CodeQuality struct {
	Repository      string   `json:"repository"`
	Score           float64  `json:"score"`
	Strengths       []string `json:"strengths"`
	Patterns        []string `json:"patterns"`
	Recommendations []string `json:"recommendations"`
}

// Task implements Output
func (*CodeQuality) Task() TaskType { return TaskCodeQuality }

func (c *CodeQuality) normalize() {
	c.Score = clamp(c.Score, 1, 10)
	c.Strengths = cleanList(c.Strengths)
	c.Patterns = cleanList(c.Patterns)
	c.Recommendations = cleanList(c.Recommendations)
}

// Report converts the critique to its stored form
func (c *CodeQuality) Report() *types.CodeQualityReport {
	return &types.CodeQualityReport{
		Score:           c.Score,
		Strengths:       c.Strengths,
		Patterns:        c.Patterns,
		Recommendations: c.Recommendations,
	}
}

// AtsAnalysis is an applicant-tracking-system critique of the whole portfolio
type AtsAnalysis struct {
	OverallScore    int                   `json:"overall_score"`
	KeywordScore    int                   `json:"keyword_score"`
	FormattingScore int                   `json:"formatting_score"`
	ContentScore    int                   `json:"content_score"`
	MissingKeywords []string              `json:"missing_keywords"`
	Suggestions     []types.AtsSuggestion `json:"suggestions"`
	// Raw is the validated JSON object the model returned
	Raw json.RawMessage `json:"-"`
}

// Task implements Output
func (*AtsAnalysis) Task() TaskType { return TaskAtsCritique }

type atsWire struct {
	OverallScore    float64               `json:"overall_score"`
	KeywordScore    float64               `json:"keyword_score"`
	FormattingScore float64               `json:"formatting_score"`
	ContentScore    float64               `json:"content_score"`
	MissingKeywords []string              `json:"missing_keywords"`
	Suggestions     []types.AtsSuggestion `json:"suggestions"`
}

func (w *atsWire) analysis(raw string) *AtsAnalysis {
	a := &AtsAnalysis{
		OverallScore:    percent(w.OverallScore),
		KeywordScore:    percent(w.KeywordScore),
		FormattingScore: percent(w.FormattingScore),
		ContentScore:    percent(w.ContentScore),
		MissingKeywords: cleanList(w.MissingKeywords),
		Suggestions:     make([]types.AtsSuggestion, 0, len(w.Suggestions)),
		Raw:             json.RawMessage(raw),
	}
	for _, s := range w.Suggestions {
		text := strings.TrimSpace(s.Suggestion)
		if text == "" {
			continue
		}
		a.Suggestions = append(a.Suggestions, types.AtsSuggestion{
			Priority:   level(s.Priority),
			Category:   strings.TrimSpace(s.Category),
			Suggestion: text,
		})
	}
	return a
}

// Score converts the analysis to an ATS history row
func (a *AtsAnalysis) Score(targetRole string) *types.AtsScore {
	return &types.AtsScore{
		OverallScore:    a.OverallScore,
		KeywordScore:    a.KeywordScore,
		FormattingScore: a.FormattingScore,
		ContentScore:    a.ContentScore,
		MissingKeywords: a.MissingKeywords,
		Suggestions:     a.Suggestions,
		TargetRole:      targetRole,
		RawAnalysis:     a.Raw,
	}
}

// Coaching is a set of prioritized recommendations
type Coaching struct {
	Recommendations []string           `json:"recommendations"`
	ActionItems     []types.ActionItem `json:"action_items"`
	// ContentScore is the model's 0-10 rating of the current portfolio
	ContentScore float64 `json:"content_score"`
}

// Task implements Output
func (*Coaching) Task() TaskType { return TaskCoaching }

type coachingWire struct {
	Recommendations []string `json:"recommendations"`
	ActionItems     []struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Priority    *float64 `json:"priority"`
		Effort      string   `json:"effort"`
		Impact      string   `json:"impact"`
	} `json:"action_items"`
	ContentScore float64 `json:"content_score"`
}

func (w *coachingWire) coaching() *Coaching {
	c := &Coaching{
		Recommendations: cleanList(w.Recommendations),
		ActionItems:     make([]types.ActionItem, 0, len(w.ActionItems)),
		ContentScore:    clamp(w.ContentScore, 0, 10),
	}
	for _, item := range w.ActionItems {
		priority := 3
		if item.Priority != nil {
			priority = int(clamp(math.Round(*item.Priority), 1, 5))
		}
		c.ActionItems = append(c.ActionItems, types.ActionItem{
			Title:       strings.TrimSpace(item.Title),
			Description: strings.TrimSpace(item.Description),
			Priority:    priority,
			Effort:      level(item.Effort),
			Impact:      level(item.Impact),
		})
	}
	return c
}

// PriorityScore scales the 0-10 content score to 0-100
func (c *Coaching) PriorityScore() int {
	return int(math.Round(clamp(c.ContentScore, 0, 10) * 10))
}

// Session converts the coaching pass to a stored session
func (c *Coaching) Session() *types.CoachingSession {
	return &types.CoachingSession{
		Recommendations: c.Recommendations,
		ActionItems:     c.ActionItems,
		PriorityScore:   c.PriorityScore(),
		Status:          types.CoachingStatusActive,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampConfidence(c *float64) *float64 {
	if c == nil {
		return nil
	}
	v := clamp(*c, 0, 1)
	return &v
}

func percent(v float64) int {
	return int(math.Round(clamp(v, 0, 100)))
}

// level maps free-form priority/effort/impact tags onto high|medium|low
func level(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical", "urgent":
		return "high"
	case "low", "minor":
		return "low"
	default:
		return "medium"
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		return s[:i+1]
	}
	return s
}
