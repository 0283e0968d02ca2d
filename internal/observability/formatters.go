// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/portfolio-generator/internal/pipeline"
	"github.com/jonathan/portfolio-generator/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// progressBarWidth is the number of cells in a progress bar
	progressBarWidth = 20
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// progressBar renders percent as a fixed-width bar
func progressBar(percent int) string {
	percent = max(0, min(100, percent))
	filled := percent * progressBarWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", progressBarWidth-filled) + "]"
}

// PrintProgress outputs one line per job transition
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	line := fmt.Sprintf("%s %3d%%  %-22s %s", progressBar(event.Progress), event.Progress, event.Stage, event.Message)
	if event.ErrorKind != "" {
		line += fmt.Sprintf(" (%s)", event.ErrorKind)
	}
	fmt.Fprintln(p.out, strings.TrimRight(line, " "))
}

// PrintJobStatus outputs the job read model
func (p *Printer) PrintJobStatus(view types.JobStatusView) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Job:       %s\n", view.JobID))
	sb.WriteString(fmt.Sprintf("Portfolio: %s\n", view.PortfolioID))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", view.Status))
	sb.WriteString(fmt.Sprintf("Stage:     %s\n", view.CurrentStage))
	sb.WriteString(fmt.Sprintf("Progress:  %s %d%%\n", progressBar(view.Progress), view.Progress))
	if view.ErrorMessage != nil {
		sb.WriteString(fmt.Sprintf("Error:     %s\n", *view.ErrorMessage))
	}
	if view.ErrorKind != nil {
		sb.WriteString(fmt.Sprintf("Kind:      %s\n", *view.ErrorKind))
	}

	p.printBox("GENERATION JOB", sb.String())
}

// PrintSummary outputs the statistics of a completed run
func (p *Printer) PrintSummary(result *pipeline.Result) {
	if result == nil {
		return
	}
	s := result.Stats

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Portfolio:       %s\n", result.PortfolioID))
	sb.WriteString(fmt.Sprintf("Job:             %s\n", result.JobID))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Repositories:    %d analyzed", s.RepositoriesAnalyzed))
	if s.ProjectsDropped > 0 {
		sb.WriteString(fmt.Sprintf(", %d dropped", s.ProjectsDropped))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Projects:        %d (avg confidence %.2f)\n", s.Projects, s.AverageConfidence))
	sb.WriteString(fmt.Sprintf("Code reviews:    %d\n", s.CodeQualityReports))
	sb.WriteString(fmt.Sprintf("Experiences:     %d\n", s.Experiences))
	sb.WriteString(fmt.Sprintf("Skills:          %d\n", s.Skills))
	sb.WriteString(fmt.Sprintf("Education:       %d\n", s.Education))
	sb.WriteString(fmt.Sprintf("ATS score:       %d/100\n", s.AtsOverall))
	sb.WriteString(fmt.Sprintf("Coaching score:  %d/100\n", s.CoachingPriority))

	p.printBox("GENERATION SUMMARY", sb.String())
}

// PrintProjects outputs the generated projects
func (p *Printer) PrintProjects(projects []types.GeneratedProject) {
	if len(projects) == 0 {
		return
	}

	var sb strings.Builder
	for i, proj := range projects {
		sb.WriteString(fmt.Sprintf("%d. %s [%s]", i+1, proj.Title, proj.Source))
		if proj.Stars > 0 {
			sb.WriteString(fmt.Sprintf(" ★%d", proj.Stars))
		}
		sb.WriteString("\n")
		if proj.ShortDescription != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", proj.ShortDescription))
		}
		if len(proj.Technologies) > 0 {
			sb.WriteString(fmt.Sprintf("   Tech: %s\n", strings.Join(proj.Technologies, ", ")))
		}
		if proj.CodeQuality != nil {
			sb.WriteString(fmt.Sprintf("   Code quality: %.1f/10\n", proj.CodeQuality.Score))
		}
	}

	p.printBox("PROJECTS", sb.String())
}

// PrintSkills outputs the skill list with provenance
func (p *Printer) PrintSkills(skills []types.GeneratedSkill) {
	if len(skills) == 0 {
		return
	}

	var sb strings.Builder
	for _, s := range skills {
		sources := make([]string, len(s.DerivedFrom))
		for i, src := range s.DerivedFrom {
			sources[i] = string(src)
		}
		sb.WriteString(fmt.Sprintf("• %-20s %-8s %d/5  %s\n", s.Name, s.Category, s.Proficiency, strings.Join(sources, "+")))
	}

	p.printBox("SKILLS", sb.String())
}

// PrintAtsScore outputs an ATS analysis with its top suggestions
func (p *Printer) PrintAtsScore(score *types.AtsScore) {
	if score == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Target role: %s\n", score.TargetRole))
	sb.WriteString(fmt.Sprintf("Overall:     %d/100\n", score.OverallScore))
	sb.WriteString(fmt.Sprintf("Keywords:    %d  Formatting: %d  Content: %d\n",
		score.KeywordScore, score.FormattingScore, score.ContentScore))

	if len(score.MissingKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("Missing:     %s\n", strings.Join(score.MissingKeywords, ", ")))
	}
	if len(score.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		count := min(len(score.Suggestions), maxItemsToShow)
		for i := 0; i < count; i++ {
			s := score.Suggestions[i]
			sb.WriteString(fmt.Sprintf("  • [%s] %s\n", s.Priority, s.Suggestion))
		}
		if len(score.Suggestions) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(score.Suggestions)-maxItemsToShow))
		}
	}

	p.printBox("ATS ANALYSIS", sb.String())
}

// PrintCoaching outputs a coaching session's action items by priority
func (p *Printer) PrintCoaching(session *types.CoachingSession) {
	if session == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Priority score: %d/100\n", session.PriorityScore))

	if len(session.ActionItems) > 0 {
		sb.WriteString("\nAction items:\n")
		count := min(len(session.ActionItems), maxItemsToShow)
		for i := 0; i < count; i++ {
			item := session.ActionItems[i]
			sb.WriteString(fmt.Sprintf("  %d. %s (effort %s, impact %s)\n", item.Priority, item.Title, item.Effort, item.Impact))
		}
		if len(session.ActionItems) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(session.ActionItems)-maxItemsToShow))
		}
	}

	p.printBox("COACHING", sb.String())
}
