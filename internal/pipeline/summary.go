package pipeline

import (
	"github.com/google/uuid"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// Summary is the statistics of a completed run. It is also stored as the job result.
type Summary struct {
	Projects             int     `json:"projects"`
	Experiences          int     `json:"experiences"`
	Skills               int     `json:"skills"`
	Education            int     `json:"education"`
	AverageConfidence    float64 `json:"average_confidence"`
	AtsOverall           int     `json:"ats_overall"`
	CoachingPriority     int     `json:"coaching_priority"`
	RepositoriesAnalyzed int     `json:"repositories_analyzed"`
	ProjectsDropped      int     `json:"projects_dropped"`
	CodeQualityReports   int     `json:"code_quality_reports"`
}

// Result is what Generate returns to the trigger
type Result struct {
	Success     bool      `json:"success"`
	PortfolioID uuid.UUID `json:"portfolio_id"`
	JobID       uuid.UUID `json:"job_id"`
	Stats       Summary   `json:"stats"`
}

// AverageConfidence is the mean of the non-null project confidences, 0 when there are none
func AverageConfidence(projects []types.GeneratedProject) float64 {
	var sum float64
	var n int
	for _, p := range projects {
		if p.Confidence == nil {
			continue
		}
		sum += *p.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func summarize(result *types.GenerationResult) Summary {
	s := Summary{
		Projects:          len(result.Projects),
		Experiences:       len(result.Experiences),
		Skills:            len(result.Skills),
		Education:         len(result.Education),
		AverageConfidence: AverageConfidence(result.Projects),
	}
	for _, p := range result.Projects {
		if p.CodeQuality != nil {
			s.CodeQualityReports++
		}
	}
	return s
}
