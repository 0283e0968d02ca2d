package pipeline

import (
	"github.com/jonathan/portfolio-generator/internal/types"
)

// Stage is one checkpoint of a generation run
type Stage string

// Stage constants, in execution order
const (
	StageCreated             Stage = "created"
	StageFetchingSources     Stage = "fetching_sources"
	StageAnalyzingSource     Stage = "analyzing_source"
	StageProcessingDocuments Stage = "processing_documents"
	StageNarratingProjects   Stage = "narrating_projects"
	StageWritingAbout        Stage = "writing_about"
	StageScoringCode         Stage = "scoring_code"
	StagePersisting          Stage = "persisting"
	StageScoringAts          Stage = "scoring_ats"
	StageCoaching            Stage = "coaching"
	StageCompleted           Stage = "completed"
	StageFailed              Stage = "failed"
)

// StageDefinition defines metadata for a pipeline stage
type StageDefinition struct {
	Stage       Stage
	Percent     int
	Description string
}

// StageTable lists the declared stages with the job progress reached on entering each one
var StageTable = []StageDefinition{
	{Stage: StageFetchingSources, Percent: 10, Description: "Loading connected sources"},
	{Stage: StageAnalyzingSource, Percent: 20, Description: "Analyzing GitHub repositories"},
	{Stage: StageProcessingDocuments, Percent: 30, Description: "Merging resume and LinkedIn facts"},
	{Stage: StageNarratingProjects, Percent: 40, Description: "Writing project narratives"},
	{Stage: StageWritingAbout, Percent: 60, Description: "Writing the about section"},
	{Stage: StageScoringCode, Percent: 75, Description: "Reviewing code quality"},
	{Stage: StagePersisting, Percent: 85, Description: "Saving portfolio content"},
	{Stage: StageScoringAts, Percent: 95, Description: "Scoring ATS compatibility"},
	{Stage: StageCoaching, Percent: 95, Description: "Preparing coaching recommendations"},
}

// CompletedPercent is the progress of a completed job
const CompletedPercent = 100

// Lookup returns the definition for stage
func Lookup(stage Stage) (StageDefinition, bool) {
	for _, def := range StageTable {
		if def.Stage == stage {
			return def, true
		}
	}
	return StageDefinition{}, false
}

// DeclaredStages returns the stage list a new job starts with, every stage at 0
func DeclaredStages() []types.StageProgress {
	out := make([]types.StageProgress, len(StageTable))
	for i, def := range StageTable {
		out[i] = types.StageProgress{Name: string(def.Stage)}
	}
	return out
}

func stageIndex(stage Stage) int {
	for i, def := range StageTable {
		if def.Stage == stage {
			return i
		}
	}
	return -1
}
