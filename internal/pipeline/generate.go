// Package pipeline orchestrates a portfolio generation run: it loads the user's connected
// sources, analyzes their repositories, generates content, persists it and scores the result,
// recording every checkpoint on a GenerationJob.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/content"
	"github.com/jonathan/portfolio-generator/internal/experience"
	"github.com/jonathan/portfolio-generator/internal/gather"
	"github.com/jonathan/portfolio-generator/internal/github"
	"github.com/jonathan/portfolio-generator/internal/persist"
	"github.com/jonathan/portfolio-generator/internal/skills"
	"github.com/jonathan/portfolio-generator/internal/types"
)

// maxCodeQualityRepos caps the code-quality pass
const maxCodeQualityRepos = 5

// defaultEnrichConcurrency bounds the per-repository detail fetches
const defaultEnrichConcurrency = 4

// Store is the job and source storage the orchestrator reads and writes directly
type Store interface {
	JobStore
	EnsurePortfolio(ctx context.Context, p *types.Portfolio) error
	LoadSources(ctx context.Context, userID uuid.UUID) (*types.ConnectedSources, error)
}

// RepositorySource is the subset of the GitHub client a run uses
type RepositorySource interface {
	FetchUser(ctx context.Context) (*github.User, error)
	FetchRepositories(ctx context.Context, filter github.RepoFilter) ([]github.Repository, error)
	AnalyzeContributionPatterns(ctx context.Context) (*github.ContributionPatterns, error)
	FetchRepoDetails(ctx context.Context, name string) (*github.RepoDetails, error)
	FetchKeyFiles(ctx context.Context, name string) ([]github.KeyFile, error)
}

// RepositorySourceFactory builds a client for a user's connected GitHub account
type RepositorySourceFactory func(ctx context.Context, userID uuid.UUID, source *types.GitHubSource) RepositorySource

// ContentGenerator is the subset of content.Service a run uses
type ContentGenerator interface {
	Batch(ctx context.Context, tasks []content.Task) []content.Result
	CareerNarrative(ctx context.Context, in *content.CareerInput) (*content.CareerNarrative, error)
	AtsCritique(ctx context.Context, in *content.AtsInput) (*content.AtsAnalysis, error)
	Coaching(ctx context.Context, in *content.CoachingInput) (*content.Coaching, error)
}

// Dependencies holds the collaborators of an Orchestrator
type Dependencies struct {
	Store   Store
	Gateway *persist.Gateway
	GitHub  RepositorySourceFactory
	Content ContentGenerator
	Logger  *zap.Logger
	// EnrichConcurrency bounds parallel repository detail fetches; 0 uses the default
	EnrichConcurrency int
}

// Orchestrator runs generation jobs
type Orchestrator struct {
	store       Store
	gateway     *persist.Gateway
	newSource   RepositorySourceFactory
	generator   ContentGenerator
	logger      *zap.Logger
	concurrency int
}

// New creates an orchestrator
func New(deps Dependencies) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := deps.EnrichConcurrency
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	return &Orchestrator{
		store:       deps.Store,
		gateway:     deps.Gateway,
		newSource:   deps.GitHub,
		generator:   deps.Content,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Request identifies one generation
type Request struct {
	UserID      uuid.UUID
	PortfolioID uuid.UUID
	Options     types.GenerateOptions
}

// RunOptions holds per-call hooks
type RunOptions struct {
	OnProgress ProgressCallback
	// OnJobCreated is called once the job record exists, before any stage runs
	OnJobCreated func(jobID uuid.UUID)
}

// enrichedRepo is a listed repository with whatever detail fetches succeeded
type enrichedRepo struct {
	Repo     github.Repository
	Details  *github.RepoDetails
	KeyFiles []github.KeyFile
}

// run carries the state of one generation between stages
type run struct {
	req     Request
	job     *JobContext
	logger  *zap.Logger
	sources *types.ConnectedSources
	client  RepositorySource

	user     *github.User
	patterns *github.ContributionPatterns
	repos    []enrichedRepo

	experiences []types.Experience
	education   []types.Education

	result  types.GenerationResult
	summary Summary
}

// Generate runs the full pipeline synchronously. Progress is written to the job record and
// reported through opts.OnProgress. On failure the job is marked failed and the error is
// returned as *Error.
func (o *Orchestrator) Generate(ctx context.Context, req Request, opts RunOptions) (*Result, error) {
	req.Options = req.Options.WithDefaults()
	if err := req.Options.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidInput, Stage: StageCreated, Err: fmt.Errorf("invalid generate options: %w", err)}
	}

	if err := o.store.EnsurePortfolio(ctx, &types.Portfolio{ID: req.PortfolioID, UserID: req.UserID, Title: "Portfolio"}); err != nil {
		return nil, &Error{Kind: KindPersistence, Stage: StageCreated, Err: fmt.Errorf("failed to ensure portfolio: %w", err)}
	}
	job, err := NewJobContext(ctx, o.store, req.PortfolioID, opts.OnProgress, o.logger)
	if err != nil {
		return nil, &Error{Kind: KindPersistence, Stage: StageCreated, Err: err}
	}
	if opts.OnJobCreated != nil {
		opts.OnJobCreated(job.ID())
	}

	r := &run{
		req: req,
		job: job,
		logger: o.logger.With(
			zap.Stringer("user_id", req.UserID),
			zap.Stringer("portfolio_id", req.PortfolioID),
			zap.Stringer("job_id", job.ID())),
		result: types.GenerationResult{PortfolioID: req.PortfolioID},
	}

	stages := []struct {
		stage Stage
		fn    func(ctx context.Context, r *run) error
	}{
		{StageFetchingSources, o.fetchSources},
		{StageAnalyzingSource, o.analyzeSource},
		{StageProcessingDocuments, o.processDocuments},
		{StageNarratingProjects, o.narrateProjects},
		{StageWritingAbout, o.writeAbout},
		{StageScoringCode, o.scoreCode},
		{StagePersisting, o.persistResult},
		{StageScoringAts, o.scoreAts},
		{StageCoaching, o.coach},
	}
	for _, s := range stages {
		if err := job.Advance(ctx, s.stage); err != nil {
			return nil, o.fail(ctx, r, &Error{Kind: KindPersistence, Stage: s.stage, Err: err})
		}
		if err := s.fn(ctx, r); err != nil {
			return nil, o.fail(ctx, r, wrap(s.stage, err))
		}
	}

	if err := job.Complete(ctx, r.summary); err != nil {
		return nil, o.fail(ctx, r, &Error{Kind: KindPersistence, Stage: StageCompleted, Err: err})
	}
	r.logger.Info("portfolio generation completed",
		zap.Int("projects", r.summary.Projects),
		zap.Int("skills", r.summary.Skills),
		zap.Int("projects_dropped", r.summary.ProjectsDropped))

	return &Result{
		Success:     true,
		PortfolioID: req.PortfolioID,
		JobID:       job.ID(),
		Stats:       r.summary,
	}, nil
}

// fail records err on the job and returns it. The job write ignores cancellation of ctx so a
// cancelled run still ends in a terminal state.
func (o *Orchestrator) fail(ctx context.Context, r *run, err error) error {
	r.logger.Error("portfolio generation failed",
		zap.String("error_kind", string(KindOf(err))),
		zap.Error(err))
	if ferr := r.job.Fail(context.WithoutCancel(ctx), err); ferr != nil {
		r.logger.Warn("failed to mark job failed", zap.Error(ferr))
	}
	return err
}

// ---- Stages

func (o *Orchestrator) fetchSources(ctx context.Context, r *run) error {
	sources, err := o.store.LoadSources(ctx, r.req.UserID)
	if err != nil {
		return fmt.Errorf("failed to load connected sources: %w", err)
	}
	if sources == nil || sources.GitHub == nil || sources.GitHub.Username == "" {
		return &Error{Kind: KindRequiredInputMissing, Stage: StageFetchingSources, Err: ErrGitHubNotConnected}
	}
	r.sources = sources
	r.client = o.newSource(ctx, r.req.UserID, sources.GitHub)
	r.logger.Info("connected sources loaded",
		zap.String("github_user", sources.GitHub.Username),
		zap.Bool("resume", sources.ResumeFacts() != nil),
		zap.Bool("linkedin", sources.LinkedInFacts() != nil))
	return nil
}

func (o *Orchestrator) analyzeSource(ctx context.Context, r *run) error {
	var repos []github.Repository
	errs := gather.Settle(ctx,
		// patterns are derived from the listing this branch caches, so they follow it
		func(ctx context.Context) error {
			var err error
			repos, err = r.client.FetchRepositories(ctx, github.RepoFilter{
				Limit:         r.req.Options.MaxProjects,
				MinStars:      r.req.Options.MinStars,
				ExcludeForked: true,
			})
			if err != nil {
				return fmt.Errorf("failed to fetch repositories: %w", err)
			}
			r.patterns, err = r.client.AnalyzeContributionPatterns(ctx)
			if err != nil {
				return fmt.Errorf("failed to analyze contribution patterns: %w", err)
			}
			return nil
		},
		func(ctx context.Context) error {
			var err error
			r.user, err = r.client.FetchUser(ctx)
			return err
		},
	)
	if errs[0] != nil {
		return errs[0]
	}
	switch {
	case errs[1] == nil:
	case github.IsNotFound(errs[1]):
		r.user = nil
		r.logger.Info("github profile not found, contact details come from documents")
	default:
		r.user = nil
		r.logger.Warn("github profile unavailable", zap.Error(errs[1]))
	}

	outcome := gather.All(ctx, repos, o.concurrency, func(ctx context.Context, repo github.Repository) (enrichedRepo, error) {
		return enrich(ctx, r, repo), nil
	})
	r.repos = make([]enrichedRepo, len(repos))
	for i, repo := range repos {
		r.repos[i] = enrichedRepo{Repo: repo}
	}
	for _, ok := range outcome.Successes {
		r.repos[ok.Index] = ok.Value
	}
	for _, f := range outcome.Failures {
		r.logger.Warn("repository enrichment failed",
			zap.String("repo", repos[f.Index].Name),
			zap.String("stage", string(StageAnalyzingSource)),
			zap.Error(f.Err))
	}
	r.summary.RepositoriesAnalyzed = len(r.repos)
	return nil
}

// enrich fetches details and key files for one repository. A failed fetch leaves its field nil.
func enrich(ctx context.Context, r *run, repo github.Repository) enrichedRepo {
	out := enrichedRepo{Repo: repo}
	errs := gather.Settle(ctx,
		func(ctx context.Context) error {
			var err error
			out.Details, err = r.client.FetchRepoDetails(ctx, repo.Name)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.KeyFiles, err = r.client.FetchKeyFiles(ctx, repo.Name)
			return err
		},
	)
	for i, what := range []string{"details", "key files"} {
		if errs[i] != nil {
			r.logger.Warn("repository fetch failed",
				zap.String("repo", repo.Name),
				zap.String("fetch", what),
				zap.String("stage", string(StageAnalyzingSource)),
				zap.Error(errs[i]))
		}
	}
	return out
}

func (o *Orchestrator) processDocuments(_ context.Context, r *run) error {
	linkedIn := r.sources.LinkedInFacts()
	resume := r.sources.ResumeFacts()

	var baseExp, resumeExp []types.Experience
	var baseEdu, resumeEdu []types.Education
	if linkedIn != nil {
		baseExp, baseEdu = linkedIn.Experiences, linkedIn.Education
	}
	if resume != nil {
		resumeExp, resumeEdu = resume.Experiences, resume.Education
	}

	r.experiences = experience.MergeExperiences(baseExp, resumeExp)
	experience.SortByRecency(r.experiences)
	r.education = experience.MergeEducation(baseEdu, resumeEdu)

	r.result.Experiences = experience.Generated(r.experiences)
	r.result.Education = experience.GeneratedEducation(r.education)

	var languages []github.LanguageCount
	if r.patterns != nil {
		languages = r.patterns.Languages
	}
	r.result.Skills = skills.Extract(languages, resume, linkedIn)
	return nil
}

func (o *Orchestrator) narrateProjects(ctx context.Context, r *run) error {
	tasks := make([]content.Task, len(r.repos))
	for i, er := range r.repos {
		tasks[i] = content.Task{
			Type:  content.TaskProjectNarrative,
			Input: &content.ProjectInput{Repository: er.Repo, Details: er.Details},
		}
	}

	var projects []types.GeneratedProject
	for i, res := range o.generator.Batch(ctx, tasks) {
		if res.Status != content.StatusFulfilled {
			r.summary.ProjectsDropped++
			r.logger.Warn("project dropped",
				zap.String("repo", r.repos[i].Repo.Name),
				zap.String("stage", string(StageNarratingProjects)),
				zap.Error(res.Err))
			continue
		}
		narrative, ok := res.Output.(*content.ProjectNarrative)
		if !ok {
			return fmt.Errorf("unexpected output %T for %s", res.Output, res.Type)
		}
		projects = append(projects, repositoryProject(r.repos[i], narrative))
	}

	projects = append(projects, documentProjects(projects, r.sources.ResumeFacts(), r.sources.LinkedInFacts())...)
	for i := range projects {
		projects[i].DisplayOrder = i
	}
	r.result.Projects = projects
	return nil
}

func (o *Orchestrator) writeAbout(ctx context.Context, r *run) error {
	narrative, err := o.generator.CareerNarrative(ctx, &content.CareerInput{
		Contact:     contactInfo(r.sources, r.user),
		TargetRole:  r.req.Options.TargetRole,
		Experiences: r.experiences,
		Education:   r.education,
		Skills:      r.result.Skills,
		Projects:    topProjects(r.result.Projects),
		Patterns:    r.patterns,
	})
	if err != nil {
		return err
	}
	r.result.About = &types.AboutContent{
		PortfolioID:     r.req.PortfolioID,
		SectionType:     types.AboutSectionType,
		Content:         narrative.AboutMe,
		Tagline:         narrative.Tagline,
		MetaDescription: narrative.MetaDescription,
		Confidence:      narrative.Confidence,
	}
	return nil
}

func (o *Orchestrator) scoreCode(ctx context.Context, r *run) error {
	var tasks []content.Task
	for _, er := range r.repos {
		if len(tasks) == maxCodeQualityRepos {
			break
		}
		if len(er.KeyFiles) == 0 {
			continue
		}
		tasks = append(tasks, content.Task{
			Type: content.TaskCodeQuality,
			Input: &content.CodeQualityInput{
				Repository: er.Repo.Name,
				Language:   er.Repo.Language,
				Files:      er.KeyFiles,
			},
		})
	}
	if len(tasks) == 0 {
		return nil
	}

	reports := make(map[string]*types.CodeQualityReport)
	for i, res := range o.generator.Batch(ctx, tasks) {
		repo := tasks[i].Input.(*content.CodeQualityInput).Repository
		if res.Status != content.StatusFulfilled {
			r.logger.Warn("code quality analysis skipped",
				zap.String("repo", repo),
				zap.String("stage", string(StageScoringCode)),
				zap.Error(res.Err))
			continue
		}
		if cq, ok := res.Output.(*content.CodeQuality); ok {
			reports[repo] = cq.Report()
		}
	}
	for i := range r.result.Projects {
		p := &r.result.Projects[i]
		if p.Source != types.SourceGitHub {
			continue
		}
		if report, ok := reports[p.SourceID]; ok {
			p.CodeQuality = report
		}
	}
	return nil
}

func (o *Orchestrator) persistResult(ctx context.Context, r *run) error {
	if err := o.gateway.Write(ctx, &r.result); err != nil {
		return err
	}
	s := summarize(&r.result)
	s.RepositoriesAnalyzed = r.summary.RepositoriesAnalyzed
	s.ProjectsDropped = r.summary.ProjectsDropped
	r.summary = s
	return nil
}

func (o *Orchestrator) scoreAts(ctx context.Context, r *run) error {
	snapshot, err := o.gateway.Reload(ctx, r.req.PortfolioID)
	if err != nil {
		return &Error{Kind: KindPersistence, Stage: StageScoringAts, Err: err}
	}
	analysis, err := o.generator.AtsCritique(ctx, &content.AtsInput{
		TargetRole: r.req.Options.TargetRole,
		Content:    content.PortfolioText(snapshot),
	})
	if err != nil {
		return err
	}
	score := analysis.Score(r.req.Options.TargetRole)
	if err := o.gateway.RecordAtsScore(ctx, r.req.PortfolioID, score); err != nil {
		return err
	}
	r.summary.AtsOverall = score.OverallScore
	return nil
}

func (o *Orchestrator) coach(ctx context.Context, r *run) error {
	snapshot, err := o.gateway.Reload(ctx, r.req.PortfolioID)
	if err != nil {
		return &Error{Kind: KindPersistence, Stage: StageCoaching, Err: err}
	}
	var latest *types.AtsScore
	if len(snapshot.AtsHistory) > 0 {
		latest = &snapshot.AtsHistory[0]
	}
	coaching, err := o.generator.Coaching(ctx, &content.CoachingInput{
		TargetRole: r.req.Options.TargetRole,
		Summary:    content.PortfolioText(snapshot),
		Ats:        latest,
	})
	if err != nil {
		return err
	}
	session := coaching.Session()
	if err := o.gateway.RecordCoaching(ctx, r.req.PortfolioID, session); err != nil {
		return err
	}
	r.summary.CoachingPriority = session.PriorityScore
	return nil
}
