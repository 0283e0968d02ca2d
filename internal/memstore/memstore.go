// Package memstore is an in-process implementation of the job, source and portfolio stores.
// It backs dry runs and tests. Values are copied in and out so callers never share state
// with the store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-generator/internal/db"
	"github.com/jonathan/portfolio-generator/internal/types"
)

type aboutKey struct {
	portfolioID uuid.UUID
	sectionType string
}

// Store keeps everything in maps guarded by one mutex
type Store struct {
	mu sync.Mutex

	now         func() time.Time
	portfolios  map[uuid.UUID]*types.Portfolio
	jobs        map[uuid.UUID]*types.GenerationJob
	jobOrder    []uuid.UUID
	sources     map[uuid.UUID]*types.ConnectedSources
	projects    map[uuid.UUID][]*types.GeneratedProject
	experiences map[uuid.UUID][]types.GeneratedExperience
	skills      map[uuid.UUID][]types.GeneratedSkill
	education   map[uuid.UUID][]types.GeneratedEducation
	about       map[aboutKey]*types.AboutContent
	atsScores   map[uuid.UUID][]types.AtsScore
	coaching    map[uuid.UUID][]types.CoachingSession
}

// New creates an empty store
func New() *Store {
	return &Store{
		now:         time.Now,
		portfolios:  make(map[uuid.UUID]*types.Portfolio),
		jobs:        make(map[uuid.UUID]*types.GenerationJob),
		sources:     make(map[uuid.UUID]*types.ConnectedSources),
		projects:    make(map[uuid.UUID][]*types.GeneratedProject),
		experiences: make(map[uuid.UUID][]types.GeneratedExperience),
		skills:      make(map[uuid.UUID][]types.GeneratedSkill),
		education:   make(map[uuid.UUID][]types.GeneratedEducation),
		about:       make(map[aboutKey]*types.AboutContent),
		atsScores:   make(map[uuid.UUID][]types.AtsScore),
		coaching:    make(map[uuid.UUID][]types.CoachingSession),
	}
}

// -----------------------------------------------------------------------------
// Portfolios and sources
// -----------------------------------------------------------------------------

// EnsurePortfolio creates the portfolio if it does not exist
func (s *Store) EnsurePortfolio(_ context.Context, p *types.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.portfolios[p.ID]; !ok {
		cp := *p
		cp.UpdatedAt = s.now()
		s.portfolios[p.ID] = &cp
	}
	return nil
}

// GetPortfolio retrieves a portfolio by ID
func (s *Store) GetPortfolio(_ context.Context, id uuid.UUID) (*types.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.portfolios[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// UpdatePortfolioSEO sets the portfolio's SEO fields
func (s *Store) UpdatePortfolioSEO(_ context.Context, id uuid.UUID, title, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.portfolios[id]
	if !ok {
		return fmt.Errorf("portfolio %s: %w", id, db.ErrNotFound)
	}
	p.SEOTitle = title
	p.SEODescription = description
	p.UpdatedAt = s.now()
	return nil
}

// LoadSources returns the user's connected sources; an unknown user has none
func (s *Store) LoadSources(_ context.Context, userID uuid.UUID) (*types.ConnectedSources, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[userID]
	if !ok {
		return &types.ConnectedSources{UserID: userID}, nil
	}
	cp := *src
	return &cp, nil
}

func (s *Store) userSources(userID uuid.UUID) *types.ConnectedSources {
	src, ok := s.sources[userID]
	if !ok {
		src = &types.ConnectedSources{UserID: userID}
		s.sources[userID] = src
	}
	return src
}

// SaveGitHubSource connects a GitHub account
func (s *Store) SaveGitHubSource(_ context.Context, userID uuid.UUID, gh *types.GitHubSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *gh
	if cp.ConnectedAt.IsZero() {
		cp.ConnectedAt = s.now()
	}
	s.userSources(userID).GitHub = &cp
	return nil
}

// SaveDocumentSource stores parsed document facts, replacing a previous upload of the same kind
func (s *Store) SaveDocumentSource(_ context.Context, userID uuid.UUID, doc *types.DocumentSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	if cp.UploadedAt.IsZero() {
		cp.UploadedAt = s.now()
	}
	src := s.userSources(userID)
	switch doc.Kind {
	case types.SourceKindResume:
		src.Resume = &cp
	case types.SourceKindLinkedIn:
		src.LinkedIn = &cp
	default:
		return fmt.Errorf("unsupported document kind %q", doc.Kind)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Jobs
// -----------------------------------------------------------------------------

func copyJob(j *types.GenerationJob) *types.GenerationJob {
	cp := *j
	cp.Stages = append([]types.StageProgress(nil), j.Stages...)
	return &cp
}

// CreateJob stores a new job. A nil ID is assigned.
func (s *Store) CreateJob(_ context.Context, job *types.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	job.CreatedAt = s.now()
	s.jobs[job.ID] = copyJob(job)
	s.jobOrder = append(s.jobOrder, job.ID)
	return nil
}

// UpdateJob replaces the stored job
func (s *Store) UpdateJob(_ context.Context, job *types.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s: %w", job.ID, db.ErrNotFound)
	}
	s.jobs[job.ID] = copyJob(job)
	return nil
}

// GetJob retrieves a job by ID
func (s *Store) GetJob(_ context.Context, id uuid.UUID) (*types.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return copyJob(job), nil
}

// LatestJob retrieves the most recently created job for a portfolio
func (s *Store) LatestJob(_ context.Context, portfolioID uuid.UUID) (*types.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.jobOrder) - 1; i >= 0; i-- {
		if job := s.jobs[s.jobOrder[i]]; job.PortfolioID == portfolioID {
			return copyJob(job), nil
		}
	}
	return nil, db.ErrNotFound
}

// -----------------------------------------------------------------------------
// Generated content
// -----------------------------------------------------------------------------

// UpsertProject inserts or replaces a project keyed by (portfolio, source, source_id)
func (s *Store) UpsertProject(_ context.Context, p *types.GeneratedProject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.projects[p.PortfolioID] {
		if existing.Source == p.Source && existing.SourceID == p.SourceID {
			p.ID = existing.ID
			quality := existing.CodeQuality
			*existing = *p
			existing.CodeQuality = quality
			return nil
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	cp.CodeQuality = nil
	s.projects[p.PortfolioID] = append(s.projects[p.PortfolioID], &cp)
	return nil
}

// SetProjectCodeQuality stores a code-quality report on a project
func (s *Store) SetProjectCodeQuality(_ context.Context, portfolioID uuid.UUID, source types.FactSource, sourceID string, report *types.CodeQualityReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.projects[portfolioID] {
		if existing.Source == source && existing.SourceID == sourceID {
			cp := *report
			existing.CodeQuality = &cp
			return nil
		}
	}
	return fmt.Errorf("project %s: %w", sourceID, db.ErrNotFound)
}

// InsertExperience appends an experience row
func (s *Store) InsertExperience(_ context.Context, e *types.GeneratedExperience) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.experiences[e.PortfolioID] = append(s.experiences[e.PortfolioID], *e)
	return nil
}

// InsertSkill appends a skill row
func (s *Store) InsertSkill(_ context.Context, sk *types.GeneratedSkill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sk.ID == uuid.Nil {
		sk.ID = uuid.New()
	}
	cp := *sk
	cp.DerivedFrom = append([]types.FactSource(nil), sk.DerivedFrom...)
	s.skills[sk.PortfolioID] = append(s.skills[sk.PortfolioID], cp)
	return nil
}

// InsertEducation appends an education row
func (s *Store) InsertEducation(_ context.Context, e *types.GeneratedEducation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.education[e.PortfolioID] = append(s.education[e.PortfolioID], *e)
	return nil
}

// UpsertAbout replaces the about content for (portfolio, section type)
func (s *Store) UpsertAbout(_ context.Context, a *types.AboutContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.UpdatedAt = s.now()
	cp := *a
	s.about[aboutKey{a.PortfolioID, a.SectionType}] = &cp
	return nil
}

// InsertAtsScore appends an ATS analysis
func (s *Store) InsertAtsScore(_ context.Context, score *types.AtsScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if score.ID == uuid.Nil {
		score.ID = uuid.New()
	}
	score.CreatedAt = s.now()
	s.atsScores[score.PortfolioID] = append(s.atsScores[score.PortfolioID], *score)
	return nil
}

// InsertCoachingSession appends a coaching session
func (s *Store) InsertCoachingSession(_ context.Context, session *types.CoachingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = s.now()
	s.coaching[session.PortfolioID] = append(s.coaching[session.PortfolioID], *session)
	return nil
}

// CoachingSessions returns the sessions recorded for a portfolio, oldest first
func (s *Store) CoachingSessions(portfolioID uuid.UUID) []types.CoachingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.CoachingSession(nil), s.coaching[portfolioID]...)
}

// LoadPortfolio returns the persisted portfolio with its content and ATS history (newest first)
func (s *Store) LoadPortfolio(_ context.Context, portfolioID uuid.UUID) (*types.PortfolioSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[portfolioID]
	if !ok {
		return nil, db.ErrNotFound
	}
	portfolio := *p
	snapshot := &types.PortfolioSnapshot{
		Portfolio:   &portfolio,
		Experiences: append([]types.GeneratedExperience(nil), s.experiences[portfolioID]...),
		Skills:      append([]types.GeneratedSkill(nil), s.skills[portfolioID]...),
		Education:   append([]types.GeneratedEducation(nil), s.education[portfolioID]...),
	}
	for _, proj := range s.projects[portfolioID] {
		snapshot.Projects = append(snapshot.Projects, *proj)
	}
	sort.SliceStable(snapshot.Projects, func(i, j int) bool {
		return snapshot.Projects[i].DisplayOrder < snapshot.Projects[j].DisplayOrder
	})
	if a, ok := s.about[aboutKey{portfolioID, types.AboutSectionType}]; ok {
		cp := *a
		snapshot.About = &cp
	}
	history := s.atsScores[portfolioID]
	for i := len(history) - 1; i >= 0; i-- {
		snapshot.AtsHistory = append(snapshot.AtsHistory, history[i])
	}
	if sessions := s.coaching[portfolioID]; len(sessions) > 0 {
		latest := sessions[len(sessions)-1]
		snapshot.LatestCoaching = &latest
	}
	return snapshot, nil
}
