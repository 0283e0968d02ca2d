// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-generator/internal/llm"
	"github.com/jonathan/portfolio-generator/internal/types"
)

// Cache backends
const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
	CacheBackendMemory   = "memory"
)

// Log modes
const (
	LogModeDevelopment = "development"
	LogModeProduction  = "production"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Identity
	UserID      string `json:"user_id,omitempty"`      // User UUID that owns the connected sources
	PortfolioID string `json:"portfolio_id,omitempty"` // Portfolio UUID to generate into

	// Sources
	GitHubUser  string `json:"github_user,omitempty"`  // GitHub login to analyze
	GitHubToken string `json:"github_token,omitempty"` // Optional GitHub token for higher rate limits
	Resume      string `json:"resume,omitempty"`       // Path to a resume (PDF or text)
	LinkedIn    string `json:"linkedin,omitempty"`     // Path to a LinkedIn export (ZIP, PDF or text)

	// Generation
	MinStars    int    `json:"min_stars,omitempty"`    // Minimum stars for a repository to be narrated
	MaxProjects int    `json:"max_projects,omitempty"` // Maximum repositories to narrate
	TargetRole  string `json:"target_role,omitempty"`  // Role the ATS pass scores against
	Concurrency int    `json:"concurrency,omitempty"`  // In-flight generative calls per batch (default 4)

	// Models overrides the generative model per tier (lite, standard, advanced)
	Models map[string]string `json:"models,omitempty"`

	// Backends
	APIKey       string `json:"api_key,omitempty"`       // Gemini API key
	DatabaseURL  string `json:"database_url,omitempty"`  // PostgreSQL connection URL
	RedisURL     string `json:"redis_url,omitempty"`     // Redis URL for the redis cache backend
	CacheBackend string `json:"cache_backend,omitempty"` // postgres, redis or memory

	// Behavior
	LogMode string `json:"log_mode,omitempty"` // development or production
	Verbose bool   `json:"verbose,omitempty"`  // Print progress and result boxes
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	for name, id := range map[string]string{"user_id": c.UserID, "portfolio_id": c.PortfolioID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("config error: '%s' is not a valid UUID: %s", name, id)
		}
	}

	// Validate numeric ranges
	if c.MinStars < 0 {
		return fmt.Errorf("config error: 'min_stars' must be non-negative")
	}
	if c.MaxProjects < 0 || c.MaxProjects > 20 {
		return fmt.Errorf("config error: 'max_projects' must be between 1 and 20")
	}
	if c.Concurrency < 0 || c.Concurrency > 16 {
		return fmt.Errorf("config error: 'concurrency' must be between 1 and 16")
	}

	for tier, model := range c.Models {
		switch llm.ModelTier(tier) {
		case llm.TierLite, llm.TierStandard, llm.TierAdvanced:
		default:
			return fmt.Errorf("config error: unknown model tier %q", tier)
		}
		if model == "" {
			return fmt.Errorf("config error: empty model for tier %q", tier)
		}
	}

	switch c.CacheBackend {
	case "", CacheBackendPostgres, CacheBackendRedis, CacheBackendMemory:
	default:
		return fmt.Errorf("config error: unknown cache_backend %q", c.CacheBackend)
	}
	if c.CacheBackend == CacheBackendRedis && c.RedisURL == "" {
		return fmt.Errorf("config error: 'redis_url' is required for the redis cache backend")
	}

	switch c.LogMode {
	case "", LogModeDevelopment, LogModeProduction:
	default:
		return fmt.Errorf("config error: unknown log_mode %q", c.LogMode)
	}

	// Validate file paths exist (if specified)
	for _, path := range []string{c.Resume, c.LinkedIn} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: source file not found: %s", path)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.UserID, defaults.UserID)
	fill(&result.PortfolioID, defaults.PortfolioID)
	fill(&result.GitHubUser, defaults.GitHubUser)
	fill(&result.GitHubToken, defaults.GitHubToken)
	fill(&result.Resume, defaults.Resume)
	fill(&result.LinkedIn, defaults.LinkedIn)
	fill(&result.TargetRole, defaults.TargetRole)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.RedisURL, defaults.RedisURL)
	fill(&result.CacheBackend, defaults.CacheBackend)
	fill(&result.LogMode, defaults.LogMode)

	// Int fields: use default if zero
	if result.MinStars == 0 {
		result.MinStars = defaults.MinStars
	}
	if result.MaxProjects == 0 {
		result.MaxProjects = defaults.MaxProjects
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if len(result.Models) == 0 {
		result.Models = defaults.Models
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// GenerateOptions returns the generation options with defaults applied
func (c *Config) GenerateOptions() types.GenerateOptions {
	return types.GenerateOptions{
		MinStars:    c.MinStars,
		MaxProjects: c.MaxProjects,
		TargetRole:  c.TargetRole,
	}.WithDefaults()
}

// LLMConfig returns the model configuration with the per-tier overrides applied
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	for tier, model := range c.Models {
		cfg = cfg.WithModel(llm.ModelTier(tier), model)
	}
	return cfg
}

// ResolvedCacheBackend picks the cache backend: the configured one, otherwise postgres when
// a database is configured, otherwise memory
func (c *Config) ResolvedCacheBackend() string {
	if c.CacheBackend != "" {
		return c.CacheBackend
	}
	if c.DatabaseURL != "" {
		return CacheBackendPostgres
	}
	return CacheBackendMemory
}
