package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/config"
	"github.com/jonathan/portfolio-generator/internal/logging"
)

// configFlags holds the flag values of one command; resolve merges them over the config file
// and the environment
type configFlags struct {
	configPath string
	values     config.Config
}

// Flag groups
const (
	flagsIdentity = 1 << iota
	flagsSources
	flagsGeneration
	flagsBackends
)

func (f *configFlags) bind(cmd *cobra.Command, groups int) {
	flags := cmd.Flags()
	v := &f.values

	flags.StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVar(&v.LogMode, "log-mode", "", "Log format: development or production")
	flags.BoolVarP(&v.Verbose, "verbose", "v", false, "Print progress and detailed output")

	if groups&flagsIdentity != 0 {
		flags.StringVarP(&v.UserID, "user-id", "u", "", "User UUID that owns the connected sources")
		flags.StringVarP(&v.PortfolioID, "portfolio-id", "p", "", "Portfolio UUID")
	}
	if groups&flagsSources != 0 {
		flags.StringVar(&v.GitHubUser, "github-user", "", "GitHub login to connect")
		flags.StringVar(&v.GitHubToken, "github-token", "", "GitHub token (optional, defaults to GITHUB_TOKEN env var)")
		flags.StringVar(&v.Resume, "resume", "", "Path to a resume (PDF or text)")
		flags.StringVar(&v.LinkedIn, "linkedin", "", "Path to a LinkedIn data export (ZIP, PDF or text)")
	}
	if groups&flagsGeneration != 0 {
		flags.IntVar(&v.MinStars, "min-stars", 0, "Minimum stars for a repository to be narrated")
		flags.IntVar(&v.MaxProjects, "max-projects", 0, "Maximum repositories to narrate (default 6)")
		flags.StringVar(&v.TargetRole, "target-role", "", "Role the ATS pass scores against")
		flags.IntVar(&v.Concurrency, "concurrency", 0, "In-flight generative calls per batch (default 4)")
		// API key can be passed as a flag, or read from env var GEMINI_API_KEY
		flags.StringVar(&v.APIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	}
	if groups&flagsBackends != 0 {
		flags.StringVar(&v.DatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
		flags.StringVar(&v.RedisURL, "redis-url", "", "Redis URL (optional, defaults to REDIS_URL env var)")
		flags.StringVar(&v.CacheBackend, "cache-backend", "", "External data cache: postgres, redis or memory")
	}
}

// resolve loads the config file, applies explicitly set flags over it, then environment
// fallbacks, and validates the result
func (f *configFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Command-line args take priority, but only when explicitly set
	overrides := config.Config{}
	v := f.values
	changed := cmd.Flags().Changed
	setString := func(name string, dst *string, val string) {
		if changed(name) {
			*dst = val
		}
	}
	setString("user-id", &overrides.UserID, v.UserID)
	setString("portfolio-id", &overrides.PortfolioID, v.PortfolioID)
	setString("github-user", &overrides.GitHubUser, v.GitHubUser)
	setString("github-token", &overrides.GitHubToken, v.GitHubToken)
	setString("resume", &overrides.Resume, v.Resume)
	setString("linkedin", &overrides.LinkedIn, v.LinkedIn)
	setString("target-role", &overrides.TargetRole, v.TargetRole)
	setString("api-key", &overrides.APIKey, v.APIKey)
	setString("db-url", &overrides.DatabaseURL, v.DatabaseURL)
	setString("redis-url", &overrides.RedisURL, v.RedisURL)
	setString("cache-backend", &overrides.CacheBackend, v.CacheBackend)
	setString("log-mode", &overrides.LogMode, v.LogMode)
	if changed("min-stars") {
		overrides.MinStars = v.MinStars
	}
	if changed("max-projects") {
		overrides.MaxProjects = v.MaxProjects
	}
	if changed("concurrency") {
		overrides.Concurrency = v.Concurrency
	}
	merged := overrides.MergeWithDefaults(cfg)
	if changed("verbose") {
		merged.Verbose = v.Verbose
	} else {
		merged.Verbose = cfg.Verbose
	}

	// Environment fallbacks
	env := config.Config{
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		LogMode:     config.LogModeDevelopment,
	}
	result := merged.MergeWithDefaults(env)
	result.Verbose = merged.Verbose

	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// newLogger builds the command logger. With quiet set and no --verbose, only warnings and
// errors reach stderr so the CLI output stays readable.
func newLogger(cfg *config.Config, quiet bool) (*zap.Logger, error) {
	logger, err := logging.New(cfg.LogMode, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if quiet && !cfg.Verbose {
		logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	}
	return logger, nil
}
