// Package config loads application settings from defaults, an optional TOML file,
// and environment variables, in that order of precedence. Variables from a
// .env file are merged into the environment first and never replace ones
// already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the full application configuration.
type Config struct {
	Source   SourceConfig   `toml:"source"`
	Jira     JiraConfig     `toml:"jira"`
	GitHub   GitHubConfig   `toml:"github"`
	Analysis AnalysisConfig `toml:"analysis"`
	Log      LogConfig      `toml:"log"`
}

// SourceConfig selects between live and fixture data and bounds live loads.
type SourceConfig struct {
	// Live enables fetching from Jira and GitHub; otherwise the fixture set is used.
	Live bool `toml:"live"`
	// UsageFile is an optional JSON export of per-developer usage records.
	UsageFile string `toml:"usage_file"`
	// MaxRetries bounds retries of transient remote failures.
	MaxRetries int `toml:"max_retries"`
	// TimeoutSeconds bounds a whole live load.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// JiraConfig holds the Jira Cloud connection and board to read sprints from.
// BoardID is the numeric agile board ID.
type JiraConfig struct {
	BaseURL          string `toml:"base_url"`
	Email            string `toml:"email"`
	APIToken         string `toml:"api_token"`
	BoardID          string `toml:"board_id"`
	StoryPointsField string `toml:"story_points_field"`
	RecentSprints    int    `toml:"recent_sprints"`
}

// GitHubConfig holds the organization whose Copilot seats are read.
type GitHubConfig struct {
	Token string `toml:"token"`
	Org   string `toml:"org"`
	// Developers maps GitHub logins to the display names used in Jira.
	Developers map[string]string `toml:"developers"`
}

// AnalysisConfig chooses the baseline and current sprints for comparisons.
type AnalysisConfig struct {
	// Baseline is one of first-last, chronological, named.
	Baseline       string `toml:"baseline"`
	BaselineSprint string `toml:"baseline_sprint"`
	CurrentSprint  string `toml:"current_sprint"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LoadResult carries the loaded config and any non-fatal warnings.
type LoadResult struct {
	Config   Config
	Warnings []string
}

// DefaultConfig returns the settings used before any file or environment is applied:
// fixture data, five recent sprints, the first-last baseline and warn-level console logs.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			MaxRetries:     3,
			TimeoutSeconds: 60,
		},
		Jira: JiraConfig{
			RecentSprints: 5,
		},
		Analysis: AnalysisConfig{
			Baseline: "first-last",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load merges envFiles (default ".env") into the process environment, then reads
// path (if non-empty) and applies environment overrides. A missing env file is
// ignored; an unreadable one is reported as a warning.
func Load(path string, envFiles ...string) (*LoadResult, error) {
	warning := loadDotEnv(envFiles...)
	result, err := LoadWithEnv(path, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		result.Warnings = append([]string{warning}, result.Warnings...)
	}
	return result, nil
}

func loadDotEnv(envFiles ...string) string {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	present := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		present = append(present, f)
	}
	if len(present) == 0 {
		return ""
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Sprintf("failed to load env file: %v", err)
	}
	return ""
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", path)
			}
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		md, err := toml.Decode(string(data), &result.Config)
		if err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		for _, key := range md.Undecoded() {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key.String()))
		}
	}

	if err := applyEnv(&result.Config, lookup); err != nil {
		return nil, err
	}
	if err := result.Config.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	// The VITE_ spelling is accepted so .env files written for the Vite dashboard load unchanged.
	get := func(key string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		if v, ok := lookup("VITE_" + key); ok {
			return v
		}
		return ""
	}
	str := func(key string, dst *string) {
		if v := get(key); v != "" {
			*dst = v
		}
	}
	str("JIRA_BASE_URL", &cfg.Jira.BaseURL)
	str("JIRA_EMAIL", &cfg.Jira.Email)
	str("JIRA_API_TOKEN", &cfg.Jira.APIToken)
	str("JIRA_BOARD_ID", &cfg.Jira.BoardID)
	str("JIRA_STORY_POINTS_FIELD", &cfg.Jira.StoryPointsField)
	str("GITHUB_TOKEN", &cfg.GitHub.Token)
	str("GITHUB_ORG", &cfg.GitHub.Org)
	str("USAGE_FILE", &cfg.Source.UsageFile)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	if v := get("USE_LIVE_DATA"); v != "" {
		live, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid USE_LIVE_DATA %q: %w", v, err)
		}
		cfg.Source.Live = live
	}
	return nil
}

// Validate validates all configuration.
func (c Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error)", c.Log.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (must be: json, console)", c.Log.Format)
	}

	switch c.Analysis.Baseline {
	case "first-last", "chronological":
	case "named":
		if c.Analysis.BaselineSprint == "" || c.Analysis.CurrentSprint == "" {
			return fmt.Errorf("analysis.baseline = \"named\" requires baseline_sprint and current_sprint")
		}
	default:
		return fmt.Errorf("invalid analysis.baseline: %s (must be: first-last, chronological, named)", c.Analysis.Baseline)
	}

	if c.Jira.RecentSprints <= 0 {
		return fmt.Errorf("jira.recent_sprints must be positive, got %d", c.Jira.RecentSprints)
	}
	if c.Source.MaxRetries < 0 {
		return fmt.Errorf("source.max_retries must not be negative, got %d", c.Source.MaxRetries)
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be positive, got %d", c.Source.TimeoutSeconds)
	}
	return nil
}

// Timeout returns the live load deadline.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Missing lists the Jira settings required for live data that are unset.
func (j JiraConfig) Missing() []string {
	var missing []string
	if j.BaseURL == "" {
		missing = append(missing, "JIRA_BASE_URL")
	}
	if j.Email == "" {
		missing = append(missing, "JIRA_EMAIL")
	}
	if j.APIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if j.BoardID == "" {
		missing = append(missing, "JIRA_BOARD_ID")
	}
	return missing
}

// Enabled reports whether seat data can be fetched from GitHub.
func (g GitHubConfig) Enabled() bool {
	return g.Token != "" && g.Org != ""
}
