package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/engine"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/Veraticus/docmatch/internal/report"
	"github.com/Veraticus/docmatch/internal/scorer"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read through viper.
const EnvPrefix = "DOCMATCH"

// Environment variables kept from earlier deployments.
const (
	LegacyMatchThresholdEnv   = "MATCH_CONFIDENCE_THRESHOLD"
	LegacyNoMatchThresholdEnv = "NO_MATCH_CONFIDENCE_THRESHOLD"
	LegacyDisableModelsEnv    = "DISABLE_MODELS"
)

// Config is the complete application configuration.
type Config struct {
	Logging  LoggingConfig
	Server   ServerConfig
	Matching MatchingConfig
	Scorer   ScorerConfig
}

// MatchingConfig controls labeling and item pairing.
type MatchingConfig struct {
	AmbiguousLabel   string
	CodeStyle        string
	Language         string
	MatchThreshold   float64
	NoMatchThreshold float64
	MinPairScore     float64
	Workers          int
}

// ScorerConfig controls how certainties are obtained.
type ScorerConfig struct {
	Endpoint          string
	Sites             []string
	Timeout           time.Duration
	ResetTimeout      time.Duration
	CacheTTL          time.Duration
	RequestsPerSecond float64
	MaxAttempts       int
	Burst             int
	FailureThreshold  int
	Disabled          bool
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Matching: MatchingConfig{
			MatchThreshold:   report.DefaultMatchThreshold,
			NoMatchThreshold: report.DefaultNoMatchThreshold,
			MinPairScore:     0.5,
			CodeStyle:        string(model.CodeStyleCanonical),
			Language:         "english",
			Workers:          4,
		},
		Scorer: ScorerConfig{
			Timeout:           5 * time.Second,
			MaxAttempts:       3,
			RequestsPerSecond: 5,
			Burst:             10,
			FailureThreshold:  5,
			ResetTimeout:      30 * time.Second,
			CacheTTL:          15 * time.Minute,
		},
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: common.LogFormatConsole},
	}
}

// SetDefaults registers the built-in values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("matching.match_threshold", d.Matching.MatchThreshold)
	v.SetDefault("matching.no_match_threshold", d.Matching.NoMatchThreshold)
	v.SetDefault("matching.ambiguous_label", d.Matching.AmbiguousLabel)
	v.SetDefault("matching.min_pair_score", d.Matching.MinPairScore)
	v.SetDefault("matching.code_style", d.Matching.CodeStyle)
	v.SetDefault("matching.language", d.Matching.Language)
	v.SetDefault("matching.workers", d.Matching.Workers)
	v.SetDefault("scorer.disabled", d.Scorer.Disabled)
	v.SetDefault("scorer.endpoint", d.Scorer.Endpoint)
	v.SetDefault("scorer.sites", []string{})
	v.SetDefault("scorer.timeout", d.Scorer.Timeout)
	v.SetDefault("scorer.max_attempts", d.Scorer.MaxAttempts)
	v.SetDefault("scorer.requests_per_second", d.Scorer.RequestsPerSecond)
	v.SetDefault("scorer.burst", d.Scorer.Burst)
	v.SetDefault("scorer.failure_threshold", d.Scorer.FailureThreshold)
	v.SetDefault("scorer.reset_timeout", d.Scorer.ResetTimeout)
	v.SetDefault("scorer.cache_ttl", d.Scorer.CacheTTL)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// BindEnv makes v read DOCMATCH_* variables and the legacy names.
// A DOCMATCH_* variable wins over its legacy counterpart.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	legacy := map[string]string{
		"matching.match_threshold":    LegacyMatchThresholdEnv,
		"matching.no_match_threshold": LegacyNoMatchThresholdEnv,
		"scorer.disabled":             LegacyDisableModelsEnv,
	}
	for key, env := range legacy {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Matching: MatchingConfig{
			MatchThreshold:   v.GetFloat64("matching.match_threshold"),
			NoMatchThreshold: v.GetFloat64("matching.no_match_threshold"),
			AmbiguousLabel:   v.GetString("matching.ambiguous_label"),
			MinPairScore:     v.GetFloat64("matching.min_pair_score"),
			CodeStyle:        v.GetString("matching.code_style"),
			Language:         v.GetString("matching.language"),
			Workers:          v.GetInt("matching.workers"),
		},
		Scorer: ScorerConfig{
			Disabled:          v.GetBool("scorer.disabled"),
			Endpoint:          v.GetString("scorer.endpoint"),
			Sites:             v.GetStringSlice("scorer.sites"),
			Timeout:           v.GetDuration("scorer.timeout"),
			MaxAttempts:       v.GetInt("scorer.max_attempts"),
			RequestsPerSecond: v.GetFloat64("scorer.requests_per_second"),
			Burst:             v.GetInt("scorer.burst"),
			FailureThreshold:  v.GetInt("scorer.failure_threshold"),
			ResetTimeout:      v.GetDuration("scorer.reset_timeout"),
			CacheTTL:          v.GetDuration("scorer.cache_ttl"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	if err := c.Report().Validate(); err != nil {
		return err
	}
	if c.Matching.MinPairScore < 0 || c.Matching.MinPairScore > 1 {
		return fmt.Errorf("%w: matching.min_pair_score %v outside [0,1]", common.ErrInvalidConfig, c.Matching.MinPairScore)
	}
	if c.Matching.Workers < 1 {
		return fmt.Errorf("%w: matching.workers must be positive", common.ErrInvalidConfig)
	}
	if c.Scorer.MaxAttempts < 1 {
		return fmt.Errorf("%w: scorer.max_attempts must be positive", common.ErrInvalidConfig)
	}
	if c.Scorer.RequestsPerSecond <= 0 || c.Scorer.Burst < 1 {
		return fmt.Errorf("%w: scorer rate limit must be positive", common.ErrInvalidConfig)
	}
	if c.Scorer.FailureThreshold < 1 {
		return fmt.Errorf("%w: scorer.failure_threshold must be positive", common.ErrInvalidConfig)
	}
	if c.Scorer.Timeout <= 0 {
		return fmt.Errorf("%w: scorer.timeout must be positive", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if !slices.Contains([]string{common.LogFormatConsole, common.LogFormatJSON}, c.Logging.Format) {
		return fmt.Errorf("%w: invalid log format: %s", common.ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// Report returns the labeling configuration.
func (c Config) Report() report.Config {
	return report.Config{
		MatchThreshold:   c.Matching.MatchThreshold,
		NoMatchThreshold: c.Matching.NoMatchThreshold,
		AmbiguousLabel:   c.Matching.AmbiguousLabel,
		CodeStyle:        model.CodeStyle(c.Matching.CodeStyle),
	}
}

// Engine returns the engine configuration.
func (c Config) Engine() engine.Config {
	return engine.Config{
		Report:       c.Report(),
		MinPairScore: c.Matching.MinPairScore,
		Language:     c.Matching.Language,
		Workers:      c.Matching.Workers,
	}
}

// Client returns the remote scorer client configuration.
func (c Config) Client() scorer.ClientConfig {
	return scorer.ClientConfig{
		Endpoint:          c.Scorer.Endpoint,
		Timeout:           c.Scorer.Timeout,
		MaxAttempts:       c.Scorer.MaxAttempts,
		RequestsPerSecond: c.Scorer.RequestsPerSecond,
		Burst:             c.Scorer.Burst,
		CacheTTL:          c.Scorer.CacheTTL,
		Breaker: scorer.BreakerConfig{
			FailureThreshold: c.Scorer.FailureThreshold,
			ResetTimeout:     c.Scorer.ResetTimeout,
		},
	}
}

// Router returns the site routing options.
func (c Config) Router() scorer.RouterOptions {
	return scorer.RouterOptions{
		Sites:    c.Scorer.Sites,
		Disabled: c.Scorer.Disabled,
	}
}
