package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	require.NoError(t, BindEnv(v))
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), normalize(cfg))
}

// normalize maps the empty site list viper returns onto Default's nil.
func normalize(cfg Config) Config {
	if len(cfg.Scorer.Sites) == 0 {
		cfg.Scorer.Sites = nil
	}
	return cfg
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
matching:
  match_threshold: 0.7
  no_match_threshold: 0.3
  ambiguous_label: review
  code_style: legacy
scorer:
  endpoint: http://model:9000/score
  sites: [badger-logistics, falcon-logistics]
  timeout: 2s
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, cfg.Matching.MatchThreshold, 1e-9)
	assert.InDelta(t, 0.3, cfg.Matching.NoMatchThreshold, 1e-9)
	assert.Equal(t, "review", cfg.Matching.AmbiguousLabel)
	assert.Equal(t, model.CodeStyleLegacy, cfg.Report().CodeStyle)
	assert.Equal(t, "http://model:9000/score", cfg.Client().Endpoint)
	assert.Equal(t, 2*time.Second, cfg.Client().Timeout)
	assert.Equal(t, []string{"badger-logistics", "falcon-logistics"}, cfg.Router().Sites)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	t.Setenv(LegacyMatchThresholdEnv, "0.8")
	t.Setenv(LegacyNoMatchThresholdEnv, "0.1")
	t.Setenv(LegacyDisableModelsEnv, "true")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.InDelta(t, 0.8, cfg.Matching.MatchThreshold, 1e-9)
	assert.InDelta(t, 0.1, cfg.Matching.NoMatchThreshold, 1e-9)
	assert.True(t, cfg.Router().Disabled)
}

func TestLoad_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv(LegacyMatchThresholdEnv, "0.8")
	t.Setenv("DOCMATCH_MATCHING_MATCH_THRESHOLD", "0.6")
	t.Setenv("DOCMATCH_MATCHING_WORKERS", "8")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.InDelta(t, 0.6, cfg.Matching.MatchThreshold, 1e-9)
	assert.Equal(t, 8, cfg.Engine().Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "match threshold above one", modify: func(c *Config) { c.Matching.MatchThreshold = 1.1 }, wantErr: true},
		{name: "thresholds inverted", modify: func(c *Config) {
			c.Matching.MatchThreshold = 0.2
			c.Matching.NoMatchThreshold = 0.5
		}, wantErr: true},
		{name: "equal thresholds", modify: func(c *Config) {
			c.Matching.MatchThreshold = 0.4
			c.Matching.NoMatchThreshold = 0.4
		}},
		{name: "negative pair score", modify: func(c *Config) { c.Matching.MinPairScore = -0.1 }, wantErr: true},
		{name: "zero workers", modify: func(c *Config) { c.Matching.Workers = 0 }, wantErr: true},
		{name: "unknown code style", modify: func(c *Config) { c.Matching.CodeStyle = "camel" }, wantErr: true},
		{name: "zero attempts", modify: func(c *Config) { c.Scorer.MaxAttempts = 0 }, wantErr: true},
		{name: "zero rate", modify: func(c *Config) { c.Scorer.RequestsPerSecond = 0 }, wantErr: true},
		{name: "zero burst", modify: func(c *Config) { c.Scorer.Burst = 0 }, wantErr: true},
		{name: "zero failure threshold", modify: func(c *Config) { c.Scorer.FailureThreshold = 0 }, wantErr: true},
		{name: "zero timeout", modify: func(c *Config) { c.Scorer.Timeout = 0 }, wantErr: true},
		{name: "unknown log level", modify: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "unknown log format", modify: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoad_InvalidFailsFast(t *testing.T) {
	t.Setenv(LegacyNoMatchThresholdEnv, "0.9")

	_, err := Load(newViper(t))
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.Matching.Language = "german"
	cfg.Matching.MinPairScore = 0.6

	ec := cfg.Engine()
	assert.Equal(t, "german", ec.Language)
	assert.InDelta(t, 0.6, ec.MinPairScore, 1e-9)
	assert.Equal(t, cfg.Report(), ec.Report)
	assert.Nil(t, ec.IDs)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("DOCMATCH_TEST_DIR", "/srv/docs")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty", path: "", want: ""},
		{name: "tilde", path: "~", want: home},
		{name: "tilde prefix", path: "~/config.yaml", want: filepath.Join(home, "config.yaml")},
		{name: "environment", path: "$DOCMATCH_TEST_DIR/a.json", want: "/srv/docs/a.json"},
		{name: "plain", path: "/etc/docmatch.yaml", want: "/etc/docmatch.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.path))
		})
	}
	assert.False(t, strings.HasPrefix(ExpandPath("~/x"), "~"))
}

func TestSearchPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	userDir := filepath.Join(home, ".config", AppName)

	t.Setenv("XDG_CONFIG_HOME", "")
	paths, err := SearchPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{userDir, "."}, paths)

	t.Setenv("XDG_CONFIG_HOME", "/srv/xdg")
	paths, err = SearchPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/xdg/docmatch", userDir, "."}, paths)
}
