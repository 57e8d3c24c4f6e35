package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clickwatch.ini")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromINI(filepath.Join(t.TempDir(), "does-not-exist.ini"))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfigFile(t, "[automation\nintervalSeconds = what")
	_, err := LoadFromINI(path)
	assert.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
[automation]
intervalSeconds = 1.5
dryRun = true
maxClicksPerWindow = 5
windowTitlePattern = Code - OSS

[detection]
confidenceThreshold = 0.8
enabledStrategies = text, color
labelPatterns = resume, keep going

[filtering]
minWindowWidth = 640
titleExcludePatterns = settings, devtools
requireChatIndicator = true

[storage]
enabled = true
databasePath = /tmp/watch.db
`)

	cfg, err := LoadFromINI(path)
	require.NoError(t, err)

	assert.Equal(t, 1.5, cfg.Automation.IntervalSeconds)
	assert.True(t, cfg.Automation.DryRun)
	assert.Equal(t, 5, cfg.Automation.MaxClicksPerWindow)
	assert.Equal(t, "Code - OSS", cfg.Automation.WindowTitlePattern)

	assert.Equal(t, 0.8, cfg.Detection.ConfidenceThreshold)
	assert.Equal(t, []string{"text", "color"}, cfg.Detection.EnabledStrategies)
	assert.Equal(t, []string{"resume", "keep going"}, cfg.Detection.LabelPatterns)

	assert.Equal(t, 640, cfg.Filtering.MinWindowWidth)
	assert.Equal(t, []string{"settings", "devtools"}, cfg.Filtering.TitleExcludePatterns)
	assert.True(t, cfg.Filtering.RequireChatIndicator)

	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "/tmp/watch.db", cfg.Storage.DatabasePath)

	// Sections the file never mentions keep their defaults
	assert.Equal(t, NewDefaultConfig().Safety, cfg.Safety)
}

func TestLoadProfileSetsFreezeDurations(t *testing.T) {
	path := writeConfigFile(t, `
[freeze]
profile = short
`)

	cfg, err := LoadFromINI(path)
	require.NoError(t, err)

	assert.Equal(t, FreezeProfileShort, cfg.Freeze.Profile)
	assert.Equal(t, 10.0, cfg.Freeze.CheckIntervalSeconds)
	assert.Equal(t, 10.0, cfg.Freeze.ThresholdSeconds)
	assert.Equal(t, 30.0, cfg.Freeze.RecoveryCooldownSeconds)
}

func TestLoadExplicitKeysOverrideProfile(t *testing.T) {
	path := writeConfigFile(t, `
[freeze]
profile = short
thresholdSeconds = 45
recoveryMethods = submit, shortcut
`)

	cfg, err := LoadFromINI(path)
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Freeze.CheckIntervalSeconds, "unset keys come from the profile")
	assert.Equal(t, 45.0, cfg.Freeze.ThresholdSeconds, "explicit keys win over the profile")
	assert.Equal(t, []string{"submit", "shortcut"}, cfg.Freeze.RecoveryMethods)
}

func TestOverridesApply(t *testing.T) {
	cfg := NewDefaultConfig()

	dryRun := true
	debug := true
	profile := "short"
	Overrides{DryRun: &dryRun, Debug: &debug, Profile: &profile}.Apply(cfg)

	assert.True(t, cfg.Automation.DryRun)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, FreezeProfileShort, cfg.Freeze.Profile)

	// Nil pointers leave the config alone
	cfg2 := NewDefaultConfig()
	Overrides{}.Apply(cfg2)
	assert.Equal(t, NewDefaultConfig(), cfg2)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ini")

	cfg := NewDefaultConfig()
	cfg.Automation.IntervalSeconds = 3.25
	cfg.Detection.EnabledStrategies = []string{StrategyText}
	cfg.Filtering.TitleExcludePatterns = []string{"devtools"}

	require.NoError(t, SaveToINI(cfg, path))

	loaded, err := LoadFromINI(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewDefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Automation.IntervalSeconds = 0 }},
		{"negative click limit", func(c *Config) { c.Automation.MaxClicksPerWindow = -1 }},
		{"confidence above one", func(c *Config) { c.Detection.ConfidenceThreshold = 1.5 }},
		{"zero overlap", func(c *Config) { c.Detection.OverlapThreshold = 0 }},
		{"zero freeze threshold", func(c *Config) { c.Freeze.ThresholdSeconds = 0 }},
		{"zero freeze interval", func(c *Config) { c.Freeze.CheckIntervalSeconds = 0 }},
		{"no strategies", func(c *Config) { c.Detection.EnabledStrategies = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStrategyEnabled(t *testing.T) {
	d := DetectionConfig{EnabledStrategies: []string{"Text", "color"}}
	assert.True(t, d.StrategyEnabled("text"))
	assert.True(t, d.StrategyEnabled("COLOR"))
	assert.False(t, d.StrategyEnabled("template"))
}

func TestCompileLabelPatternsSkipsInvalid(t *testing.T) {
	d := DetectionConfig{LabelPatterns: []string{`\bcontinue\b`, `([`, `resume`}}
	patterns := d.CompileLabelPatterns()
	require.Len(t, patterns, 2)
	assert.True(t, patterns[0].MatchString("Continue"))
	assert.True(t, patterns[1].MatchString("RESUME"))
}
