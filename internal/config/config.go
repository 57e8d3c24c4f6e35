package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FreezeProfile selects a named pair of freeze-detection durations
type FreezeProfile string

const (
	// FreezeProfileShort is meant for validation runs: 10s interval, 10s threshold
	FreezeProfileShort FreezeProfile = "short"
	// FreezeProfileLong is the steady-state profile: 180s interval, 180s threshold
	FreezeProfileLong FreezeProfile = "long"
)

// Strategy identifiers accepted in detection.enabledStrategies
const (
	StrategyText     = "text"
	StrategyTemplate = "template"
	StrategyColor    = "color"
)

// AutomationConfig drives the main polling loop
type AutomationConfig struct {
	IntervalSeconds    float64
	DryRun             bool
	MaxClicksPerWindow int
	ClickDelaySeconds  float64
	RestorePointer     bool
	WindowTitlePattern string
}

// Interval returns the poll period as a duration
func (a AutomationConfig) Interval() time.Duration {
	return time.Duration(a.IntervalSeconds * float64(time.Second))
}

// ClickDelay returns the delay between clicks in one cycle
func (a AutomationConfig) ClickDelay() time.Duration {
	return time.Duration(a.ClickDelaySeconds * float64(time.Second))
}

// DetectionConfig drives the strategy pipeline and merger
type DetectionConfig struct {
	ConfidenceThreshold float64
	LabelPatterns       []string
	EnabledStrategies   []string
	TemplateDir         string
	TemplateThreshold   float64
	OverlapThreshold    float64
	PaddingPixels       int
}

// StrategyEnabled reports whether a strategy name was requested
func (d DetectionConfig) StrategyEnabled(name string) bool {
	for _, s := range d.EnabledStrategies {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// CompileLabelPatterns compiles the configured label patterns
// case-insensitively, skipping any that fail to compile
func (d DetectionConfig) CompileLabelPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(d.LabelPatterns))
	for _, p := range d.LabelPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		patterns = append(patterns, re)
	}
	return patterns
}

// FreezeConfig drives the freeze tracker and recovery escalator
type FreezeConfig struct {
	Profile                 FreezeProfile
	CheckIntervalSeconds    float64
	ThresholdSeconds        float64
	RecoveryCooldownSeconds float64
	RecoveryMethods         []string
}

// CheckInterval returns the freeze check period
func (f FreezeConfig) CheckInterval() time.Duration {
	return time.Duration(f.CheckIntervalSeconds * float64(time.Second))
}

// Threshold returns the unchanged duration after which a window is frozen
func (f FreezeConfig) Threshold() time.Duration {
	return time.Duration(f.ThresholdSeconds * float64(time.Second))
}

// RecoveryCooldown returns the minimum spacing between recovery attempts
func (f FreezeConfig) RecoveryCooldown() time.Duration {
	return time.Duration(f.RecoveryCooldownSeconds * float64(time.Second))
}

// SafetyConfig drives the user-activity interlock
type SafetyConfig struct {
	PauseOnUserActivity        bool
	UserActivityTimeoutSeconds float64
	EmergencyStopKey           string
}

// UserActivityTimeout returns how long after human input clicking stays paused
func (s SafetyConfig) UserActivityTimeout() time.Duration {
	return time.Duration(s.UserActivityTimeoutSeconds * float64(time.Second))
}

// FilteringConfig restricts which enumerated windows are processed
type FilteringConfig struct {
	MinWindowWidth       int
	MinWindowHeight      int
	TitleExcludePatterns []string
	RequireChatIndicator bool
}

// LoggingConfig configures the log sinks
type LoggingConfig struct {
	Level      string
	FilePath   string
	MaxBytes   int64
	MaxBackups int
}

// StorageConfig configures the optional run-summary database
type StorageConfig struct {
	Enabled      bool
	DatabasePath string
}

// Config is the process-wide configuration snapshot. It is built once at
// startup and treated as immutable by every consumer.
type Config struct {
	Automation AutomationConfig
	Detection  DetectionConfig
	Freeze     FreezeConfig
	Safety     SafetyConfig
	Filtering  FilteringConfig
	Logging    LoggingConfig
	Storage    StorageConfig
}

// NewDefaultConfig creates a config with built-in defaults
func NewDefaultConfig() *Config {
	return &Config{
		Automation: AutomationConfig{
			IntervalSeconds:    2.0,
			DryRun:             false,
			MaxClicksPerWindow: 3,
			ClickDelaySeconds:  0.5,
			RestorePointer:     true,
			WindowTitlePattern: "Visual Studio Code",
		},
		Detection: DetectionConfig{
			ConfidenceThreshold: 0.5,
			LabelPatterns: []string{
				`\bcontinue\b`,
				`\bcontinue\s*\.\.\.`,
				`\bcontinue\s*response\b`,
				`\bkeep\s*going\b`,
			},
			EnabledStrategies: []string{StrategyText, StrategyTemplate, StrategyColor},
			TemplateDir:       "templates",
			TemplateThreshold: 0.7,
			OverlapThreshold:  0.5,
			PaddingPixels:     10,
		},
		Freeze: FreezeConfig{
			Profile:                 FreezeProfileLong,
			CheckIntervalSeconds:    180,
			ThresholdSeconds:        180,
			RecoveryCooldownSeconds: 300,
			RecoveryMethods: []string{
				"shortcut", "command", "submit", "text",
			},
		},
		Safety: SafetyConfig{
			PauseOnUserActivity:        true,
			UserActivityTimeoutSeconds: 5,
			EmergencyStopKey:           "f12",
		},
		Filtering: FilteringConfig{
			MinWindowWidth:       400,
			MinWindowHeight:      300,
			TitleExcludePatterns: nil,
			RequireChatIndicator: false,
		},
		Logging: LoggingConfig{
			Level:      "INFO",
			FilePath:   "clickwatch.log",
			MaxBytes:   5 << 20,
			MaxBackups: 3,
		},
		Storage: StorageConfig{
			Enabled:      false,
			DatabasePath: "clickwatch.db",
		},
	}
}

// ApplyProfile overwrites the freeze durations with the named profile's
// values. Explicit keys in the config file take precedence; the loader
// calls this before reading them.
func (c *Config) ApplyProfile(profile FreezeProfile) {
	switch profile {
	case FreezeProfileShort:
		c.Freeze.Profile = FreezeProfileShort
		c.Freeze.CheckIntervalSeconds = 10
		c.Freeze.ThresholdSeconds = 10
		c.Freeze.RecoveryCooldownSeconds = 30
	case FreezeProfileLong:
		c.Freeze.Profile = FreezeProfileLong
		c.Freeze.CheckIntervalSeconds = 180
		c.Freeze.ThresholdSeconds = 180
		c.Freeze.RecoveryCooldownSeconds = 300
	}
}

// Validate reports configuration values that cannot be worked around
func (c *Config) Validate() error {
	if c.Automation.IntervalSeconds <= 0 {
		return fmt.Errorf("automation.intervalSeconds must be positive, got %v", c.Automation.IntervalSeconds)
	}
	if c.Automation.MaxClicksPerWindow < 0 {
		return fmt.Errorf("automation.maxClicksPerWindow must not be negative, got %d", c.Automation.MaxClicksPerWindow)
	}
	if c.Detection.ConfidenceThreshold < 0 || c.Detection.ConfidenceThreshold > 1 {
		return fmt.Errorf("detection.confidenceThreshold must be in [0,1], got %v", c.Detection.ConfidenceThreshold)
	}
	if c.Detection.OverlapThreshold <= 0 || c.Detection.OverlapThreshold > 1 {
		return fmt.Errorf("detection.overlapThreshold must be in (0,1], got %v", c.Detection.OverlapThreshold)
	}
	if c.Freeze.ThresholdSeconds <= 0 {
		return fmt.Errorf("freeze.thresholdSeconds must be positive, got %v", c.Freeze.ThresholdSeconds)
	}
	if c.Freeze.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("freeze.checkIntervalSeconds must be positive, got %v", c.Freeze.CheckIntervalSeconds)
	}
	if len(c.Detection.EnabledStrategies) == 0 {
		return fmt.Errorf("detection.enabledStrategies must name at least one strategy")
	}
	return nil
}
