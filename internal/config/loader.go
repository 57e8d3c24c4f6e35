package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// LoadFromINI loads configuration from an INI settings file, merging over
// built-in defaults. A missing file is not an error: the defaults are
// returned unchanged. Unknown keys are ignored.
func LoadFromINI(path string) (*Config, error) {
	config := NewDefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	automation := cfg.Section("automation")
	config.Automation.IntervalSeconds = automation.Key("intervalSeconds").MustFloat64(config.Automation.IntervalSeconds)
	config.Automation.DryRun = automation.Key("dryRun").MustBool(config.Automation.DryRun)
	config.Automation.MaxClicksPerWindow = automation.Key("maxClicksPerWindow").MustInt(config.Automation.MaxClicksPerWindow)
	config.Automation.ClickDelaySeconds = automation.Key("clickDelaySeconds").MustFloat64(config.Automation.ClickDelaySeconds)
	config.Automation.RestorePointer = automation.Key("restorePointer").MustBool(config.Automation.RestorePointer)
	config.Automation.WindowTitlePattern = automation.Key("windowTitlePattern").MustString(config.Automation.WindowTitlePattern)

	detection := cfg.Section("detection")
	config.Detection.ConfidenceThreshold = detection.Key("confidenceThreshold").MustFloat64(config.Detection.ConfidenceThreshold)
	if patterns := splitList(detection.Key("labelPatterns").String()); len(patterns) > 0 {
		config.Detection.LabelPatterns = patterns
	}
	if strategies := splitList(detection.Key("enabledStrategies").String()); len(strategies) > 0 {
		config.Detection.EnabledStrategies = strategies
	}
	config.Detection.TemplateDir = detection.Key("templateDir").MustString(config.Detection.TemplateDir)
	config.Detection.TemplateThreshold = detection.Key("templateThreshold").MustFloat64(config.Detection.TemplateThreshold)
	config.Detection.OverlapThreshold = detection.Key("overlapThreshold").MustFloat64(config.Detection.OverlapThreshold)
	config.Detection.PaddingPixels = detection.Key("paddingPixels").MustInt(config.Detection.PaddingPixels)

	freeze := cfg.Section("freeze")
	// The profile sets all three durations; explicit keys below override it
	profile := FreezeProfile(strings.ToLower(freeze.Key("profile").MustString(string(config.Freeze.Profile))))
	config.ApplyProfile(profile)
	config.Freeze.CheckIntervalSeconds = freeze.Key("checkIntervalSeconds").MustFloat64(config.Freeze.CheckIntervalSeconds)
	config.Freeze.ThresholdSeconds = freeze.Key("thresholdSeconds").MustFloat64(config.Freeze.ThresholdSeconds)
	config.Freeze.RecoveryCooldownSeconds = freeze.Key("recoveryCooldownSeconds").MustFloat64(config.Freeze.RecoveryCooldownSeconds)
	if methods := splitList(freeze.Key("recoveryMethods").String()); len(methods) > 0 {
		config.Freeze.RecoveryMethods = methods
	}

	safety := cfg.Section("safety")
	config.Safety.PauseOnUserActivity = safety.Key("pauseOnUserActivity").MustBool(config.Safety.PauseOnUserActivity)
	config.Safety.UserActivityTimeoutSeconds = safety.Key("userActivityTimeoutSeconds").MustFloat64(config.Safety.UserActivityTimeoutSeconds)
	config.Safety.EmergencyStopKey = safety.Key("emergencyStopKey").MustString(config.Safety.EmergencyStopKey)

	filtering := cfg.Section("filtering")
	config.Filtering.MinWindowWidth = filtering.Key("minWindowWidth").MustInt(config.Filtering.MinWindowWidth)
	config.Filtering.MinWindowHeight = filtering.Key("minWindowHeight").MustInt(config.Filtering.MinWindowHeight)
	if patterns := splitList(filtering.Key("titleExcludePatterns").String()); len(patterns) > 0 {
		config.Filtering.TitleExcludePatterns = patterns
	}
	config.Filtering.RequireChatIndicator = filtering.Key("requireChatIndicator").MustBool(config.Filtering.RequireChatIndicator)

	logging := cfg.Section("logging")
	config.Logging.Level = logging.Key("level").MustString(config.Logging.Level)
	config.Logging.FilePath = logging.Key("filePath").MustString(config.Logging.FilePath)
	config.Logging.MaxBytes = logging.Key("maxBytes").MustInt64(config.Logging.MaxBytes)
	config.Logging.MaxBackups = logging.Key("maxBackups").MustInt(config.Logging.MaxBackups)

	storage := cfg.Section("storage")
	config.Storage.Enabled = storage.Key("enabled").MustBool(config.Storage.Enabled)
	config.Storage.DatabasePath = storage.Key("databasePath").MustString(config.Storage.DatabasePath)

	return config, nil
}

// Overrides carries command-line values that take precedence over the file
type Overrides struct {
	DryRun  *bool
	Debug   *bool
	Profile *string
}

// Apply merges command-line overrides into the config
func (o Overrides) Apply(c *Config) {
	if o.DryRun != nil {
		c.Automation.DryRun = *o.DryRun
	}
	if o.Debug != nil && *o.Debug {
		c.Logging.Level = "DEBUG"
	}
	if o.Profile != nil && *o.Profile != "" {
		c.ApplyProfile(FreezeProfile(strings.ToLower(*o.Profile)))
	}
}

// SaveToINI writes the configuration back to an INI file
func SaveToINI(config *Config, path string) error {
	cfg := ini.Empty()

	automation := cfg.Section("automation")
	automation.Key("intervalSeconds").SetValue(fmt.Sprintf("%g", config.Automation.IntervalSeconds))
	automation.Key("dryRun").SetValue(fmt.Sprintf("%t", config.Automation.DryRun))
	automation.Key("maxClicksPerWindow").SetValue(fmt.Sprintf("%d", config.Automation.MaxClicksPerWindow))
	automation.Key("clickDelaySeconds").SetValue(fmt.Sprintf("%g", config.Automation.ClickDelaySeconds))
	automation.Key("restorePointer").SetValue(fmt.Sprintf("%t", config.Automation.RestorePointer))
	automation.Key("windowTitlePattern").SetValue(config.Automation.WindowTitlePattern)

	detection := cfg.Section("detection")
	detection.Key("confidenceThreshold").SetValue(fmt.Sprintf("%g", config.Detection.ConfidenceThreshold))
	detection.Key("labelPatterns").SetValue(strings.Join(config.Detection.LabelPatterns, ","))
	detection.Key("enabledStrategies").SetValue(strings.Join(config.Detection.EnabledStrategies, ","))
	detection.Key("templateDir").SetValue(config.Detection.TemplateDir)
	detection.Key("templateThreshold").SetValue(fmt.Sprintf("%g", config.Detection.TemplateThreshold))
	detection.Key("overlapThreshold").SetValue(fmt.Sprintf("%g", config.Detection.OverlapThreshold))
	detection.Key("paddingPixels").SetValue(fmt.Sprintf("%d", config.Detection.PaddingPixels))

	freeze := cfg.Section("freeze")
	freeze.Key("profile").SetValue(string(config.Freeze.Profile))
	freeze.Key("checkIntervalSeconds").SetValue(fmt.Sprintf("%g", config.Freeze.CheckIntervalSeconds))
	freeze.Key("thresholdSeconds").SetValue(fmt.Sprintf("%g", config.Freeze.ThresholdSeconds))
	freeze.Key("recoveryCooldownSeconds").SetValue(fmt.Sprintf("%g", config.Freeze.RecoveryCooldownSeconds))
	freeze.Key("recoveryMethods").SetValue(strings.Join(config.Freeze.RecoveryMethods, ","))

	safety := cfg.Section("safety")
	safety.Key("pauseOnUserActivity").SetValue(fmt.Sprintf("%t", config.Safety.PauseOnUserActivity))
	safety.Key("userActivityTimeoutSeconds").SetValue(fmt.Sprintf("%g", config.Safety.UserActivityTimeoutSeconds))
	safety.Key("emergencyStopKey").SetValue(config.Safety.EmergencyStopKey)

	filtering := cfg.Section("filtering")
	filtering.Key("minWindowWidth").SetValue(fmt.Sprintf("%d", config.Filtering.MinWindowWidth))
	filtering.Key("minWindowHeight").SetValue(fmt.Sprintf("%d", config.Filtering.MinWindowHeight))
	filtering.Key("titleExcludePatterns").SetValue(strings.Join(config.Filtering.TitleExcludePatterns, ","))
	filtering.Key("requireChatIndicator").SetValue(fmt.Sprintf("%t", config.Filtering.RequireChatIndicator))

	logging := cfg.Section("logging")
	logging.Key("level").SetValue(config.Logging.Level)
	logging.Key("filePath").SetValue(config.Logging.FilePath)
	logging.Key("maxBytes").SetValue(fmt.Sprintf("%d", config.Logging.MaxBytes))
	logging.Key("maxBackups").SetValue(fmt.Sprintf("%d", config.Logging.MaxBackups))

	storage := cfg.Section("storage")
	storage.Key("enabled").SetValue(fmt.Sprintf("%t", config.Storage.Enabled))
	storage.Key("databasePath").SetValue(config.Storage.DatabasePath)

	return cfg.SaveTo(path)
}

// splitList parses a comma-separated config value into trimmed entries
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
