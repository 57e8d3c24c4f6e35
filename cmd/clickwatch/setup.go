package main

import (
	"fmt"
	"os"
	"path/filepath"

	"jordanella.com/clickwatch/internal/config"
	"jordanella.com/clickwatch/internal/engine"
	"jordanella.com/clickwatch/internal/events"
	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
	"jordanella.com/clickwatch/internal/vision"
	"jordanella.com/clickwatch/pkg/templates"
)

// buildConfig loads the settings file and applies flag overrides
func buildConfig(profile string) (*config.Config, error) {
	cfg, err := config.LoadFromINI(flagConfig)
	if err != nil {
		return nil, err
	}

	overrides := config.Overrides{}
	if flagDryRun {
		overrides.DryRun = &flagDryRun
	}
	if flagDebug {
		overrides.Debug = &flagDebug
	}
	if profile != "" {
		overrides.Profile = &profile
	}
	overrides.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLogger creates the root logger with stderr and rotating file
// outputs per the logging config
func buildLogger(cfg *config.Config) (*logging.Logger, func(), error) {
	log := logging.NewLogger("clickwatch").
		SetMinLevel(logging.ParseLevel(cfg.Logging.Level)).
		AddOutput(os.Stderr)

	cleanup := func() {}
	if cfg.Logging.FilePath != "" {
		writer, err := logging.NewRotatingWriter(cfg.Logging.FilePath, cfg.Logging.MaxBytes, cfg.Logging.MaxBackups)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		log.AddOutput(writer)
		cleanup = func() { writer.Close() }
	}
	return log, cleanup, nil
}

// buildStrategies assembles the detection strategy list from config,
// filtered to those whose backends are actually usable
func buildStrategies(cfg *config.Config, log *logging.Logger) []vision.Strategy {
	registry := templates.NewRegistry(cfg.Detection.TemplateDir)
	manifest := filepath.Join(cfg.Detection.TemplateDir, "templates.yaml")
	if _, err := os.Stat(manifest); err == nil {
		if err := registry.LoadManifest(manifest); err != nil {
			log.Warnf("template manifest ignored: %v", err)
		}
	}
	if err := registry.ScanDirectory(); err != nil {
		log.Warnf("template directory scan failed: %v", err)
	}
	if err := registry.Preload(); err != nil {
		log.Warnf("template preload failed: %v", err)
	}

	visionLog := log.Named("vision")
	all := []vision.Strategy{
		vision.NewTextStrategy(cfg.Detection.CompileLabelPatterns(), cfg.Detection.PaddingPixels, visionLog),
		vision.NewTemplateStrategy(registry, cfg.Detection.TemplateThreshold, visionLog),
		vision.NewColorStrategy(nil, visionLog),
	}
	return vision.ActiveStrategies(visionLog, cfg.Detection.StrategyEnabled, all...)
}

// buildEngine wires the full engine: platform backend, strategies,
// event bus, and the optional safety watcher. A missing platform
// backend is a fatal startup error.
func buildEngine(cfg *config.Config, log *logging.Logger) (*engine.Engine, *events.DefaultEventBus, error) {
	backend, err := platform.Select(platform.DefaultBackends()...)
	if err != nil {
		return nil, nil, err
	}
	log.Infof("using platform backend %s", backend.Name())

	strategies := buildStrategies(cfg, log)
	if len(strategies) == 0 {
		return nil, nil, fmt.Errorf("no detection strategy available")
	}

	eng, err := engine.New(cfg, backend, strategies, log.Named("engine"))
	if err != nil {
		return nil, nil, err
	}

	bus := events.NewEventBus(64, log.Named("events"))
	eng.WithEventBus(bus)

	if cfg.Safety.PauseOnUserActivity {
		watcher := engine.NewActivityWatcher(backend, cfg.Safety.UserActivityTimeout(), log.Named("safety"))
		eng.WithActivityWatcher(watcher)
	}
	return eng, bus, nil
}
