package main

import (
	"context"
	"log"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"jordanella.com/clickwatch/internal/config"
	"jordanella.com/clickwatch/internal/engine"
	"jordanella.com/clickwatch/internal/events"
	"jordanella.com/clickwatch/internal/gui"
	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
	"jordanella.com/clickwatch/internal/vision"
	"jordanella.com/clickwatch/pkg/templates"
)

func main() {
	myApp := app.NewWithID("com.jordanella.clickwatch")
	myApp.Settings().SetTheme(&gui.WatchTheme{})

	mainWindow := myApp.NewWindow("Continue Watcher")
	mainWindow.Resize(gui.DefaultWindowSize)

	cfg, err := config.LoadFromINI("clickwatch.ini")
	if err != nil {
		log.Printf("Warning: failed to load config: %v", err)
		cfg = config.NewDefaultConfig()
	}

	logger := logging.NewLogger("clickwatch").
		SetMinLevel(logging.ParseLevel(cfg.Logging.Level)).
		AddOutput(os.Stderr)

	backend, err := platform.Select(platform.DefaultBackends()...)
	if err != nil {
		log.Fatalf("no platform backend available: %v", err)
	}

	registry := templates.NewRegistry(cfg.Detection.TemplateDir)
	if err := registry.ScanDirectory(); err != nil {
		logger.Warnf("template scan failed: %v", err)
	}

	visionLog := logger.Named("vision")
	strategies := vision.ActiveStrategies(visionLog, cfg.Detection.StrategyEnabled,
		vision.NewTextStrategy(cfg.Detection.CompileLabelPatterns(), cfg.Detection.PaddingPixels, visionLog),
		vision.NewTemplateStrategy(registry, cfg.Detection.TemplateThreshold, visionLog),
		vision.NewColorStrategy(nil, visionLog),
	)
	if len(strategies) == 0 {
		log.Fatal("no detection strategy available")
	}

	bus := events.NewEventBus(64, logger.Named("events"))

	eng, err := engine.New(cfg, backend, strategies, logger.Named("engine"))
	if err != nil {
		log.Fatalf("engine setup failed: %v", err)
	}
	eng.WithEventBus(bus)
	if cfg.Safety.PauseOnUserActivity {
		eng.WithActivityWatcher(engine.NewActivityWatcher(backend, cfg.Safety.UserActivityTimeout(), logger.Named("safety")))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := eng.Run(ctx); err != nil {
			logger.Error("engine stopped", err)
		}
	}()

	dashboard := gui.NewDashboard(eng, bus)
	mainWindow.SetContent(dashboard.Build())
	mainWindow.SetMaster()

	if key := cfg.Safety.EmergencyStopKey; key != "" {
		stopKey := fyne.KeyName(strings.ToUpper(key))
		mainWindow.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
			if ev.Name == stopKey {
				logger.Warn("emergency stop key pressed")
				eng.Stop()
				myApp.Quit()
			}
		})
	}

	mainWindow.ShowAndRun()

	dashboard.Shutdown()
	cancel()
	bus.Stop()
}
