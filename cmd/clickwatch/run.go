package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jordanella.com/clickwatch/internal/config"
	"jordanella.com/clickwatch/internal/database"
	"jordanella.com/clickwatch/internal/engine"
)

// runCmd starts the long-lived watching loop
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the watching loop",
	Long: `Runs the polling loop until interrupted: enumerate windows, detect
the prompt, click it, and track freezes. Ctrl-C shuts down cleanly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig("")
		if err != nil {
			return err
		}
		return runWatcher(cfg)
	},
}

// runWatcher wires everything and drives the engine until a signal
// arrives
func runWatcher(cfg *config.Config) error {
	log, closeLog, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	eng, bus, err := buildEngine(cfg, log)
	if err != nil {
		log.Error("startup failed", err)
		return err
	}
	defer bus.Stop()

	var db *database.DB
	var runID int64
	if cfg.Storage.Enabled {
		db, err = database.Open(cfg.Storage.DatabasePath)
		if err != nil {
			log.Error("failed to open run store", err)
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(); err != nil {
			log.Error("failed to migrate run store", err)
			return err
		}
		runID, err = db.StartRun(string(cfg.Freeze.Profile), cfg.Automation.DryRun)
		if err != nil {
			log.Error("failed to record run start", err)
			return err
		}
		eng.WithDatabase(db, runID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := eng.Run(ctx)

	if db != nil {
		if err := db.FinishRun(runID, eng.Totals()); err != nil {
			log.Warnf("failed to record run end: %v", err)
		}
	}

	printSummary(eng.Statistics())
	return runErr
}

// printSummary writes the final counters to stdout
func printSummary(s engine.StatisticsSnapshot) {
	fmt.Printf("cycles:               %d\n", s.Cycles)
	fmt.Printf("windows processed:    %d\n", s.WindowsProcessed)
	fmt.Printf("candidates found:     %d\n", s.CandidatesFound)
	fmt.Printf("clicks attempted:     %d\n", s.ClicksAttempted)
	fmt.Printf("clicks succeeded:     %d\n", s.ClicksSucceeded)
	fmt.Printf("freezes detected:     %d\n", s.FreezesDetected)
	fmt.Printf("recoveries triggered: %d\n", s.RecoveriesTriggered)
	fmt.Printf("errors:               %d\n", s.Errors)
}
