package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/clickwatch/internal/config"
)

var flagTestDuration time.Duration

// testFreezeCmd validates freeze detection with the short profile
var testFreezeCmd = &cobra.Command{
	Use:   "test-freeze",
	Short: "Validate freeze detection with the short profile",
	Long: `Runs the watcher with the short freeze profile (10s check interval,
10s threshold, 30s cooldown) for a bounded duration, so freeze
detection and the recovery chain can be exercised without waiting out
the steady-state timings. Combine with --dry-run to observe without
sending any input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := string(config.FreezeProfileShort)
		cfg, err := buildConfig(profile)
		if err != nil {
			return err
		}
		return runFreezeTest(cfg)
	},
}

func init() {
	testFreezeCmd.Flags().DurationVar(&flagTestDuration, "duration", 2*time.Minute, "how long to run the test")
}

func runFreezeTest(cfg *config.Config) error {
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

	log.Infof("freeze test: short profile, running for %s", flagTestDuration)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, flagTestDuration)
	defer cancel()

	runErr := eng.Run(ctx)

	for _, ws := range eng.FreezeStates() {
		fmt.Printf("window %s (%s): state=%s unchanged=%s attempts=%d\n",
			ws.WindowID, ws.Title, ws.State, ws.UnchangedFor.Round(time.Second), ws.RecoveryAttempts)
	}
	printSummary(eng.Statistics())
	return runErr
}
