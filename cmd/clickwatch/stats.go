package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/clickwatch/internal/database"
)

var flagStatsLimit int

// statsCmd prints summaries of past runs from the run store
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show summaries of past runs",
	Long: `Reads the run store and prints one line per past run plus a
breakdown of which recovery methods have fired. Requires
storage.enabled in the settings file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig("")
		if err != nil {
			return err
		}
		if !cfg.Storage.Enabled {
			return fmt.Errorf("storage is disabled; enable [storage] in %s to record runs", flagConfig)
		}
		if _, err := os.Stat(cfg.Storage.DatabasePath); os.IsNotExist(err) {
			return fmt.Errorf("no run store at %s yet", cfg.Storage.DatabasePath)
		}

		db, err := database.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.GetRecentRuns(flagStatsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}

		for _, r := range runs {
			finished := "running"
			if r.FinishedAt.Valid {
				finished = r.FinishedAt.Time.Sub(r.StartedAt).Round(time.Second).String()
			}
			mode := ""
			if r.DryRun {
				mode = " (dry-run)"
			}
			fmt.Printf("run %d  %s  %s profile, %s%s\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Profile, finished, mode)
			fmt.Printf("  cycles=%d windows=%d candidates=%d clicks=%d/%d freezes=%d recoveries=%d errors=%d\n",
				r.Cycles, r.WindowsProcessed, r.CandidatesFound,
				r.ClicksSucceeded, r.ClicksAttempted,
				r.FreezesDetected, r.RecoveriesTriggered, r.Errors)
		}

		breakdown, err := db.GetMethodBreakdown()
		if err != nil {
			return err
		}
		if len(breakdown) > 0 {
			fmt.Println("recovery methods fired:")
			for method, count := range breakdown {
				fmt.Printf("  %-10s %d\n", method, count)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&flagStatsLimit, "limit", 10, "number of runs to show")
}
