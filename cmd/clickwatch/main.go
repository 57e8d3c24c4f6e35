package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagDryRun bool
	flagDebug  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "clickwatch",
	Short: "Watches editor windows and dismisses recurring Continue prompts",
	Long: `clickwatch polls the windows of a target desktop application, detects
the recurring "Continue" prompt through OCR, template matching, and
color heuristics, and clicks it automatically. It also watches for
windows whose content has stopped changing and walks an escalating
recovery chain to unstick them.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "clickwatch.ini", "path to the settings file")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "log every action instead of performing it")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "raise log verbosity to debug")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(testFreezeCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
