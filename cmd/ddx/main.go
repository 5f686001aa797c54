// Package main provides the ddx CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/ddx/internal/logging"
)

var (
	version = "0.1.0"
	pretty  = true
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ddx",
		Short: "Live client for multi-agent differential diagnosis runs",
		Long: `ddx streams a diagnosis run from the orchestration backend and
reconstructs the agent conversation and the current differential.

Usage modes:
  ddx run ...        Start a run against the backend
  ddx replay GLOB    Rebuild recorded feeds offline
  ddx classify       Show how feed lines are classified (reads stdin)`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				pretty = false
			}
			if !pretty {
				color.NoColor = true
			}
			if verbose {
				logging.SetLevel(logging.LevelDebug)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Emit debug logs to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "session", Title: "Sessions:"},
		&cobra.Group{ID: "debug", Title: "Debugging:"},
	)

	run := runCmd()
	run.GroupID = "session"
	rootCmd.AddCommand(run)

	replay := replayCmd()
	replay.GroupID = "session"
	rootCmd.AddCommand(replay)

	classify := classifyCmd()
	classify.GroupID = "debug"
	rootCmd.AddCommand(classify)

	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitFailure)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show ddx version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ddx version %s\n", version)
		},
	}
}
