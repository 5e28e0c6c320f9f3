package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zenzone/guardian/internal/report"
)

var reportStdout bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a system report",
	Long: `Sample the host, scan for cleanup candidates, and write a full text
report to the report directory (or stdout with --stdout).`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sched, store, err := newScheduler(true, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		if _, err := sched.DiscoverPlan(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cleanup scan failed: %v\n", err)
			os.Exit(1)
		}
		if err := sched.Prime(ctx, cfg.MinSamples); err != nil {
			fmt.Fprintf(os.Stderr, "Error: sampling failed: %v\n", err)
			os.Exit(1)
		}
		snap := sched.Snapshot()

		if reportStdout {
			fmt.Print(report.Render(snap))
			return
		}

		writer := report.NewWriter(cfg.ReportDir)
		path, err := writer.Write(snap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s report written to %s\n", green("✓"), path)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportStdout, "stdout", false, "print the report instead of writing a file")
	rootCmd.AddCommand(reportCmd)
}
