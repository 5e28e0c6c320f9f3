package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Score optimization opportunities",
	Long:  `Sample the host, scan for reclaimable files, and list concrete suggestions.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sched, _, err := newScheduler(false, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if _, err := sched.DiscoverPlan(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: scan failed: %v\n", err)
			os.Exit(1)
		}
		if err := sched.Prime(ctx, cfg.MinSamples); err != nil {
			fmt.Fprintf(os.Stderr, "Error: sampling failed: %v\n", err)
			os.Exit(1)
		}
		snap := sched.Snapshot()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Optimization ==="))
		fmt.Printf("Score: %.1f/100\n\n", snap.OptimizationScore)
		if len(snap.Optimizations) == 0 {
			fmt.Printf("%s nothing to do; system looks healthy\n", green("✓"))
			return
		}
		for _, opt := range snap.Optimizations {
			fmt.Printf("  - %s\n", opt)
		}
	},
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}
