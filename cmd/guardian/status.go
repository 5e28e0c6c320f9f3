package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zenzone/guardian/internal/scheduler"
	"github.com/zenzone/guardian/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current health and trends",
	Long:  `Take a burst of samples, score health, and display anomalies and trends.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sched, _, err := newScheduler(false, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := sched.Prime(ctx, cfg.MinSamples); err != nil {
			fmt.Fprintf(os.Stderr, "Error: sampling failed: %v\n", err)
			os.Exit(1)
		}
		snap := sched.Snapshot()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Guardian Status ==="))

		icon := green("✓")
		switch {
		case snap.Health.Value < 50:
			icon = red("✗")
		case snap.Health.Value < 80:
			icon = yellow("⚠")
		}
		fmt.Printf("%s Health Score: %.1f/100\n\n", icon, snap.Health.Value)

		if snap.Latest != nil {
			baselines := make(map[types.Metric]scheduler.Baseline)
			for _, b := range sched.Baselines() {
				baselines[b.Metric] = b
			}
			for _, m := range types.AllMetrics() {
				value := snap.Latest.Value(m)
				th := cfg.MetricThresholds(m)
				level := green("ok")
				if value >= th.Crit {
					level = red("critical")
				} else if value >= th.Warn {
					level = yellow("warn")
				}
				b := baselines[m]
				fmt.Printf("  %-7s %5.1f%%  %s  %s\n", m, value, level,
					gray(fmt.Sprintf("baseline %.1f ±%.1f over %d samples", b.Mean, b.StdDev, b.Samples)))
			}
		}
		fmt.Println()

		if len(snap.Anomalies) == 0 {
			fmt.Printf("  %s\n", gray("No anomalies detected"))
		} else {
			for _, a := range snap.Anomalies {
				fmt.Printf("  %s %s anomaly: %.1f%% (%.1f stddevs from baseline %.1f%%)\n",
					yellow("⚠"), a.Metric, a.Value, a.ZScore, a.Mean)
			}
		}

		for _, t := range snap.Trends {
			if t.Status != types.TrendOK {
				continue
			}
			fmt.Printf("  %s trend: %+.2f%%/hr (forecast %.1f%% in %s)\n",
				t.Metric, t.Slope*3600, t.ForecastValue, t.ForecastHorizon)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
