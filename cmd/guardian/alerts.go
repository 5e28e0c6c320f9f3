package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zenzone/guardian/internal/storage"
	"github.com/zenzone/guardian/internal/types"
)

var (
	alertsLimit   int
	alertsHistory bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate alerts now, or show the persisted history",
	Long: `Sample the host and run one alert evaluation pass (threshold breaches,
anomalies, risky trends). With --history, show the persisted alert log
from previous runs instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if alertsHistory {
			showAlertHistory(ctx)
			return
		}

		sched, _, err := newScheduler(false, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := sched.Prime(ctx, cfg.MinSamples); err != nil {
			fmt.Fprintf(os.Stderr, "Error: sampling failed: %v\n", err)
			os.Exit(1)
		}
		sched.EvaluateAlerts(ctx)

		snap := sched.Snapshot()
		if len(snap.Alerts) == 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray("No active alerts"))
			return
		}
		for _, a := range snap.Alerts {
			printAlert(a)
		}
	},
}

func showAlertHistory(ctx context.Context) {
	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	alerts, err := store.RecentAlerts(ctx, alertsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(alerts) == 0 {
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%s\n", gray("No alerts recorded"))
		return
	}
	for _, a := range alerts {
		printAlert(a)
	}
}

func printAlert(a types.Alert) {
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	level := cyan("INFO")
	switch a.Level {
	case types.AlertWarning:
		level = yellow("WARN")
	case types.AlertCritical:
		level = red("CRIT")
	}
	fmt.Printf("%s  %s  %s\n", a.Timestamp.Format("2006-01-02 15:04:05"), level, a.Message)
	if len(a.Details) > 0 {
		pairs := make([]string, 0, len(a.Details))
		for k, v := range a.Details {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
		}
		fmt.Printf("    %s\n", gray(strings.Join(pairs, " ")))
	}
}

func init() {
	alertsCmd.Flags().IntVar(&alertsLimit, "limit", 20, "maximum history alerts to show")
	alertsCmd.Flags().BoolVar(&alertsHistory, "history", false, "show the persisted alert log")
	rootCmd.AddCommand(alertsCmd)
}
