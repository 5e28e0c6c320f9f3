package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zenzone/guardian/internal/alerts"
	"github.com/zenzone/guardian/internal/config"
	"github.com/zenzone/guardian/internal/metrics"
	"github.com/zenzone/guardian/internal/report"
	"github.com/zenzone/guardian/internal/scheduler"
	"github.com/zenzone/guardian/internal/storage"
)

var (
	cfgPath      string
	useSynthetic bool

	// cfg is the effective configuration, loaded before every command.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Host monitoring and disk reclamation",
	Long: `Guardian watches CPU, memory, and disk pressure, detects statistical
anomalies against rolling baselines, and reclaims disk space from stale
files under configured roots - with a safety chain between discovery
and deletion.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var warnings []string
		cfg, warnings = config.Load(cfgPath)

		yellow := color.New(color.FgYellow).SprintFunc()
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "%s %s\n", yellow("Warning:"), w)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "guardian.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&useSynthetic, "synthetic", false, "use the synthetic sampler instead of host readings")
}

// newSource picks the metric sampler for this invocation.
func newSource() metrics.Source {
	if useSynthetic {
		return metrics.NewSynthetic(time.Now().UnixNano())
	}
	return metrics.NewHost("/")
}

// newScheduler wires a scheduler with the shared dependencies. The
// returned store is nil when persistence is disabled; callers own
// closing it.
func newScheduler(withStore bool, echoAlerts bool) (*scheduler.Scheduler, *storage.Store, error) {
	log := alerts.New(alerts.DefaultCapacity)
	log.SetEcho(echoAlerts)

	var store *storage.Store
	if withStore {
		var err error
		store, err = storage.New(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	sched := scheduler.New(scheduler.Deps{
		Config:  cfg,
		Source:  newSource(),
		Alerts:  log,
		Store:   store,
		Reports: report.NewWriter(cfg.ReportDir),
	})
	return sched, store, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
