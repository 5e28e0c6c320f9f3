package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zenzone/guardian/internal/web"
)

var (
	runListen string
	runDemo   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the monitoring loop",
	Long: `Run the cooperative scheduler loop: sampling, analysis, alerting,
cleanup scanning, optimization, and periodic reports, all on one
goroutine. Stops on SIGINT/SIGTERM, writing a final report first.

With --listen, a JSON snapshot endpoint and Prometheus metrics are
served alongside the loop.`,
	Run: func(cmd *cobra.Command, args []string) {
		if runDemo {
			cfg.MonitorIntervalSeconds = 0.25
			cfg.AutoCleanup = false
			if cfg.DemoCycleLimit == 0 {
				cfg.DemoCycleLimit = 30
			}
		}

		sched, store, err := newScheduler(true, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if store != nil {
				store.Close()
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s guardian started (monitor interval %s)\n", green("✓"), cfg.MonitorInterval())
		if runDemo {
			fmt.Printf("  demo mode: stopping after %d cycles\n", cfg.DemoCycleLimit)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer stop()
			return sched.Run(gctx)
		})
		if runListen != "" {
			srv := web.NewServer(sched)
			fmt.Printf("  serving /snapshot and /metrics on %s\n", runListen)
			g.Go(func() error {
				return srv.Run(gctx, runListen)
			})
		}

		if err := g.Wait(); err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s guardian stopped after %d cycles\n", green("✓"), sched.Cycle())
	},
}

func init() {
	runCmd.Flags().StringVar(&runListen, "listen", "", "address for the HTTP surface (e.g. :8080)")
	runCmd.Flags().BoolVar(&runDemo, "demo", false, "fast cycles, no deletion, automatic stop")
	rootCmd.AddCommand(runCmd)
}
