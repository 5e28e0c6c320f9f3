package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zenzone/guardian/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run the loop with an interactive console",
	Long: `Start the monitoring loop and attach an interactive console to it.
Commands: status, report, alerts, cleanup, optimize, quit.`,
	Run: func(cmd *cobra.Command, args []string) {
		sched, store, err := newScheduler(true, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		sh, err := shell.New(sched)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create shell: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return sched.Run(gctx)
		})
		g.Go(func() error {
			defer cancel()
			return sh.Run(gctx)
		})

		if err := g.Wait(); err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
