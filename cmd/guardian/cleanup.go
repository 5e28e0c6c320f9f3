package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zenzone/guardian/internal/report"
)

var (
	cleanupConfirm bool
	cleanupShowAll bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Scan for reclaimable files and optionally delete them",
	Long: `Scan the configured roots for stale files, print the prioritized plan,
and delete the safe candidates when --confirm is given. Without
--confirm this is a dry run: nothing is touched.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		sched, store, err := newScheduler(true, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		plan, err := sched.DiscoverPlan(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: scan failed: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Cleanup Plan ==="))
		fmt.Printf("Scanned %d entries under %v\n", plan.ScannedEntries, cfg.ScanRoots)
		fmt.Printf("Candidates: %d (%d safe), %s reclaimable\n",
			len(plan.Candidates), plan.SafeCount(), report.HumanBytes(plan.TotalReclaimableBytes))
		if plan.Truncated {
			fmt.Printf("%s plan truncated by configured bounds\n", yellow("⚠"))
		}
		fmt.Println()

		shown := 0
		for _, c := range plan.Candidates {
			if !cleanupShowAll && shown >= 20 {
				fmt.Printf("  %s\n", gray(fmt.Sprintf("... and %d more (use --all)", len(plan.Candidates)-shown)))
				break
			}
			marker := green("✓")
			note := ""
			if !c.Safe {
				marker = red("✗")
				note = gray(" (" + c.RejectReason + ")")
			}
			fmt.Printf("  %s %5.2f  %-8s %9s  %s%s\n",
				marker, c.PriorityScore, c.Category, report.HumanBytes(c.SizeBytes), c.Path, note)
			shown++
		}
		fmt.Println()

		if !cleanupConfirm {
			fmt.Printf("%s dry run: no files deleted (use --confirm)\n", yellow("⚠"))
			return
		}
		if plan.SafeCount() == 0 {
			fmt.Println("Nothing safe to delete.")
			return
		}

		result, err := sched.ExecuteCleanup(ctx, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s deleted %d files, reclaimed %s (%d skipped, %d failed)\n",
			green("✓"), result.Deleted, report.HumanBytes(result.BytesReclaimed),
			result.SafetySkipped, result.Failures)
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupConfirm, "confirm", false, "actually delete the safe candidates")
	cleanupCmd.Flags().BoolVar(&cleanupShowAll, "all", false, "show every candidate, not just the top 20")
	rootCmd.AddCommand(cleanupCmd)
}
