// Package shell is the interactive console over a running scheduler.
package shell

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/zenzone/guardian/internal/report"
	"github.com/zenzone/guardian/internal/scheduler"
	"github.com/zenzone/guardian/internal/types"
)

// Shell reads commands from the terminal and drives the scheduler.
type Shell struct {
	sched    *scheduler.Scheduler
	rl       *readline.Instance
	ctx      context.Context
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command.
type CommandHandler func(args []string) error

// New creates a shell over a scheduler.
func New(sched *scheduler.Scheduler) (*Shell, error) {
	if sched == nil {
		return nil, fmt.Errorf("scheduler is required")
	}

	s := &Shell{
		sched:    sched,
		commands: make(map[string]CommandHandler),
	}
	s.registerCommands()
	return s, nil
}

func (s *Shell) registerCommands() {
	s.commands["status"] = s.cmdStatus
	s.commands["report"] = s.cmdReport
	s.commands["alerts"] = s.cmdAlerts
	s.commands["cleanup"] = s.cmdCleanup
	s.commands["optimize"] = s.cmdOptimize
	s.commands["help"] = s.cmdHelp
	s.commands["quit"] = s.cmdQuit
	s.commands["exit"] = s.cmdQuit
}

// Run starts the input loop. It returns when the user quits or the
// context is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	s.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("guardian> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	s.rl = rl

	s.printWelcome()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				s.sched.Quit()
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := s.Dispatch(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s %v\n", red("Error:"), err)
		}
	}
}

// Dispatch runs one command line.
func (s *Shell) Dispatch(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	handler, ok := s.commands[strings.ToLower(parts[0])]
	if !ok {
		return fmt.Errorf("unknown command %q (try 'help')", parts[0])
	}
	return handler(parts[1:])
}

func (s *Shell) printWelcome() {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s\n", bold("Guardian interactive console"))
	fmt.Println("Type 'help' for commands, 'quit' to stop.")
	fmt.Println()
}

func (s *Shell) cmdStatus(args []string) error {
	snap := s.sched.Snapshot()

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	icon := green("✓")
	switch {
	case snap.Health.Value < 50:
		icon = red("✗")
	case snap.Health.Value < 80:
		icon = yellow("⚠")
	}
	fmt.Printf("%s Health: %.1f/100  (cycle %d)\n", icon, snap.Health.Value, snap.Cycle)
	if snap.Latest != nil {
		fmt.Printf("  CPU %.1f%%  Memory %.1f%%  Disk %.1f%%\n",
			snap.Latest.CPUPercent, snap.Latest.MemoryPercent, snap.Latest.DiskPercent)
	}
	fmt.Printf("  Anomalies: %d\n", len(snap.Anomalies))
	for _, t := range snap.Trends {
		if t.Status == types.TrendOK {
			fmt.Printf("  %s trend: %+.2f%%/hr\n", t.Metric, t.Slope*3600)
		}
	}
	return nil
}

func (s *Shell) cmdReport(args []string) error {
	fmt.Print(report.Render(s.sched.Snapshot()))
	return nil
}

func (s *Shell) cmdAlerts(args []string) error {
	snap := s.sched.Snapshot()
	if len(snap.Alerts) == 0 {
		fmt.Println("No recent alerts.")
		return nil
	}
	for _, a := range snap.Alerts {
		fmt.Printf("[%s] %s %s\n", strings.ToUpper(string(a.Level)),
			a.Timestamp.Format("15:04:05"), a.Message)
	}
	return nil
}

func (s *Shell) cmdCleanup(args []string) error {
	confirmed := len(args) > 0 && args[0] == "confirm"

	plan, err := s.sched.DiscoverPlan(s.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Scanned %d entries: %d candidates (%d safe), %s reclaimable\n",
		plan.ScannedEntries, len(plan.Candidates), plan.SafeCount(),
		report.HumanBytes(plan.TotalReclaimableBytes))

	if !confirmed {
		fmt.Println("Dry run. Use 'cleanup confirm' to delete.")
		return nil
	}
	result, err := s.sched.ExecuteCleanup(s.ctx, true)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d files, reclaimed %s (%d skipped, %d failed)\n",
		result.Deleted, report.HumanBytes(result.BytesReclaimed),
		result.SafetySkipped, result.Failures)
	return nil
}

func (s *Shell) cmdOptimize(args []string) error {
	snap := s.sched.Snapshot()
	fmt.Printf("Optimization score: %.1f/100\n", snap.OptimizationScore)
	if len(snap.Optimizations) == 0 {
		fmt.Println("No suggestions; system looks healthy.")
		return nil
	}
	for _, opt := range snap.Optimizations {
		fmt.Printf("  - %s\n", opt)
	}
	return nil
}

func (s *Shell) cmdHelp(args []string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Commands:", strings.Join(names, ", "))
	return nil
}

func (s *Shell) cmdQuit(args []string) error {
	fmt.Println("Stopping guardian...")
	s.sched.Quit()
	return io.EOF
}
