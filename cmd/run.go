package cmd

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/tracktime/internal/config"
	"github.com/ethpandaops/tracktime/internal/format"
	"github.com/ethpandaops/tracktime/pkg/tracker"
)

var (
	runConfigPath string
	runEmitEach   bool
	runUnit       string
	runSort       string
	runLimit      int
	runSinkPath   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured workloads and print a timing summary",
	RunE:  runWorkloads,
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "workloads.yaml", "workload definition file")
	runCmd.Flags().BoolVar(&runEmitEach, "emit-each", false, "emit one log line per completed task block")
	runCmd.Flags().StringVar(&runUnit, "unit", "s", "elapsed time unit (s or ms)")
	runCmd.Flags().StringVar(&runSort, "sort", "total", "summary sort key (total, avg, count, max, min, task)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "limit the summary to the top N tasks (0 = no limit)")
	runCmd.Flags().StringVar(&runSinkPath, "sink", "", "file that receives tracker events only")

	rootCmd.AddCommand(runCmd)
}

func runWorkloads(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	workloads, err := config.LoadWorkloads(runConfigPath)
	if err != nil {
		return err
	}

	// Flags override environment configuration when set explicitly.
	emitEach := cfg.EmitEach
	if cmd.Flags().Changed("emit-each") {
		emitEach = runEmitEach
	}
	unit := cfg.TimeUnit
	if cmd.Flags().Changed("unit") {
		unit = runUnit
	}
	sinkPath := cfg.SinkPath
	if cmd.Flags().Changed("sink") {
		sinkPath = runSinkPath
	}

	tr, err := tracker.New(Logger,
		tracker.WithEmitEach(emitEach),
		tracker.WithTimeUnit(tracker.Unit(unit)),
		tracker.WithSummaryLevel(cfg.SummaryLevel),
	)
	if err != nil {
		return err
	}

	if sinkPath != "" {
		f, err := os.Create(sinkPath)
		if err != nil {
			return fmt.Errorf("opening event sink: %w", err)
		}
		defer f.Close()

		id, err := tr.AddEventSink(f, tracker.WithKinds(tracker.KindEvent))
		if err != nil {
			return err
		}
		defer tr.RemoveEventSink(id)
	}

	blue := color.New(color.FgBlue)
	green := color.New(color.FgGreen)

	blue.Printf("▸ Running %d workloads\n", len(workloads))

	started := time.Now()

	g := new(errgroup.Group)
	for _, w := range workloads {
		g.Go(func() error {
			return runWorkload(tr, w)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	green.Printf("✓ Workloads finished in %s\n\n", format.Duration(time.Since(started)))

	opts := []tracker.SummaryOption{tracker.WithSortBy(tracker.SortKey(runSort))}
	if cmd.Flags().Changed("limit") {
		opts = append(opts, tracker.WithLimit(runLimit))
	}

	_, err = tr.Summary(opts...)

	return err
}

// runWorkload executes every iteration of one workload inside a span.
// Injected failures are observed by the span and recorded; they do not
// abort the run.
func runWorkload(tr tracker.Tracker, w config.Workload) error {
	for i := 1; i <= w.Iterations; i++ {
		span, err := startSpan(tr, w.Level, w.Name)
		if err != nil {
			return err
		}

		iteration := i
		_ = span.Run(func() error {
			sleep := time.Duration(w.Duration)
			if w.Jitter > 0 {
				sleep += rand.N(time.Duration(w.Jitter))
			}
			time.Sleep(sleep)

			if w.FailEvery > 0 && iteration%w.FailEvery == 0 {
				return fmt.Errorf("injected failure on iteration %d", iteration)
			}

			return nil
		})
	}

	return nil
}

// startSpan maps a workload level name onto the tracker's level methods.
func startSpan(tr tracker.Tracker, level, task string) (*tracker.Span, error) {
	switch level {
	case "trace":
		return tr.Trace(task)
	case "debug":
		return tr.Debug(task)
	case "warning", "warn":
		return tr.Warning(task)
	case "error":
		return tr.Error(task)
	default:
		return tr.Info(task)
	}
}
