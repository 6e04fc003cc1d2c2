package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jeff-Souza/malloc/internal/trace"
	"github.com/Jeff-Souza/malloc/pkg/malloc"
)

var (
	runHeapFile string
	runMaxHeap  int
	runChunk    int
	runCheck    bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runHeapFile, "heap-file", "", "Back the heap with this file (single trace only)")
	cmd.Flags().IntVar(&runMaxHeap, "max-heap", 0, "Heap reservation in bytes (default 20MB)")
	cmd.Flags().IntVar(&runChunk, "chunk", 0, "Minimum heap growth in bytes (default 4096)")
	cmd.Flags().BoolVar(&runCheck, "check", false, "Check heap consistency after every operation")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>...",
		Short: "Replay allocation traces",
		Long: `The run command replays one or more allocation traces against a fresh
heap each, verifying every block the allocator returns, and reports space
utilization and throughput.

Example:
  mallocctl run traces/*.rep
  mallocctl run short1.rep --check
  mallocctl run big.rep --heap-file big.heap --max-heap 104857600
  mallocctl run traces/*.rep --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	return cmd
}

// RunResult is one trace's outcome.
type RunResult struct {
	Trace       string  `json:"trace"`
	Ops         int     `json:"ops"`
	PeakPayload int     `json:"peak_payload"`
	HeapBytes   int     `json:"heap_bytes"`
	Utilization float64 `json:"utilization"`
	Seconds     float64 `json:"seconds"`
	OpsPerSec   float64 `json:"ops_per_sec"`
	Error       string  `json:"error,omitempty"`
}

func runRun(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if runHeapFile != "" && len(args) > 1 {
		return fmt.Errorf("--heap-file takes a single trace, got %d", len(args))
	}

	opts := &malloc.Options{MaxHeap: runMaxHeap, ChunkSize: runChunk}
	results := make([]RunResult, 0, len(args))
	var failed int

	for _, path := range args {
		printVerbose("Replaying %s\n", path)
		res, err := replayOne(ctx, path, opts)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			failed++
			res = RunResult{Trace: path, Error: err.Error()}
		}
		results = append(results, res)
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		printRunTable(results)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d traces failed", failed, len(args))
	}
	return nil
}

func replayOne(ctx context.Context, path string, opts *malloc.Options) (RunResult, error) {
	tr, err := trace.ParseFile(path)
	if err != nil {
		return RunResult{}, err
	}

	var h *malloc.Heap
	if runHeapFile != "" {
		h, err = malloc.CreateFile(runHeapFile, opts)
		if err != nil {
			return RunResult{}, err
		}
	} else {
		h = malloc.New(opts)
	}
	defer h.Close()

	res, err := trace.Replay(ctx, tr, h, &trace.ReplayOptions{Check: runCheck})
	if err != nil {
		return RunResult{}, err
	}
	if err := h.Check(); err != nil {
		return RunResult{}, fmt.Errorf("heap inconsistent after replay: %w", err)
	}
	if err := h.Sync(ctx); err != nil {
		return RunResult{}, fmt.Errorf("sync %s: %w", runHeapFile, err)
	}

	st := h.Stats()
	printVerbose("  %d grows, %d splits, coalesce none/next/prev/both %d/%d/%d/%d\n",
		st.GrowCalls, st.SplitCount, st.CoalesceNone, st.CoalesceNext, st.CoalescePrev, st.CoalesceBoth)

	return RunResult{
		Trace:       tr.Name,
		Ops:         res.Ops,
		PeakPayload: res.PeakPayload,
		HeapBytes:   res.HeapBytes,
		Utilization: res.Utilization(),
		Seconds:     res.Elapsed.Seconds(),
		OpsPerSec:   res.OpsPerSec(),
	}, nil
}

func printRunTable(results []RunResult) {
	printInfo("%-20s %10s %12s %12s %6s %14s\n", "trace", "ops", "peak", "heap", "util", "ops/sec")

	var (
		totalOps  int
		totalSecs float64
		utilSum   float64
		ok        int
	)
	for _, r := range results {
		if r.Error != "" {
			printInfo("%-20s  FAILED: %s\n", r.Trace, r.Error)
			continue
		}
		printInfo("%-20s %10s %12s %12s %5.1f%% %14s\n",
			r.Trace,
			formatNumber(int64(r.Ops)),
			formatNumber(int64(r.PeakPayload)),
			formatNumber(int64(r.HeapBytes)),
			r.Utilization*100,
			formatNumber(int64(r.OpsPerSec)),
		)
		totalOps += r.Ops
		totalSecs += r.Seconds
		utilSum += r.Utilization
		ok++
	}

	if ok > 1 {
		throughput := 0.0
		if totalSecs > 0 {
			throughput = float64(totalOps) / totalSecs
		}
		printInfo("%-20s %10s %12s %12s %5.1f%% %14s\n", "total",
			formatNumber(int64(totalOps)), "", "", utilSum/float64(ok)*100, formatNumber(int64(throughput)))
	}
	if ok > 0 {
		printVerbose("Elapsed: %s\n", time.Duration(totalSecs*float64(time.Second)))
	}
}
